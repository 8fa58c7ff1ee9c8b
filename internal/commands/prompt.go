package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/diogo/geminitutor/internal/prompt"
)

func newPromptCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "prompt <course-id>",
		Short: "Print the system instruction sent for a course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			courses, err := deps.LoadCourses()
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v (using built-in courses)\n", err)
			}

			course, err := findCourse(courses, args[0])
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), prompt.BuildSystemPrompt(course))
			return nil
		},
	}
}
