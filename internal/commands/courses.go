package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/diogo/geminitutor/internal/config"
	"github.com/diogo/geminitutor/internal/models"
	"github.com/diogo/geminitutor/internal/prompt"
)

func newCoursesCmd(deps *Dependencies) *cobra.Command {
	var export string

	cmd := &cobra.Command{
		Use:   "courses",
		Short: "List available courses",
		Long: `List the built-in courses merged with ~/.geminitutor/courses.toml.

Use --export to write the catalog in courses.toml format, a good starting
point for customizing courses ("-" writes to stdout).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			courses, err := deps.LoadCourses()
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v (using built-in courses)\n", err)
			}

			if export != "" {
				return exportCourses(cmd, courses, export)
			}

			if len(courses) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No courses found.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tTITLE\tTUTOR\tSTEPS\tDESCRIPTION")
			_, _ = fmt.Fprintln(w, "--\t-----\t-----\t-----\t-----------")
			for _, c := range courses {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
					c.ID, c.Title, prompt.TutorName(c), len(c.LessonSteps), truncate(c.Description, 50))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&export, "export", "", "Write the catalog as TOML to a file, or - for stdout")
	return cmd
}

func exportCourses(cmd *cobra.Command, courses []models.Course, path string) error {
	if path == "-" {
		return config.ExportCourses(cmd.OutOrStdout(), courses)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := config.ExportCourses(f, courses); err != nil {
		f.Close()
		return fmt.Errorf("failed to export courses: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d courses to %s\n", len(courses), path)
	return nil
}

// truncate shortens s to n display cells, adding an ellipsis when cut
func truncate(s string, n int) string {
	if runewidth.StringWidth(s) <= n {
		return s
	}
	return runewidth.Truncate(s, n, "") + "..."
}
