// Package commands provides CLI commands for geminitutor.
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

// Version info (set at build time)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// rootOptions holds the flags shared by the commands
type rootOptions struct {
	course     string
	model      string
	provider   string
	demo       bool
	demoScript string
	debug      bool
}

// NewRootCmd creates the geminitutor command tree
func NewRootCmd(deps *Dependencies) *cobra.Command {
	if deps == nil {
		deps = NewDependencies()
	}
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "geminitutor",
		Short: "Learn with an AI tutor in your terminal",
		Long: `geminitutor is a terminal tutoring app. Pick a course and an AI tutor
walks you through its lessons one step at a time, answering as you go.

Set API_KEY (or GEMINI_API_KEY) to your Google Gemini API key, or use
--provider ark with ARK_API_KEY and ARK_MODEL for Volcengine Ark.

Examples:
  geminitutor                          Open the course picker
  geminitutor -c prog_intro            Start a course directly
  geminitutor --demo                   Try the interface without an API key
  geminitutor courses                  List available courses
  geminitutor ask prog_intro "What is a loop?"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				fmt.Fprintf(cmd.OutOrStdout(), "geminitutor %s (built %s)\n", Version, BuildTime)
				return nil
			}
			return runTutor(cmd, deps, opts)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.model, "model", "m", "", "Model to use (e.g., gemini-2.5-flash)")
	cmd.PersistentFlags().StringVar(&opts.provider, "provider", "", "Chat provider: gemini or ark")
	cmd.PersistentFlags().BoolVar(&opts.demo, "demo", false, "Replay a scripted tutor instead of calling an API")
	cmd.PersistentFlags().StringVar(&opts.demoScript, "demo-script", "", "Replay script (JSON) used instead of the built-in demo")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Write a debug log to ~/.geminitutor/debug.log")
	cmd.Flags().StringVarP(&opts.course, "course", "c", "", "Course ID to start directly, skipping the picker")
	cmd.Flags().BoolP("version", "v", false, "Show version and exit")

	cmd.AddCommand(newCoursesCmd(deps))
	cmd.AddCommand(newPromptCmd(deps))
	cmd.AddCommand(newConfigCmd(deps, opts))
	cmd.AddCommand(newAskCmd(deps, opts))

	return cmd
}

// rootCmd is the command run by Execute
var rootCmd = NewRootCmd(nil)

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, formatErrorMessage(err, "Error"))
		stop()
		os.Exit(1)
	}
}
