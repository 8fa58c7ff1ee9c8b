package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	apierrors "github.com/diogo/geminitutor/internal/errors"
	"github.com/diogo/geminitutor/internal/prompt"
	"github.com/diogo/geminitutor/internal/render"
	"github.com/diogo/geminitutor/internal/transcript"
)

// Gradient colors for animation
var gradientColors = []lipgloss.Color{
	lipgloss.Color("#ff6b6b"), // Red
	lipgloss.Color("#feca57"), // Yellow
	lipgloss.Color("#48dbfb"), // Cyan
	lipgloss.Color("#ff9ff3"), // Pink
	lipgloss.Color("#54a0ff"), // Blue
	lipgloss.Color("#5f27cd"), // Purple
	lipgloss.Color("#00d2d3"), // Teal
	lipgloss.Color("#1dd1a1"), // Green
}

var (
	colorText     = lipgloss.Color("#c0caf5")
	colorTextDim  = lipgloss.Color("#565f89")
	colorTextMute = lipgloss.Color("#3b4261")
	colorPrimary  = lipgloss.Color("#7aa2f7")
)

var (
	tutorLabelStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	tutorBubbleStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary).
				Foreground(colorText).
				Padding(0, 1).
				MarginBottom(1)
)

func newAskCmd(deps *Dependencies, opts *rootOptions) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "ask <course-id> [question]",
		Short: "Ask a course tutor a single question",
		Long: `Ask a course tutor one question without opening the interface.

The question is read from stdin when it is not given as an argument.
Output is plain text when stdout is not a terminal or --raw is set.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.TrimSpace(strings.Join(args[1:], " "))
			if question == "" {
				q, err := readQuestion(cmd.InOrStdin())
				if err != nil {
					return err
				}
				question = q
			}
			return runAsk(cmd, deps, opts, args[0], question, raw)
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print the reply as it streams, without formatting")
	return cmd
}

// readQuestion reads the question from piped input
func readQuestion(in io.Reader) (string, error) {
	if f, ok := in.(*os.File); ok {
		if stat, err := f.Stat(); err == nil && stat.Mode()&os.ModeCharDevice != 0 {
			return "", errors.New("no question given")
		}
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	question := strings.TrimSpace(string(data))
	if question == "" {
		return "", errors.New("no question given")
	}
	return question, nil
}

// runAsk opens a session for the course and prints the reply to question
func runAsk(cmd *cobra.Command, deps *Dependencies, opts *rootOptions, courseID, question string, raw bool) error {
	s, err := loadSetup(cmd, deps, opts)
	if err != nil {
		return err
	}
	defer s.closer.Close()

	course, err := findCourse(s.courses, courseID)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	gw, err := buildGateway(ctx, deps, s, opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	pretty := !raw && deps.IsTerminal()

	var spin *spinner
	if pretty {
		spin = newSpinner(os.Stderr, prompt.ThinkingText(course))
		spin.start()
	}
	stopSpinner := func() {
		if spin != nil {
			spin.stopWithError()
		}
	}

	session, err := gw.Open(ctx, prompt.BuildSystemPrompt(course))
	if err != nil {
		stopSpinner()
		return fmt.Errorf("failed to open session: %w", err)
	}

	pump := transcript.StartPump(ctx, transcript.PumpConfig{
		Session:     "ask",
		Turn:        course.ID,
		IdleTimeout: s.cfg.StreamTimeout(),
		Logger:      s.logger,
	}, func(ctx context.Context) iter.Seq2[string, error] {
		return session.Send(ctx, question)
	})

	var reply strings.Builder
	for ev := range pump.Events() {
		switch ev := ev.(type) {
		case transcript.Fragment:
			reply.WriteString(ev.Text)
			if !pretty {
				fmt.Fprint(out, ev.Text)
			}
		case transcript.Done:
			if ev.Err != nil {
				stopSpinner()
				if !pretty && reply.Len() > 0 {
					fmt.Fprintln(out)
				}
				return fmt.Errorf("tutor reply failed: %w", ev.Err)
			}
		}
	}
	if err := ctx.Err(); err != nil {
		stopSpinner()
		return err
	}

	if !pretty {
		fmt.Fprintln(out)
		return nil
	}

	spin.stopWithSuccess(prompt.TutorName(course) + " replied")
	width := getTerminalWidth()
	body := render.MarkdownOrPlain(reply.String(), render.OptionsFromConfig(s.cfg.Markdown, width-6))
	fmt.Fprintln(out, tutorLabelStyle.Render("✦ "+prompt.TutorName(course)))
	fmt.Fprintln(out, tutorBubbleStyle.Width(width-2).Render(body))
	return nil
}

// spinner handles the animated loading indicator
type spinner struct {
	out     io.Writer
	message string
	stop    chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	frame   int
	stopped bool // Flag to prevent double-close
}

// newSpinner creates a new animated spinner writing to out
func newSpinner(out io.Writer, message string) *spinner {
	return &spinner{
		out:     out,
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// start begins the animation
func (s *spinner) start() {
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		// Hide cursor
		fmt.Fprint(s.out, "\033[?25l")

		for {
			select {
			case <-s.stop:
				// Clear line and show cursor
				fmt.Fprint(s.out, "\r\033[K\033[?25h")
				return
			case <-ticker.C:
				s.mu.Lock()
				s.render()
				s.frame++
				s.mu.Unlock()
			}
		}
	}()
}

// render draws the current animation frame
func (s *spinner) render() {
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

	spinColor := gradientColors[s.frame%len(gradientColors)]
	spinnerChar := lipgloss.NewStyle().Foreground(spinColor).Bold(true).Render(chars[s.frame%len(chars)])

	var dots strings.Builder
	numDots := (s.frame / 3) % 4
	for i := 0; i < 3; i++ {
		if i < numDots {
			dotColor := gradientColors[(s.frame+i)%len(gradientColors)]
			dots.WriteString(lipgloss.NewStyle().Foreground(dotColor).Render("●"))
		} else {
			dots.WriteString(lipgloss.NewStyle().Foreground(colorTextMute).Render("○"))
		}
	}

	msg := lipgloss.NewStyle().Foreground(colorText).Render(strings.TrimSuffix(s.message, "..."))
	fmt.Fprintf(s.out, "\r\033[K%s %s %s", spinnerChar, msg, dots.String())
}

// stopOnce safely closes the stop channel only once
func (s *spinner) stopOnce() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		close(s.stop)
		s.stopped = true
	}
}

// stopWithSuccess stops the spinner and shows success message
func (s *spinner) stopWithSuccess(message string) {
	s.stopOnce()
	<-s.done

	success := lipgloss.Color("#9ece6a")
	checkmark := lipgloss.NewStyle().Foreground(success).Bold(true).Render("✓")
	fmt.Fprintf(s.out, "%s %s\n", checkmark, lipgloss.NewStyle().Foreground(success).Render(message))
}

// stopWithError stops the spinner and clears its line
func (s *spinner) stopWithError() {
	s.stopOnce()
	<-s.done
}

// getTerminalWidth returns the terminal width or a default value
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80 // default width
	}
	return width
}

// isStdoutTTY returns true if stdout is connected to a terminal
func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// formatErrorMessage formats an error with additional context from structured errors
func formatErrorMessage(err error, context string) string {
	if err == nil {
		return ""
	}

	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#f7768e"))
	dimStyle := lipgloss.NewStyle().Foreground(colorTextDim)

	var sb strings.Builder
	sb.WriteString(errorStyle.Render(fmt.Sprintf("✗ %s: %v", context, err)))

	if status := apierrors.GetHTTPStatus(err); status > 0 {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  HTTP Status: %d", status)))
	}
	if endpoint := apierrors.GetEndpoint(err); endpoint != "" {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  Endpoint: %s", endpoint)))
	}

	if body := apierrors.GetResponseBody(err); body != "" {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n\n  %s", strings.ReplaceAll(body, "\n", "\n  "))))
		return sb.String()
	}

	switch {
	case apierrors.IsConfigError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: Set API_KEY (or use --demo) and check 'geminitutor config'"))
	case apierrors.IsAuthError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: Check that your API key is valid"))
	case apierrors.IsRateLimitError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: You've hit the usage limit. Try again later or use a different model"))
	case apierrors.IsTimeoutError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: The tutor stopped responding. Try again"))
	case apierrors.IsNetworkError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: Check your internet connection and try again"))
	}

	return sb.String()
}
