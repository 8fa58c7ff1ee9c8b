package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diogo/geminitutor/internal/api"
	"github.com/diogo/geminitutor/internal/config"
	apierrors "github.com/diogo/geminitutor/internal/errors"
	"github.com/diogo/geminitutor/internal/logging"
	"github.com/diogo/geminitutor/internal/models"
	"github.com/diogo/geminitutor/internal/render"
	"github.com/diogo/geminitutor/internal/tui"
)

// errNoTerminal is returned when the TUI is started without a terminal
var errNoTerminal = errors.New("geminitutor needs an interactive terminal; try 'geminitutor courses' or 'geminitutor ask'")

// setup is everything a command needs before talking to a tutor
type setup struct {
	cfg     config.Config
	courses []models.Course
	logger  *slog.Logger
	closer  io.Closer
}

// loadSetup reads .env, the config file and the course catalog, and applies
// the command line flags. Problems with the files are reported as warnings.
func loadSetup(cmd *cobra.Command, deps *Dependencies, opts *rootOptions) (*setup, error) {
	logPath := ""
	if opts.debug {
		p, err := deps.LogPath()
		if err != nil {
			return nil, fmt.Errorf("failed to locate log file: %w", err)
		}
		logPath = p
	}
	logger, closer, err := logging.Setup(logPath, opts.debug)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	config.LoadDotEnv()

	cfg, err := deps.LoadConfig()
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v (using defaults)\n", err)
	}
	applyFlags(&cfg, opts)

	courses, err := deps.LoadCourses()
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v (using built-in courses)\n", err)
	}

	logger.Info("starting", "version", Version, "provider", cfg.Provider, "model", cfg.Model, "courses", len(courses))
	return &setup{cfg: cfg, courses: courses, logger: logger, closer: closer}, nil
}

// applyFlags overlays command line flags on cfg
func applyFlags(cfg *config.Config, opts *rootOptions) {
	if opts.provider != "" {
		cfg.Provider = strings.ToLower(opts.provider)
	}
	if opts.model == "" {
		return
	}
	if cfg.Provider == models.ProviderArk {
		cfg.Ark.Model = opts.model
	} else {
		cfg.Model = opts.model
	}
}

// buildGateway returns the scripted gateway in demo mode, otherwise the
// provider selected by the configuration
func buildGateway(ctx context.Context, deps *Dependencies, s *setup, opts *rootOptions) (api.Gateway, error) {
	if opts.demo || opts.demoScript != "" {
		script := api.DemoScript()
		if opts.demoScript != "" {
			loaded, err := api.LoadScript(opts.demoScript)
			if err != nil {
				return nil, err
			}
			script = loaded
		}
		s.logger.Info("demo mode", "script", api.DescribeScript(script))
		return api.NewScriptedGateway(script), nil
	}

	return deps.NewGateway(ctx, s.cfg, s.logger)
}

// findCourse looks a course up by ID with a helpful error
func findCourse(courses []models.Course, id string) (models.Course, error) {
	course, ok := config.FindCourse(courses, id)
	if !ok {
		return models.Course{}, fmt.Errorf("unknown course %q (available: %s)", id, strings.Join(config.CourseIDs(courses), ", "))
	}
	return course, nil
}

// runTutor launches the full-screen interface
func runTutor(cmd *cobra.Command, deps *Dependencies, opts *rootOptions) error {
	if !deps.IsTerminal() {
		return errNoTerminal
	}

	s, err := loadSetup(cmd, deps, opts)
	if err != nil {
		return err
	}
	defer s.closer.Close()

	if opts.course != "" {
		if _, err := findCourse(s.courses, opts.course); err != nil {
			return err
		}
	}

	if s.cfg.TUITheme != "" && !render.SetTUITheme(s.cfg.TUITheme) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: unknown theme %q (available: %s)\n",
			s.cfg.TUITheme, strings.Join(render.TUIThemeNames(), ", "))
	}
	tui.UpdateTheme()
	if style := s.cfg.Markdown.Style; style != "" && !render.IsBuiltinStyle(style) {
		if _, standard := render.ResolveStyle(style); standard {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: unknown markdown style %q (available: %s)\n",
				style, strings.Join(render.ThemeNames(), ", "))
		}
	}

	ctx := cmd.Context()
	appOpts := tui.AppOptions{
		Courses:       s.courses,
		CredentialEnv: s.cfg.CredentialEnv(),
		InitialCourse: opts.course,
		Chat: tui.ChatOptions{
			Context:        ctx,
			RevealInterval: s.cfg.RevealInterval(),
			IdleTimeout:    s.cfg.StreamTimeout(),
			Markdown:       s.cfg.Markdown,
			Logger:         s.logger,
		},
	}

	gw, err := buildGateway(ctx, deps, s, opts)
	switch {
	case apierrors.IsConfigError(err):
		s.logger.Warn("configuration error", "error", err)
		appOpts.ConfigErr = err
	case err != nil:
		return err
	default:
		appOpts.Gateway = gw
	}

	return deps.RunTUI(appOpts)
}
