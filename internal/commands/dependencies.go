package commands

import (
	"context"
	"log/slog"

	"github.com/diogo/geminitutor/internal/api"
	"github.com/diogo/geminitutor/internal/config"
	"github.com/diogo/geminitutor/internal/models"
	"github.com/diogo/geminitutor/internal/tui"
)

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	// LoadConfig returns the configuration with the environment applied.
	LoadConfig func() (config.Config, error)

	// LoadCourses returns the course catalog.
	LoadCourses func() ([]models.Course, error)

	// NewGateway builds the chat backend for cfg.
	NewGateway func(ctx context.Context, cfg config.Config, logger *slog.Logger) (api.Gateway, error)

	// RunTUI runs the full-screen interface until the user quits.
	RunTUI func(opts tui.AppOptions) error

	// IsTerminal reports whether stdout is an interactive terminal.
	IsTerminal func() bool

	// LogPath returns the debug log location.
	LogPath func() (string, error)
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		LoadConfig:  config.LoadConfig,
		LoadCourses: config.LoadCourses,
		NewGateway:  api.NewGateway,
		RunTUI:      tui.Run,
		IsTerminal:  isStdoutTTY,
		LogPath:     config.GetLogPath,
	}
}
