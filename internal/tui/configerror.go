package tui

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	apierrors "github.com/diogo/geminitutor/internal/errors"
)

// ConfigErrorModel blocks the app when no usable credential is configured.
// Any key quits.
type ConfigErrorModel struct {
	err    error
	envVar string
	width  int
	height int
}

// NewConfigErrorModel creates the screen for err. envVar names the
// environment variable the user should set.
func NewConfigErrorModel(err error, envVar string) ConfigErrorModel {
	if envVar == "" {
		envVar = "API_KEY"
	}
	return ConfigErrorModel{err: err, envVar: envVar}
}

// Init implements tea.Model
func (m ConfigErrorModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m ConfigErrorModel) Update(msg tea.Msg) (ConfigErrorModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		return m, tea.Quit
	}
	return m, nil
}

// View implements tea.Model
func (m ConfigErrorModel) View() string {
	text := lipgloss.NewStyle().Foreground(colorText)

	var explanation string
	if errors.Is(m.err, apierrors.ErrMissingAPIKey) {
		explanation = "The tutor cannot start because no API key is configured."
	} else {
		explanation = "The tutor cannot start because the configuration is invalid."
	}

	lines := []string{
		alertTitleStyle.Render("⚠ Configuration Error"),
		"",
		text.Render(explanation),
		text.Render("Set the ") + codeStyle.Render(m.envVar) + text.Render(" environment variable, or add it to a .env file,"),
		text.Render("then start geminitutor again. Use ") + codeStyle.Render("--demo") + text.Render(" to try it without a key."),
	}
	if m.err != nil {
		lines = append(lines, "", hintStyle.Render(m.err.Error()))
	}
	lines = append(lines, "", subtitleStyle.Render("Press any key to exit"))

	box := alertStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
	if m.width <= 0 || m.height <= 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
