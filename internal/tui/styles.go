// Package tui provides the terminal user interface for geminitutor.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/geminitutor/internal/errors"
	"github.com/diogo/geminitutor/internal/render"
)

// Color variables (updated from theme)
var (
	colorSurface lipgloss.Color
	colorBorder  lipgloss.Color

	colorPrimary   lipgloss.Color
	colorSecondary lipgloss.Color
	colorAccent    lipgloss.Color
	colorWarning   lipgloss.Color
	colorError     lipgloss.Color

	colorText     lipgloss.Color
	colorTextDim  lipgloss.Color
	colorTextMute lipgloss.Color
)

// Style variables (rebuilt when theme changes)
var (
	headerStyle   lipgloss.Style
	titleStyle    lipgloss.Style
	subtitleStyle lipgloss.Style
	hintStyle     lipgloss.Style

	messagesAreaStyle    lipgloss.Style
	userBubbleStyle      lipgloss.Style
	userLabelStyle       lipgloss.Style
	assistantBubbleStyle lipgloss.Style
	assistantLabelStyle  lipgloss.Style
	noticeStyle          lipgloss.Style
	timestampStyle       lipgloss.Style
	cursorStyle          lipgloss.Style

	inputPanelStyle lipgloss.Style
	inputLabelStyle lipgloss.Style
	loadingStyle    lipgloss.Style

	statusBarStyle  lipgloss.Style
	statusKeyStyle  lipgloss.Style
	statusDescStyle lipgloss.Style

	errorStyle    lipgloss.Style
	bannerStyle   lipgloss.Style
	feedbackStyle lipgloss.Style

	// Course picker
	pickerTitleStyle    lipgloss.Style
	pickerSubtitleStyle lipgloss.Style
	cardStyle           lipgloss.Style
	cardTitleStyle      lipgloss.Style
	cardDescStyle       lipgloss.Style

	// Configuration error screen
	alertStyle      lipgloss.Style
	alertTitleStyle lipgloss.Style
	codeStyle       lipgloss.Style
)

// init loads the default theme on package initialization
func init() {
	UpdateTheme()
}

// UpdateTheme refreshes all styles based on the current TUI theme
func UpdateTheme() {
	theme := render.GetTUITheme()

	colorSurface = theme.Surface
	colorBorder = theme.Border
	colorPrimary = theme.Primary
	colorSecondary = theme.Secondary
	colorAccent = theme.Accent
	colorWarning = theme.Warning
	colorError = theme.Error
	colorText = theme.Text
	colorTextDim = theme.TextDim
	colorTextMute = theme.TextMute

	rebuildStyles()
}

func rebuildStyles() {
	headerStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 2)

	titleStyle = lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true)

	subtitleStyle = lipgloss.NewStyle().
		Foreground(colorTextDim)

	hintStyle = lipgloss.NewStyle().
		Foreground(colorTextMute).
		Italic(true)

	messagesAreaStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1)

	userBubbleStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorSecondary).
		Foreground(colorText).
		Padding(0, 1).
		MarginLeft(4)

	userLabelStyle = lipgloss.NewStyle().
		Foreground(colorSecondary).
		Bold(true).
		MarginLeft(4)

	assistantBubbleStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorPrimary).
		Foreground(colorText).
		Padding(0, 1).
		MarginRight(4)

	assistantLabelStyle = lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true)

	noticeStyle = lipgloss.NewStyle().
		Foreground(colorTextDim).
		Italic(true).
		Align(lipgloss.Center)

	timestampStyle = lipgloss.NewStyle().
		Foreground(colorTextMute)

	cursorStyle = lipgloss.NewStyle().
		Foreground(colorAccent)

	inputPanelStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1)

	inputLabelStyle = lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true).
		MarginRight(1)

	loadingStyle = lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true)

	statusBarStyle = lipgloss.NewStyle().
		Foreground(colorTextMute)

	statusKeyStyle = lipgloss.NewStyle().
		Foreground(colorTextDim).
		Bold(true)

	statusDescStyle = lipgloss.NewStyle().
		Foreground(colorTextMute)

	errorStyle = lipgloss.NewStyle().
		Foreground(colorError).
		Bold(true)

	bannerStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorError).
		Padding(0, 1)

	feedbackStyle = lipgloss.NewStyle().
		Foreground(colorSecondary).
		Italic(true)

	pickerTitleStyle = lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true).
		Align(lipgloss.Center)

	pickerSubtitleStyle = lipgloss.NewStyle().
		Foreground(colorTextDim).
		Align(lipgloss.Center)

	cardStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1)

	cardTitleStyle = lipgloss.NewStyle().
		Foreground(colorText).
		Bold(true)

	cardDescStyle = lipgloss.NewStyle().
		Foreground(colorTextDim)

	alertStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.ThickBorder()).
		BorderForeground(colorWarning).
		Padding(1, 3)

	alertTitleStyle = lipgloss.NewStyle().
		Foreground(colorWarning).
		Bold(true)

	codeStyle = lipgloss.NewStyle().
		Foreground(colorAccent).
		Background(colorSurface).
		Padding(0, 1)
}

// errorHint suggests a next step for the class of err
func errorHint(err error) string {
	switch {
	case errors.IsAuthError(err):
		return "Check that your API key is valid"
	case errors.IsRateLimitError(err):
		return "Usage limit reached. Wait a moment or use a different model"
	case errors.IsBlockedError(err):
		return "The reply was blocked by the safety filter. Try rephrasing your message"
	case errors.IsTimeoutError(err):
		return "The tutor stopped responding. Try sending your message again"
	case errors.IsNetworkError(err):
		return "Check your internet connection"
	case errors.IsConfigError(err):
		return "Check your configuration with 'geminitutor config'"
	}
	return ""
}

// FormatError returns a styled error with the details carried by typed errors
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	dimStyle := lipgloss.NewStyle().Foreground(colorTextDim)

	var sb strings.Builder
	sb.WriteString(errorStyle.Render(fmt.Sprintf("✗ %v", err)))

	if status := errors.GetHTTPStatus(err); status > 0 {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  HTTP Status: %d", status)))
	}
	if endpoint := errors.GetEndpoint(err); endpoint != "" {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  Endpoint: %s", endpoint)))
	}
	if hint := errorHint(err); hint != "" {
		sb.WriteString(dimStyle.Render("\n  Hint: " + hint))
	}

	return sb.String()
}

// renderBanner renders the communication error banner shown above the input
func renderBanner(err error, width int) string {
	if err == nil {
		return ""
	}

	lines := []string{
		errorStyle.Render("⚠ Communication Error"),
		lipgloss.NewStyle().Foreground(colorText).Render(err.Error()),
	}
	if hint := errorHint(err); hint != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(colorPrimary).Render("💡 "+hint))
	}

	return bannerStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// renderShortcuts renders a row of key hints
func renderShortcuts(width int, pairs ...[2]string) string {
	items := make([]string, 0, len(pairs))
	for _, p := range pairs {
		items = append(items, statusKeyStyle.Render(p[0])+statusDescStyle.Render(" "+p[1]))
	}
	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(strings.Join(items, "  │  "))
}
