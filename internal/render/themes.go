package render

import (
	"os"
	"strings"

	"github.com/charmbracelet/glamour/styles"
	"github.com/muesli/termenv"
)

// Markdown style names accepted in configuration
const (
	ThemeAuto       = "auto"
	ThemeDark       = "dark"
	ThemeLight      = "light"
	ThemeDracula    = "dracula"
	ThemeTokyoNight = "tokyo-night"
	ThemePink       = "pink"
	ThemeNoTTY      = "notty"
	ThemeASCII      = "ascii"
)

// themeAliases maps TUI theme spellings onto glamour style names
var themeAliases = map[string]string{
	"tokyonight":  ThemeTokyoNight,
	"tokyo_night": ThemeTokyoNight,
	"plain":       ThemeNoTTY,
}

// hasDarkBackground is swapped in tests
var hasDarkBackground = termenv.HasDarkBackground

// IsBuiltinStyle returns true if the style is one of glamour's standard styles
func IsBuiltinStyle(style string) bool {
	style = normalizeStyle(style)
	if style == ThemeAuto {
		return true
	}
	_, ok := styles.DefaultStyles[style]
	return ok
}

func normalizeStyle(style string) string {
	style = strings.ToLower(strings.TrimSpace(style))
	if alias, ok := themeAliases[style]; ok {
		return alias
	}
	return style
}

// ResolveStyle turns a configured style into a standard style name or a
// JSON theme path. The second result is true for standard styles.
// Unknown names that are not files fall back to the dark style.
func ResolveStyle(style string) (string, bool) {
	name := normalizeStyle(style)

	switch name {
	case "":
		return ThemeDark, true
	case ThemeAuto:
		if hasDarkBackground() {
			return ThemeDark, true
		}
		return ThemeLight, true
	}

	if _, ok := styles.DefaultStyles[name]; ok {
		return name, true
	}

	if _, err := os.Stat(style); err == nil {
		return style, false
	}
	return ThemeDark, true
}

// ThemeInfo contains information about a theme for display purposes.
type ThemeInfo struct {
	Name        string
	Description string
}

// AvailableThemes returns the markdown styles that can be configured
func AvailableThemes() []ThemeInfo {
	return []ThemeInfo{
		{Name: ThemeDark, Description: "Dark theme (default)"},
		{Name: ThemeAuto, Description: "Dark or light, following the terminal background"},
		{Name: ThemeLight, Description: "Light theme for bright terminals"},
		{Name: ThemeTokyoNight, Description: "Tokyo Night color scheme"},
		{Name: ThemeDracula, Description: "Dracula color scheme"},
		{Name: ThemePink, Description: "Pink accents"},
		{Name: ThemeNoTTY, Description: "Plain text (no styling)"},
		{Name: ThemeASCII, Description: "ASCII-only output"},
	}
}

// ThemeNames returns just the theme names for selection.
func ThemeNames() []string {
	themes := AvailableThemes()
	names := make([]string, len(themes))
	for i, t := range themes {
		names[i] = t.Name
	}
	return names
}
