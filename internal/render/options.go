// Package render turns tutor replies into styled terminal text: pooled
// glamour markdown renderers plus the color themes of the interface.
package render

import "github.com/diogo/geminitutor/internal/config"

// defaultWidth is used when the caller does not know the pane width
const defaultWidth = 80

// Options selects a renderer. Options keys the renderer pool, so every
// field must stay comparable.
type Options struct {
	Width int
	// Style is a glamour standard style, "auto", a theme alias or the
	// path of a JSON theme
	Style            string
	EnableEmoji      bool
	PreserveNewLines bool
	TableWrap        bool
	InlineTableLinks bool
}

// OptionsFromConfig builds render options from the markdown settings for a
// pane width columns wide. An empty style follows the active TUI theme.
// GLAMOUR_STYLE has already been folded into md by config.ApplyEnv.
func OptionsFromConfig(md config.MarkdownConfig, width int) Options {
	if width <= 0 {
		width = defaultWidth
	}
	style := md.Style
	if style == "" {
		style = currentTUITheme.Markdown
	}

	return Options{
		Width:            width,
		Style:            style,
		EnableEmoji:      md.EnableEmoji,
		PreserveNewLines: md.PreserveNewLines,
		TableWrap:        md.TableWrap,
		InlineTableLinks: md.InlineTableLinks,
	}
}
