package render

import "strings"

// Markdown renders markdown content for terminal display.
// Safe for concurrent use; renderers are pooled per Options.
func Markdown(content string, opts Options) (string, error) {
	renderer, err := globalPool.get(opts)
	if err != nil {
		return "", err
	}
	defer globalPool.put(opts, renderer)

	return renderer.Render(content)
}

// MarkdownOrPlain renders content, falling back to the raw text on error.
// Leading and trailing blank lines added by the renderer are trimmed.
func MarkdownOrPlain(content string, opts Options) string {
	out, err := Markdown(content, opts)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}
