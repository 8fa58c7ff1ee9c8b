package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/diogo/geminitutor/internal/models"
	"github.com/diogo/geminitutor/internal/prompt"
	"github.com/diogo/geminitutor/internal/render"
)

// EmptyCatalogText is shown when there is no course to pick
const EmptyCatalogText = "No courses available at the moment. Please check back later."

const (
	cardHeight     = 7 // inner lines per card
	cardDescLines  = 3
	minCardWidth   = 28
	pickerChrome   = 6 // title, subtitle, spacing and shortcuts
	defaultColumns = 1
)

// PickerModel is the course selection screen
type PickerModel struct {
	courses []models.Course
	cursor  int
	width   int
	height  int
}

// NewPickerModel creates a picker over courses
func NewPickerModel(courses []models.Course) PickerModel {
	return PickerModel{courses: courses}
}

// Init implements tea.Model
func (m PickerModel) Init() tea.Cmd {
	return nil
}

// Selected returns the course under the cursor
func (m PickerModel) Selected() (models.Course, bool) {
	if len(m.courses) == 0 {
		return models.Course{}, false
	}
	return m.courses[m.cursor], true
}

// columns returns how many cards fit side by side, between 1 and 3
func (m PickerModel) columns() int {
	cols := defaultColumns
	switch {
	case m.width >= 3*(minCardWidth+4)+4:
		cols = 3
	case m.width >= 2*(minCardWidth+4)+4:
		cols = 2
	}
	if n := len(m.courses); n > 0 && cols > n {
		cols = n
	}
	return cols
}

// Update implements tea.Model
func (m PickerModel) Update(msg tea.Msg) (PickerModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		cols := m.columns()
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.cursor-cols >= 0 {
				m.cursor -= cols
			}

		case "down", "j":
			if m.cursor+cols < len(m.courses) {
				m.cursor += cols
			}

		case "left", "h":
			if m.cursor%cols > 0 {
				m.cursor--
			}

		case "right", "l":
			if m.cursor%cols < cols-1 && m.cursor+1 < len(m.courses) {
				m.cursor++
			}

		case "enter", " ":
			if course, ok := m.Selected(); ok {
				return m, func() tea.Msg { return courseSelectedMsg{course: course} }
			}
		}
	}

	return m, nil
}

// View implements tea.Model
func (m PickerModel) View() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	title := pickerTitleStyle.Width(width).Render("✦ Choose Your Course")
	subtitle := pickerSubtitleStyle.Width(width).Render("Pick a subject and your AI tutor will guide you step by step")

	var body string
	if len(m.courses) == 0 {
		body = hintStyle.Width(width).Align(lipgloss.Center).Render(EmptyCatalogText)
	} else {
		body = lipgloss.PlaceHorizontal(width, lipgloss.Center, m.renderGrid(width))
	}

	footer := renderShortcuts(width,
		[2]string{"←↑↓→", "Move"},
		[2]string{"Enter", "Start lesson"},
		[2]string{"q", "Quit"},
	)

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "", body, "", footer)
}

func (m PickerModel) renderGrid(width int) string {
	cols := m.columns()
	cardWidth := (width-4)/cols - 2
	if cardWidth < minCardWidth {
		cardWidth = minCardWidth
	}

	var rows []string
	for start := 0; start < len(m.courses); start += cols {
		end := start + cols
		if end > len(m.courses) {
			end = len(m.courses)
		}
		cards := make([]string, 0, cols)
		for i := start; i < end; i++ {
			cards = append(cards, m.renderCard(m.courses[i], i == m.cursor, cardWidth))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	}

	first, last := m.visibleRows(len(rows))
	return lipgloss.JoinVertical(lipgloss.Left, rows[first:last]...)
}

// visibleRows returns the window of card rows that fits the screen and
// contains the cursor
func (m PickerModel) visibleRows(total int) (int, int) {
	fit := total
	if m.height > 0 {
		fit = (m.height - pickerChrome) / (cardHeight + 2)
		if fit < 1 {
			fit = 1
		}
	}
	if fit >= total {
		return 0, total
	}

	row := m.cursor / m.columns()
	first := row - fit + 1
	if first < 0 {
		first = 0
	}
	return first, first + fit
}

func (m PickerModel) renderCard(course models.Course, selected bool, width int) string {
	inner := width - 4
	accent := render.AccentColor(course.ThemeColor)

	icon := lipgloss.NewStyle().Foreground(accent).Bold(true).Render(course.Icon)
	title := cardTitleStyle.Render(runewidth.Truncate(course.Title, inner-runewidth.StringWidth(course.Icon)-1, "…"))

	desc := truncateLines(course.Summary(), inner, cardDescLines)

	tutor := lipgloss.NewStyle().Foreground(accent).Render("Tutor: " + prompt.TutorName(course))

	content := lipgloss.JoinVertical(lipgloss.Left,
		icon+" "+title,
		"",
		cardDescStyle.Width(inner).Render(desc),
		"",
		tutor,
	)

	style := cardStyle.Width(width - 2).Height(cardHeight)
	if selected {
		style = style.BorderStyle(lipgloss.ThickBorder()).BorderForeground(accent)
	}
	return style.Render(content)
}

// truncateLines shortens text so it wraps into at most lines rows of width
// cells, marking the cut with an ellipsis
func truncateLines(text string, width, lines int) string {
	text = strings.Join(strings.Fields(text), " ")
	if width <= 0 || lines <= 0 {
		return ""
	}

	var out []string
	rest := text
	for len(out) < lines && rest != "" {
		if runewidth.StringWidth(rest) <= width {
			out = append(out, rest)
			rest = ""
			break
		}

		cut := runewidth.Truncate(rest, width, "")
		if i := strings.LastIndex(cut, " "); i > 0 {
			cut = cut[:i]
		}
		out = append(out, cut)
		rest = strings.TrimSpace(rest[len(cut):])
	}

	if rest != "" {
		last := out[len(out)-1]
		out[len(out)-1] = runewidth.Truncate(last+" "+rest, width, "…")
	}
	return strings.Join(out, "\n")
}
