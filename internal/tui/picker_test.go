package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/diogo/geminitutor/internal/config"
)

func sizedPicker(width int) PickerModel {
	m := NewPickerModel(config.DefaultCourses())
	m, _ = m.Update(tea.WindowSizeMsg{Width: width, Height: 50})
	return m
}

func TestPickerColumns(t *testing.T) {
	tests := []struct {
		width int
		want  int
	}{
		{40, 1},
		{67, 1},
		{68, 2},
		{99, 2},
		{100, 3},
		{200, 3},
	}

	for _, tt := range tests {
		if got := sizedPicker(tt.width).columns(); got != tt.want {
			t.Errorf("columns() at width %d = %d, want %d", tt.width, got, tt.want)
		}
	}

	single := NewPickerModel(config.DefaultCourses()[:1])
	single, _ = single.Update(tea.WindowSizeMsg{Width: 200, Height: 50})
	if single.columns() != 1 {
		t.Errorf("columns() should never exceed the number of courses")
	}
}

func TestPickerNavigation_Grid(t *testing.T) {
	m := sizedPicker(120)

	m, _ = m.Update(keyRunes("l"))
	if m.cursor != 1 {
		t.Fatalf("cursor after l = %d, want 1", m.cursor)
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.cursor != 2 {
		t.Errorf("cursor should stop at the last column, got %d", m.cursor)
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if m.cursor != 2 {
		t.Errorf("down on the last row should not move, got %d", m.cursor)
	}
	m, _ = m.Update(keyRunes("h"))
	if m.cursor != 1 {
		t.Errorf("cursor after h = %d, want 1", m.cursor)
	}
}

func TestPickerNavigation_SingleColumn(t *testing.T) {
	m := sizedPicker(40)

	m, _ = m.Update(keyRunes("j"))
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if m.cursor != 2 {
		t.Errorf("cursor = %d, want 2", m.cursor)
	}
	m, _ = m.Update(keyRunes("k"))
	if m.cursor != 1 {
		t.Errorf("cursor after k = %d, want 1", m.cursor)
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if m.cursor != 1 {
		t.Errorf("left in a single column should not move, got %d", m.cursor)
	}
}

func TestPickerEnterSelectsCourse(t *testing.T) {
	m := sizedPicker(120)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter should return a command")
	}
	msg, ok := cmd().(courseSelectedMsg)
	if !ok {
		t.Fatalf("expected courseSelectedMsg, got %T", cmd())
	}
	if msg.course.ID != "world_hist_basics" {
		t.Errorf("selected %q, want world_hist_basics", msg.course.ID)
	}
}

func TestPickerQuit(t *testing.T) {
	for _, k := range []tea.KeyMsg{keyRunes("q"), {Type: tea.KeyCtrlC}} {
		_, cmd := sizedPicker(80).Update(k)
		if cmd == nil {
			t.Fatalf("%s should quit", k)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s should return tea.Quit", k)
		}
	}
}

func TestPickerEmptyCatalog(t *testing.T) {
	m := NewPickerModel(nil)
	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	if !strings.Contains(m.View(), EmptyCatalogText) {
		t.Error("empty catalog message not shown")
	}
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
		t.Error("enter on an empty catalog should do nothing")
	}
	if _, ok := m.Selected(); ok {
		t.Error("Selected should report false on an empty catalog")
	}
}

func TestPickerViewShowsCards(t *testing.T) {
	view := sizedPicker(120).View()

	for _, want := range []string{"Introduction to Programming", "Tutor: Ada", "Tutor: Clio", "Tutor: Scriba"} {
		if !strings.Contains(view, want) {
			t.Errorf("picker view missing %q", want)
		}
	}
}

func TestTruncateLines(t *testing.T) {
	if got := truncateLines("short text", 20, 2); got != "short text" {
		t.Errorf("short text changed: %q", got)
	}

	tests := []struct {
		name  string
		text  string
		width int
		lines int
	}{
		{"latin", "the quick brown fox jumps over the lazy dog again and again", 12, 2},
		{"wide runes", "你好世界你好世界你好世界你好世界", 6, 2},
		{"one line", "alpha beta gamma delta", 8, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateLines(tt.text, tt.width, tt.lines)
			rows := strings.Split(got, "\n")
			if len(rows) > tt.lines {
				t.Errorf("got %d lines, want at most %d", len(rows), tt.lines)
			}
			for _, row := range rows {
				if w := runewidth.StringWidth(row); w > tt.width {
					t.Errorf("line %q is %d cells wide, limit %d", row, w, tt.width)
				}
			}
			if !strings.HasSuffix(got, "…") {
				t.Errorf("truncated text should end with an ellipsis: %q", got)
			}
		})
	}
}
