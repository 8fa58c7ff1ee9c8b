package tui

import (
	"context"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/diogo/geminitutor/internal/api"
	"github.com/diogo/geminitutor/internal/config"
	"github.com/diogo/geminitutor/internal/models"
)

var testNow = time.Date(2026, 3, 14, 9, 5, 0, 0, time.UTC)

func testCourse() models.Course {
	return models.Course{
		ID:              "go_basics",
		Title:           "Go Basics",
		Description:     "Learn Go.",
		LongDescription: "A gentle tour of the Go programming language.",
		Persona:         "Ada, a patient Go mentor",
		PromptTemplate:  "You are {aiPersona}. Teach {courseTitle}:\n{topicsList}",
		LessonSteps: []models.LessonStep{
			{ID: "1", Title: "Variables", Objective: "Declare variables."},
			{ID: "2", Title: "Functions", Objective: "Write functions."},
		},
		ThemeColor: "#4f46e5",
		Icon:       "</>",
	}
}

func testChatOptions() ChatOptions {
	return ChatOptions{
		Context:        context.Background(),
		RevealInterval: time.Millisecond,
		Markdown:       config.MarkdownConfig{Style: "notty"},
		Now:            func() time.Time { return testNow },
		Clipboard:      func(string) error { return nil },
	}
}

// newTestChat creates a sized chat screen that has not run Init yet
func newTestChat(t *testing.T, gw api.Gateway, opts ChatOptions) ChatModel {
	t.Helper()
	m := NewChatModel(testCourse(), gw, opts)
	t.Cleanup(m.Close)
	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m
}

// drive runs cmd and feeds every message it produces back into the chat
// until no work is left. Spinner and cursor animation messages are dropped.
func drive(t *testing.T, m ChatModel, cmd tea.Cmd) ChatModel {
	t.Helper()

	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 20000 {
			t.Fatal("chat did not settle")
		}

		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}

		msg := runCmd(t, next)
		switch msg := msg.(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case sessionOpenedMsg, pumpEventMsg, revealTickMsg, copiedMsg, backToPickerMsg:
			var out tea.Cmd
			m, out = m.Update(msg)
			queue = append(queue, out)
		case spinner.TickMsg, nil:
		}
	}
	return m
}

func runCmd(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()

	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	select {
	case msg := <-done:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("command blocked")
		return nil
	}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}
