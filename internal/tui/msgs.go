package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/diogo/geminitutor/internal/api"
	"github.com/diogo/geminitutor/internal/models"
	"github.com/diogo/geminitutor/internal/transcript"
)

// Message types for the TUI. Everything produced off the event loop carries
// the engine session ID so results for a torn-down chat can be dropped.
type (
	// courseSelectedMsg asks the app to open a chat for a course
	courseSelectedMsg struct {
		course models.Course
	}

	// backToPickerMsg asks the app to close the chat and show the picker
	backToPickerMsg struct{}

	// sessionOpenedMsg carries the result of opening a gateway session
	sessionOpenedMsg struct {
		session string
		turn    string
		chat    api.Session
		err     error
	}

	// pumpEventMsg carries one stream event and the channel it came from
	pumpEventMsg struct {
		event  transcript.Event
		events <-chan transcript.Event
	}

	// revealTickMsg advances the typing animation by one character
	revealTickMsg struct {
		session string
	}

	// copiedMsg reports the result of a clipboard copy
	copiedMsg struct {
		err error
	}
)

// openSession opens a gateway session off the event loop
func openSession(ctx context.Context, gw api.Gateway, session, turn, system string) tea.Cmd {
	return func() tea.Msg {
		chat, err := gw.Open(ctx, system)
		return sessionOpenedMsg{session: session, turn: turn, chat: chat, err: err}
	}
}

// waitForEvent blocks on the next pump event. A closed channel yields no message.
func waitForEvent(events <-chan transcript.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return pumpEventMsg{event: ev, events: events}
	}
}

// revealTick schedules the next reveal step
func revealTick(session string, interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return revealTickMsg{session: session}
	})
}
