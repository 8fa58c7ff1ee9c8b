package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/diogo/geminitutor/internal/api"
	"github.com/diogo/geminitutor/internal/config"
	"github.com/diogo/geminitutor/internal/models"
)

type screen int

const (
	screenConfigError screen = iota
	screenPicker
	screenChat
)

// AppOptions configures the application model
type AppOptions struct {
	Courses []models.Course
	Gateway api.Gateway
	// ConfigErr, when set, replaces every screen with the configuration notice
	ConfigErr     error
	CredentialEnv string
	// InitialCourse opens that course directly, skipping the picker
	InitialCourse string
	Chat          ChatOptions
}

// App routes between the configuration notice, the course picker and the chat
type App struct {
	opts    AppOptions
	screen  screen
	cfgErr  ConfigErrorModel
	picker  PickerModel
	chat    ChatModel
	hasChat bool

	width  int
	height int
}

// NewApp creates the application model
func NewApp(opts AppOptions) App {
	a := App{
		opts:   opts,
		screen: screenPicker,
		picker: NewPickerModel(opts.Courses),
	}
	if opts.ConfigErr != nil || opts.Gateway == nil {
		a.screen = screenConfigError
		a.cfgErr = NewConfigErrorModel(opts.ConfigErr, opts.CredentialEnv)
	}
	return a
}

// Init implements tea.Model
func (a App) Init() tea.Cmd {
	if a.screen != screenPicker || a.opts.InitialCourse == "" {
		return nil
	}
	course, ok := config.FindCourse(a.opts.Courses, a.opts.InitialCourse)
	if !ok {
		return nil
	}
	return func() tea.Msg { return courseSelectedMsg{course: course} }
}

// Update implements tea.Model
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

	case courseSelectedMsg:
		if a.screen == screenConfigError {
			return a, nil
		}
		a.closeChat()
		a.chat = NewChatModel(msg.course, a.opts.Gateway, a.opts.Chat)
		a.hasChat = true
		a.screen = screenChat
		if a.width > 0 {
			a.chat, _ = a.chat.Update(tea.WindowSizeMsg{Width: a.width, Height: a.height})
		}
		return a, a.chat.Init()

	case backToPickerMsg:
		a.closeChat()
		a.screen = screenPicker
		if a.width > 0 {
			a.picker, _ = a.picker.Update(tea.WindowSizeMsg{Width: a.width, Height: a.height})
		}
		return a, nil
	}

	switch a.screen {
	case screenConfigError:
		a.cfgErr, cmd = a.cfgErr.Update(msg)
	case screenPicker:
		a.picker, cmd = a.picker.Update(msg)
	case screenChat:
		a.chat, cmd = a.chat.Update(msg)
	}
	return a, cmd
}

// View implements tea.Model
func (a App) View() string {
	switch a.screen {
	case screenConfigError:
		return a.cfgErr.View()
	case screenChat:
		return a.chat.View()
	default:
		return a.picker.View()
	}
}

func (a *App) closeChat() {
	if a.hasChat {
		a.chat.Close()
		a.hasChat = false
	}
}

// Run starts the TUI and blocks until the user quits
func Run(opts AppOptions) error {
	p := tea.NewProgram(NewApp(opts), tea.WithAltScreen())

	final, err := p.Run()
	if app, ok := final.(App); ok {
		app.closeChat()
	}
	return err
}
