package tui

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/geminitutor/internal/api"
	"github.com/diogo/geminitutor/internal/config"
	"github.com/diogo/geminitutor/internal/models"
	"github.com/diogo/geminitutor/internal/prompt"
	"github.com/diogo/geminitutor/internal/render"
	"github.com/diogo/geminitutor/internal/transcript"
)

// TypingCursor trails the revealed text of a reply
const TypingCursor = "▋"

// SessionLostHint replaces the input label when no session could be opened
const SessionLostHint = "No session. Press Esc to return to courses and retry."

const (
	minInputLines  = 1
	maxInputLines  = 6
	inputCharLimit = 4000
)

// ChatOptions configures a chat screen
type ChatOptions struct {
	// Context is the parent of the engine's liveness context
	Context        context.Context
	RevealInterval time.Duration
	IdleTimeout    time.Duration
	Markdown       config.MarkdownConfig
	Logger         *slog.Logger
	// Clipboard replaces the system clipboard, mostly for tests
	Clipboard func(string) error
	Now       func() time.Time
}

// renderedMessage caches the markdown of a settled reply
type renderedMessage struct {
	width int
	text  string
}

// ChatModel is the lesson screen for one course
type ChatModel struct {
	course  models.Course
	tutor   string
	gateway api.Gateway
	engine  *transcript.Engine
	chat    api.Session
	pump    *transcript.Pump

	opts    ChatOptions
	logger  *slog.Logger
	opening string // turn waiting for the session to open

	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	ticking     bool
	seenVersion uint64
	rendered    map[string]renderedMessage
	feedback    string

	ready  bool
	width  int
	height int
}

// NewChatModel creates the chat screen and starts the initialization turn
func NewChatModel(course models.Course, gateway api.Gateway, opts ChatOptions) ChatModel {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.RevealInterval <= 0 {
		opts.RevealInterval = transcript.DefaultRevealInterval
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}

	engine := transcript.New(transcript.Options{
		Context: opts.Context,
		Now:     opts.Now,
		Logger:  opts.Logger,
	})

	ta := textarea.New()
	ta.Placeholder = "Type your answer here..."
	ta.CharLimit = inputCharLimit
	ta.ShowLineNumbers = false
	ta.SetHeight(minInputLines)
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"))
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	m := ChatModel{
		course:   course,
		tutor:    prompt.TutorName(course),
		gateway:  gateway,
		engine:   engine,
		opts:     opts,
		logger:   opts.Logger.With("course", course.ID, "session", engine.ID()),
		textarea: ta,
		spinner:  s,
		viewport: viewport.New(0, 0),
		rendered: make(map[string]renderedMessage),
	}

	engine.AddNotice(prompt.StartNotice(course))
	m.opening = engine.BeginOpeningTurn()
	return m
}

// Engine exposes the transcript behind the screen
func (m ChatModel) Engine() *transcript.Engine {
	return m.engine
}

// Course returns the course being taught
func (m ChatModel) Course() models.Course {
	return m.course
}

// Init opens the gateway session and starts the spinner and reveal loop
func (m ChatModel) Init() tea.Cmd {
	m.logger.Info("opening lesson", "gateway", m.gateway.Name())
	return tea.Batch(
		openSession(m.engine.Context(), m.gateway, m.engine.ID(), m.opening, prompt.BuildSystemPrompt(m.course)),
		m.spinner.Tick,
		textarea.Blink,
	)
}

// Close tears the session down. Late results for this screen are dropped.
func (m ChatModel) Close() {
	if m.pump != nil {
		m.pump.Stop()
	}
	m.engine.Close()
}

// Update handles messages and updates the model
func (m ChatModel) Update(msg tea.Msg) (ChatModel, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if msg.Width != m.width {
			// pooled renderers wrap at a fixed width and are never reused after a resize
			m.logger.Debug("resized", "width", msg.Width, "dropped_renderers", render.CacheSize())
			render.ClearCache()
		}
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layout()
		m.refresh(true)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.Close()
			return m, tea.Quit

		case "esc":
			m.Close()
			return m, func() tea.Msg { return backToPickerMsg{} }

		case "ctrl+y":
			return m, m.copyLastReply()

		case "pgup":
			m.viewport.HalfViewUp()
			return m, nil

		case "pgdown":
			m.viewport.HalfViewDown()
			return m, nil

		case "enter":
			return m.submit()
		}

		if !m.engine.TurnInFlight() {
			m.feedback = ""
			m.textarea, cmd = m.textarea.Update(msg)
			cmds = append(cmds, cmd)
			m.fitInput()
		}

	case sessionOpenedMsg:
		cmds = append(cmds, m.handleOpened(msg))

	case pumpEventMsg:
		if !m.engine.Apply(msg.event) {
			break
		}
		cmds = append(cmds, waitForEvent(msg.events), m.ensureTicking())

	case revealTickMsg:
		if msg.session != m.engine.ID() {
			break
		}
		m.ticking = false
		if m.engine.Tick() {
			cmds = append(cmds, m.ensureTicking())
		}

	case copiedMsg:
		if msg.err != nil {
			m.feedback = "Could not copy: " + msg.err.Error()
		} else {
			m.feedback = "Copied last reply to clipboard"
		}

	case spinner.TickMsg:
		if m.engine.Alive() {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
			if m.engine.Thinking() {
				m.refresh(true)
			}
		}

	default:
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.syncInput()
	m.refresh(false)
	return m, tea.Batch(cmds...)
}

// submit sends the input as a new turn
func (m ChatModel) submit() (ChatModel, tea.Cmd) {
	if m.chat == nil || m.engine.TurnInFlight() {
		return m, nil
	}

	text := m.textarea.Value()
	turn, ok := m.engine.Submit(text)
	if !ok {
		return m, nil
	}

	m.engine.ClearError()
	m.textarea.Reset()
	m.feedback = ""
	m.fitInput()
	m.syncInput()
	m.refresh(true)

	return m, tea.Batch(m.startTurn(turn, strings.TrimSpace(text)), m.spinner.Tick)
}

func (m *ChatModel) handleOpened(msg sessionOpenedMsg) tea.Cmd {
	if msg.session != m.engine.ID() || !m.engine.Alive() {
		return nil
	}
	m.opening = ""

	if msg.err != nil {
		m.engine.FailOpen(msg.err)
		return nil
	}

	m.chat = msg.chat
	m.logger.Debug("session opened")
	return m.startTurn(msg.turn, prompt.OpeningInstruction)
}

// startTurn streams the reply to text into the given turn
func (m *ChatModel) startTurn(turn, text string) tea.Cmd {
	chat := m.chat
	m.pump = transcript.StartPump(m.engine.Context(), transcript.PumpConfig{
		Session:     m.engine.ID(),
		Turn:        turn,
		IdleTimeout: m.opts.IdleTimeout,
		Logger:      m.logger,
	}, func(ctx context.Context) iter.Seq2[string, error] {
		return chat.Send(ctx, text)
	})

	return tea.Batch(waitForEvent(m.pump.Events()), m.ensureTicking())
}

// ensureTicking keeps exactly one reveal tick scheduled while anything reveals
func (m *ChatModel) ensureTicking() tea.Cmd {
	if m.ticking || !m.engine.Revealing() {
		return nil
	}
	m.ticking = true
	return revealTick(m.engine.ID(), m.opts.RevealInterval)
}

func (m ChatModel) copyLastReply() tea.Cmd {
	text := m.engine.LastAssistantText()
	if text == "" {
		return nil
	}
	write := m.opts.Clipboard
	return func() tea.Msg {
		return copiedMsg{err: write(text)}
	}
}

// syncInput disables the input while a turn is in flight
func (m *ChatModel) syncInput() {
	if m.engine.TurnInFlight() || m.chat == nil {
		m.textarea.Blur()
	} else if !m.textarea.Focused() {
		m.textarea.Focus()
	}
}

// fitInput grows the input with its content, up to maxInputLines
func (m *ChatModel) fitInput() {
	lines := m.textarea.LineCount()
	if lines < minInputLines {
		lines = minInputLines
	}
	if lines > maxInputLines {
		lines = maxInputLines
	}
	if lines != m.textarea.Height() {
		m.textarea.SetHeight(lines)
		m.layout()
	}
}

// layout sizes the viewport around the header, input and banner
func (m *ChatModel) layout() {
	if !m.ready {
		return
	}

	contentWidth := m.width - 2
	headerHeight := 3
	inputHeight := m.textarea.Height() + 3
	statusHeight := 1
	bannerHeight := 0
	if err := m.engine.LastError(); err != nil {
		bannerHeight = lipgloss.Height(renderBanner(err, contentWidth))
	}

	vpHeight := m.height - headerHeight - inputHeight - statusHeight - bannerHeight - 2
	if vpHeight < 3 {
		vpHeight = 3
	}

	m.viewport.Width = contentWidth - 4
	m.viewport.Height = vpHeight
	m.textarea.SetWidth(contentWidth - 6)
}

// refresh re-renders the transcript when the engine changed and keeps the
// newest message in view
func (m *ChatModel) refresh(force bool) {
	version := m.engine.Version()
	if !force && version == m.seenVersion {
		return
	}
	m.seenVersion = version
	m.layout()
	m.viewport.SetContent(m.renderMessages())
	m.viewport.GotoBottom()
}

func (m *ChatModel) renderMessages() string {
	bubbleWidth := m.viewport.Width - 6
	if bubbleWidth < 10 {
		bubbleWidth = 10
	}

	var content strings.Builder
	for i, msg := range m.engine.Messages() {
		if i > 0 {
			content.WriteString("\n")
		}

		switch msg.Role {
		case models.RoleSystem:
			content.WriteString(noticeStyle.Width(m.viewport.Width).Render(msg.Text()))

		case models.RoleUser:
			content.WriteString(userLabelStyle.Render("● You") + "\n")
			content.WriteString(userBubbleStyle.Width(bubbleWidth).Render(msg.Text()) + "\n")
			content.WriteString(m.timestamp(msg, 4))

		case models.RoleAssistant:
			content.WriteString(assistantLabelStyle.Render("✦ "+m.tutor) + "\n")
			if msg.Empty() && msg.Active() {
				if m.engine.Thinking() {
					content.WriteString(m.spinner.View() + " " + hintStyle.Render(prompt.ThinkingText(m.course)))
				}
				continue
			}
			body := m.renderReply(msg, bubbleWidth-4)
			content.WriteString(assistantBubbleStyle.Width(bubbleWidth).Render(body) + "\n")
			content.WriteString(m.timestamp(msg, 0))
		}
		content.WriteString("\n")
	}

	return content.String()
}

// renderReply renders the revealed part of an assistant message
func (m *ChatModel) renderReply(msg models.Message, width int) string {
	if !msg.Active() {
		if cached, ok := m.rendered[msg.ID]; ok && cached.width == width {
			return cached.text
		}
	}

	opts := render.OptionsFromConfig(m.opts.Markdown, width)
	out := render.MarkdownOrPlain(msg.Displayed, opts)

	if msg.Revealing {
		return out + cursorStyle.Render(TypingCursor)
	}
	if !msg.Active() {
		m.rendered[msg.ID] = renderedMessage{width: width, text: out}
	}
	return out
}

func (m ChatModel) timestamp(msg models.Message, indent int) string {
	return timestampStyle.MarginLeft(indent).Render(msg.CreatedAt.Format("15:04"))
}

// View renders the chat screen
func (m ChatModel) View() string {
	if !m.ready {
		return loadingStyle.Render("  Preparing your lesson...")
	}

	contentWidth := m.width - 2
	accent := render.AccentColor(m.course.ThemeColor)

	var sections []string

	headerParts := []string{
		lipgloss.NewStyle().Foreground(accent).Bold(true).Render(m.course.Icon + " " + m.course.Title),
		hintStyle.Render("  •  "),
		subtitleStyle.Render("Tutor: " + m.tutor),
		hintStyle.Render("  •  "),
		subtitleStyle.Render(m.gateway.Name()),
	}
	header := headerStyle.BorderForeground(accent).Width(contentWidth).
		Render(lipgloss.JoinHorizontal(lipgloss.Center, headerParts...))
	sections = append(sections, header)

	sections = append(sections, messagesAreaStyle.Width(contentWidth).Render(m.viewport.View()))

	if err := m.engine.LastError(); err != nil {
		sections = append(sections, renderBanner(err, contentWidth))
	}

	label := inputLabelStyle.Render("You")
	switch {
	case m.chat == nil && m.engine.LastError() != nil:
		label = hintStyle.Render(SessionLostHint)
	case m.engine.TurnInFlight() || m.chat == nil:
		label = hintStyle.Render(fmt.Sprintf("%s is speaking...", m.tutor))
	}
	if m.feedback != "" {
		label += "  " + feedbackStyle.Render(m.feedback)
	}
	input := inputPanelStyle.Width(contentWidth).Render(lipgloss.JoinVertical(lipgloss.Left, label, m.textarea.View()))
	sections = append(sections, input)

	sections = append(sections, renderShortcuts(contentWidth,
		[2]string{"Enter", "Send"},
		[2]string{"Alt+Enter", "Newline"},
		[2]string{"PgUp/PgDn", "Scroll"},
		[2]string{"Ctrl+Y", "Copy"},
		[2]string{"Esc", "Courses"},
	))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
