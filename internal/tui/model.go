// Package tui is the terminal view of a chat session: header, scrollable
// message list, typing indicator, input row and the welcome dialog.
package tui

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/zhouzirui/thalassa/internal/model/chat"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	inputHeight   = 3
	errorLifetime = 4 * time.Second
)

// Sender is the part of a chat session the view drives.
type Sender interface {
	Send(text string)
}

// Options configures the view.
type Options struct {
	MaxMessageLength int
	WelcomeTimeout   time.Duration
	Markdown         bool
}

type (
	snapshotMsg       chat.Snapshot
	sessionClosedMsg  struct{}
	welcomeTimeoutMsg struct{}
	clearErrorMsg     struct{ seq int }
)

// Model is the bubbletea model of the chat view.
type Model struct {
	sender  Sender
	updates <-chan chat.Snapshot
	opts    Options

	snapshot chat.Snapshot

	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer
	styles   Styles

	width  int
	height int

	showWelcome bool
	inputErr    string
	errSeq      int
}

// New builds the view. updates must carry the session's snapshots, typically
// the channel returned by the session's Subscribe.
func New(sender Sender, updates <-chan chat.Snapshot, opts Options) Model {
	if opts.MaxMessageLength <= 0 {
		opts.MaxMessageLength = 200
	}

	ta := textarea.New()
	ta.Placeholder = "Type a message"
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(inputHeight)
	ta.SetWidth(defaultWidth)
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		sender:      sender,
		updates:     updates,
		opts:        opts,
		viewport:    viewport.New(defaultWidth, defaultHeight),
		textarea:    ta,
		spinner:     sp,
		styles:      DefaultStyles(),
		width:       defaultWidth,
		height:      defaultHeight,
		showWelcome: opts.WelcomeTimeout > 0,
	}
	m.renderer = m.newRenderer()
	m.layout()
	return m
}

func (m Model) newRenderer() *glamour.TermRenderer {
	if !m.opts.Markdown {
		return nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(m.bubbleWidth()),
	)
	if err != nil {
		return nil
	}
	return r
}

// Init starts listening for session updates and arms the welcome timer.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForSnapshot(m.updates), m.spinner.Tick, textarea.Blink}
	if m.showWelcome {
		cmds = append(cmds, tea.Tick(m.opts.WelcomeTimeout, func(time.Time) tea.Msg {
			return welcomeTimeoutMsg{}
		}))
	}
	return tea.Batch(cmds...)
}

func waitForSnapshot(updates <-chan chat.Snapshot) tea.Cmd {
	if updates == nil {
		return nil
	}
	return func() tea.Msg {
		snap, ok := <-updates
		if !ok {
			return sessionClosedMsg{}
		}
		return snapshotMsg(snap)
	}
}

// Update handles terminal and session events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
		}
		if msg.Height > 0 {
			m.height = msg.Height
		}
		m.layout()
		m.renderer = m.newRenderer()
		m.refreshMessages()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case snapshotMsg:
		m.snapshot = chat.Snapshot(msg)
		if m.snapshot.IsLoading {
			m.textarea.Blur()
		} else {
			m.textarea.Focus()
		}
		m.refreshMessages()
		return m, waitForSnapshot(m.updates)

	case sessionClosedMsg:
		return m, tea.Quit

	case welcomeTimeoutMsg:
		m.showWelcome = false
		return m, nil

	case clearErrorMsg:
		if msg.seq == m.errSeq {
			m.inputErr = ""
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		if m.showWelcome {
			m.showWelcome = false
			return m, nil
		}
		return m, tea.Quit
	}

	if m.showWelcome {
		m.showWelcome = false
		return m, nil
	}

	switch msg.Type {
	case tea.KeyEnter:
		return m.submit()
	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if m.snapshot.IsLoading {
		return m, nil
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

// submit sends the current input. Empty input and sends while a reply is
// pending are refused silently; over-long input shows a helper error.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if !m.canSend() {
		return m, nil
	}

	value := m.textarea.Value()
	if utf8.RuneCountInString(value) > m.opts.MaxMessageLength {
		m.errSeq++
		seq := m.errSeq
		m.inputErr = fmt.Sprintf("Message cannot exceed %d characters.", m.opts.MaxMessageLength)
		return m, tea.Tick(errorLifetime, func(time.Time) tea.Msg {
			return clearErrorMsg{seq: seq}
		})
	}

	m.sender.Send(value)
	m.textarea.Reset()
	m.inputErr = ""
	return m, nil
}

func (m Model) canSend() bool {
	return !m.snapshot.IsLoading && strings.TrimSpace(m.textarea.Value()) != ""
}

// layout sizes the viewport and the input for the current window.
func (m *Model) layout() {
	m.textarea.SetWidth(max(m.width-2, 10))

	// header (2 lines + padding), typing line, input, helper line, hint line
	chrome := 4 + 1 + inputHeight + 1 + 1
	m.viewport.Width = m.width
	m.viewport.Height = max(m.height-chrome, 3)
}

func (m *Model) refreshMessages() {
	m.viewport.SetContent(m.renderMessages())
	m.viewport.GotoBottom()
}

func (m Model) bubbleWidth() int {
	return max(m.width*7/10, 20)
}
