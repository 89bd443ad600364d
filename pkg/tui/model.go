// Package tui is the full-screen chat view of "fiekchat chat --tui".
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	bubbletea "github.com/charmbracelet/bubbletea"

	"github.com/fiekai/fiekchat/pkg/conversation"
	"github.com/fiekai/fiekchat/pkg/stream"
)

// Submitter runs chat turns. *shell.Shell implements it.
type Submitter interface {
	Submit(ctx context.Context, input string, onUpdate func(stream.Update)) (conversation.Message, error)
	Cancel()
	Conversation() *conversation.Conversation
	Language() conversation.Language
	SetLanguage(code string) error
}

// turnBuffer is the capacity of the channel between a running turn and the
// bubbletea loop.
const turnBuffer = 16

type updateMsg struct {
	update stream.Update
}

type turnDoneMsg struct {
	message conversation.Message
	err     error
}

type chatModel struct {
	ctx    context.Context
	shell  Submitter
	events chan bubbletea.Msg

	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model
	help     help.Model
	keys     chatKeyMap

	width   int
	height  int
	busy    bool
	errText string
}

func newChatModel(ctx context.Context, s Submitter) chatModel {
	input := textarea.New()
	input.Placeholder = s.Language().Placeholder
	input.ShowLineNumbers = false
	input.CharLimit = 4000
	input.SetHeight(3)
	input.KeyMap.InsertNewline.SetEnabled(false)
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = accentStyle

	m := chatModel{
		ctx:      ctx,
		shell:    s,
		viewport: viewport.New(80, 20),
		input:    input,
		spinner:  sp,
		help:     help.New(),
		keys:     defaultKeyMap(),
		width:    80,
		height:   24,
	}
	m.refresh()
	return m
}

func (m chatModel) Init() bubbletea.Cmd {
	return textarea.Blink
}

func (m chatModel) Update(msg bubbletea.Msg) (bubbletea.Model, bubbletea.Cmd) {
	switch msg := msg.(type) {
	case bubbletea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.refresh()
		return m, nil

	case bubbletea.KeyMsg:
		return m.handleKey(msg)

	case updateMsg:
		m.refresh()
		return m, m.waitForTurn()

	case turnDoneMsg:
		m.busy = false
		m.errText = conversation.ErrorText(msg.err)
		m.events = nil
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd bubbletea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd
	}

	var cmd bubbletea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m chatModel) handleKey(msg bubbletea.KeyMsg) (bubbletea.Model, bubbletea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.shell.Cancel()
		return m, bubbletea.Quit

	case key.Matches(msg, m.keys.Cancel):
		if m.busy {
			m.shell.Cancel()
		}
		return m, nil

	case key.Matches(msg, m.keys.Send):
		return m.submit()

	case key.Matches(msg, m.keys.Clear):
		if !m.busy {
			m.shell.Conversation().Clear()
			m.errText = ""
			m.refresh()
		}
		return m, nil

	case key.Matches(msg, m.keys.Language):
		next := "sq"
		if m.shell.Language().Code == "sq" {
			next = "en"
		}
		if err := m.shell.SetLanguage(next); err != nil {
			m.errText = err.Error()
			return m, nil
		}
		m.input.Placeholder = m.shell.Language().Placeholder
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
		var cmd bubbletea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd bubbletea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit starts a turn on its own goroutine. Updates come back through
// m.events, one waitForTurn command at a time.
func (m chatModel) submit() (bubbletea.Model, bubbletea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if m.busy || text == "" {
		return m, nil
	}

	events := make(chan bubbletea.Msg, turnBuffer)
	ctx := m.ctx
	send := func(msg bubbletea.Msg) {
		select {
		case events <- msg:
		case <-ctx.Done():
		}
	}

	go func() {
		msg, err := m.shell.Submit(ctx, text, func(u stream.Update) {
			send(updateMsg{update: u})
		})
		send(turnDoneMsg{message: msg, err: err})
	}()

	m.events = events
	m.busy = true
	m.errText = ""
	m.input.Reset()
	m.refresh()

	return m, bubbletea.Batch(m.waitForTurn(), m.spinner.Tick)
}

func (m chatModel) waitForTurn() bubbletea.Cmd {
	events := m.events
	if events == nil {
		return nil
	}
	return func() bubbletea.Msg {
		return <-events
	}
}

// layout sizes the widgets to the window.
func (m *chatModel) layout() {
	m.input.SetWidth(max(m.width-2, 10))
	m.help.Width = m.width

	// header, error line, input, help
	chrome := 1 + 1 + m.input.Height() + 2 + 1
	m.viewport.Width = m.width
	m.viewport.Height = max(m.height-chrome, 3)
}

// refresh re-renders the history into the viewport and keeps the latest
// message in view.
func (m *chatModel) refresh() {
	m.viewport.SetContent(renderMessages(m.shell.Conversation().Messages(), m.viewport.Width, m.spinner.View()))
	m.viewport.GotoBottom()
}
