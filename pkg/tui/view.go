package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/fiekai/fiekchat/pkg/chatapi"
	"github.com/fiekai/fiekchat/pkg/conversation"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	accentStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	roleUserStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	roleAsstStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true)
	systemStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	statusOKStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("70"))
	statusOffStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

func (m chatModel) View() string {
	var b strings.Builder
	b.WriteString(m.viewHeader())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	if m.errText != "" {
		b.WriteString(errorStyle.Render(m.errText))
	}
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m chatModel) viewHeader() string {
	conv := m.shell.Conversation()

	status := mutedStyle.Render("● connecting")
	switch conv.Status() {
	case conversation.StatusOnline:
		status = statusOKStyle.Render("● online")
	case conversation.StatusOffline:
		status = statusOffStyle.Render("● offline")
	}

	left := titleStyle.Render("FIEK AI Chatbot")
	right := status + mutedStyle.Render("  "+m.shell.Language().Name)

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

// renderMessages lays out the history for a viewport of the given width.
// An empty assistant placeholder shows indicator instead of text.
func renderMessages(msgs []conversation.Message, width int, indicator string) string {
	if width < 10 {
		width = 10
	}

	blocks := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		blocks = append(blocks, renderMessage(msg, width, indicator))
	}
	return strings.Join(blocks, "\n\n")
}

func renderMessage(msg conversation.Message, width int, indicator string) string {
	body := ansi.Wrap(msg.Content, width-2, "")

	switch msg.Role {
	case chatapi.RoleUser:
		return roleUserStyle.Render("You") + "\n" + indent(body)

	case chatapi.RoleSystem:
		return systemStyle.Render(body)

	default:
		if msg.IsStreaming && msg.Content == "" {
			body = indicator
		}
		label := roleAsstStyle.Render("FIEK")
		if msg.IsStreaming {
			label += " " + mutedStyle.Render("typing…")
		}
		if msg.Failed {
			body = errorStyle.Render(body)
		}
		return label + "\n" + indent(body)
	}
}

func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = "  " + line
	}
	return strings.Join(lines, "\n")
}
