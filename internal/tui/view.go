package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zhouzirui/thalassa/internal/model/chat"
)

const (
	title    = "Thalassa"
	subtitle = "Sakarya University AI Assistant"

	welcomeTitle = "Welcome to the AI Chatbot"
	welcomeBody  = "Note: The AI might make mistakes. Please be aware of that while chatting!"
)

// View renders the whole screen.
func (m Model) View() string {
	if m.showWelcome {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.renderWelcome())
	}

	sections := []string{
		m.renderHeader(),
		m.viewport.View(),
		m.renderTyping(),
		m.textarea.View(),
		m.styles.Helper.Render(m.inputErr),
		m.styles.Hint.Render("enter send · pgup/pgdn scroll · esc quit"),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	content := lipgloss.JoinVertical(lipgloss.Center,
		m.styles.Title.Render(title),
		m.styles.Subtitle.Render(subtitle),
	)
	return m.styles.Header.Width(m.width).Render(content)
}

func (m Model) renderTyping() string {
	if !m.snapshot.IsLoading {
		return ""
	}
	return m.styles.Typing.Render(m.spinner.View() + " Writing...")
}

func (m Model) renderWelcome() string {
	body := lipgloss.JoinVertical(lipgloss.Left,
		m.styles.DialogTop.Render(welcomeTitle),
		welcomeBody,
		"",
		m.styles.Hint.Render("press any key to continue"),
	)
	return m.styles.Dialog.Render(body)
}

// renderMessages lays the log out in append order: user entries on the right,
// bot entries on the left.
func (m Model) renderMessages() string {
	width := m.bubbleWidth()
	var sb strings.Builder

	for i, msg := range m.snapshot.Messages {
		if i > 0 {
			sb.WriteString("\n")
		}
		switch msg.From {
		case chat.SenderUser:
			bubble := m.styles.User.MaxWidth(width).Render(wrap(msg.Text, width-2))
			sb.WriteString(lipgloss.PlaceHorizontal(m.width, lipgloss.Right, bubble))
		default:
			bubble := m.styles.Bot.Render(m.renderBotText(msg.Text, width-4))
			sb.WriteString(lipgloss.PlaceHorizontal(m.width, lipgloss.Left, bubble))
		}
	}

	return sb.String()
}

func (m Model) renderBotText(text string, width int) string {
	if m.renderer != nil {
		if out, err := m.renderer.Render(text); err == nil {
			return strings.Trim(out, "\n")
		}
	}
	return wrap(text, width)
}

func wrap(text string, width int) string {
	if width <= 0 || lipgloss.Width(text) <= width {
		return text
	}
	return lipgloss.NewStyle().Width(width).Render(text)
}
