package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary   = lipgloss.Color("#00377B")
	colorUserBg    = lipgloss.Color("#0055A2")
	colorBotBorder = lipgloss.Color("#EFEAE4")
	colorMuted     = lipgloss.Color("#8A8A8A")
	colorError     = lipgloss.Color("#E5484D")
)

// Styles groups the lipgloss styles used by the chat view.
type Styles struct {
	Header    lipgloss.Style
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	User      lipgloss.Style
	Bot       lipgloss.Style
	Typing    lipgloss.Style
	Helper    lipgloss.Style
	Hint      lipgloss.Style
	Dialog    lipgloss.Style
	DialogTop lipgloss.Style
}

// DefaultStyles returns the stock palette.
func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Background(colorPrimary).
			Padding(0, 2).
			Align(lipgloss.Center),
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(colorPrimary),
		Subtitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(colorPrimary),
		User: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(colorUserBg).
			Padding(0, 1).
			MarginTop(1),
		Bot: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBotBorder).
			Padding(0, 1),
		Typing: lipgloss.NewStyle().Foreground(colorMuted),
		Helper: lipgloss.NewStyle().Foreground(colorError),
		Hint:   lipgloss.NewStyle().Foreground(colorMuted).Italic(true),
		Dialog: lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(colorPrimary).
			Padding(1, 3).
			Width(52),
		DialogTop: lipgloss.NewStyle().Bold(true).MarginBottom(1),
	}
}
