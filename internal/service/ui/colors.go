package ui

import "github.com/charmbracelet/lipgloss"

// ANSI base colors render the same on light and dark terminals.
var (
	TitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true).MarginBottom(1)
	UsageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	DescStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	FlagStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))

	// Chat
	AssistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	ReplyStyle     = lipgloss.NewStyle().PaddingLeft(2)
	NoticeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	ErrorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)
