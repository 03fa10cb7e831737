package tui

import "github.com/charmbracelet/lipgloss"

// Palette
var (
	ColorNeonPink   = lipgloss.Color("#ff79c6")
	ColorNeonPurple = lipgloss.Color("#bd93f9")
	ColorNeonCyan   = lipgloss.Color("#8be9fd")
	ColorDarkGray   = lipgloss.Color("#44475a")
	ColorGray       = lipgloss.Color("#6272a4")
	ColorLightGray  = lipgloss.Color("#bfbfbf")

	ColorStateLive  = lipgloss.Color("#50fa7b")
	ColorStateWait  = lipgloss.Color("#f1fa8c")
	ColorStateError = lipgloss.Color("#ff5555")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorNeonPink).
			Bold(true)

	PathStyle = lipgloss.NewStyle().
			Foreground(ColorNeonCyan).
			Bold(true)

	StatsLabelStyle = lipgloss.NewStyle().
			Foreground(ColorLightGray).
			Width(12)

	StatsValueStyle = lipgloss.NewStyle().
			Foreground(ColorNeonPink)

	DimStyle = lipgloss.NewStyle().Foreground(ColorGray)

	BlockStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorDarkGray).
			Padding(0, 1)
)

const (
	// BlockHeight is the rendered height of one download block including its border.
	BlockHeight = 7
	// MinProgressWidth keeps bars readable on narrow terminals.
	MinProgressWidth = 10
)
