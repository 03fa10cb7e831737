package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Map9876/GitHub-action-torrent/internal/status"
	"github.com/Map9876/GitHub-action-torrent/internal/utils"
)

func (m RootModel) View() string {
	var sections []string
	sections = append(sections, m.renderHeader(), "")

	switch {
	case m.state == ConnectingState:
		sections = append(sections, DimStyle.Render("Waiting for the first snapshot..."))
	case len(m.downloads) == 0:
		sections = append(sections, DimStyle.Render("No downloads"))
	default:
		end := m.offset + m.visibleRows()
		if end > len(m.downloads) {
			end = len(m.downloads)
		}
		for _, d := range m.downloads[m.offset:end] {
			sections = append(sections, m.renderDownload(d))
		}
	}

	sections = append(sections, "", m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m RootModel) renderHeader() string {
	var dot, state string
	switch m.state {
	case ConnectingState:
		dot = lipgloss.NewStyle().Foreground(ColorStateWait).Render("●")
		state = "connecting"
	case LiveState:
		dot = lipgloss.NewStyle().Foreground(ColorStateLive).Render("●")
		state = "live"
	case ClosedState:
		dot = lipgloss.NewStyle().Foreground(ColorStateError).Render("●")
		state = "closed"
		if m.closeErr != nil {
			state = "closed: " + m.closeErr.Error()
		}
	}

	title := TitleStyle.Render("dlview")
	if m.Version != "" {
		title += DimStyle.Render(" " + m.Version)
	}
	line1 := lipgloss.JoinHorizontal(lipgloss.Left, title, "  ", dot, " ", DimStyle.Render(m.Address+" ("+state+")"))

	size, downloaded, speed := m.CalculateStats()
	parts := []string{
		fmt.Sprintf("%d downloads", len(m.downloads)),
		fmt.Sprintf("%s / %s", utils.ConvertBytesToHumanReadable(downloaded), utils.ConvertBytesToHumanReadable(size)),
		status.FormatNumber(speed) + " kB/s",
	}
	if m.peers > 0 {
		parts = append(parts, fmt.Sprintf("%d peers", m.peers))
	}
	if m.totalProgress > 0 {
		parts = append(parts, fmt.Sprintf("%.1f%% total", m.totalProgress))
	}
	if m.timestamp != "" {
		parts = append(parts, "sent "+m.timestamp)
	}
	if !m.lastUpdate.IsZero() {
		parts = append(parts, "updated "+m.lastUpdate.Format("15:04:05"))
	}
	line2 := DimStyle.Render(strings.Join(parts, " · "))

	return lipgloss.JoinVertical(lipgloss.Left, line1, line2)
}

func (m RootModel) renderDownload(d *DownloadModel) string {
	width := m.width - 4
	if width < MinProgressWidth+4 {
		width = MinProgressWidth + 4
	}

	d.progress.Width = width - 4
	if d.progress.Width < MinProgressWidth {
		d.progress.Width = MinProgressWidth
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		PathStyle.Render(utils.TruncateString(d.Path, width-4)),
		lipgloss.JoinHorizontal(lipgloss.Left, StatsLabelStyle.Render("Size:"), StatsValueStyle.Render(status.FormatNumber(d.Size)+" bytes")),
		lipgloss.JoinHorizontal(lipgloss.Left, StatsLabelStyle.Render("Downloaded:"), StatsValueStyle.Render(status.FormatNumber(d.Downloaded)+" bytes")),
		lipgloss.JoinHorizontal(lipgloss.Left, StatsLabelStyle.Render("Speed:"), StatsValueStyle.Render(status.FormatNumber(d.Speed)+" kB/s")),
		d.progress.ViewAs(d.Fraction()),
	)
	return BlockStyle.Width(width).Render(content)
}
