package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Map9876/GitHub-action-torrent/internal/feed"
	"github.com/Map9876/GitHub-action-torrent/internal/status"
)

func (m RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.clampOffset()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			if m.offset > 0 {
				m.offset--
			}
		case key.Matches(msg, m.keys.Down):
			m.offset++
			m.clampOffset()
		case key.Matches(msg, m.keys.Top):
			m.offset = 0
		}
		return m, nil

	case SnapshotMsg:
		// every snapshot replaces all rows
		rows := make([]*DownloadModel, 0, msg.Snapshot.Len())
		for _, f := range msg.Snapshot.Files {
			rows = append(rows, NewDownloadModel(f))
		}
		m.downloads = rows
		m.peers = msg.Snapshot.Peers
		m.totalProgress = msg.Snapshot.TotalProgress
		m.timestamp = msg.Snapshot.Timestamp
		m.lastUpdate = msg.At
		if m.lastUpdate.IsZero() {
			m.lastUpdate = time.Now()
		}
		m.updates++
		if m.state == ConnectingState {
			m.state = LiveState
		}
		m.clampOffset()
		return m, nil

	case FeedClosedMsg:
		m.state = ClosedState
		m.closeErr = msg.Err
		return m, nil
	}

	return m, nil
}

// visibleRows returns how many download blocks fit on screen.
func (m RootModel) visibleRows() int {
	if m.height == 0 {
		return len(m.downloads)
	}
	// header (2 lines + blank) and help (blank + 1 line)
	rows := (m.height - 5) / BlockHeight
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (m *RootModel) clampOffset() {
	maxOffset := len(m.downloads) - m.visibleRows()
	if maxOffset < 0 {
		maxOffset = 0
	}
	if m.offset > maxOffset {
		m.offset = maxOffset
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// Sender is the part of *tea.Program used to deliver feed events.
type Sender interface {
	Send(msg tea.Msg)
}

// Consumer forwards each snapshot to the program as a SnapshotMsg.
func Consumer(p Sender) feed.Consumer {
	return feed.ConsumerFunc(func(snap status.Snapshot) {
		p.Send(SnapshotMsg{Snapshot: snap, At: time.Now()})
	})
}
