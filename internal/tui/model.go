package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Map9876/GitHub-action-torrent/internal/status"
)

// UIState tracks the feed connection as seen by the dashboard.
type UIState int

const (
	ConnectingState UIState = iota // waiting for the first snapshot
	LiveState                      // at least one snapshot rendered
	ClosedState                    // feed ended, last snapshot kept on screen
)

// DownloadModel is the view of one record from the latest snapshot.
type DownloadModel struct {
	Path       string
	Size       float64
	Downloaded float64
	Speed      float64 // kB/s

	progress progress.Model
}

// NewDownloadModel creates a row for one record.
func NewDownloadModel(f status.DownloadStatus) *DownloadModel {
	return &DownloadModel{
		Path:       f.Path,
		Size:       f.Size,
		Downloaded: f.Downloaded,
		Speed:      f.Speed,
		progress:   progress.New(progress.WithGradient(string(ColorNeonPink), string(ColorNeonCyan))),
	}
}

// Fraction returns the bounded progress of the row.
func (d *DownloadModel) Fraction() float64 {
	return status.DownloadStatus{Size: d.Size, Downloaded: d.Downloaded}.Fraction()
}

type RootModel struct {
	downloads []*DownloadModel
	width     int
	height    int
	state     UIState
	offset    int // first visible row when the list overflows

	// Envelope metadata of the latest snapshot
	peers         int
	totalProgress float64
	timestamp     string

	lastUpdate time.Time
	updates    int
	closeErr   error

	help help.Model
	keys KeyMap

	// Address is shown in the header.
	Address string
	// Version is shown next to the title.
	Version string
}

// SnapshotMsg delivers a new snapshot to the program.
type SnapshotMsg struct {
	Snapshot status.Snapshot
	At       time.Time
}

// FeedClosedMsg reports that the feed ended. Err is nil on a normal close.
type FeedClosedMsg struct {
	Err error
}

// InitialRootModel returns a dashboard waiting for its first snapshot.
func InitialRootModel(address, version string) RootModel {
	helpModel := help.New()
	helpModel.Styles.ShortKey = lipgloss.NewStyle().Foreground(ColorLightGray)
	helpModel.Styles.ShortDesc = lipgloss.NewStyle().Foreground(ColorGray)

	return RootModel{
		state:   ConnectingState,
		help:    helpModel,
		keys:    Keys,
		Address: address,
		Version: version,
	}
}

func (m RootModel) Init() tea.Cmd {
	return nil
}

// Downloads returns the rows of the latest snapshot in order.
func (m RootModel) Downloads() []*DownloadModel {
	return m.downloads
}

// State returns the connection state.
func (m RootModel) State() UIState {
	return m.state
}

// CalculateStats returns the aggregate size, downloaded bytes and speed of
// the current rows.
func (m RootModel) CalculateStats() (size, downloaded, speed float64) {
	for _, d := range m.downloads {
		size += d.Size
		downloaded += d.Downloaded
		speed += d.Speed
	}
	return
}
