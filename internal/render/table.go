package render

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Map9876/GitHub-action-torrent/internal/status"
	"github.com/Map9876/GitHub-action-torrent/internal/utils"
)

// Table writes each snapshot as a plain-text table.
type Table struct {
	mu sync.Mutex
	w  io.Writer

	// Human formats sizes as "1.2 MB" instead of raw byte counts.
	Human bool
	// PathWidth truncates long paths; zero keeps them whole.
	PathWidth int
}

// NewTable returns a table renderer writing to w.
func NewTable(w io.Writer) *Table {
	return &Table{w: w}
}

func (t *Table) Render(snap status.Snapshot) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if snap.Len() == 0 {
		_, err := fmt.Fprintln(t.w, "No downloads.")
		return err
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Path", "Size", "Downloaded", "Progress", "Speed"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})

	for _, f := range snap.Files {
		path := f.Path
		if t.PathWidth > 0 {
			path = utils.TruncateString(path, t.PathWidth)
		}
		tw.AppendRow(table.Row{
			path,
			t.bytes(f.Size),
			t.bytes(f.Downloaded),
			fmt.Sprintf("%.1f%%", f.Fraction()*100),
			status.FormatNumber(f.Speed) + " kB/s",
		})
	}

	_, err := fmt.Fprintln(t.w, tw.Render())
	return err
}

func (t *Table) bytes(n float64) string {
	if t.Human {
		return utils.ConvertBytesToHumanReadable(n)
	}
	return status.FormatNumber(n)
}

// JSON writes each snapshot's records as a single JSON line.
type JSON struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSON returns a JSON-lines renderer writing to w.
func NewJSON(w io.Writer) *JSON {
	return &JSON{enc: json.NewEncoder(w)}
}

func (j *JSON) Render(snap status.Snapshot) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	files := snap.Files
	if files == nil {
		files = []status.DownloadStatus{}
	}
	return j.enc.Encode(files)
}
