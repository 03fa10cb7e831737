package render

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/Map9876/GitHub-action-torrent/internal/status"
)

func TestTable_Render(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTable(&buf)

	snap := status.Snapshot{Files: []status.DownloadStatus{
		{Path: "a.zip", Size: 1000, Downloaded: 250, Speed: 50},
		{Path: "b.iso", Size: 0, Downloaded: 0, Speed: 0},
	}}
	if err := tbl.Render(snap); err != nil {
		t.Fatalf("Render: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"PATH", "a.zip", "1000", "250", "25.0%", "50 kB/s", "b.iso", "0.0%"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "a.zip") > strings.Index(out, "b.iso") {
		t.Error("rows out of order")
	}
}

func TestTable_HumanSizes(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTable(&buf)
	tbl.Human = true

	if err := tbl.Render(status.Snapshot{Files: []status.DownloadStatus{{Path: "big", Size: 2500000, Downloaded: 1000}}}); err != nil {
		t.Fatal(err)
	}
	if out := buf.String(); !strings.Contains(out, "2.5 MB") || !strings.Contains(out, "1.0 kB") {
		t.Errorf("expected human sizes:\n%s", out)
	}
}

func TestTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := NewTable(&buf).Render(status.Snapshot{}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "No downloads.\n" {
		t.Errorf("output = %q", buf.String())
	}
}

func TestJSON_Render(t *testing.T) {
	var buf bytes.Buffer
	j := NewJSON(&buf)

	if err := j.Render(status.Snapshot{Files: []status.DownloadStatus{{Path: "a.zip", Size: 1000, Downloaded: 250, Speed: 50}}}); err != nil {
		t.Fatal(err)
	}
	if err := j.Render(status.Snapshot{}); err != nil {
		t.Fatal(err)
	}

	want := `[{"path":"a.zip","size":1000,"downloaded":250,"speed":50}]` + "\n" + "[]\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

type renderFunc func(status.Snapshot) error

func (f renderFunc) Render(snap status.Snapshot) error { return f(snap) }

func TestMulti_AttemptsAll(t *testing.T) {
	errBoom := errors.New("boom")
	var calls []string
	m := Multi{
		renderFunc(func(status.Snapshot) error { calls = append(calls, "first"); return errBoom }),
		renderFunc(func(status.Snapshot) error { calls = append(calls, "second"); return nil }),
	}

	err := m.Render(status.Snapshot{})
	if !errors.Is(err, errBoom) {
		t.Errorf("err = %v, want errBoom", err)
	}
	if strings.Join(calls, ",") != "first,second" {
		t.Errorf("calls = %v", calls)
	}
}
