// Package render projects status snapshots onto display targets.
package render

import (
	"errors"

	"github.com/Map9876/GitHub-action-torrent/internal/status"
)

// Renderer replaces its target's contents with a snapshot.
type Renderer interface {
	Render(snap status.Snapshot) error
}

// Multi renders to each target in order. Every target is attempted; the
// returned error joins the failures.
type Multi []Renderer

func (m Multi) Render(snap status.Snapshot) error {
	var errs []error
	for _, r := range m {
		if err := r.Render(snap); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
