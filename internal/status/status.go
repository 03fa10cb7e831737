// Package status defines the download-status records carried by the feed
// and decodes inbound payloads into snapshots.
package status

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrMalformedPayload is returned when a payload is not a status snapshot.
var ErrMalformedPayload = errors.New("malformed status payload")

// DownloadStatus describes one in-progress transfer.
type DownloadStatus struct {
	Path       string  `json:"path"`
	Size       float64 `json:"size"`
	Downloaded float64 `json:"downloaded"`
	Speed      float64 `json:"speed"` // kB/s
}

// Fraction returns Downloaded/Size clamped to [0, 1].
func (d DownloadStatus) Fraction() float64 {
	if d.Size <= 0 || math.IsNaN(d.Downloaded) {
		return 0
	}
	f := d.Downloaded / d.Size
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

// Snapshot is the full state of all downloads at one instant.
// It replaces any snapshot received before it.
type Snapshot struct {
	Files []DownloadStatus `json:"files"`

	// Envelope metadata, zero when the payload is a bare array.
	Peers         int     `json:"peers,omitempty"`
	TotalProgress float64 `json:"total_progress,omitempty"`
	Timestamp     string  `json:"timestamp,omitempty"`
}

// Len returns the number of records in the snapshot.
func (s Snapshot) Len() int { return len(s.Files) }

// Decode parses a payload. The payload is either a JSON array of records or
// an object whose "files" member is that array. Missing fields decode to
// their zero values; unknown fields are ignored.
func Decode(payload []byte) (Snapshot, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return Snapshot{}, fmt.Errorf("%w: empty payload", ErrMalformedPayload)
	}

	switch trimmed[0] {
	case '[':
		var records []*DownloadStatus
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return Snapshot{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		files, err := collect(records)
		if err != nil {
			return Snapshot{}, err
		}
		return Snapshot{Files: files}, nil
	case '{':
		var env struct {
			Files         *[]*DownloadStatus `json:"files"`
			Peers         int                `json:"peers"`
			TotalProgress float64            `json:"total_progress"`
			Timestamp     string             `json:"timestamp"`
		}
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return Snapshot{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		if env.Files == nil || *env.Files == nil {
			return Snapshot{}, fmt.Errorf("%w: object without files array", ErrMalformedPayload)
		}
		files, err := collect(*env.Files)
		if err != nil {
			return Snapshot{}, err
		}
		return Snapshot{
			Files:         files,
			Peers:         env.Peers,
			TotalProgress: env.TotalProgress,
			Timestamp:     env.Timestamp,
		}, nil
	default:
		return Snapshot{}, fmt.Errorf("%w: expected array or object", ErrMalformedPayload)
	}
}

// collect dereferences decoded records. A null element is not a record.
func collect(records []*DownloadStatus) ([]DownloadStatus, error) {
	files := make([]DownloadStatus, 0, len(records))
	for i, r := range records {
		if r == nil {
			return nil, fmt.Errorf("%w: record %d is null", ErrMalformedPayload, i)
		}
		files = append(files, *r)
	}
	return files, nil
}

// Encode serialises the snapshot's records as a bare JSON array.
func Encode(s Snapshot) ([]byte, error) {
	files := s.Files
	if files == nil {
		files = []DownloadStatus{}
	}
	return json.Marshal(files)
}

// FormatNumber renders n the way a browser converts a number to a string:
// plain decimals between 1e-6 and 1e21 (1000, 12.5, 0.25), exponent form
// outside that range (1e+21, 1.5e-7).
func FormatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	case n == 0:
		return "0"
	}

	abs := math.Abs(n)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}

	// strconv pads the exponent to two digits; browsers do not
	s := strconv.FormatFloat(n, 'e', -1, 64)
	mantissa, exp, _ := strings.Cut(s, "e")
	sign, digits := exp[:1], strings.TrimLeft(exp[1:], "0")
	return mantissa + "e" + sign + digits
}
