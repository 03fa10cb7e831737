package utils

import (
	"math"

	"github.com/dustin/go-humanize"
)

// ConvertBytesToHumanReadable formats a byte count like "1.2 MB".
// Negative and non-finite counts render as "0 B".
func ConvertBytesToHumanReadable(bytes float64) string {
	if bytes <= 0 || math.IsNaN(bytes) || math.IsInf(bytes, 0) {
		return "0 B"
	}
	return humanize.Bytes(uint64(bytes))
}

// TruncateString shortens s to at most n runes, ending with "..." when cut.
func TruncateString(s string, n int) string {
	runes := []rune(s)
	if n <= 3 || len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
