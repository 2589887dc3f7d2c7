// Package timestamp provides utilities for handling on-disk timestamps
package timestamp

import (
	"time"
)

// Unix returns t as seconds since the Unix epoch.
// Unset times, which parsers report as the zero time.Time, map to 0 rather than
// the large negative value time.Time.Unix would yield.
func Unix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

// FromUnix is the inverse of Unix for 32-bit on-disk fields; 0 stays unset.
func FromUnix(sec uint32) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(int64(sec), 0).UTC()
}
