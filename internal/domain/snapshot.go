package domain

import "time"

// Snapshot is the persisted report set as last written by a fetch cycle.
type Snapshot struct {
	Reports   []Report
	UpdatedAt time.Time
	Exists    bool
}

// FreshWithin reports whether the snapshot exists and was written less than
// window ago according to the package clock.
func (s Snapshot) FreshWithin(window time.Duration) bool {
	if !s.Exists {
		return false
	}
	return clock.Since(s.UpdatedAt) < window
}
