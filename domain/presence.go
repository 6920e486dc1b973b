package domain

import "time"

// Presence is a point-in-time snapshot of a user's availability.
// LastSeen is meaningful only while Online is false.
type Presence struct {
	Username string
	Online   bool
	LastSeen time.Time
}

// LastSeenLayout is the wire format of last-seen timestamps in status
// updates and rosters. Minute precision is all the UI shows.
const LastSeenLayout = "2006-01-02 15:04"
