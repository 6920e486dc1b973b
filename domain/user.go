package domain

import "time"

// User is an account record. Presence (online flag, last seen) lives in the
// runtime PresenceTracker while the process runs; LastSeen is persisted on
// each offline transition so it survives restarts.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Roles        []string
	CreatedAt    time.Time
	LastSeen     time.Time
}
