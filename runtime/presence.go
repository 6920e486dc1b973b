package runtime

import (
	"sync"
	"time"

	"pairchat/domain"
)

// PresenceTracker keeps per-user live-connection counts. A user is online
// while at least one connection is open; a boolean would mark a user offline
// as soon as one of several tabs closes, so a count is kept instead.
//
// Records are created on first connect and kept for the process lifetime.
type PresenceTracker struct {
	mu       sync.Mutex
	counts   map[string]int
	lastSeen map[string]time.Time
}

func NewPresenceTracker() *PresenceTracker {
	return &PresenceTracker{
		counts:   make(map[string]int),
		lastSeen: make(map[string]time.Time),
	}
}

// Connect registers one more live connection for the user. It reports whether
// this was the Offline to Online transition, so the caller broadcasts a
// status change exactly once per actual flip.
func (p *PresenceTracker) Connect(username string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.counts[username]++
	return p.counts[username] == 1
}

// Disconnect unregisters one live connection. Only when the last connection
// closes does the user transition to Offline, with lastSeen recorded at now.
// Extra calls while already offline are no-ops.
func (p *PresenceTracker) Disconnect(username string, now time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.counts[username] == 0 {
		return false
	}
	p.counts[username]--
	if p.counts[username] > 0 {
		return false
	}
	delete(p.counts, username)
	p.lastSeen[username] = now
	return true
}

func (p *PresenceTracker) IsOnline(username string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counts[username] > 0
}

// LastSeen returns the recorded offline-transition time. The second return
// is false while the user is online or has never disconnected.
func (p *PresenceTracker) LastSeen(username string) (time.Time, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.counts[username] > 0 {
		return time.Time{}, false
	}
	at, ok := p.lastSeen[username]
	return at, ok
}

// Snapshot lists every user this process has seen, online first is not
// guaranteed; callers sort or index as needed.
func (p *PresenceTracker) Snapshot() []domain.Presence {
	p.mu.Lock()
	defer p.mu.Unlock()

	seen := make(map[string]struct{}, len(p.counts)+len(p.lastSeen))
	var all []domain.Presence
	for username := range p.counts {
		seen[username] = struct{}{}
		all = append(all, domain.Presence{Username: username, Online: true})
	}
	for username, at := range p.lastSeen {
		if _, ok := seen[username]; ok {
			continue
		}
		all = append(all, domain.Presence{Username: username, Online: false, LastSeen: at})
	}
	return all
}
