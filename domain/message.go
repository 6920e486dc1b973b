// Package domain contains core concepts of the chat system.
// This file defines Message records and conversation identity.
// Messages are immutable once persisted.
package domain

import (
	"net/url"
	"strings"
	"time"
)

// Message represents an immutable direct message between two users.
// Content is an opaque blob: the server stores and routes it but never
// interprets it.
type Message struct {
	ID        uint64 // monotonic, insertion-ordered
	Sender    string
	Recipient string
	Content   string
	At        time.Time
}

// PairKey returns the order-independent identifier of a two-party
// conversation. PairKey(a, b) == PairKey(b, a), so both directions of a
// conversation share one history.
//
// Each name is escaped before joining so that separator characters inside a
// username cannot alias another pair: without escaping, ("x", "a|b") and
// ("a", "b|x") would share a key. Plain alphanumeric usernames pass through
// unchanged.
func PairKey(a, b string) string {
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return url.QueryEscape(a) + "|" + url.QueryEscape(b)
}
