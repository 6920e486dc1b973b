// Package event defines the domain events fanned out to live connections.
// Each variant is an explicit struct: payloads are typed at the boundary,
// never free-form maps.
package event

import (
	"time"

	"pairchat/domain"
)

// DomainEvent is anything that can be pushed to a connected client.
type DomainEvent interface {
	Kind() string
}

const (
	KindStatusUpdate = "status_update"
	KindNewMessage   = "new_message"
	KindChatHistory  = "chat_history"
	KindError        = "error"
)

// StatusChanged announces a presence transition. LastSeen is zero while the
// user is online.
type StatusChanged struct {
	Username string
	Online   bool
	LastSeen time.Time
}

func (StatusChanged) Kind() string { return KindStatusUpdate }

// MessageStored carries a freshly persisted message to the sender's and
// recipient's live connections.
type MessageStored struct {
	Message domain.Message
}

func (MessageStored) Kind() string { return KindNewMessage }

// HistoryFetched is the unicast reply to a history request.
type HistoryFetched struct {
	Contact  string
	Messages []domain.Message
}

func (HistoryFetched) Kind() string { return KindChatHistory }

// ErrorRaised acknowledges a rejected client event with a stable code,
// unicast to the connection that sent it.
type ErrorRaised struct {
	Code    string
	Message string
}

func (ErrorRaised) Kind() string { return KindError }
