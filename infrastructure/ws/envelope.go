package ws

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"pairchat/domain"
	"pairchat/domain/event"
	"pairchat/errors"
)

var validate = validator.New()

// Inbound event types accepted from clients. Connect and disconnect are not
// envelope types: they are the websocket lifecycle itself.
const (
	TypeSendMessage    = "send_message"
	TypeGetChatHistory = "get_chat_history"
)

// Envelope is the tagged wrapper around every client frame. One explicit
// payload struct exists per type; payloads are validated before any handler
// runs.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Recipient and contact carry the same shape rule as registration: only a
// name that could have been registered can address a conversation.
type SendMessagePayload struct {
	Recipient string `json:"recipient" validate:"required,alphanum,min=3,max=32"`
	Content   string `json:"content" validate:"required"`
}

type GetChatHistoryPayload struct {
	Contact string `json:"contact" validate:"required,alphanum,min=3,max=32"`
}

// DecodeEnvelope parses a raw client frame into its tagged form.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
	}
	return env, nil
}

// decodePayload unmarshals and validates an envelope payload into the typed
// struct for its event type.
func decodePayload[T any](payload json.RawMessage) (T, error) {
	var out T
	if err := json.Unmarshal(payload, &out); err != nil {
		return out, fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
	}
	if err := validate.Struct(out); err != nil {
		return out, fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
	}
	return out, nil
}

// Frame is an outbound wire message.
type Frame struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type StatusUpdatePayload struct {
	Username string `json:"username"`
	IsOnline bool   `json:"is_online"`
	LastSeen string `json:"last_seen"` // "2006-01-02 15:04" when offline, empty otherwise
}

type NewMessagePayload struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"` // RFC3339
}

type HistoryEntry struct {
	Sender    string `json:"sender"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"` // RFC3339
}

type ChatHistoryPayload struct {
	Contact string         `json:"contact"`
	History []HistoryEntry `json:"history"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// EncodeEvent converts a domain event into its wire frame.
func EncodeEvent(e event.DomainEvent) Frame {
	switch evt := e.(type) {
	case event.StatusChanged:
		payload := StatusUpdatePayload{Username: evt.Username, IsOnline: evt.Online}
		if !evt.Online {
			payload.LastSeen = evt.LastSeen.Format(domain.LastSeenLayout)
		}
		return Frame{Type: e.Kind(), Payload: payload}
	case event.MessageStored:
		return Frame{Type: e.Kind(), Payload: NewMessagePayload{
			Sender:    evt.Message.Sender,
			Recipient: evt.Message.Recipient,
			Content:   evt.Message.Content,
			Timestamp: evt.Message.At.Format(time.RFC3339),
		}}
	case event.HistoryFetched:
		return Frame{Type: e.Kind(), Payload: ChatHistoryPayload{
			Contact: evt.Contact,
			History: lo.Map(evt.Messages, func(m domain.Message, _ int) HistoryEntry {
				return HistoryEntry{
					Sender:    m.Sender,
					Content:   m.Content,
					Timestamp: m.At.Format(time.RFC3339),
				}
			}),
		}}
	case event.ErrorRaised:
		return Frame{Type: e.Kind(), Payload: ErrorPayload{Code: evt.Code, Message: evt.Message}}
	default:
		return Frame{Type: e.Kind()}
	}
}
