package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pairchat/domain"
	"pairchat/domain/event"
	"pairchat/errors"
)

func Test_DecodeEnvelope_SendMessage(t *testing.T) {
	req := require.New(t)

	raw := []byte(`{"type":"send_message","payload":{"recipient":"bob","content":"hello"}}`)
	env, err := DecodeEnvelope(raw)
	req.NoError(err)
	req.Equal(TypeSendMessage, env.Type)

	payload, err := decodePayload[SendMessagePayload](env.Payload)
	req.NoError(err)
	req.Equal("bob", payload.Recipient)
	req.Equal("hello", payload.Content)
}

func Test_DecodeEnvelope_Garbage(t *testing.T) {
	req := require.New(t)

	_, err := DecodeEnvelope([]byte("not json"))
	req.ErrorIs(err, errors.ErrInvalidPayload)
}

func Test_DecodePayload_Rejects_Malformed_Names(t *testing.T) {
	req := require.New(t)

	// Only names that could have been registered may address a conversation
	_, err := decodePayload[SendMessagePayload](json.RawMessage(`{"recipient":"bob:x","content":"hi"}`))
	req.ErrorIs(err, errors.ErrInvalidPayload)

	_, err = decodePayload[GetChatHistoryPayload](json.RawMessage(`{"contact":"alice|bob"}`))
	req.ErrorIs(err, errors.ErrInvalidPayload)
}

func Test_DecodePayload_Missing_Fields(t *testing.T) {
	req := require.New(t)

	_, err := decodePayload[SendMessagePayload](json.RawMessage(`{"recipient":"bob"}`))
	req.ErrorIs(err, errors.ErrInvalidPayload)

	_, err = decodePayload[GetChatHistoryPayload](json.RawMessage(`{}`))
	req.ErrorIs(err, errors.ErrInvalidPayload)
}

func Test_EncodeEvent_StatusChanged(t *testing.T) {
	req := require.New(t)

	// Online: no last-seen on the wire
	frame := EncodeEvent(event.StatusChanged{Username: "alice", Online: true})
	req.Equal(event.KindStatusUpdate, frame.Type)
	payload := frame.Payload.(StatusUpdatePayload)
	req.True(payload.IsOnline)
	req.Empty(payload.LastSeen)

	// Offline: last-seen formatted at minute precision
	at := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	frame = EncodeEvent(event.StatusChanged{Username: "alice", Online: false, LastSeen: at})
	payload = frame.Payload.(StatusUpdatePayload)
	req.False(payload.IsOnline)
	req.Equal("2026-03-14 15:09", payload.LastSeen)
}

func Test_EncodeEvent_MessageStored(t *testing.T) {
	req := require.New(t)
	at := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

	frame := EncodeEvent(event.MessageStored{Message: domain.Message{
		ID:        7,
		Sender:    "alice",
		Recipient: "bob",
		Content:   "hello",
		At:        at,
	}})

	req.Equal(event.KindNewMessage, frame.Type)
	payload := frame.Payload.(NewMessagePayload)
	req.Equal("alice", payload.Sender)
	req.Equal("bob", payload.Recipient)
	req.Equal("hello", payload.Content)
	req.Equal("2026-03-14T15:09:26Z", payload.Timestamp)
}

func Test_EncodeEvent_HistoryFetched(t *testing.T) {
	req := require.New(t)
	at := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

	frame := EncodeEvent(event.HistoryFetched{
		Contact: "bob",
		Messages: []domain.Message{
			{Sender: "alice", Content: "one", At: at},
			{Sender: "bob", Content: "two", At: at.Add(time.Minute)},
		},
	})

	req.Equal(event.KindChatHistory, frame.Type)
	payload := frame.Payload.(ChatHistoryPayload)
	req.Equal("bob", payload.Contact)
	req.Len(payload.History, 2)
	req.Equal("one", payload.History[0].Content)
	req.Equal("bob", payload.History[1].Sender)
}

func Test_EncodeEvent_ErrorRaised_Serializes(t *testing.T) {
	req := require.New(t)

	frame := EncodeEvent(event.ErrorRaised{Code: errors.CodeUnauthenticated, Message: "unauthenticated"})
	data, err := json.Marshal(frame)
	req.NoError(err)
	req.JSONEq(`{"type":"error","payload":{"code":"UNAUTHENTICATED","message":"unauthenticated"}}`, string(data))
}
