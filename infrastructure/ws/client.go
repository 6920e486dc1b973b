package ws

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"pairchat/domain/event"
	"pairchat/errors"
	"pairchat/observability"
	"pairchat/services"
	"pairchat/sink"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 16 * 1024
)

// Client is the middleman between one websocket connection and the chat
// service. readPump is the only reader of the connection, writePump the only
// writer; the sink channel connects the registry fan-out to the write pump.
type Client struct {
	log      *slog.Logger
	conn     *websocket.Conn
	chat     services.IChatService
	sink     *sink.WSink
	stats    *observability.ChatStats
	identity string
	connID   uuid.UUID
}

func NewClient(log *slog.Logger, conn *websocket.Conn, chat services.IChatService,
	snk *sink.WSink, stats *observability.ChatStats, identity string, connID uuid.UUID) *Client {
	return &Client{
		log:      log,
		conn:     conn,
		chat:     chat,
		sink:     snk,
		stats:    stats,
		identity: identity,
		connID:   connID,
	}
}

// ReadPump decodes client frames and dispatches them until the connection
// closes. It must run on the connection's goroutine; it returns when the
// peer goes away.
func (c *Client) ReadPump(ctx context.Context) {
	defer c.conn.Close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("unexpected close", "username", c.identity, "error", err)
			}
			return
		}

		env, err := DecodeEnvelope(raw)
		if err != nil {
			c.reject(ctx, err)
			continue
		}
		c.dispatch(ctx, env)
	}
}

func (c *Client) dispatch(ctx context.Context, env Envelope) {
	switch env.Type {
	case TypeSendMessage:
		payload, err := decodePayload[SendMessagePayload](env.Payload)
		if err != nil {
			c.reject(ctx, err)
			return
		}
		if _, err := c.chat.SendMessage(ctx, c.identity, payload.Recipient, payload.Content); err != nil {
			c.log.Error("send message failed", "username", c.identity, "error", err)
			c.reject(ctx, err)
		}

	case TypeGetChatHistory:
		payload, err := decodePayload[GetChatHistoryPayload](env.Payload)
		if err != nil {
			c.reject(ctx, err)
			return
		}
		history, err := c.chat.History(ctx, c.identity, payload.Contact)
		if err != nil {
			c.log.Error("history failed", "username", c.identity, "error", err)
			c.reject(ctx, err)
			return
		}
		// Unicast: the reply goes only to the requesting connection.
		c.sink.Consume(ctx, history)

	default:
		c.reject(ctx, errors.ErrInvalidPayload)
	}
}

// reject acknowledges a failed client event on this connection only, instead
// of dropping it silently.
func (c *Client) reject(ctx context.Context, err error) {
	c.stats.IncrEventsRejected()
	c.sink.Consume(ctx, event.ErrorRaised{
		Code:    errors.MapToWireCode(err),
		Message: err.Error(),
	})
}

// WritePump serializes events from the sink to the peer and keeps the
// connection alive with pings. One goroutine per connection.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-c.sink.Events:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(EncodeEvent(evt)); err != nil {
				c.log.Debug("write failed", "username", c.identity, "error", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
