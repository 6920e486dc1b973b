// Package sink provides EventSink implementations bridging the fan-out to
// individual live connections.
package sink

import (
	"context"
	"log/slog"

	"pairchat/domain/event"
	"pairchat/observability"
)

// WSink buffers events for one websocket connection. The write pump drains
// the channel; a full buffer means the peer is not keeping up, in which case
// the event is dropped rather than blocking the router. Dropped live events
// are acceptable: durability comes from the store, not from delivery.
type WSink struct {
	Events chan event.DomainEvent
	log    *slog.Logger
	stats  *observability.ChatStats
}

func NewWSink(log *slog.Logger, bufferSize int, stats *observability.ChatStats) *WSink {
	return &WSink{
		Events: make(chan event.DomainEvent, bufferSize),
		log:    log,
		stats:  stats,
	}
}

// Consume is called by the registry during fan-out. It hands the event to
// the connection's write pump without ever blocking the caller.
func (s *WSink) Consume(ctx context.Context, e event.DomainEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case s.Events <- e:
		s.stats.IncrEventsDelivered()
		return nil
	default:
		s.stats.IncrEventsDropped()
		s.log.Warn("connection buffer full, dropping event", "kind", e.Kind())
		return nil
	}
}
