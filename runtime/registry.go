package runtime

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"pairchat/contract"
	"pairchat/domain/event"
)

type members map[uuid.UUID]contract.EventSink

// Registry maps channel names to the live connections joined to them.
// A channel is named after a username; every open tab of that user is a
// separate member. The registry multiplexes only, it holds no chat policy.
type Registry struct {
	mu       sync.RWMutex
	log      *slog.Logger
	channels map[string]members
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		log:      log,
		channels: make(map[string]members),
	}
}

// Join associates a connection with a channel, creating the channel on the
// fly if this is its first member.
func (r *Registry) Join(channel string, connID uuid.UUID, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.channels[channel]; !ok {
		r.channels[channel] = make(members)
	}
	r.channels[channel][connID] = sink
}

// Leave removes the association. An emptied channel is pruned from the map
// to avoid leaking entries; a later Join simply recreates it.
func (r *Registry) Leave(channel string, connID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.channels[channel]; ok {
		delete(m, connID)
		if len(m) == 0 {
			delete(r.channels, channel)
		}
	}
}

// Deliver fans the event out to every current member of the channel.
// Delivering to an unknown or empty channel is a silent no-op: an offline
// recipient is expected, not an error.
func (r *Registry) Deliver(ctx context.Context, channel string, e event.DomainEvent) {
	for _, sink := range r.sinksFor(channel) {
		if err := sink.Consume(ctx, e); err != nil {
			r.log.Debug("sink rejected event", "channel", channel, "kind", e.Kind(), "error", err)
		}
	}
}

// Broadcast delivers the event once to every live connection, regardless of
// channel. Used for presence updates; O(connections) per call.
func (r *Registry) Broadcast(ctx context.Context, e event.DomainEvent) {
	r.mu.RLock()
	all := make(map[uuid.UUID]contract.EventSink)
	for _, m := range r.channels {
		for connID, sink := range m {
			all[connID] = sink
		}
	}
	r.mu.RUnlock()

	for _, sink := range all {
		if err := sink.Consume(ctx, e); err != nil {
			r.log.Debug("sink rejected broadcast", "kind", e.Kind(), "error", err)
		}
	}
}

// sinksFor copies the member list under the read lock so delivery happens
// without holding it.
func (r *Registry) sinksFor(channel string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.channels[channel]
	if !ok {
		return nil
	}
	sinks := make([]contract.EventSink, 0, len(m))
	for _, sink := range m {
		sinks = append(sinks, sink)
	}
	return sinks
}
