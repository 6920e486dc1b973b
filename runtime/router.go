// Package runtime hosts the live-connection state of the chat service:
// presence counting, channel multiplexing and the router tying them to the
// message store. It contains no transport or rendering concerns.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"pairchat/contract"
	"pairchat/domain"
	"pairchat/domain/event"
	"pairchat/errors"
	"pairchat/observability"
	"pairchat/repositories"
)

// Router interprets connection lifecycle and chat events. It is the only
// place where identity is enforced and where presence, registry and store
// are composed; each collaborator is injected, never reached globally.
//
// A single mutex serializes the mutating handlers so that the effects of two
// events never interleave: for one user's successive actions, effects apply
// in call order.
type Router struct {
	mu       sync.Mutex
	log      *slog.Logger
	presence contract.IPresence
	registry contract.IRegistry
	messages repositories.IMessageRepository
	users    repositories.IUserRepository
	stats    *observability.ChatStats
	now      func() time.Time
}

func NewRouter(log *slog.Logger, presence contract.IPresence, registry contract.IRegistry,
	messages repositories.IMessageRepository, users repositories.IUserRepository,
	stats *observability.ChatStats) *Router {
	return &Router{
		log:      log,
		presence: presence,
		registry: registry,
		messages: messages,
		users:    users,
		stats:    stats,
		now:      time.Now,
	}
}

// Connect registers a live connection for an authenticated identity: the
// connection joins the channel named after the user, the presence count is
// bumped, and on an actual Offline to Online transition the status change is
// broadcast to every live connection. An empty identity is rejected before
// any state is touched.
func (r *Router) Connect(ctx context.Context, identity string, connID uuid.UUID, sink contract.EventSink) error {
	if identity == "" {
		return errors.ErrUnauthenticated
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.registry.Join(identity, connID, sink)
	first := r.presence.Connect(identity)
	r.stats.IncrConnectionsOpened()
	r.log.Info("user connected", "username", identity, "conn_id", connID, "first", first)

	if first {
		r.registry.Broadcast(ctx, event.StatusChanged{Username: identity, Online: true})
	}
	return nil
}

// Disconnect removes the connection from the registry. Only when this was
// the user's last live connection does presence flip to Offline: the
// last-seen timestamp is persisted and the status change broadcast.
func (r *Router) Disconnect(ctx context.Context, identity string, connID uuid.UUID) {
	if identity == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.registry.Leave(identity, connID)
	now := r.now().UTC()
	last := r.presence.Disconnect(identity, now)
	r.stats.IncrConnectionsClosed()
	r.log.Info("user disconnected", "username", identity, "conn_id", connID, "last", last)

	if !last {
		return
	}
	if err := r.users.SetLastSeen(identity, now); err != nil {
		// Presence and registry state stay consistent even if the durable
		// last-seen write fails.
		r.log.Warn("persisting last seen failed", "username", identity, "error", err)
	}
	r.registry.Broadcast(ctx, event.StatusChanged{Username: identity, Online: false, LastSeen: now})
}

// SendMessage persists the message first, then fans it out to the
// recipient's and the sender's channels. The self-echo lets the sender's
// other tabs render the message too. Live delivery is best effort: an
// offline recipient still gets a durable message, only the fan-out is
// skipped by the registry.
func (r *Router) SendMessage(ctx context.Context, identity, recipient, content string) (domain.Message, error) {
	if identity == "" {
		return domain.Message{}, errors.ErrUnauthenticated
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	message, err := r.messages.Append(identity, recipient, content)
	if err != nil {
		// Storage failure is fatal to this request only; no registry or
		// presence state was mutated.
		return domain.Message{}, fmt.Errorf("send message: %w", err)
	}
	r.stats.IncrMessagesStored()

	stored := event.MessageStored{Message: message}
	r.registry.Deliver(ctx, recipient, stored)
	if identity != recipient {
		r.registry.Deliver(ctx, identity, stored)
	}
	return message, nil
}

// History returns the ordered conversation between the identity and a
// contact, for a unicast reply on the requesting connection only.
func (r *Router) History(_ context.Context, identity, contact string) (event.HistoryFetched, error) {
	if identity == "" {
		return event.HistoryFetched{}, errors.ErrUnauthenticated
	}

	messages, err := r.messages.History(identity, contact)
	if err != nil {
		return event.HistoryFetched{}, fmt.Errorf("history: %w", err)
	}
	r.stats.IncrHistoryServed()
	return event.HistoryFetched{Contact: contact, Messages: messages}, nil
}
