package runtime

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"pairchat/domain/event"
)

// captureSink records everything it consumes, for assertions.
type captureSink struct {
	mu     sync.Mutex
	events []event.DomainEvent
}

func (s *captureSink) Consume(_ context.Context, e event.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *captureSink) Events() []event.DomainEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]event.DomainEvent(nil), s.events...)
}

func testLogger() *slog.Logger {
	return slog.Default()
}

func TestRegistry_Deliver_To_Joined_Connection(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(testLogger())
	sink := &captureSink{}
	connID := uuid.New()

	// When alice's connection joins her channel
	registry.Join("alice", connID, sink)
	registry.Deliver(context.Background(), "alice", event.StatusChanged{Username: "bob", Online: true})

	// Then the sink received the event
	req.Len(sink.Events(), 1)
}

func TestRegistry_Multiple_Connections_Same_Channel(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(testLogger())
	tab1, tab2 := &captureSink{}, &captureSink{}

	// Given alice has two open tabs
	registry.Join("alice", uuid.New(), tab1)
	registry.Join("alice", uuid.New(), tab2)

	registry.Deliver(context.Background(), "alice", event.StatusChanged{Username: "bob", Online: true})

	// Then both tabs got the event
	req.Len(tab1.Events(), 1)
	req.Len(tab2.Events(), 1)
}

func TestRegistry_Deliver_To_Empty_Channel_Is_A_Noop(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(testLogger())
	sink := &captureSink{}
	connID := uuid.New()

	registry.Join("alice", connID, sink)
	registry.Leave("alice", connID)

	// Delivering to an emptied channel must not fail nor reach the old sink
	registry.Deliver(context.Background(), "alice", event.StatusChanged{Username: "bob", Online: true})
	req.Empty(sink.Events())

	// And the channel stays addressable: a rejoin receives events again
	registry.Join("alice", connID, sink)
	registry.Deliver(context.Background(), "alice", event.StatusChanged{Username: "bob", Online: false})
	req.Len(sink.Events(), 1)
}

func TestRegistry_Broadcast_Reaches_Every_Connection_Once(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(testLogger())
	alice, bob1, bob2 := &captureSink{}, &captureSink{}, &captureSink{}

	registry.Join("alice", uuid.New(), alice)
	registry.Join("bob", uuid.New(), bob1)
	registry.Join("bob", uuid.New(), bob2)

	registry.Broadcast(context.Background(), event.StatusChanged{Username: "clara", Online: true})

	req.Len(alice.Events(), 1)
	req.Len(bob1.Events(), 1)
	req.Len(bob2.Events(), 1)
}
