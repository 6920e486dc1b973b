//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"
	"time"

	"github.com/google/uuid"

	"pairchat/domain"
	"pairchat/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is one live connection's inbox.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IRegistry multiplexes live connections over named channels. A channel is
// named after a username; a user with several open tabs has several members
// on the same channel.
type IRegistry interface {
	Join(channel string, connID uuid.UUID, sink EventSink)
	Leave(channel string, connID uuid.UUID)
	Deliver(ctx context.Context, channel string, e event.DomainEvent)
	Broadcast(ctx context.Context, e event.DomainEvent)
}

// IPresence tracks per-user live-connection counts and last-seen timestamps.
type IPresence interface {
	Connect(username string) (first bool)
	Disconnect(username string, now time.Time) (last bool)
	IsOnline(username string) bool
	LastSeen(username string) (time.Time, bool)
	Snapshot() []domain.Presence
}
