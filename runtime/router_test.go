package runtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"pairchat/domain"
	"pairchat/domain/event"
	"pairchat/errors"
	"pairchat/observability"
)

// fakeMessages is an in-memory stand-in for the Badger repository.
type fakeMessages struct {
	mu     sync.Mutex
	nextID uint64
	stored []domain.Message
	fail   bool
}

func (f *fakeMessages) Append(sender, recipient, content string) (domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return domain.Message{}, errors.ErrStorage
	}
	f.nextID++
	message := domain.Message{
		ID:        f.nextID,
		Sender:    sender,
		Recipient: recipient,
		Content:   content,
		At:        time.Now().UTC(),
	}
	f.stored = append(f.stored, message)
	return message, nil
}

func (f *fakeMessages) History(a, b string) ([]domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errors.ErrStorage
	}
	pair := domain.PairKey(a, b)
	var out []domain.Message
	for _, m := range f.stored {
		if domain.PairKey(m.Sender, m.Recipient) == pair {
			out = append(out, m)
		}
	}
	return out, nil
}

// fakeUsers records last-seen writes.
type fakeUsers struct {
	mu       sync.Mutex
	lastSeen map[string]time.Time
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{lastSeen: make(map[string]time.Time)}
}

func (f *fakeUsers) Create(string, string) (string, error) { return "", nil }
func (f *fakeUsers) Get(string) (domain.User, error)       { return domain.User{}, nil }
func (f *fakeUsers) List() ([]domain.User, error)          { return nil, nil }

func (f *fakeUsers) SetLastSeen(username string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSeen[username] = at
	return nil
}

func newTestRouter(messages *fakeMessages, users *fakeUsers) *Router {
	return NewRouter(testLogger(), NewPresenceTracker(), NewRegistry(testLogger()),
		messages, users, observability.NewChatStats())
}

func statusUpdates(events []event.DomainEvent) []event.StatusChanged {
	var out []event.StatusChanged
	for _, e := range events {
		if s, ok := e.(event.StatusChanged); ok {
			out = append(out, s)
		}
	}
	return out
}

func newMessages(events []event.DomainEvent) []event.MessageStored {
	var out []event.MessageStored
	for _, e := range events {
		if m, ok := e.(event.MessageStored); ok {
			out = append(out, m)
		}
	}
	return out
}

func TestRouter_Connect_Requires_Identity(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(&fakeMessages{}, newFakeUsers())

	err := router.Connect(context.Background(), "", uuid.New(), &captureSink{})
	req.ErrorIs(err, errors.ErrUnauthenticated)
}

func TestRouter_Connect_Broadcasts_Online_Once(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(&fakeMessages{}, newFakeUsers())
	ctx := context.Background()
	tab1, tab2 := &captureSink{}, &captureSink{}

	// When alice opens a first tab
	req.NoError(router.Connect(ctx, "alice", uuid.New(), tab1))

	// Then the online transition was broadcast to her own connection too
	updates := statusUpdates(tab1.Events())
	req.Len(updates, 1)
	req.Equal("alice", updates[0].Username)
	req.True(updates[0].Online)

	// When she opens a second tab, no second transition is broadcast
	req.NoError(router.Connect(ctx, "alice", uuid.New(), tab2))
	req.Len(statusUpdates(tab1.Events()), 1)
	req.Empty(statusUpdates(tab2.Events()))
}

func TestRouter_SendMessage_Persists_And_Fans_Out(t *testing.T) {
	req := require.New(t)
	messages := &fakeMessages{}
	router := newTestRouter(messages, newFakeUsers())
	ctx := context.Background()
	aliceSink, bobSink := &captureSink{}, &captureSink{}

	req.NoError(router.Connect(ctx, "alice", uuid.New(), aliceSink))
	req.NoError(router.Connect(ctx, "bob", uuid.New(), bobSink))

	// When alice sends "hello" to bob
	stored, err := router.SendMessage(ctx, "alice", "bob", "hello")
	req.NoError(err)
	req.Equal("hello", stored.Content)

	// Then both sides received the live event
	req.Len(newMessages(bobSink.Events()), 1)
	req.Len(newMessages(aliceSink.Events()), 1)
	req.Equal(stored, newMessages(bobSink.Events())[0].Message)

	// And the conversation history contains it
	history, err := router.History(ctx, "alice", "bob")
	req.NoError(err)
	req.Len(history.Messages, 1)
	req.Equal("hello", history.Messages[0].Content)
}

func TestRouter_SendMessage_To_Offline_Recipient(t *testing.T) {
	req := require.New(t)
	messages := &fakeMessages{}
	router := newTestRouter(messages, newFakeUsers())
	ctx := context.Background()
	aliceSink := &captureSink{}

	req.NoError(router.Connect(ctx, "alice", uuid.New(), aliceSink))

	// When alice messages bob while he is offline
	_, err := router.SendMessage(ctx, "alice", "bob", "are you there?")
	req.NoError(err)

	// Then delivery was skipped but the message persisted
	req.Len(messages.stored, 1)

	// When bob later connects and asks for the conversation
	bobSink := &captureSink{}
	req.NoError(router.Connect(ctx, "bob", uuid.New(), bobSink))
	history, err := router.History(ctx, "bob", "alice")
	req.NoError(err)
	req.Len(history.Messages, 1)
	req.Equal("are you there?", history.Messages[0].Content)
}

func TestRouter_SendMessage_Requires_Identity(t *testing.T) {
	req := require.New(t)
	messages := &fakeMessages{}
	router := newTestRouter(messages, newFakeUsers())

	_, err := router.SendMessage(context.Background(), "", "bob", "hi")
	req.ErrorIs(err, errors.ErrUnauthenticated)
	req.Empty(messages.stored)
}

func TestRouter_SendMessage_Storage_Failure_Leaves_State_Intact(t *testing.T) {
	req := require.New(t)
	messages := &fakeMessages{fail: true}
	router := newTestRouter(messages, newFakeUsers())
	ctx := context.Background()
	bobSink := &captureSink{}

	req.NoError(router.Connect(ctx, "bob", uuid.New(), bobSink))

	// When the store rejects the append
	_, err := router.SendMessage(ctx, "alice", "bob", "hi")
	req.ErrorIs(err, errors.ErrStorage)

	// Then no live event was delivered and presence is untouched
	req.Empty(newMessages(bobSink.Events()))
	req.True(router.presence.IsOnline("bob"))
}

func TestRouter_Disconnect_Last_Connection_Goes_Offline(t *testing.T) {
	req := require.New(t)
	users := newFakeUsers()
	router := newTestRouter(&fakeMessages{}, users)
	now := time.Date(2026, 3, 14, 15, 9, 0, 0, time.UTC)
	router.now = func() time.Time { return now }
	ctx := context.Background()

	aliceTab1, aliceTab2, bobSink := &captureSink{}, &captureSink{}, &captureSink{}
	conn1, conn2 := uuid.New(), uuid.New()
	req.NoError(router.Connect(ctx, "alice", conn1, aliceTab1))
	req.NoError(router.Connect(ctx, "alice", conn2, aliceTab2))
	req.NoError(router.Connect(ctx, "bob", uuid.New(), bobSink))
	offlineBefore := len(statusUpdates(bobSink.Events()))

	// When alice closes one of her two tabs, she stays online
	router.Disconnect(ctx, "alice", conn1)
	req.Equal(offlineBefore, len(statusUpdates(bobSink.Events())))

	// When the last tab closes, the offline transition is broadcast with last-seen
	router.Disconnect(ctx, "alice", conn2)
	updates := statusUpdates(bobSink.Events())
	req.Len(updates, offlineBefore+1)
	last := updates[len(updates)-1]
	req.Equal("alice", last.Username)
	req.False(last.Online)
	req.Equal(now, last.LastSeen)

	// And the transition was persisted on the account
	req.Equal(now, users.lastSeen["alice"])
}

func TestRouter_History_Requires_Identity(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(&fakeMessages{}, newFakeUsers())

	_, err := router.History(context.Background(), "", "bob")
	req.ErrorIs(err, errors.ErrUnauthenticated)
}
