//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"

	"pairchat/domain"
	"pairchat/errors"
)

type IMessageRepository interface {
	Append(sender, recipient, content string) (domain.Message, error)
	History(a, b string) ([]domain.Message, error)
}

type MessageRepository struct {
	mu  sync.Mutex
	db  *badger.DB
	seq *badger.Sequence
	log *slog.Logger
}

// sequenceBandwidth is how many ids Badger leases to the process at once.
// Ids stay strictly increasing within a process lifetime; a restart may skip
// the unused remainder of a lease, which is fine for ordering purposes.
const sequenceBandwidth = 128

func NewMessageRepository(db *badger.DB, log *slog.Logger) (*MessageRepository, error) {
	seq, err := db.GetSequence([]byte("seq:msg"), sequenceBandwidth)
	if err != nil {
		return nil, fmt.Errorf("message id sequence: %w", err)
	}
	return &MessageRepository{db: db, seq: seq, log: log}, nil
}

// Close releases the unused part of the id lease back to Badger.
func (m *MessageRepository) Close() error {
	return m.seq.Release()
}

// messageRecord is the on-disk shape of a message, encoded with CBOR.
type messageRecord struct {
	ID        uint64 `cbor:"1,keyasint"`
	Sender    string `cbor:"2,keyasint"`
	Recipient string `cbor:"3,keyasint"`
	Content   string `cbor:"4,keyasint"`
	At        int64  `cbor:"5,keyasint"` // unix nanoseconds, UTC
}

// Append assigns the next id and the current timestamp, persists the message
// and returns the stored record. The key is formatted as
// "msg:{pair}:{timestamp_padded}:{id_padded}" to:
//  1. Group both directions of a conversation under one prefix.
//  2. Ensure chronological sorting using 19-digit zero padding
//     (lexicographical order), with the id breaking nanosecond ties.
//
// Id and timestamp assignment is serialized under the mutex so that no two
// appends are reordered relative to their call sequence. The recipient is not
// checked for existence: persisting to a never-seen user is valid.
func (m *MessageRepository) Append(sender, recipient, content string) (domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, err := m.seq.Next()
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: next id: %v", errors.ErrStorage, err)
	}
	at := time.Now().UTC()

	key := fmt.Sprintf("msg:%s:%019d:%019d", domain.PairKey(sender, recipient), at.UnixNano(), id)
	value, err := cbor.Marshal(messageRecord{
		ID:        id,
		Sender:    sender,
		Recipient: recipient,
		Content:   content,
		At:        at.UnixNano(),
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: marshal: %v", errors.ErrStorage, err)
	}

	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrStorage, err)
	}

	return domain.Message{ID: id, Sender: sender, Recipient: recipient, Content: content, At: at}, nil
}

// History returns every message exchanged between a and b, in either
// direction, ascending by timestamp. Thanks to the padded key layout a plain
// forward prefix scan yields the messages already sorted; no in-memory sort
// is needed. The result is computed fresh on every call.
func (m *MessageRepository) History(a, b string) ([]domain.Message, error) {
	var messages []domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("msg:%s:", domain.PairKey(a, b)))
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				var record messageRecord
				if err := cbor.Unmarshal(value, &record); err != nil {
					return err
				}
				messages = append(messages, toMessage(record))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrStorage, err)
	}
	return messages, nil
}

func toMessage(record messageRecord) domain.Message {
	return domain.Message{
		ID:        record.ID,
		Sender:    record.Sender,
		Recipient: record.Recipient,
		Content:   record.Content,
		At:        time.Unix(0, record.At).UTC(),
	}
}
