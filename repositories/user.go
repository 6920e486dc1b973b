//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"pairchat/domain"
	"pairchat/errors"
)

type IUserRepository interface {
	Create(username, hashedPassword string) (string, error)
	Get(username string) (domain.User, error)
	List() ([]domain.User, error)
	SetLastSeen(username string, at time.Time) error
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) *UserRepository {
	return &UserRepository{db: db}
}

type userRecord struct {
	ID           string   `cbor:"1,keyasint"`
	Username     string   `cbor:"2,keyasint"`
	PasswordHash string   `cbor:"3,keyasint"`
	Roles        []string `cbor:"4,keyasint"`
	CreatedAt    int64    `cbor:"5,keyasint"` // unix seconds
	LastSeen     int64    `cbor:"6,keyasint"` // unix nanoseconds, zero until first offline transition
}

func userKey(username string) []byte {
	return []byte("user:" + username)
}

// Create persists a new account under "user:{username}" and returns the
// generated user id. The username is the uniqueness key.
func (u *UserRepository) Create(username, hashedPassword string) (string, error) {
	newID := uuid.NewString()
	data, err := cbor.Marshal(userRecord{
		ID:           newID,
		Username:     username,
		PasswordHash: hashedPassword,
		Roles:        []string{"user"},
		CreatedAt:    time.Now().Unix(),
	})
	if err != nil {
		return "", fmt.Errorf("marshal failed: %w", err)
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(userKey(username)); err == nil {
			return errors.ErrUserAlreadyExists
		}
		return txn.Set(userKey(username), data)
	})

	return newID, err
}

func (u *UserRepository) Get(username string) (domain.User, error) {
	var record userRecord
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(username))
		if err != nil {
			return err // badger.ErrKeyNotFound, mapped to ErrInvalidCredentials upstream
		}
		return item.Value(func(val []byte) error {
			return cbor.Unmarshal(val, &record)
		})
	})
	if err != nil {
		return domain.User{}, err
	}
	return toUser(record), nil
}

// List returns every registered account, used to build the contact roster.
func (u *UserRepository) List() ([]domain.User, error) {
	var users []domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		prefix := []byte("user:")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var record userRecord
				if err := cbor.Unmarshal(val, &record); err != nil {
					return err
				}
				users = append(users, toUser(record))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

// SetLastSeen records the offline-transition timestamp on the stored account
// so the roster keeps a meaningful value across restarts.
func (u *UserRepository) SetLastSeen(username string, at time.Time) error {
	return u.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(username))
		if err != nil {
			return err
		}
		var record userRecord
		if err := item.Value(func(val []byte) error {
			return cbor.Unmarshal(val, &record)
		}); err != nil {
			return err
		}
		record.LastSeen = at.UnixNano()
		data, err := cbor.Marshal(record)
		if err != nil {
			return err
		}
		return txn.Set(userKey(username), data)
	})
}

func toUser(record userRecord) domain.User {
	user := domain.User{
		ID:           record.ID,
		Username:     record.Username,
		PasswordHash: record.PasswordHash,
		Roles:        record.Roles,
		CreatedAt:    time.Unix(record.CreatedAt, 0).UTC(),
	}
	if record.LastSeen != 0 {
		user.LastSeen = time.Unix(0, record.LastSeen).UTC()
	}
	return user
}
