package repositories

import (
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"pairchat/domain"
	"pairchat/errors"
)

func Test_Create_And_Get_User(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t))

	id, err := repository.Create("alice", "$argon2id$...")
	req.NoError(err)
	req.NotEmpty(id)

	user, err := repository.Get("alice")
	req.NoError(err)
	req.Equal(id, user.ID)
	req.Equal("alice", user.Username)
	req.Equal("$argon2id$...", user.PasswordHash)
	req.Equal([]string{"user"}, user.Roles)
	req.True(user.LastSeen.IsZero())
}

func Test_Create_Duplicate_Username(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t))

	_, err := repository.Create("alice", "hash1")
	req.NoError(err)

	_, err = repository.Create("alice", "hash2")
	req.ErrorIs(err, errors.ErrUserAlreadyExists)
}

func Test_List_Users(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t))

	for _, username := range []string{"alice", "bob", "clara"} {
		_, err := repository.Create(username, "hash")
		req.NoError(err)
	}

	users, err := repository.List()
	req.NoError(err)
	req.Len(users, 3)
	usernames := lo.Map(users, func(u domain.User, _ int) string { return u.Username })
	req.ElementsMatch([]string{"alice", "bob", "clara"}, usernames)
}

func Test_SetLastSeen(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t))

	_, err := repository.Create("alice", "hash")
	req.NoError(err)

	at := time.Date(2026, 3, 14, 15, 9, 0, 0, time.UTC)
	req.NoError(repository.SetLastSeen("alice", at))

	user, err := repository.Get("alice")
	req.NoError(err)
	req.Equal(at, user.LastSeen)
}

func Test_SetLastSeen_Unknown_User(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t))

	req.Error(repository.SetLastSeen("ghost", time.Now()))
}
