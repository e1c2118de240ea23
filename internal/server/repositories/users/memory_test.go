package users

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/saltgate/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_CreateGetUpdate(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	_, err := repo.Create(ctx, newUser("id-1", "alice", "a@example.com"))
	require.NoError(t, err)

	got, err := repo.GetUserByLogin(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "id-1", got.ID)

	at := time.Now()
	require.NoError(t, repo.UpdateLastLogin(ctx, "id-1", at))

	got, err = repo.GetUserByLogin(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got.LastLogin)
	assert.True(t, at.Equal(*got.LastLogin))

	assert.ErrorIs(t, repo.UpdateLastLogin(ctx, "nope", at), common.ErrorNotFound)
}

func TestMemory_ReturnsCopies(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	_, err := repo.Create(ctx, newUser("id-1", "alice", ""))
	require.NoError(t, err)

	got, err := repo.GetUserByLogin(ctx, "alice")
	require.NoError(t, err)
	got.PasswordHash = "tampered"

	again, err := repo.GetUserByLogin(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "hash-alice", again.PasswordHash)
}

func TestMemory_Uniqueness(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	_, err := repo.Create(ctx, newUser("id-1", "alice", "a@example.com"))
	require.NoError(t, err)

	_, err = repo.Create(ctx, newUser("id-2", "alice", ""))
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	_, err = repo.Create(ctx, newUser("id-3", "bob", "a@example.com"))
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	_, err = repo.GetUserByLogin(ctx, "bob")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.Equal(t, 1, repo.Len())
}

func TestMemory_ConcurrentRegistrationSingleWinner(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	const n = 32
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Create(ctx, newUser(fmt.Sprintf("id-%d", i), "carol", ""))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	var ok int
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, common.ErrorAlreadyExists)
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, repo.Len())
}

func TestMemory_CancelledContext(t *testing.T) {
	repo := NewMemoryRepository()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Create(ctx, newUser("id-1", "alice", ""))
	assert.ErrorIs(t, err, context.Canceled)
}
