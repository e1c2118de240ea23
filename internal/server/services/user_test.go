package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/saltgate/internal/common"
	"github.com/dmitrijs2005/saltgate/internal/cryptox"
	"github.com/dmitrijs2005/saltgate/internal/server/auth"
	"github.com/dmitrijs2005/saltgate/internal/server/models"
	"github.com/dmitrijs2005/saltgate/internal/server/repositories/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPepper = []byte("pepper")

// --- helpers ---

type fakeUsersRepo struct {
	users.Repository

	getOut    *models.User
	getErr    error
	createErr error
	updateErr error

	getCalls    int
	updateCalls int
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return u, nil
}

func (f *fakeUsersRepo) GetUserByLogin(context.Context, string) (*models.User, error) {
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

func (f *fakeUsersRepo) UpdateLastLogin(context.Context, string, time.Time) error {
	f.updateCalls++
	return f.updateErr
}

type failingIssuer struct{}

func (failingIssuer) Issue(string, string) (string, *auth.Claims, error) {
	return "", nil, errors.New("sign failed")
}

type mapKnownUsers struct {
	mu sync.Mutex
	m  map[string]bool
}

func (k *mapKnownUsers) Contains(name string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.m[name]
}

func (k *mapKnownUsers) Add(name string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.m == nil {
		k.m = map[string]bool{}
	}
	k.m[name] = true
}

func newIssuer(t *testing.T) *auth.TokenIssuer {
	t.Helper()
	iss, err := auth.NewTokenIssuer([]byte("k"))
	require.NoError(t, err)
	return iss
}

func newService(t *testing.T, repo users.Repository, opts ...Option) *UserService {
	t.Helper()
	return NewUserService(repo, newIssuer(t), testPepper, opts...)
}

// --- GetSalt ---

func TestGetSalt_DeterministicBeforeAndAfterRegistration(t *testing.T) {
	ctx := context.Background()
	s := newService(t, users.NewMemoryRepository())

	salt1, isNew, err := s.GetSalt(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.Len(t, salt1, cryptox.SaltLength)
	assert.Equal(t, cryptox.DeriveSalt("alice", testPepper), salt1)

	salt2, _, err := s.GetSalt(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, salt1, salt2)

	_, err = s.Register(ctx, "alice", "", cryptox.PasswordHash("pw", salt1))
	require.NoError(t, err)

	salt3, isNew, err := s.GetSalt(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, salt1, salt3)
}

func TestGetSalt_Validation(t *testing.T) {
	s := newService(t, users.NewMemoryRepository())
	_, _, err := s.GetSalt(context.Background(), "")
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestGetSalt_StoreError(t *testing.T) {
	s := newService(t, &fakeUsersRepo{getErr: errors.New("db down")})
	_, _, err := s.GetSalt(context.Background(), "alice")
	assert.ErrorIs(t, err, common.ErrorInternal)
	assert.NotContains(t, err.Error(), "db down")
}

func TestGetSalt_KnownUsersSkipsStore(t *testing.T) {
	repo := &fakeUsersRepo{getOut: &models.User{ID: "u1", UserName: "alice"}}
	known := &mapKnownUsers{}
	s := newService(t, repo, WithKnownUsers(known))

	_, isNew, err := s.GetSalt(context.Background(), "alice")
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.True(t, known.Contains("alice"))

	_, isNew, err = s.GetSalt(context.Background(), "alice")
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, 1, repo.getCalls)
}

func TestGetSalt_UnknownNamesNotCached(t *testing.T) {
	repo := &fakeUsersRepo{getErr: common.ErrorNotFound}
	known := &mapKnownUsers{}
	s := newService(t, repo, WithKnownUsers(known))

	for i := 0; i < 2; i++ {
		_, isNew, err := s.GetSalt(context.Background(), "ghost")
		require.NoError(t, err)
		assert.True(t, isNew)
	}
	assert.Equal(t, 2, repo.getCalls)
	assert.False(t, known.Contains("ghost"))
}

// --- Register ---

func TestRegister_Validation(t *testing.T) {
	s := newService(t, users.NewMemoryRepository())
	tests := []struct {
		name, user, email, hash string
	}{
		{"no username", "", "", "h"},
		{"no hash", "alice", "", ""},
		{"bad email", "alice", "not-an-email", "h"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Register(context.Background(), tt.user, tt.email, tt.hash)
			assert.ErrorIs(t, err, common.ErrorValidation)
		})
	}
}

func TestRegister_StoresHashAndDerivedSalt(t *testing.T) {
	repo := users.NewMemoryRepository()
	fixed := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	s := newService(t, repo, WithClock(func() time.Time { return fixed }))

	u, err := s.Register(context.Background(), "alice", "alice@example.com", "client-hash")
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)

	stored, err := repo.GetUserByLogin(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "client-hash", stored.PasswordHash)
	assert.Equal(t, cryptox.DeriveSalt("alice", testPepper), stored.Salt)
	assert.Equal(t, "alice@example.com", stored.Email)
	assert.True(t, stored.IsActive)
	assert.True(t, fixed.Equal(stored.CreatedAt))
}

func TestRegister_Duplicate(t *testing.T) {
	repo := users.NewMemoryRepository()
	s := newService(t, repo)

	_, err := s.Register(context.Background(), "alice", "", "h")
	require.NoError(t, err)
	_, err = s.Register(context.Background(), "alice", "", "h")
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
	assert.Equal(t, 1, repo.Len())
}

func TestRegister_StoreError(t *testing.T) {
	s := newService(t, &fakeUsersRepo{createErr: errors.New("disk full")})
	_, err := s.Register(context.Background(), "alice", "", "h")
	assert.ErrorIs(t, err, common.ErrorInternal)
}

func TestRegister_ConcurrentSameUsername(t *testing.T) {
	repo := users.NewMemoryRepository()
	s := newService(t, repo)

	const n = 16
	var wg sync.WaitGroup
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Register(context.Background(), "racer", "", "h")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var ok, conflict int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, common.ErrorAlreadyExists):
			conflict++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conflict)
}

// --- Login ---

func registerAlice(t *testing.T, s *UserService) (h1 string) {
	t.Helper()
	salt, _, err := s.GetSalt(context.Background(), "alice")
	require.NoError(t, err)
	h1 = cryptox.PasswordHash("pw", salt)
	_, err = s.Register(context.Background(), "alice", "", h1)
	require.NoError(t, err)
	return h1
}

func TestLogin_EndToEnd(t *testing.T) {
	repo := users.NewMemoryRepository()
	s := newService(t, repo)
	h1 := registerAlice(t, s)

	nonce := "3f2a9c"
	h2 := cryptox.ChallengeResponse(h1, nonce)

	res, err := s.Login(context.Background(), "alice", h2, nonce)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "alice", res.User.UserName)
	assert.Equal(t, res.User.ID, res.Claims.UserID)

	claims, err := newIssuer(t).Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)

	stored, err := repo.GetUserByLogin(context.Background(), "alice")
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLogin)

	_, err = s.Login(context.Background(), "alice", h2, "wrong-nonce")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	s := newService(t, users.NewMemoryRepository())
	h1 := registerAlice(t, s)

	_, errUnknown := s.Login(context.Background(), "bob", cryptox.ChallengeResponse(h1, "n"), "n")
	_, errWrong := s.Login(context.Background(), "alice", cryptox.ChallengeResponse("wrong", "n"), "n")

	require.Error(t, errUnknown)
	require.Error(t, errWrong)
	assert.ErrorIs(t, errUnknown, common.ErrInvalidCredentials)
	assert.Equal(t, errUnknown.Error(), errWrong.Error())
}

func TestLogin_RawPasswordHashIsNotAResponse(t *testing.T) {
	s := newService(t, users.NewMemoryRepository())
	h1 := registerAlice(t, s)

	_, err := s.Login(context.Background(), "alice", h1, "n")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestLogin_Validation(t *testing.T) {
	s := newService(t, users.NewMemoryRepository())
	for i, args := range [][3]string{{"", "h", "n"}, {"a", "", "n"}, {"a", "h", ""}} {
		_, err := s.Login(context.Background(), args[0], args[1], args[2])
		assert.ErrorIs(t, err, common.ErrorValidation, fmt.Sprint(i))
	}
}

func TestLogin_InactiveUser(t *testing.T) {
	repo := &fakeUsersRepo{getOut: &models.User{ID: "u1", UserName: "alice", PasswordHash: "h1", IsActive: false}}
	s := newService(t, repo)

	_, err := s.Login(context.Background(), "alice", cryptox.ChallengeResponse("h1", "n"), "n")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
	assert.Zero(t, repo.updateCalls)
}

func TestLogin_StoreError(t *testing.T) {
	s := newService(t, &fakeUsersRepo{getErr: errors.New("conn reset")})
	_, err := s.Login(context.Background(), "alice", "h", "n")
	assert.ErrorIs(t, err, common.ErrorInternal)
}

func TestLogin_LastLoginFailureIsIgnored(t *testing.T) {
	repo := &fakeUsersRepo{
		getOut:    &models.User{ID: "u1", UserName: "alice", PasswordHash: "h1", IsActive: true},
		updateErr: errors.New("read only"),
	}
	s := newService(t, repo)

	res, err := s.Login(context.Background(), "alice", cryptox.ChallengeResponse("h1", "n"), "n")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, 1, repo.updateCalls)
}

func TestLogin_SigningFailure(t *testing.T) {
	repo := &fakeUsersRepo{getOut: &models.User{ID: "u1", UserName: "alice", PasswordHash: "h1", IsActive: true}}
	s := NewUserService(repo, failingIssuer{}, testPepper)

	_, err := s.Login(context.Background(), "alice", cryptox.ChallengeResponse("h1", "n"), "n")
	assert.ErrorIs(t, err, common.ErrorInternal)
}
