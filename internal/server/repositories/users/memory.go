package users

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/saltgate/internal/common"
	"github.com/dmitrijs2005/saltgate/internal/server/models"
)

// MemoryRepository keeps users in process memory. The mutex plays the role
// of the unique index: check-and-insert happens under one lock.
type MemoryRepository struct {
	mu         sync.Mutex
	byUsername map[string]*models.User
	byID       map[string]*models.User
	emails     map[string]struct{}
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byUsername: make(map[string]*models.User),
		byID:       make(map[string]*models.User),
		emails:     make(map[string]struct{}),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byUsername[user.UserName]; ok {
		return nil, common.ErrorAlreadyExists
	}
	if _, ok := r.byID[user.ID]; ok {
		return nil, common.ErrorAlreadyExists
	}
	if user.Email != "" {
		if _, ok := r.emails[user.Email]; ok {
			return nil, common.ErrorAlreadyExists
		}
		r.emails[user.Email] = struct{}{}
	}

	stored := cloneUser(user)
	r.byUsername[stored.UserName] = stored
	r.byID[stored.ID] = stored

	return cloneUser(stored), nil
}

func (r *MemoryRepository) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byUsername[login]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneUser(u), nil
}

func (r *MemoryRepository) UpdateLastLogin(ctx context.Context, userID string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[userID]
	if !ok {
		return common.ErrorNotFound
	}
	at = at.UTC()
	u.LastLogin = &at
	return nil
}

// Len reports the number of stored users.
func (r *MemoryRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

func cloneUser(u *models.User) *models.User {
	c := *u
	if u.LastLogin != nil {
		t := *u.LastLogin
		c.LastLogin = &t
	}
	return &c
}
