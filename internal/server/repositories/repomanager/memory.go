package repomanager

import (
	"context"

	"github.com/dmitrijs2005/saltgate/internal/server/repositories/users"
)

// MemoryRepositoryManager backs the store with process memory. There is no
// schema and nothing to ping.
type MemoryRepositoryManager struct {
	users *users.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{users: users.NewMemoryRepository()}
}

func (m *MemoryRepositoryManager) Users() users.Repository { return m.users }
func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }
func (m *MemoryRepositoryManager) Ping(context.Context) error { return nil }
func (m *MemoryRepositoryManager) Close() error { return nil }
