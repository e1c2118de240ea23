package services

import (
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
)

// KnownUsers remembers usernames that are known to be registered. Only
// positive answers are cached; accounts are never deleted, so an entry
// cannot go stale before it expires.
type KnownUsers interface {
	Contains(userName string) bool
	Add(userName string)
}

type noKnownUsers struct{}

func (noKnownUsers) Contains(string) bool { return false }
func (noKnownUsers) Add(string)           {}

// KnownUsersCache keeps known usernames in a bigcache instance.
type KnownUsersCache struct {
	cache *bigcache.BigCache
}

// NewKnownUsersCache sizes the cache for usernames, well below
// bigcache.DefaultConfig. Entries live for ttl.
func NewKnownUsersCache(ttl time.Duration) (*KnownUsersCache, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("known users cache: ttl must be positive, got %s", ttl)
	}
	cfg := bigcache.Config{
		Shards:             64,
		LifeWindow:         ttl,
		CleanWindow:        ttl,
		MaxEntriesInWindow: 10000,
		MaxEntrySize:       64,
		HardMaxCacheSize:   32,
	}
	cache, err := bigcache.NewBigCache(cfg)
	if err != nil {
		return nil, fmt.Errorf("known users cache: %w", err)
	}
	return &KnownUsersCache{cache: cache}, nil
}

func (k *KnownUsersCache) Contains(userName string) bool {
	buf, err := k.cache.Get(userName)
	return err == nil && len(buf) > 0 && buf[0] == 1
}

func (k *KnownUsersCache) Add(userName string) {
	_ = k.cache.Set(userName, []byte{1})
}

func (k *KnownUsersCache) Close() error {
	return k.cache.Close()
}
