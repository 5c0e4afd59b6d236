package txstore

import (
	"strings"
	"time"

	"storage_dapp/internal/domain/entity"

	"github.com/patrickmn/go-cache"
)

// Store keeps transaction records for a limited time, keyed by lower-case hash.
type Store struct {
	cache *cache.Cache
}

// New creates a Store whose records expire after ttl.
func New(ttl, cleanupInterval time.Duration) *Store {
	return &Store{cache: cache.New(ttl, cleanupInterval)}
}

// Put stores or replaces a record.
func (s *Store) Put(record entity.TxRecord) {
	s.cache.Set(key(record.Hash), record, cache.DefaultExpiration)
}

// Get looks a record up by hash.
func (s *Store) Get(hash string) (entity.TxRecord, bool) {
	v, found := s.cache.Get(key(hash))
	if !found {
		return entity.TxRecord{}, false
	}
	record, ok := v.(entity.TxRecord)
	return record, ok
}

func key(hash string) string {
	return strings.ToLower(strings.TrimSpace(hash))
}
