// Package comparison keeps each visitor's comparison selection and renders
// the side-by-side comparison table.
package comparison

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/spherical-ai/spherical/libs/showroom/internal/cache"
	"github.com/spherical-ai/spherical/libs/showroom/internal/observability"
)

// DefaultMaxItems is the selection capacity.
const DefaultMaxItems = 4

// DefaultStorageKey is the key the selection is persisted under.
const DefaultStorageKey = "ev-comparison"

// KV is the key-value store a selection is persisted to. Get returns
// cache.ErrCacheMiss for an absent key.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// StoreConfig configures a Store.
type StoreConfig struct {
	Key      string
	MaxItems int
	TTL      time.Duration // zero keeps the entry forever
}

// Store is an ordered, duplicate-free, bounded list of vehicle ids. Every
// mutation writes the whole list through to the KV.
type Store struct {
	kv     KV
	cfg    StoreConfig
	logger *observability.Logger

	mu  sync.Mutex
	ids []string
}

// NewStore rehydrates a store from kv. A missing, malformed or non-array
// value starts empty; a longer list is truncated to MaxItems.
func NewStore(ctx context.Context, kv KV, cfg StoreConfig, logger *observability.Logger) *Store {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = DefaultMaxItems
	}
	if cfg.Key == "" {
		cfg.Key = DefaultStorageKey
	}
	if logger == nil {
		logger = observability.Nop()
	}

	s := &Store{
		kv:     kv,
		cfg:    cfg,
		logger: logger.WithComponent("comparison"),
		ids:    []string{},
	}
	s.ids = s.load(ctx)
	return s
}

func (s *Store) load(ctx context.Context) []string {
	data, err := s.kv.Get(ctx, s.cfg.Key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn().Err(err).Str("key", s.cfg.Key).Msg("Failed to read comparison selection")
		}
		return []string{}
	}

	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		s.logger.Warn().Err(err).Str("key", s.cfg.Key).Msg("Discarding malformed comparison selection")
		return []string{}
	}

	ids := make([]string, 0, s.cfg.MaxItems)
	for _, id := range raw {
		if id == "" || containsID(ids, id) {
			continue
		}
		if len(ids) == s.cfg.MaxItems {
			break
		}
		ids = append(ids, id)
	}
	return ids
}

// persist writes the list, or removes the key when the list is empty.
// Failures are logged; the in-memory state stays authoritative.
func (s *Store) persist(ctx context.Context) {
	if len(s.ids) == 0 {
		if err := s.kv.Delete(ctx, s.cfg.Key); err != nil {
			s.logger.Warn().Err(err).Str("key", s.cfg.Key).Msg("Failed to delete comparison selection")
		}
		return
	}

	data, err := json.Marshal(s.ids)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to encode comparison selection")
		return
	}
	if err := s.kv.Set(ctx, s.cfg.Key, data, s.cfg.TTL); err != nil {
		s.logger.Warn().Err(err).Str("key", s.cfg.Key).Msg("Failed to persist comparison selection")
	}
}

// Add appends id when it is absent and capacity remains. Otherwise it does
// nothing; callers check Contains for feedback.
func (s *Store) Add(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" || containsID(s.ids, id) || len(s.ids) >= s.cfg.MaxItems {
		return
	}
	s.ids = append(s.ids, id)
	s.persist(ctx)
}

// Remove drops id if present.
func (s *Store) Remove(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, cur := range s.ids {
		if cur == id {
			s.ids = append(s.ids[:i:i], s.ids[i+1:]...)
			s.persist(ctx)
			return
		}
	}
}

// Clear empties the selection.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ids = []string{}
	s.persist(ctx)
}

// Contains reports whether id is selected.
func (s *Store) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return containsID(s.ids, id)
}

// Items returns a snapshot of the selection in insertion order.
func (s *Store) Items() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Len returns the number of selected ids.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// IsFull reports whether the selection reached capacity.
func (s *Store) IsFull() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids) >= s.cfg.MaxItems
}

// MaxItems returns the capacity.
func (s *Store) MaxItems() int {
	return s.cfg.MaxItems
}

// Snapshot is the serializable state of a selection.
type Snapshot struct {
	Items    []string `json:"items"`
	MaxItems int      `json:"maxItems"`
	IsFull   bool     `json:"isFull"`
}

// Snapshot returns items and capacity observed under one lock.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]string, len(s.ids))
	copy(items, s.ids)
	return Snapshot{
		Items:    items,
		MaxItems: s.cfg.MaxItems,
		IsFull:   len(s.ids) >= s.cfg.MaxItems,
	}
}

func containsID(ids []string, id string) bool {
	for _, cur := range ids {
		if cur == id {
			return true
		}
	}
	return false
}
