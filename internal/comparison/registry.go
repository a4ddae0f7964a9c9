package comparison

import (
	"context"
	"sync"
	"time"

	"github.com/spherical-ai/spherical/libs/showroom/internal/cache"
	"github.com/spherical-ai/spherical/libs/showroom/internal/observability"
)

// Registry hands out one Store per visitor, so concurrent requests of the
// same visitor share a single selection.
type Registry struct {
	kv     KV
	cfg    StoreConfig
	logger *observability.Logger
	now    func() time.Time

	mu     sync.Mutex
	stores map[string]*registryEntry
}

type registryEntry struct {
	store    *Store
	lastUsed time.Time
}

// NewRegistry creates a registry whose stores persist to kv under
// <visitor>:<cfg.Key>.
func NewRegistry(kv KV, cfg StoreConfig, logger *observability.Logger) *Registry {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Registry{
		kv:     kv,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		stores: make(map[string]*registryEntry),
	}
}

// For returns the visitor's store, rehydrating it on first use.
func (r *Registry) For(ctx context.Context, visitorID string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.stores[visitorID]; ok {
		e.lastUsed = r.now()
		return e.store
	}

	cfg := r.cfg
	key := cfg.Key
	if key == "" {
		key = DefaultStorageKey
	}
	cfg.Key = cache.VisitorKey(visitorID, key)

	store := NewStore(ctx, r.kv, cfg, r.logger.WithVisitor(visitorID))
	r.stores[visitorID] = &registryEntry{store: store, lastUsed: r.now()}
	return store
}

// Sweep forgets stores unused for longer than idle. Their selections remain in
// the KV and are rehydrated on the next request.
func (r *Registry) Sweep(idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-idle)
	removed := 0
	for id, e := range r.stores {
		if e.lastUsed.Before(cutoff) {
			delete(r.stores, id)
			removed++
		}
	}
	return removed
}

// Run sweeps idle stores every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(idle); n > 0 {
				r.logger.Debug().Int("removed", n).Msg("Swept idle comparison selections")
			}
		}
	}
}

// Len returns the number of live stores.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}
