package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spherical-ai/spherical/libs/showroom/internal/cache"
	"github.com/spherical-ai/spherical/libs/showroom/internal/observability"
)

// revalidationCache stores raw (unlocalized) catalog reads for a short window
// so every locale shares the same entry.
type revalidationCache struct {
	client cache.Client
	logger *observability.Logger
	ttl    time.Duration
}

type cachedEntry struct {
	Payload  json.RawMessage `json:"payload"`
	CachedAt time.Time       `json:"cached_at"`
}

func (c *revalidationCache) enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

// get decodes the entry under key into dst. It reports false on a miss or on
// any cache failure.
func (c *revalidationCache) get(ctx context.Context, key string, dst interface{}) bool {
	if !c.enabled() {
		return false
	}

	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Debug().Err(err).Str("key", key).Msg("Cache get error")
		}
		return false
	}

	var entry cachedEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Failed to unmarshal cached catalog entry")
		return false
	}
	if err := json.Unmarshal(entry.Payload, dst); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Failed to decode cached catalog payload")
		return false
	}

	c.logger.Debug().Str("key", key).Msg("Cache hit")
	return true
}

func (c *revalidationCache) set(ctx context.Context, key string, value interface{}) {
	if !c.enabled() {
		return
	}

	payload, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Failed to marshal catalog entry")
		return
	}
	data, err := json.Marshal(cachedEntry{Payload: payload, CachedAt: time.Now().UTC()})
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Failed to marshal catalog entry")
		return
	}

	if err := c.client.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Failed to cache catalog entry")
		return
	}
	c.logger.Debug().Str("key", key).Dur("ttl", c.ttl).Msg("Cached catalog entry")
}

func (c *revalidationCache) invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.DeleteByPrefix(ctx, cache.CatalogKey()+":"); err != nil {
		return fmt.Errorf("invalidate catalog cache: %w", err)
	}
	return nil
}
