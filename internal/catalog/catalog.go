// Package catalog reads vehicles from the catalog store and applies locale
// substitution to their text fields.
package catalog

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/spherical-ai/spherical/libs/showroom/internal/cache"
	"github.com/spherical-ai/spherical/libs/showroom/internal/domain"
	"github.com/spherical-ai/spherical/libs/showroom/internal/locale"
	"github.com/spherical-ai/spherical/libs/showroom/internal/observability"
	"github.com/spherical-ai/spherical/libs/showroom/internal/storage"
)

// Repository is the read side of the vehicle store.
type Repository interface {
	List(ctx context.Context, q storage.VehicleQuery) ([]storage.Vehicle, error)
	GetByID(ctx context.Context, id string) (*storage.Vehicle, error)
	GetByIDs(ctx context.Context, ids []string) ([]storage.Vehicle, error)
	Categories(ctx context.Context) ([]storage.CategorySummary, error)
}

// Config configures the catalog accessor.
type Config struct {
	// Revalidate is how long a read stays cached. Zero disables caching.
	Revalidate    time.Duration
	FeaturedLimit int
}

// Catalog is the vehicle catalog accessor. It never writes to the store.
type Catalog struct {
	repo   Repository
	cache  *revalidationCache
	logger *observability.Logger
	config Config
}

// New creates a catalog accessor. cacheClient may be nil.
func New(repo Repository, cacheClient cache.Client, logger *observability.Logger, cfg Config) *Catalog {
	if logger == nil {
		logger = observability.Nop()
	}
	if cfg.FeaturedLimit <= 0 {
		cfg.FeaturedLimit = 6
	}
	logger = logger.WithComponent("catalog")

	return &Catalog{
		repo: repo,
		cache: &revalidationCache{
			client: cacheClient,
			logger: logger,
			ttl:    cfg.Revalidate,
		},
		logger: logger,
		config: cfg,
	}
}

// Vehicles returns every vehicle, or those of one category when categorySlug
// is set, localized for loc.
func (c *Catalog) Vehicles(ctx context.Context, categorySlug string, loc locale.Locale) ([]storage.Vehicle, error) {
	key := cache.CatalogKey("vehicles", categorySlug)

	var vehicles []storage.Vehicle
	if !c.cache.get(ctx, key, &vehicles) {
		var err error
		vehicles, err = c.repo.List(ctx, storage.VehicleQuery{CategorySlug: categorySlug})
		if err != nil {
			c.logger.WithContext(ctx).Error().Err(err).Str("category", categorySlug).Msg("Failed to list vehicles")
			return []storage.Vehicle{}, domain.DataAccessError("list vehicles", err)
		}
		c.cache.set(ctx, key, vehicles)
	}

	return LocalizeAll(vehicles, loc), nil
}

// VehicleByID returns one localized vehicle. A missing id yields a
// not-found domain error.
func (c *Catalog) VehicleByID(ctx context.Context, id string, loc locale.Locale) (*storage.Vehicle, error) {
	key := cache.CatalogKey("vehicle", id)

	var v storage.Vehicle
	if !c.cache.get(ctx, key, &v) {
		found, err := c.repo.GetByID(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, domain.NotFoundError("vehicle "+id, err)
		}
		if err != nil {
			c.logger.WithContext(ctx).Error().Err(err).Str("vehicle_id", id).Msg("Failed to load vehicle")
			return nil, domain.DataAccessError("get vehicle", err)
		}
		v = *found
		c.cache.set(ctx, key, v)
	}

	localized := Localize(v, loc)
	return &localized, nil
}

// VehiclesByIDs returns the vehicles with the given ids in request order,
// skipping ids that do not resolve.
func (c *Catalog) VehiclesByIDs(ctx context.Context, ids []string, loc locale.Locale) ([]storage.Vehicle, error) {
	vehicles, err := c.repo.GetByIDs(ctx, ids)
	if err != nil {
		c.logger.WithContext(ctx).Error().Err(err).Strs("vehicle_ids", ids).Msg("Failed to load vehicles")
		return []storage.Vehicle{}, domain.DataAccessError("get vehicles", err)
	}
	return LocalizeAll(vehicles, loc), nil
}

// Featured returns up to limit featured vehicles. A non-positive limit uses
// the configured default.
func (c *Catalog) Featured(ctx context.Context, loc locale.Locale, limit int) ([]storage.Vehicle, error) {
	if limit <= 0 {
		limit = c.config.FeaturedLimit
	}
	key := cache.CatalogKey("featured", strconv.Itoa(limit))

	var vehicles []storage.Vehicle
	if !c.cache.get(ctx, key, &vehicles) {
		var err error
		vehicles, err = c.repo.List(ctx, storage.VehicleQuery{FeaturedOnly: true, Limit: limit})
		if err != nil {
			c.logger.WithContext(ctx).Error().Err(err).Msg("Failed to list featured vehicles")
			return []storage.Vehicle{}, domain.DataAccessError("list featured vehicles", err)
		}
		c.cache.set(ctx, key, vehicles)
	}

	return LocalizeAll(vehicles, loc), nil
}

// Categories lists the catalog categories with vehicle counts, names
// localized for loc.
func (c *Catalog) Categories(ctx context.Context, loc locale.Locale) ([]storage.CategorySummary, error) {
	key := cache.CatalogKey("categories")

	var categories []storage.CategorySummary
	if !c.cache.get(ctx, key, &categories) {
		var err error
		categories, err = c.repo.Categories(ctx)
		if err != nil {
			c.logger.WithContext(ctx).Error().Err(err).Msg("Failed to list categories")
			return []storage.CategorySummary{}, domain.DataAccessError("list categories", err)
		}
		c.cache.set(ctx, key, categories)
	}

	out := make([]storage.CategorySummary, len(categories))
	for i, cat := range categories {
		cat.Name = locale.Resolve(cat.Translations, loc, cat.Name)
		out[i] = cat
	}
	return out, nil
}

// Invalidate drops every cached catalog read. Called after the store changes.
func (c *Catalog) Invalidate(ctx context.Context) error {
	return c.cache.invalidate(ctx)
}

// Localize returns a copy of v with name, description and category resolved
// for loc.
func Localize(v storage.Vehicle, loc locale.Locale) storage.Vehicle {
	v.Name = locale.Resolve(v.Translations.Name, loc, v.Name)
	v.Description = locale.Resolve(v.Translations.Description, loc, v.Description)
	v.Category = locale.Resolve(v.Translations.Category, loc, v.Category)
	return v
}

// LocalizeAll localizes every vehicle into a new slice.
func LocalizeAll(vehicles []storage.Vehicle, loc locale.Locale) []storage.Vehicle {
	out := make([]storage.Vehicle, len(vehicles))
	for i, v := range vehicles {
		out[i] = Localize(v, loc)
	}
	return out
}
