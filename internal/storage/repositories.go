package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Common errors
var (
	ErrNotFound = errors.New("record not found")
)

// DB represents a database connection interface.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// VehicleRepository reads and writes vehicle records.
type VehicleRepository struct {
	db DB
}

// NewVehicleRepository creates a new vehicle repository.
func NewVehicleRepository(db DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

const vehicleColumns = `id, name, model, brand, year, product_code, category, category_slug,
	category_href, type, description, images, description_images, model_3d, specs,
	optional_features, special_badges, is_new, is_featured, availability, price,
	translations, created_at, updated_at`

// List returns vehicles matching q. Vehicles are ordered by category then name,
// or by name alone when a single category is requested.
func (r *VehicleRepository) List(ctx context.Context, q VehicleQuery) ([]Vehicle, error) {
	var (
		where []string
		args  []interface{}
	)
	if q.CategorySlug != "" {
		args = append(args, q.CategorySlug)
		where = append(where, fmt.Sprintf("category_slug = $%d", len(args)))
	}
	if q.FeaturedOnly {
		args = append(args, true)
		where = append(where, fmt.Sprintf("is_featured = $%d", len(args)))
	}

	query := "SELECT " + vehicleColumns + " FROM vehicles"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if q.CategorySlug != "" {
		query += " ORDER BY name"
	} else {
		query += " ORDER BY category, name"
	}
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query vehicles: %w", err)
	}
	defer rows.Close()

	vehicles := []Vehicle{}
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, *v)
	}
	return vehicles, rows.Err()
}

// GetByID retrieves a vehicle by its id.
func (r *VehicleRepository) GetByID(ctx context.Context, id string) (*Vehicle, error) {
	query := "SELECT " + vehicleColumns + " FROM vehicles WHERE id = $1"
	v, err := scanVehicle(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return v, err
}

// GetByIDs retrieves the vehicles with the given ids, in the order requested.
// Unknown ids are skipped.
func (r *VehicleRepository) GetByIDs(ctx context.Context, ids []string) ([]Vehicle, error) {
	if len(ids) == 0 {
		return []Vehicle{}, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := "SELECT " + vehicleColumns + " FROM vehicles WHERE id IN (" + strings.Join(placeholders, ", ") + ")"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query vehicles by id: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]Vehicle, len(ids))
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		byID[v.ID] = *v
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]Vehicle, 0, len(byID))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if v, ok := byID[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, v)
		}
	}
	return out, nil
}

// Categories lists distinct categories with their vehicle counts.
func (r *VehicleRepository) Categories(ctx context.Context) ([]CategorySummary, error) {
	query := `
		SELECT category_slug, category, category_href, translations, COUNT(*) OVER (PARTITION BY category_slug)
		FROM vehicles
		ORDER BY category, name
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	categories := []CategorySummary{}
	seen := map[string]bool{}
	for rows.Next() {
		var (
			c     CategorySummary
			trRaw string
		)
		if err := rows.Scan(&c.Slug, &c.Name, &c.Href, &trRaw, &c.Count); err != nil {
			return nil, err
		}
		if seen[c.Slug] {
			continue
		}
		seen[c.Slug] = true
		var tr VehicleTranslations
		if trRaw != "" {
			if err := json.Unmarshal([]byte(trRaw), &tr); err != nil {
				return nil, fmt.Errorf("decode translations for category %s: %w", c.Slug, err)
			}
		}
		c.Translations = tr.Category
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// Upsert inserts or replaces a vehicle record.
func (r *VehicleRepository) Upsert(ctx context.Context, v *Vehicle) error {
	if v.ID == "" {
		return fmt.Errorf("vehicle id is required")
	}
	now := time.Now().UTC()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	v.UpdatedAt = now
	if v.Availability == "" {
		v.Availability = AvailabilityInStock
	}

	encoded, err := encodeVehicleJSON(v)
	if err != nil {
		return err
	}

	var price sql.NullFloat64
	if v.Price != nil {
		price = sql.NullFloat64{Float64: *v.Price, Valid: true}
	}

	query := `
		INSERT INTO vehicles (` + vehicleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name, model = excluded.model, brand = excluded.brand,
			year = excluded.year, product_code = excluded.product_code,
			category = excluded.category, category_slug = excluded.category_slug,
			category_href = excluded.category_href, type = excluded.type,
			description = excluded.description, images = excluded.images,
			description_images = excluded.description_images, model_3d = excluded.model_3d,
			specs = excluded.specs, optional_features = excluded.optional_features,
			special_badges = excluded.special_badges, is_new = excluded.is_new,
			is_featured = excluded.is_featured, availability = excluded.availability,
			price = excluded.price, translations = excluded.translations,
			updated_at = excluded.updated_at
	`
	_, err = r.db.ExecContext(ctx, query,
		v.ID, v.Name, v.Model, v.Brand, v.Year, v.ProductCode, v.Category, v.CategorySlug,
		v.CategoryHref, v.Type, v.Description, encoded.images, encoded.descriptionImages, v.Model3D,
		encoded.specs, encoded.optionalFeatures, encoded.specialBadges, v.IsNew, v.IsFeatured,
		string(v.Availability), price, encoded.translations, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert vehicle %s: %w", v.ID, err)
	}
	return nil
}

// Delete removes a vehicle record.
func (r *VehicleRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM vehicles WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete vehicle %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanVehicle(row rowScanner) (*Vehicle, error) {
	var (
		v                                   Vehicle
		images, descImages, specs, features string
		badges, translations, availability  string
		price                               sql.NullFloat64
	)
	err := row.Scan(
		&v.ID, &v.Name, &v.Model, &v.Brand, &v.Year, &v.ProductCode, &v.Category, &v.CategorySlug,
		&v.CategoryHref, &v.Type, &v.Description, &images, &descImages, &v.Model3D, &specs,
		&features, &badges, &v.IsNew, &v.IsFeatured, &availability, &price,
		&translations, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	v.Availability = Availability(availability)
	if price.Valid {
		p := price.Float64
		v.Price = &p
	}

	fields := []struct {
		name string
		raw  string
		dst  interface{}
	}{
		{"images", images, &v.Images},
		{"description_images", descImages, &v.DescriptionImages},
		{"specs", specs, &v.Specs},
		{"optional_features", features, &v.OptionalFeatures},
		{"special_badges", badges, &v.SpecialBadges},
		{"translations", translations, &v.Translations},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
			return nil, fmt.Errorf("decode %s for vehicle %s: %w", f.name, v.ID, err)
		}
	}
	return &v, nil
}

type encodedVehicle struct {
	images, descriptionImages, specs, optionalFeatures, specialBadges, translations string
}

func encodeVehicleJSON(v *Vehicle) (encodedVehicle, error) {
	var out encodedVehicle
	targets := []struct {
		name string
		src  interface{}
		dst  *string
	}{
		{"images", nonNil(v.Images), &out.images},
		{"description_images", nonNil(v.DescriptionImages), &out.descriptionImages},
		{"specs", v.Specs, &out.specs},
		{"optional_features", nonNil(v.OptionalFeatures), &out.optionalFeatures},
		{"special_badges", nonNil(v.SpecialBadges), &out.specialBadges},
		{"translations", v.Translations, &out.translations},
	}
	for _, t := range targets {
		data, err := json.Marshal(t.src)
		if err != nil {
			return out, fmt.Errorf("encode %s for vehicle %s: %w", t.name, v.ID, err)
		}
		*t.dst = string(data)
	}
	return out, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
