// Package storage provides the vehicle catalog models and repositories.
package storage

import "time"

// Availability represents the stock status of a vehicle.
type Availability string

const (
	AvailabilityInStock    Availability = "in-stock"
	AvailabilityLimited    Availability = "limited"
	AvailabilityOutOfStock Availability = "out-of-stock"
	AvailabilityPreOrder   Availability = "pre-order"
)

// Valid reports whether a is one of the known availability states.
func (a Availability) Valid() bool {
	switch a {
	case AvailabilityInStock, AvailabilityLimited, AvailabilityOutOfStock, AvailabilityPreOrder:
		return true
	}
	return false
}

// Specs holds display-ready specification strings. Values are not normalized;
// "80-100 KM" and "2.000W" are stored exactly as shown to the customer.
type Specs struct {
	Battery      string            `json:"battery,omitempty"`
	Autonomy     string            `json:"autonomia,omitempty"`
	ChargingTime string            `json:"chargingTime,omitempty"`
	Wheels       string            `json:"wheels,omitempty"`
	Power        string            `json:"power,omitempty"`
	TopSpeed     string            `json:"topSpeed,omitempty"`
	Drivetrain   string            `json:"drivetrain,omitempty"`
	Frame        string            `json:"frame,omitempty"`
	Brakes       string            `json:"brakes,omitempty"`
	Slope        string            `json:"slope,omitempty"`
	Weight       string            `json:"weight,omitempty"`
	Extra        map[string]string `json:"extra,omitempty"`
}

// Translations maps locale code to a translated value, e.g. {"en": "Scooter"}.
type Translations map[string]string

// VehicleTranslations carries the per-locale overrides of translatable fields.
type VehicleTranslations struct {
	Name        Translations `json:"name,omitempty"`
	Description Translations `json:"description,omitempty"`
	Category    Translations `json:"category,omitempty"`
}

// Vehicle is the canonical catalog entity for one sellable unit.
type Vehicle struct {
	ID                string              `json:"id" db:"id"`
	Name              string              `json:"name" db:"name"`
	Model             string              `json:"model" db:"model"`
	Brand             string              `json:"brand" db:"brand"`
	Year              int                 `json:"year,omitempty" db:"year"`
	ProductCode       string              `json:"productCode,omitempty" db:"product_code"`
	Category          string              `json:"category" db:"category"`
	CategorySlug      string              `json:"categorySlug" db:"category_slug"`
	CategoryHref      string              `json:"categoryHref,omitempty" db:"category_href"`
	Type              string              `json:"type,omitempty" db:"type"`
	Description       string              `json:"description,omitempty" db:"description"`
	Images            []string            `json:"images" db:"images"`
	DescriptionImages []string            `json:"descriptionImages,omitempty" db:"description_images"`
	Model3D           string              `json:"model3d,omitempty" db:"model_3d"`
	Specs             Specs               `json:"specs" db:"specs"`
	OptionalFeatures  []string            `json:"optionalFeatures,omitempty" db:"optional_features"`
	SpecialBadges     []string            `json:"specialBadges,omitempty" db:"special_badges"`
	IsNew             bool                `json:"isNew" db:"is_new"`
	IsFeatured        bool                `json:"isFeatured" db:"is_featured"`
	Availability      Availability        `json:"availability" db:"availability"`
	Price             *float64            `json:"price,omitempty" db:"price"`
	Translations      VehicleTranslations `json:"translations,omitempty" db:"translations"`
	CreatedAt         time.Time           `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time           `json:"updatedAt" db:"updated_at"`
}

// CategorySummary is one row of the category listing.
type CategorySummary struct {
	Slug         string       `json:"slug"`
	Name         string       `json:"name"`
	Href         string       `json:"href,omitempty"`
	Count        int          `json:"count"`
	Translations Translations `json:"translations,omitempty"`
}

// VehicleQuery selects vehicles from the repository.
type VehicleQuery struct {
	CategorySlug string
	FeaturedOnly bool
	Limit        int
}
