package filter

import (
	"github.com/spherical-ai/spherical/libs/showroom/internal/product"
	"github.com/spherical-ai/spherical/libs/showroom/internal/storage"
)

// Kind is how a section's options are selected.
type Kind string

const (
	Checkbox Kind = "checkbox" // any number of values, OR-ed
	Radio    Kind = "radio"    // at most one value
)

// Option is one selectable value of a section.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Section is an independently toggleable group of options. Attr returns the
// values an item has on the section's axis; an item matches when any of them
// is selected.
type Section struct {
	ID    string
	Label string
	Kind  Kind
	// Options lists the fixed options in display order. When empty, options
	// are derived from the items, labelled with Display when set.
	Options []Option
	Attr    func(product.View) []string
	Display func(product.View) string
}

// Section ids.
const (
	SectionCategory     = "category"
	SectionSubcategory  = "subcategory"
	SectionAvailability = "availability"
	SectionAutonomy     = "autonomy"
	SectionBrand        = "brand"
)

// Autonomy buckets.
const (
	BucketUnder50 = "under50"
	Bucket50To100 = "50to100"
	BucketOver100 = "over100"
)

// AutonomyBucket places a representative range value in its bucket. Exactly
// 50 and exactly 100 both fall in 50to100.
func AutonomyBucket(v float64) string {
	switch {
	case v < 50:
		return BucketUnder50
	case v <= 100:
		return Bucket50To100
	default:
		return BucketOver100
	}
}

func single(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}

// CategorySection filters on the category slug.
func CategorySection() Section {
	return Section{
		ID:      SectionCategory,
		Label:   "Categoria",
		Kind:    Checkbox,
		Attr:    func(p product.View) []string { return single(p.CategorySlug) },
		Display: func(p product.View) string { return p.Category },
	}
}

// SubcategorySection filters on the derived subcategory.
func SubcategorySection() Section {
	return Section{
		ID:    SectionSubcategory,
		Label: "Tipologia",
		Kind:  Checkbox,
		Attr:  func(p product.View) []string { return single(p.Subcategory) },
	}
}

// AvailabilitySection filters on stock status.
func AvailabilitySection() Section {
	return Section{
		ID:    SectionAvailability,
		Label: "Disponibilità",
		Kind:  Checkbox,
		Options: []Option{
			{Value: string(storage.AvailabilityInStock), Label: "Disponibile"},
			{Value: string(storage.AvailabilityLimited), Label: "Disponibilità limitata"},
			{Value: string(storage.AvailabilityOutOfStock), Label: "Esaurito"},
			{Value: string(storage.AvailabilityPreOrder), Label: "Preordine"},
		},
		Attr: func(p product.View) []string { return single(string(p.Availability)) },
	}
}

// AutonomySection filters on the range bucket of the parsed autonomy.
func AutonomySection() Section {
	return Section{
		ID:    SectionAutonomy,
		Label: "Autonomia",
		Kind:  Radio,
		Options: []Option{
			{Value: BucketUnder50, Label: "Meno di 50 km"},
			{Value: Bucket50To100, Label: "50 - 100 km"},
			{Value: BucketOver100, Label: "Oltre 100 km"},
		},
		Attr: func(p product.View) []string { return []string{AutonomyBucket(p.Autonomy.Value)} },
	}
}

// BrandSection filters on brand.
func BrandSection() Section {
	return Section{
		ID:    SectionBrand,
		Label: "Marca",
		Kind:  Checkbox,
		Attr:  func(p product.View) []string { return single(p.Brand) },
	}
}

// StandardSections is the section set of the full catalog grid.
func StandardSections() []Section {
	return []Section{
		CategorySection(),
		SubcategorySection(),
		AvailabilitySection(),
		AutonomySection(),
		BrandSection(),
	}
}

// CategoryPageSections is the section set of a single-category grid, where the
// category axis is already fixed.
func CategoryPageSections() []Section {
	return []Section{
		SubcategorySection(),
		AvailabilitySection(),
		AutonomySection(),
		BrandSection(),
	}
}

// Find returns the section with the given id.
func Find(sections []Section, id string) (Section, bool) {
	for _, s := range sections {
		if s.ID == id {
			return s, true
		}
	}
	return Section{}, false
}
