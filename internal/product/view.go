// Package product flattens catalog vehicles into the shape rendered by cards,
// grids and the comparison table.
package product

import (
	"strings"

	"github.com/spherical-ai/spherical/libs/showroom/internal/catalog"
	"github.com/spherical-ai/spherical/libs/showroom/internal/locale"
	"github.com/spherical-ai/spherical/libs/showroom/internal/storage"
)

// View is the product shape derived from one vehicle for one locale.
type View struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Model        string               `json:"model"`
	Brand        string               `json:"brand"`
	Category     string               `json:"category"`
	CategorySlug string               `json:"categorySlug"`
	CategoryHref string               `json:"categoryHref"`
	Subcategory  string               `json:"subcategory,omitempty"`
	Type         string               `json:"type,omitempty"`
	Description  string               `json:"description"`
	Image        string               `json:"image"`
	Images       []string             `json:"images"`
	Model3D      string               `json:"model3d,omitempty"`
	Href         string               `json:"href"`
	Availability storage.Availability `json:"availability"`
	IsNew        bool                 `json:"isNew"`
	Price        *float64             `json:"price,omitempty"`

	Battery      string            `json:"battery"`
	Range        string            `json:"range"`
	ChargingTime string            `json:"chargingTime"`
	Wheels       string            `json:"wheels"`
	Power        string            `json:"power"`
	TopSpeed     string            `json:"topSpeed"`
	Drivetrain   string            `json:"drivetrain"`
	Frame        string            `json:"frame"`
	Brakes       string            `json:"brakes"`
	Slope        string            `json:"slope"`
	Weight       string            `json:"weight"`
	ExtraSpecs   map[string]string `json:"extraSpecs"`

	OptionalFeatures []string `json:"optionalFeatures"`
	SpecialBadges    []string `json:"specialBadges"`

	// Autonomy is Range parsed once at mapping time.
	Autonomy Measure `json:"autonomy"`
}

// FromVehicle maps a vehicle to its view for loc. Text fields are expected to
// be localized already; missing collections become empty ones.
func FromVehicle(v storage.Vehicle, loc locale.Locale) View {
	images := orEmpty(v.Images)
	image := ""
	if len(images) > 0 {
		image = images[0]
	}

	extra := make(map[string]string, len(v.Specs.Extra))
	for k, val := range v.Specs.Extra {
		extra[k] = val
	}

	categoryHref := CategoryHref(v, loc)

	return View{
		ID:           v.ID,
		Name:         v.Name,
		Model:        v.Model,
		Brand:        v.Brand,
		Category:     v.Category,
		CategorySlug: v.CategorySlug,
		CategoryHref: categoryHref,
		Subcategory:  catalog.Subcategory(v),
		Type:         v.Type,
		Description:  v.Description,
		Image:        image,
		Images:       images,
		Model3D:      v.Model3D,
		Href:         categoryHref + "/" + v.ID,
		Availability: v.Availability,
		IsNew:        v.IsNew,
		Price:        v.Price,

		Battery:      v.Specs.Battery,
		Range:        v.Specs.Autonomy,
		ChargingTime: v.Specs.ChargingTime,
		Wheels:       v.Specs.Wheels,
		Power:        v.Specs.Power,
		TopSpeed:     v.Specs.TopSpeed,
		Drivetrain:   v.Specs.Drivetrain,
		Frame:        v.Specs.Frame,
		Brakes:       v.Specs.Brakes,
		Slope:        v.Specs.Slope,
		Weight:       v.Specs.Weight,
		ExtraSpecs:   extra,

		OptionalFeatures: orEmpty(v.OptionalFeatures),
		SpecialBadges:    orEmpty(v.SpecialBadges),

		Autonomy: ParseMeasure(v.Specs.Autonomy),
	}
}

// FromVehicles maps every vehicle, preserving order.
func FromVehicles(vehicles []storage.Vehicle, loc locale.Locale) []View {
	out := make([]View, len(vehicles))
	for i, v := range vehicles {
		out[i] = FromVehicle(v, loc)
	}
	return out
}

// CategoryHref returns the localized category page path of v. The record's
// own href is used when set, otherwise /prodotti/<slug>.
func CategoryHref(v storage.Vehicle, loc locale.Locale) string {
	path := strings.TrimSpace(v.CategoryHref)
	if path == "" {
		path = "/prodotti/" + v.CategorySlug
	}
	return LocalizePath(loc, path)
}

// LocalizePath prefixes path with the locale segment. Absolute URLs are
// returned unchanged.
func LocalizePath(loc locale.Locale, path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	path = "/" + strings.Trim(path, "/")
	for _, l := range locale.Supported() {
		prefix := "/" + string(l)
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			path = strings.TrimPrefix(path, prefix)
			break
		}
	}
	if path == "" || path == "/" {
		return "/" + string(loc)
	}
	return "/" + string(loc) + path
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
