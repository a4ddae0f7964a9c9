package product

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/spherical/libs/showroom/internal/locale"
	"github.com/spherical-ai/spherical/libs/showroom/internal/storage"
)

func TestFromVehicle(t *testing.T) {
	p := 3490.0
	v := storage.Vehicle{
		ID:           "asya",
		Name:         "ASYA",
		Model:        "ASYA 2025",
		Category:     "Moto",
		CategorySlug: "moto",
		Images:       []string{"/img/1.jpg", "/img/2.jpg"},
		Specs: storage.Specs{
			Battery:  "72V 40Ah",
			Autonomy: "80-100 KM",
			Extra:    map[string]string{"colore": "rosso"},
		},
		OptionalFeatures: []string{"Bluetooth"},
		IsNew:            true,
		Availability:     storage.AvailabilityLimited,
		Price:            &p,
	}

	view := FromVehicle(v, locale.English)

	assert.Equal(t, "/img/1.jpg", view.Image)
	assert.Equal(t, "/en/prodotti/moto", view.CategoryHref)
	assert.Equal(t, "/en/prodotti/moto/asya", view.Href)
	assert.Equal(t, "moto", view.Subcategory)
	assert.Equal(t, "80-100 KM", view.Range)
	assert.Equal(t, 90.0, view.Autonomy.Value)
	assert.Equal(t, "rosso", view.ExtraSpecs["colore"])
	assert.Equal(t, []string{"Bluetooth"}, view.OptionalFeatures)
	require.NotNil(t, view.Price)
	assert.Equal(t, 3490.0, *view.Price)
}

func TestFromVehicle_EmptyCollections(t *testing.T) {
	view := FromVehicle(storage.Vehicle{ID: "bare", CategorySlug: "auto"}, locale.Italian)

	assert.Equal(t, "", view.Image)
	assert.NotNil(t, view.Images)
	assert.NotNil(t, view.OptionalFeatures)
	assert.NotNil(t, view.SpecialBadges)
	assert.NotNil(t, view.ExtraSpecs)
	assert.Equal(t, Measure{}, view.Autonomy)
	assert.Equal(t, "/it/prodotti/auto/bare", view.Href)
}

func TestFromVehicle_DoesNotAliasInput(t *testing.T) {
	v := storage.Vehicle{ID: "a", Images: []string{"x"}}
	view := FromVehicle(v, locale.Italian)
	view.Images[0] = "changed"
	assert.Equal(t, "x", v.Images[0])
}

func TestLocalizePath(t *testing.T) {
	tests := []struct {
		loc  locale.Locale
		path string
		want string
	}{
		{locale.English, "/prodotti/moto", "/en/prodotti/moto"},
		{locale.English, "/it/prodotti/moto", "/en/prodotti/moto"},
		{locale.German, "prodotti/moto/", "/de/prodotti/moto"},
		{locale.Italian, "/", "/it"},
		{locale.Italian, "/italia", "/it/italia"},
		{locale.English, "https://cdn.example.com/x", "https://cdn.example.com/x"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, LocalizePath(tt.loc, tt.path))
		})
	}
}

func TestParseMeasure(t *testing.T) {
	tests := []struct {
		in   string
		want Measure
	}{
		{"80-100 KM", Measure{Min: 80, Max: 100, Value: 90}},
		{"50-50 KM", Measure{Min: 50, Max: 50, Value: 50}},
		{"60 km", Measure{Min: 60, Max: 60, Value: 60}},
		{"fino a 40-60-80 km", Measure{Min: 40, Max: 60, Value: 50}},
		{"2.000W", Measure{Min: 2, Max: 0, Value: 1}},
		{"n/d", Measure{}},
		{"", Measure{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseMeasure(tt.in))
		})
	}
}

func TestFromVehicles(t *testing.T) {
	views := FromVehicles([]storage.Vehicle{{ID: "b"}, {ID: "a"}}, locale.Italian)
	require.Len(t, views, 2)
	assert.Equal(t, "b", views[0].ID)
	assert.Equal(t, "a", views[1].ID)
	assert.NotNil(t, FromVehicles(nil, locale.Italian))
}
