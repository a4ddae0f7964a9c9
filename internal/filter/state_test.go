package filter

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/spherical/libs/showroom/internal/locale"
)

func TestState_ToggleCheckbox(t *testing.T) {
	st := NewState()
	sec := CategorySection()

	st.Toggle(sec, "moto")
	st.Toggle(sec, "auto")
	assert.Equal(t, []string{"moto", "auto"}, st.Selected[SectionCategory])

	st.Toggle(sec, "moto")
	assert.Equal(t, []string{"auto"}, st.Selected[SectionCategory])

	st.Toggle(sec, "auto")
	_, ok := st.Selected[SectionCategory]
	assert.False(t, ok)
}

func TestState_ToggleRadio(t *testing.T) {
	st := NewState()
	sec := AutonomySection()

	st.Toggle(sec, BucketUnder50)
	st.Toggle(sec, BucketOver100)
	assert.Equal(t, []string{BucketOver100}, st.Selected[SectionAutonomy])

	st.Toggle(sec, BucketOver100)
	assert.False(t, st.IsSelected(SectionAutonomy, BucketOver100))
	assert.Empty(t, st.Selected)
}

func TestState_Reset(t *testing.T) {
	st := NewState()
	st.Locale = locale.German
	st.SearchQuery = "bolt"
	st.SortBy = SortNameAsc
	st.Toggle(BrandSection(), "Volt")

	st.Reset()
	assert.Equal(t, "", st.SearchQuery)
	assert.Equal(t, SortNewest, st.SortBy)
	assert.Empty(t, st.Selected)
	assert.Equal(t, locale.German, st.Locale)
}

func TestParseState(t *testing.T) {
	values, err := url.ParseQuery("q=+asya+&f.category=moto,auto&f.category=moto&f.autonomy=50to100&min=1000&max=abc&sort=price-asc&type=1")
	require.NoError(t, err)

	st := ParseState(values, locale.English)

	assert.Equal(t, "asya", st.SearchQuery)
	assert.Equal(t, []string{"moto", "auto"}, st.Selected[SectionCategory])
	assert.Equal(t, []string{Bucket50To100}, st.Selected[SectionAutonomy])
	require.NotNil(t, st.Price)
	require.NotNil(t, st.Price.Min)
	assert.Equal(t, 1000.0, *st.Price.Min)
	assert.Nil(t, st.Price.Max)
	assert.Equal(t, SortPriceAsc, st.SortBy)
	assert.True(t, st.SearchType)
	assert.Equal(t, locale.English, st.Locale)
}

func TestParseState_Defaults(t *testing.T) {
	st := ParseState(url.Values{"sort": {"random"}}, locale.Italian)
	assert.Equal(t, SortNewest, st.SortBy)
	assert.Nil(t, st.Price)
	assert.Empty(t, st.Selected)
}

func TestState_EncodeRoundTrip(t *testing.T) {
	st := NewState()
	st.SearchQuery = "cargo"
	st.SortBy = SortPriceDesc
	st.Selected[SectionBrand] = []string{"Volt", "Ghost"}
	st.Price = &PriceRange{Max: price(2500.5)}

	values := st.Encode()
	assert.Equal(t, "Volt,Ghost", values.Get("f.brand"))
	assert.Equal(t, "2500.5", values.Get("max"))
	assert.Empty(t, values.Get("min"))

	back := ParseState(values, locale.Italian)
	assert.Equal(t, st.SearchQuery, back.SearchQuery)
	assert.Equal(t, st.Selected, back.Selected)
	assert.Equal(t, st.SortBy, back.SortBy)
	assert.Equal(t, *st.Price.Max, *back.Price.Max)
}

func TestFind(t *testing.T) {
	sec, ok := Find(StandardSections(), SectionAutonomy)
	require.True(t, ok)
	assert.Equal(t, Radio, sec.Kind)

	_, ok = Find(StandardSections(), "colour")
	assert.False(t, ok)
}
