package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/spherical/libs/showroom/internal/locale"
	"github.com/spherical-ai/spherical/libs/showroom/internal/product"
	"github.com/spherical-ai/spherical/libs/showroom/internal/storage"
)

func price(p float64) *float64 { return &p }

func view(id, name, categorySlug, autonomy string, p *float64, isNew bool) product.View {
	return product.View{
		ID:           id,
		Name:         name,
		Model:        name + " Model",
		Category:     categorySlug,
		CategorySlug: categorySlug,
		Range:        autonomy,
		Autonomy:     product.ParseMeasure(autonomy),
		Price:        p,
		IsNew:        isNew,
		Availability: storage.AvailabilityInStock,
	}
}

func fixtures() []product.View {
	return []product.View{
		view("asya", "ASYA", "moto", "80-100 KM", price(3490), false),
		view("bolt", "Bolt", "moto", "120 km", price(4990), true),
		view("urban", "Urban", "biciclette", "40 km", nil, false),
		view("mini", "Mini", "auto", "50-50 KM", price(9900), true),
		view("cargo", "Cargo", "biciclette", "n/d", price(1500), false),
	}
}

func ids(items []product.View) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestApply_PassThroughWithDefaults(t *testing.T) {
	items := fixtures()
	st := NewState()

	res := Apply(items, st, StandardSections())

	assert.Equal(t, 5, res.Total)
	// newest is a stable boolean sort
	assert.Equal(t, []string{"bolt", "mini", "asya", "urban", "cargo"}, ids(res.Items))
	// input untouched
	assert.Equal(t, "asya", items[0].ID)
}

func TestApply_Idempotent(t *testing.T) {
	items := fixtures()
	st := NewState()
	st.SearchQuery = "o"
	st.Selected[SectionCategory] = []string{"moto", "biciclette"}
	st.SortBy = SortPriceDesc

	first := Apply(items, st, StandardSections())
	second := Apply(items, st, StandardSections())
	assert.Equal(t, first, second)
}

func TestApply_SearchIsCaseInsensitive(t *testing.T) {
	st := NewState()
	st.SearchQuery = "  asYA "

	res := Apply(fixtures(), st, StandardSections())
	assert.Equal(t, []string{"asya"}, ids(res.Items))

	st.SearchQuery = "model"
	res = Apply(fixtures(), st, StandardSections())
	assert.Equal(t, 5, res.Total)
}

func TestApply_SearchIgnoresAccents(t *testing.T) {
	items := fixtures()
	items[0].Model = "Città Sport"
	st := NewState()

	for _, q := range []string{"citta", "CITTÀ"} {
		st.SearchQuery = q
		assert.Equal(t, []string{"asya"}, ids(Apply(items, st, StandardSections()).Items), q)
	}
}

func TestApply_SearchTypeVariant(t *testing.T) {
	items := fixtures()
	items[2].Type = "E-Bike Pieghevole"
	st := NewState()
	st.SearchQuery = "pieghevole"

	assert.Equal(t, 0, Apply(items, st, StandardSections()).Total)

	st.SearchType = true
	assert.Equal(t, []string{"urban"}, ids(Apply(items, st, StandardSections()).Items))
}

func TestApply_OrWithinSectionAndAcross(t *testing.T) {
	st := NewState()
	st.Selected[SectionCategory] = []string{"moto", "auto"}
	res := Apply(fixtures(), st, StandardSections())
	assert.ElementsMatch(t, []string{"asya", "bolt", "mini"}, ids(res.Items))

	st.Selected[SectionAutonomy] = []string{Bucket50To100}
	res = Apply(fixtures(), st, StandardSections())
	assert.ElementsMatch(t, []string{"asya", "mini"}, ids(res.Items))
}

func TestApply_RadioUsesFirstValue(t *testing.T) {
	st := NewState()
	st.Selected[SectionAutonomy] = []string{BucketOver100, BucketUnder50}
	res := Apply(fixtures(), st, StandardSections())
	assert.Equal(t, []string{"bolt"}, ids(res.Items))
}

func TestApply_AutonomyBoundary(t *testing.T) {
	items := []product.View{view("edge", "Edge", "auto", "50-50 KM", nil, false)}

	for bucket, want := range map[string]int{BucketUnder50: 0, Bucket50To100: 1, BucketOver100: 0} {
		st := NewState()
		st.Selected[SectionAutonomy] = []string{bucket}
		assert.Equal(t, want, Apply(items, st, StandardSections()).Total, bucket)
	}
}

func TestAutonomyBucket(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{0, BucketUnder50},
		{49.5, BucketUnder50},
		{50, Bucket50To100},
		{100, Bucket50To100},
		{100.5, BucketOver100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AutonomyBucket(tt.v))
	}
}

func TestApply_UnparseableAutonomyIsZero(t *testing.T) {
	st := NewState()
	st.Selected[SectionAutonomy] = []string{BucketUnder50}
	res := Apply(fixtures(), st, StandardSections())
	assert.ElementsMatch(t, []string{"urban", "cargo"}, ids(res.Items))
}

func TestApply_PriceRangeKeepsUnpriced(t *testing.T) {
	st := NewState()
	st.Price = &PriceRange{Min: price(100), Max: price(200)}

	res := Apply(fixtures(), st, StandardSections())
	assert.Equal(t, []string{"urban"}, ids(res.Items))
}

func TestApply_PriceBoundsInclusiveAndOpen(t *testing.T) {
	st := NewState()
	st.Price = &PriceRange{Min: price(3490)}
	res := Apply(fixtures(), st, StandardSections())
	assert.ElementsMatch(t, []string{"asya", "bolt", "urban", "mini"}, ids(res.Items))

	st.Price = &PriceRange{Max: price(3490)}
	res = Apply(fixtures(), st, StandardSections())
	assert.ElementsMatch(t, []string{"asya", "urban", "cargo"}, ids(res.Items))
}

func TestApply_SortByPrice(t *testing.T) {
	st := NewState()
	st.SortBy = SortPriceAsc
	res := Apply(fixtures(), st, StandardSections())
	// missing price sorts as zero
	assert.Equal(t, []string{"urban", "cargo", "asya", "bolt", "mini"}, ids(res.Items))

	st.SortBy = SortPriceDesc
	res = Apply(fixtures(), st, StandardSections())
	assert.Equal(t, []string{"mini", "bolt", "asya", "cargo", "urban"}, ids(res.Items))
}

func TestApply_SortByNameIsLocaleAware(t *testing.T) {
	items := []product.View{
		{ID: "z", Name: "Zeta"},
		{ID: "e", Name: "Élan"},
		{ID: "a", Name: "alfa"},
		{ID: "b", Name: "Beta"},
	}
	st := NewState()
	st.SortBy = SortNameAsc
	st.Locale = locale.Italian

	res := Apply(items, st, nil)
	assert.Equal(t, []string{"a", "b", "e", "z"}, ids(res.Items))
}

func TestApply_CountsIgnoreSelections(t *testing.T) {
	st := NewState()
	st.Selected[SectionCategory] = []string{"auto"}
	st.Price = &PriceRange{Max: price(10)}

	res := Apply(fixtures(), st, StandardSections())

	assert.Equal(t, 2, res.Counts[SectionCategory]["moto"])
	assert.Equal(t, 2, res.Counts[SectionCategory]["biciclette"])
	assert.Equal(t, 1, res.Counts[SectionCategory]["auto"])
	assert.Equal(t, 2, res.Counts[SectionAutonomy][BucketUnder50])
	assert.Equal(t, 2, res.Counts[SectionAutonomy][Bucket50To100])
	assert.Equal(t, 1, res.Counts[SectionAutonomy][BucketOver100])
	assert.Equal(t, 0, res.Counts[SectionAvailability][string(storage.AvailabilityPreOrder)])
}

func TestApply_SelectedOptionStaysListed(t *testing.T) {
	st := NewState()
	st.SearchQuery = "asya"
	st.Selected[SectionCategory] = []string{"auto"}
	st.Selected[SectionBrand] = []string{"Ghost"}

	res := Apply(fixtures(), st, StandardSections())
	assert.Equal(t, 0, res.Total)

	// the search hides "mini", but the selected category keeps its count
	assert.Equal(t, 1, res.Counts[SectionCategory]["auto"])
	assert.Equal(t, 1, res.Counts[SectionCategory]["moto"])
	assert.Zero(t, res.Counts[SectionCategory]["biciclette"])

	var brand Facet
	for _, f := range res.Facets {
		if f.ID == SectionBrand {
			brand = f
		}
	}
	require.Len(t, brand.Options, 1)
	assert.Equal(t, "Ghost", brand.Options[0].Value)
	assert.True(t, brand.Options[0].Selected)
	// nothing in the catalog carries it
	assert.Zero(t, brand.Options[0].Count)
}

func TestApply_DerivedOptionsUseDisplayLabel(t *testing.T) {
	items := fixtures()
	items[0].Category = "Moto elettriche"
	res := Apply(items, NewState(), []Section{CategorySection()})

	require.Len(t, res.Facets, 1)
	opts := res.Facets[0].Options
	require.Len(t, opts, 3)
	assert.Equal(t, "auto", opts[0].Value)
	assert.Equal(t, "moto", opts[2].Value)
	assert.Equal(t, "Moto elettriche", opts[2].Label)
}
