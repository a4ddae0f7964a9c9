package storage

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, Migrate(context.Background(), db))
	return db
}

func price(p float64) *float64 { return &p }

func seedVehicles(t *testing.T, repo *VehicleRepository) {
	t.Helper()
	ctx := context.Background()
	vehicles := []Vehicle{
		{
			ID: "asya", Name: "ASYA", Model: "ASYA 2025", Brand: "Volt", Category: "Moto", CategorySlug: "moto",
			Images:           []string{"/img/asya-1.jpg", "/img/asya-2.jpg"},
			Specs:            Specs{Battery: "72V 40Ah", Autonomy: "80-100 KM", Extra: map[string]string{"color": "red"}},
			OptionalFeatures: []string{"Bluetooth", "Allarme"},
			IsNew:            true, IsFeatured: true, Availability: AvailabilityLimited, Price: price(3490),
			Translations: VehicleTranslations{Name: Translations{"en": "ASYA EN"}, Category: Translations{"en": "Motorbikes"}},
		},
		{ID: "bolt", Name: "Bolt", Category: "Moto", CategorySlug: "moto", Availability: AvailabilityInStock},
		{ID: "fat-one", Name: "Fat One", Category: "Biciclette", CategorySlug: "biciclette", IsFeatured: true},
	}
	for i := range vehicles {
		require.NoError(t, repo.Upsert(ctx, &vehicles[i]))
	}
}

func TestVehicleRepository_ListOrdering(t *testing.T) {
	repo := NewVehicleRepository(setupTestDB(t))
	seedVehicles(t, repo)

	all, err := repo.List(context.Background(), VehicleQuery{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"fat-one", "asya", "bolt"}, []string{all[0].ID, all[1].ID, all[2].ID})

	moto, err := repo.List(context.Background(), VehicleQuery{CategorySlug: "moto"})
	require.NoError(t, err)
	require.Len(t, moto, 2)
	assert.Equal(t, "asya", moto[0].ID)

	featured, err := repo.List(context.Background(), VehicleQuery{FeaturedOnly: true, Limit: 1})
	require.NoError(t, err)
	require.Len(t, featured, 1)
	assert.Equal(t, "fat-one", featured[0].ID)
}

func TestVehicleRepository_RoundTripFields(t *testing.T) {
	repo := NewVehicleRepository(setupTestDB(t))
	seedVehicles(t, repo)

	v, err := repo.GetByID(context.Background(), "asya")
	require.NoError(t, err)

	assert.Equal(t, []string{"/img/asya-1.jpg", "/img/asya-2.jpg"}, v.Images)
	assert.Equal(t, "80-100 KM", v.Specs.Autonomy)
	assert.Equal(t, "red", v.Specs.Extra["color"])
	assert.Equal(t, []string{"Bluetooth", "Allarme"}, v.OptionalFeatures)
	assert.True(t, v.IsNew)
	assert.Equal(t, AvailabilityLimited, v.Availability)
	require.NotNil(t, v.Price)
	assert.Equal(t, 3490.0, *v.Price)
	assert.Equal(t, "ASYA EN", v.Translations.Name["en"])

	bolt, err := repo.GetByID(context.Background(), "bolt")
	require.NoError(t, err)
	assert.Nil(t, bolt.Price)
	assert.Empty(t, bolt.Images)
}

func TestVehicleRepository_NotFound(t *testing.T) {
	repo := NewVehicleRepository(setupTestDB(t))
	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(context.Background(), "missing"), ErrNotFound)
}

func TestVehicleRepository_GetByIDsKeepsRequestOrder(t *testing.T) {
	repo := NewVehicleRepository(setupTestDB(t))
	seedVehicles(t, repo)

	got, err := repo.GetByIDs(context.Background(), []string{"bolt", "nope", "asya", "bolt"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "bolt", got[0].ID)
	assert.Equal(t, "asya", got[1].ID)
}

func TestVehicleRepository_UpsertUpdates(t *testing.T) {
	repo := NewVehicleRepository(setupTestDB(t))
	seedVehicles(t, repo)
	ctx := context.Background()

	v, err := repo.GetByID(ctx, "bolt")
	require.NoError(t, err)
	v.Name = "Bolt Plus"
	v.Price = price(1999)
	require.NoError(t, repo.Upsert(ctx, v))

	updated, err := repo.GetByID(ctx, "bolt")
	require.NoError(t, err)
	assert.Equal(t, "Bolt Plus", updated.Name)
	require.NotNil(t, updated.Price)
	assert.Equal(t, 1999.0, *updated.Price)
}

func TestVehicleRepository_Categories(t *testing.T) {
	repo := NewVehicleRepository(setupTestDB(t))
	seedVehicles(t, repo)

	cats, err := repo.Categories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "biciclette", cats[0].Slug)
	assert.Equal(t, 1, cats[0].Count)
	assert.Equal(t, "moto", cats[1].Slug)
	assert.Equal(t, 2, cats[1].Count)
	assert.Equal(t, "Motorbikes", cats[1].Translations["en"])
}
