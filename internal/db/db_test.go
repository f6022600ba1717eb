package db

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	database, err := OpenInMemory()
	require.NoError(t, err)
	require.NoError(t, RunMigrations(database))
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func TestRunMigrationsCreatesEveryTable(t *testing.T) {
	database := setupTestDB(t)

	for _, model := range Models() {
		assert.True(t, database.Migrator().HasTable(model), "missing table for %T", model)
	}
}

func TestProductJSONColumnsRoundTrip(t *testing.T) {
	database := setupTestDB(t)

	product := &Product{
		Meta:        Meta{ID: "p-1", DisplayOrder: 3},
		Title:       "One Piece Vol. 1",
		Category:    "Manga",
		Genres:      []string{"Adventure", "Action"},
		Tags:        []string{"pirates", "shonen"},
		Price:       decimal.RequireFromString("9.99"),
		ProductType: ProductTypeBook,
		Section:     SectionBestSellers,
		IsActive:    true,
	}
	require.NoError(t, database.Create(product).Error)

	var got Product
	require.NoError(t, database.First(&got, "id = ?", "p-1").Error)
	assert.Equal(t, []string{"Adventure", "Action"}, got.Genres)
	assert.Equal(t, []string{"pirates", "shonen"}, got.Tags)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("9.99")))
	assert.False(t, got.OriginalPrice.Valid)
	assert.Equal(t, 3, got.DisplayOrder)
}

func TestPing(t *testing.T) {
	database := setupTestDB(t)
	assert.NoError(t, database.Ping())
}

func TestEnumValidation(t *testing.T) {
	assert.True(t, Section("").IsValid())
	assert.True(t, SectionLeavingSoon.IsValid())
	assert.False(t, Section("clearance").IsValid())
	assert.True(t, ProductTypePrint.IsValid())
	assert.False(t, ProductType("").IsValid())
	assert.True(t, SeriesHiatus.IsValid())
	assert.False(t, AgeRating("adult").IsValid())
	assert.True(t, RoleCoverArtist.IsValid())
	assert.False(t, TransactionType("gift").IsValid())
}

func TestCoinPackageTotalCoins(t *testing.T) {
	p := CoinPackage{Coins: 500, BonusCoins: 50}
	assert.Equal(t, 550, p.TotalCoins())
}
