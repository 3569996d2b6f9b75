package product

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
	"storefront/internal/migrate"
)

func TestPostgres_UpsertAndGet(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	require.NoError(t, migrate.Apply(ctx, pool, nil))
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool, nil)
	compareAt := int64(2500)
	created, err := repo.Upsert(ctx, domain.Product{
		Handle:  "demo-tee",
		Title:   "Demo Tee",
		Options: []string{"Color", "Size"},
		Variants: []domain.Variant{
			{Options: []string{"Red", "S"}, Price: 1999, CompareAtPrice: &compareAt, Available: true, InventoryQuantity: 3,
				FeaturedImage: &domain.Image{ID: 7, Src: "https://cdn.example.com/red.jpg"}},
			{Options: []string{"Blue", "S"}, Price: 1999, Available: false},
		},
	})
	require.NoError(t, err)
	require.Len(t, created.Variants, 2)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Red / S", created.Variants[0].Title)

	got, err := repo.GetByHandle(ctx, "demo-tee")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, []string{"Color", "Size"}, got.Options)
	require.Len(t, got.Variants, 2)
	assert.Equal(t, []string{"Red", "S"}, got.Variants[0].Options)
	require.NotNil(t, got.Variants[0].CompareAtPrice)
	assert.Equal(t, int64(2500), *got.Variants[0].CompareAtPrice)
	assert.Equal(t, "https://cdn.example.com/red.jpg", got.Variants[0].FeaturedImageSrc())
	assert.Nil(t, got.Variants[1].FeaturedImage)

	v, err := repo.GetVariant(ctx, created.Variants[1].ID)
	require.NoError(t, err)
	assert.False(t, v.Available)

	_, err = repo.GetByHandle(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = repo.GetVariant(ctx, 999999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPostgres_UpsertShrinksVariants(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	require.NoError(t, migrate.Apply(ctx, pool, nil))
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool, nil)
	first, err := repo.Upsert(ctx, domain.Product{
		Handle: "mug",
		Title:  "Mug",
		Variants: []domain.Variant{
			{Price: 1000, Available: true},
			{Price: 1200, Available: true},
		},
	})
	require.NoError(t, err)

	second, err := repo.Upsert(ctx, domain.Product{
		Handle:   "mug",
		Title:    "Mug v2",
		Variants: []domain.Variant{{Price: 900, Available: true}},
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Variants[0].ID, second.Variants[0].ID, "variants keep their id by position")

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Mug v2", list[0].Title)
	require.Len(t, list[0].Variants, 1)
	assert.Equal(t, int64(900), list[0].Variants[0].Price)
	assert.Equal(t, "Default Title", list[0].Variants[0].Title)
}

func testPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err, "connect db")
	return pool
}

func resetTables(ctx context.Context, t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(ctx, `TRUNCATE cart_lines, carts, variants, products RESTART IDENTITY CASCADE`)
	require.NoError(t, err, "truncate tables")
}
