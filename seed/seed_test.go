package seed_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/teapos/pos"
	"github.com/warp/teapos/seed"
	"github.com/warp/teapos/store/sqlite"
)

func TestLoad_SeedsEmptyDatabaseOnce(t *testing.T) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	catalog := pos.NewCatalog(store, logger)
	ctx := context.Background()

	loaded, err := seed.Load(ctx, catalog, logger)
	require.NoError(t, err)
	assert.True(t, loaded)

	products, err := store.ListProducts(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, products)

	for _, p := range products {
		recipe, err := store.ListRecipe(ctx, p.ID)
		require.NoError(t, err)
		assert.NotEmpty(t, recipe, "%s has a recipe", p.Name)
	}

	// A demo order goes through against seeded stock.
	rec := pos.NewRecorder(store, logger)
	_, err = rec.SubmitOrder(ctx, pos.Order{Items: []pos.OrderItem{
		{ProductID: products[0].ID, Quantity: 2, Price: products[0].Price},
	}})
	require.NoError(t, err)

	loaded, err = seed.Load(ctx, catalog, logger)
	require.NoError(t, err)
	assert.False(t, loaded)

	again, err := store.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, again, len(products))
}
