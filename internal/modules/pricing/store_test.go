package pricing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vtc/internal/testutil"
)

func TestStore_UpsertAndGetRate(t *testing.T) {
	store := NewStore(testutil.OpenTestDB(t))
	ctx := context.Background()

	_, err := store.GetRate(ctx, CategoryVan)
	assert.ErrorIs(t, err, ErrNoRate)

	require.NoError(t, store.UpsertRate(ctx, Rate{Category: CategoryVan, RatePerKm: 3.5}))
	require.NoError(t, store.UpsertRate(ctx, Rate{Category: CategoryVan, RatePerKm: 3.9}))

	r, err := store.GetRate(ctx, CategoryVan)
	require.NoError(t, err)
	assert.Equal(t, 3.9, r.RatePerKm)
}
