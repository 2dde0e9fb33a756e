package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRouteStore(t *testing.T) {
	t.Parallel()

	store := NewMemoryRouteStore(SeedRoutes()...)
	assert.Equal(t, 2, store.Len())

	total, items := store.Search(RouteQuery{City: "HELSINKI", TransportType: TransportBus, Limit: 20})
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "route-2", items[0].RouteID)

	route, ok := store.Get("route-1")
	require.True(t, ok)
	assert.Equal(t, 18, route.ActiveStops)

	_, ok = store.Get("route-3")
	assert.False(t, ok)
}
