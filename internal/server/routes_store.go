package server

import (
	"strings"
	"sync"

	"github.com/samber/lo"
)

// Transport types.
const (
	TransportBus   = "bus"
	TransportTram  = "tram"
	TransportMetro = "metro"
)

// Route is a transit route.
type Route struct {
	RouteID       string `json:"route_id"`
	Name          string `json:"name"`
	City          string `json:"city"`
	TransportType string `json:"transport_type"`
	ActiveStops   int    `json:"active_stops"`
}

// RouteQuery filters and pages a route search.
type RouteQuery struct {
	City          string `json:"city"`
	TransportType string `json:"transport_type" validate:"omitempty,oneof=bus tram metro"`
	Limit         int    `json:"limit" validate:"gte=1,lte=100"`
	Offset        int    `json:"offset" validate:"gte=0"`
}

// DefaultRouteLimit is the page size when limit is not given.
const DefaultRouteLimit = 20

// RouteStore is the read side of the route catalogue.
type RouteStore interface {
	Search(q RouteQuery) (total int, items []Route)
	Get(routeID string) (Route, bool)
	Len() int
}

// MemoryRouteStore keeps routes in insertion order.
type MemoryRouteStore struct {
	mu     sync.RWMutex
	routes []Route
}

// NewMemoryRouteStore creates a store holding routes.
func NewMemoryRouteStore(routes ...Route) *MemoryRouteStore {
	return &MemoryRouteStore{routes: append([]Route(nil), routes...)}
}

// SeedRoutes returns the demo catalogue.
func SeedRoutes() []Route {
	return []Route{
		{RouteID: "route-1", Name: "North Loop", City: "Helsinki", TransportType: TransportTram, ActiveStops: 18},
		{RouteID: "route-2", Name: "Airport Express", City: "Helsinki", TransportType: TransportBus, ActiveStops: 7},
	}
}

// Search filters by city (case-insensitive) and transport type, then pages.
// total counts the filtered routes before paging.
func (s *MemoryRouteStore) Search(q RouteQuery) (int, []Route) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := lo.Filter(s.routes, func(r Route, _ int) bool {
		if q.City != "" && !strings.EqualFold(r.City, q.City) {
			return false
		}
		return q.TransportType == "" || r.TransportType == q.TransportType
	})

	return len(matched), lo.Subset(matched, q.Offset, uint(max(q.Limit, 0)))
}

// Get returns the route with routeID.
func (s *MemoryRouteStore) Get(routeID string) (Route, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Find(s.routes, func(r Route) bool {
		return r.RouteID == routeID
	})
}

// Len returns the number of routes.
func (s *MemoryRouteStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.routes)
}
