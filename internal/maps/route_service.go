package maps

import (
	"context"
	"errors"
	"fmt"

	"googlemaps.github.io/maps"

	"vtc/internal/modules/pricing"
)

var ErrNoRoute = errors.New("no route found")

type directionsClient interface {
	Directions(ctx context.Context, r *maps.DirectionsRequest) ([]maps.Route, []maps.GeocodedWaypoint, error)
}

// RouteService resolves driving distance and duration through the Directions API.
type RouteService struct {
	client directionsClient
}

// NewRouteService creates a new RouteService with the given API Key.
func NewRouteService(apiKey string) (*RouteService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &RouteService{client: client}, nil
}

// Route returns the first driving leg converted to kilometers and minutes.
// The traffic-aware duration is preferred when the API provides one.
func (s *RouteService) Route(ctx context.Context, origin, destination string) (pricing.Route, error) {
	r := &maps.DirectionsRequest{
		Origin:        origin,
		Destination:   destination,
		Mode:          maps.TravelModeDriving,
		DepartureTime: "now",
		Language:      "fr",
		Region:        "fr",
	}

	routes, _, err := s.client.Directions(ctx, r)
	if err != nil {
		return pricing.Route{}, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return pricing.Route{}, ErrNoRoute
	}

	leg := routes[0].Legs[0]
	duration := leg.Duration
	if leg.DurationInTraffic > 0 {
		duration = leg.DurationInTraffic
	}
	return pricing.Route{
		DistanceKm:      float64(leg.Distance.Meters) / 1000,
		DurationMinutes: duration.Minutes(),
	}, nil
}
