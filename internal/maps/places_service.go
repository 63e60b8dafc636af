package maps

import (
	"context"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"
)

// Suggestion is one address completion offered to the booking form.
type Suggestion struct {
	Description string `json:"description"`
	PlaceID     string `json:"placeId"`
}

type autocompleteClient interface {
	PlaceAutocomplete(ctx context.Context, r *maps.PlaceAutocompleteRequest) (maps.AutocompleteResponse, error)
}

// PlacesService handles address completion through the Places API.
type PlacesService struct {
	client autocompleteClient
}

// NewPlacesService creates a new PlacesService with the given API Key.
func NewPlacesService(apiKey string) (*PlacesService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &PlacesService{client: client}, nil
}

// minAutocompleteInput avoids spending API quota on one or two keystrokes.
const minAutocompleteInput = 3

// Autocomplete returns address suggestions restricted to France.
func (s *PlacesService) Autocomplete(ctx context.Context, input string) ([]Suggestion, error) {
	input = strings.TrimSpace(input)
	if len([]rune(input)) < minAutocompleteInput {
		return []Suggestion{}, nil
	}

	resp, err := s.client.PlaceAutocomplete(ctx, &maps.PlaceAutocompleteRequest{
		Input:      input,
		Language:   "fr",
		Components: map[maps.Component][]string{maps.ComponentCountry: {"fr"}},
	})
	if err != nil {
		return nil, fmt.Errorf("places api error: %w", err)
	}

	out := make([]Suggestion, 0, len(resp.Predictions))
	for _, p := range resp.Predictions {
		out = append(out, Suggestion{Description: p.Description, PlaceID: p.PlaceID})
	}
	return out, nil
}
