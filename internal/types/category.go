package types

import (
	"fmt"
	"strings"
	"time"
)

// Category is an immutable catalog entry used to filter discover results.
type Category struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Icon          string   `json:"icon"`
	IncludedTypes []string `json:"includedTypes,omitempty"`
	Keyword       string   `json:"keyword,omitempty"`
	// Radius is the vendor search radius in metres. Zero means the store default.
	Radius float64 `json:"radius,omitempty"`
}

// FavoriteRequest is the canonical POST /api/favorites body.
type FavoriteRequest struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Address     string  `json:"address,omitempty"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	ImageURI    string  `json:"imageUri,omitempty"`
	Category    string  `json:"category,omitempty"`
	Source      Source  `json:"source,omitempty"`
}

// FavoriteRequestFromPlace builds the POST payload for p.
func FavoriteRequestFromPlace(p Place) FavoriteRequest {
	return FavoriteRequest{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Address:     p.Address,
		Latitude:    p.Latitude,
		Longitude:   p.Longitude,
		ImageURI:    p.ImageURI,
		Category:    p.Category,
		Source:      p.Source,
	}
}

// Validate checks the fields the favorites API needs to store the place row.
func (r FavoriteRequest) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrBadRequest)
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrBadRequest)
	}
	if !(Coordinate{Latitude: r.Latitude, Longitude: r.Longitude}).Valid() {
		return fmt.Errorf("%w: coordinate out of range", ErrBadRequest)
	}
	if r.Source != "" && !r.Source.Valid() {
		return fmt.Errorf("%w: unknown source %q", ErrBadRequest, r.Source)
	}
	return nil
}

// Place converts the request into the row stored alongside the favorite.
func (r FavoriteRequest) Place(now time.Time) Place {
	source := r.Source
	if source == "" || source == SourceFavorite {
		source = SourceGoogle
	}
	return Place{
		ID:          strings.TrimSpace(r.ID),
		Name:        strings.TrimSpace(r.Name),
		Description: r.Description,
		Address:     r.Address,
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		ImageURI:    r.ImageURI,
		Category:    r.Category,
		Source:      source,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// LegacyFavoriteToggle is the PATCH /api/favorites body kept for older clients.
type LegacyFavoriteToggle struct {
	PlaceID  string `json:"placeId"`
	Favorite bool   `json:"favorite"`
}

// ErrorResponse is the JSON error envelope returned by the API.
type ErrorResponse struct {
	Error string `json:"error"`
}
