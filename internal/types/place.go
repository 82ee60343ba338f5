package types

import (
	"math"
	"strings"
	"time"
)

// Source tells which collection owns mutation rights over a Place.
type Source string

const (
	SourceCustom   Source = "custom"
	SourceGoogle   Source = "google"
	SourceFavorite Source = "favorite"
)

// Valid reports whether s is one of the known provenance tags.
func (s Source) Valid() bool {
	switch s {
	case SourceCustom, SourceGoogle, SourceFavorite:
		return true
	}
	return false
}

// FavoriteScope is the policy deciding where the favorite flag of a place lives.
// Local favorites are a flag on a device-local custom place and never reach the
// backend; Remote favorites are rows in the backend favorites resource.
type FavoriteScope int

const (
	FavoriteScopeLocal FavoriteScope = iota
	FavoriteScopeRemote
)

func (s FavoriteScope) String() string {
	if s == FavoriteScopeLocal {
		return "local"
	}
	return "remote"
}

// ScopeFor returns the favorite scope of p.
func ScopeFor(p Place) FavoriteScope {
	if p.Source == SourceCustom {
		return FavoriteScopeLocal
	}
	return FavoriteScopeRemote
}

// Coordinate is a WGS84 point in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether c is inside the WGS84 ranges. NaN is never valid.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) {
		return false
	}
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// Place is the canonical point of interest shared by every collection.
type Place struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	Address        string    `json:"address,omitempty"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	ImageURI       string    `json:"imageUri,omitempty"`
	Category       string    `json:"category,omitempty"`
	Tags           []string  `json:"tags,omitempty"`
	Rating         *float64  `json:"rating,omitempty"`
	RatingCount    *int      `json:"ratingCount,omitempty"`
	OpenNow        *bool     `json:"openNow,omitempty"`
	BusinessStatus string    `json:"businessStatus,omitempty"`
	PriceLevel     *int      `json:"priceLevel,omitempty"`
	DistanceKm     *float64  `json:"distanceKm,omitempty"`
	Source         Source    `json:"source"`
	IsFavorite     bool      `json:"isFavorite"`
	VisitCount     int       `json:"visitCount"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Coordinate returns the location of the place.
func (p Place) Coordinate() Coordinate {
	return Coordinate{Latitude: p.Latitude, Longitude: p.Longitude}
}

// Clone returns a deep copy so collections never share pointers or slices.
func (p Place) Clone() Place {
	c := p
	if p.Tags != nil {
		c.Tags = append([]string(nil), p.Tags...)
	}
	c.Rating = clonePtr(p.Rating)
	c.RatingCount = clonePtr(p.RatingCount)
	c.OpenNow = clonePtr(p.OpenNow)
	c.PriceLevel = clonePtr(p.PriceLevel)
	c.DistanceKm = clonePtr(p.DistanceKm)
	return c
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// ClonePlaces deep copies a slice of places.
func ClonePlaces(in []Place) []Place {
	if in == nil {
		return nil
	}
	out := make([]Place, len(in))
	for i, p := range in {
		out[i] = p.Clone()
	}
	return out
}

// PlaceForm is the user input for creating a custom place.
type PlaceForm struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Address     string   `json:"address,omitempty"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	ImageURI    string   `json:"imageUri,omitempty"`
	Category    string   `json:"category,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Validate checks the minimum a custom place needs.
func (f PlaceForm) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return ErrBadRequest
	}
	if !(Coordinate{Latitude: f.Latitude, Longitude: f.Longitude}).Valid() {
		return ErrBadRequest
	}
	return nil
}

// PlacePatch carries the fields to merge into a custom place. Nil means unchanged.
type PlacePatch struct {
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	Address     *string   `json:"address,omitempty"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	ImageURI    *string   `json:"imageUri,omitempty"`
	Category    *string   `json:"category,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	IsFavorite  *bool     `json:"isFavorite,omitempty"`
	VisitCount  *int      `json:"visitCount,omitempty"`
}

// Apply merges the patch into p and returns the result. Timestamps are left to the caller.
func (pp PlacePatch) Apply(p Place) Place {
	out := p.Clone()
	if pp.Name != nil {
		out.Name = *pp.Name
	}
	if pp.Description != nil {
		out.Description = *pp.Description
	}
	if pp.Address != nil {
		out.Address = *pp.Address
	}
	if pp.Latitude != nil {
		out.Latitude = *pp.Latitude
	}
	if pp.Longitude != nil {
		out.Longitude = *pp.Longitude
	}
	if pp.ImageURI != nil {
		out.ImageURI = *pp.ImageURI
	}
	if pp.Category != nil {
		out.Category = *pp.Category
	}
	if pp.Tags != nil {
		out.Tags = append([]string(nil), (*pp.Tags)...)
	}
	if pp.IsFavorite != nil {
		out.IsFavorite = *pp.IsFavorite
	}
	// visit count never decreases
	if pp.VisitCount != nil && *pp.VisitCount > out.VisitCount {
		out.VisitCount = *pp.VisitCount
	}
	return out
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }
