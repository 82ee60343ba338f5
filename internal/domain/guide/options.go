package guide

import (
	"time"

	"github.com/FACorreiaa/local-guide/internal/geo"
)

// QuotaExceededMessage is shown instead of the raw vendor error on quota failures.
const QuotaExceededMessage = "Google Places quota exceeded. Please try again later."

// Options tunes caching and rate limiting.
type Options struct {
	NearbyTTL           time.Duration
	SearchTTL           time.Duration
	MinDiscoverInterval time.Duration
	MaxResults          int
	MinQueryLength      int
	MoveThresholdKm     float64
	DefaultRadiusMeters float64
	// Clock drives timestamps and the discover rate gate.
	Clock func() time.Time
}

func DefaultOptions() Options {
	return Options{
		NearbyTTL:           5 * time.Minute,
		SearchTTL:           2 * time.Minute,
		MinDiscoverInterval: 30 * time.Second,
		MaxResults:          20,
		MinQueryLength:      1,
		MoveThresholdKm:     geo.DefaultMoveThresholdKm,
		DefaultRadiusMeters: 5000,
		Clock:               func() time.Time { return time.Now().UTC() },
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.NearbyTTL <= 0 {
		o.NearbyTTL = d.NearbyTTL
	}
	if o.SearchTTL <= 0 {
		o.SearchTTL = d.SearchTTL
	}
	if o.MinDiscoverInterval <= 0 {
		o.MinDiscoverInterval = d.MinDiscoverInterval
	}
	if o.MaxResults <= 0 {
		o.MaxResults = d.MaxResults
	}
	if o.MinQueryLength <= 0 {
		o.MinQueryLength = d.MinQueryLength
	}
	if o.MoveThresholdKm <= 0 {
		o.MoveThresholdKm = d.MoveThresholdKm
	}
	if o.DefaultRadiusMeters <= 0 {
		o.DefaultRadiusMeters = d.DefaultRadiusMeters
	}
	if o.Clock == nil {
		o.Clock = d.Clock
	}
	return o
}
