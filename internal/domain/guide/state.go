package guide

import "github.com/FACorreiaa/local-guide/internal/types"

// State is an immutable snapshot of everything the UI renders.
type State struct {
	CustomPlaces    []types.Place
	Favorites       []types.Place
	DiscoverResults []types.Place
	SearchResults   []types.Place

	ActiveCategory string
	Coordinate     *types.Coordinate
	Query          string

	// LastFetchedCoordinate is where the current discover results were fetched.
	LastFetchedCoordinate *types.Coordinate

	Loading         bool
	DiscoverLoading bool
	SearchLoading   bool

	DiscoverError string
	SearchError   string
	NotLoggedIn   bool

	// Each quota flag travels with its own error string.
	DiscoverQuotaExceeded bool
	SearchQuotaExceeded   bool
	// QuotaExceeded is set while either operation is failing on the vendor quota.
	QuotaExceeded bool
}
