package guide

import (
	"context"

	"github.com/FACorreiaa/local-guide/internal/domain/placesearch"
	"github.com/FACorreiaa/local-guide/internal/types"
)

// PlaceSearcher is the vendor search surface the store depends on.
type PlaceSearcher interface {
	SearchNearby(ctx context.Context, req placesearch.NearbyRequest) ([]types.Place, error)
	SearchByText(ctx context.Context, req placesearch.TextRequest) ([]types.Place, error)
	FetchDetails(ctx context.Context, id string) (types.Place, error)
}

// FavoritesRemote is the backend favorites resource.
type FavoritesRemote interface {
	List(ctx context.Context) ([]types.Place, error)
	Add(ctx context.Context, p types.Place) error
	Remove(ctx context.Context, placeID string) error
}

// LocalPlaces persists the custom place list on the device.
type LocalPlaces interface {
	Load(ctx context.Context) ([]types.Place, error)
	Save(ctx context.Context, places []types.Place) error
}

// Locator asks the platform for location access. A granted permission is
// expected to come back through Store.SetCoordinate.
type Locator interface {
	RequestPermission(ctx context.Context) error
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func(ctx context.Context) error

func (f LocatorFunc) RequestPermission(ctx context.Context) error { return f(ctx) }

// Session bundles the collaborators of one signed-in (or anonymous) session.
// It is built at start-up and handed to the store; signing out drops the
// favorites credential while the device-local pieces stay.
type Session struct {
	Search    PlaceSearcher
	Favorites FavoritesRemote
	Local     LocalPlaces
	Locator   Locator
	// Close releases resources owned by the session, such as the local database.
	Close func() error
}

// NewSession returns a session. favorites may be nil for an anonymous session.
func NewSession(search PlaceSearcher, favorites FavoritesRemote, local LocalPlaces, locator Locator) *Session {
	return &Session{Search: search, Favorites: favorites, Local: local, Locator: locator}
}

// Authenticated reports whether the session carries a favorites credential.
func (s *Session) Authenticated() bool {
	return s != nil && s.Favorites != nil
}

func (s *Session) signedOut() *Session {
	c := *s
	c.Favorites = nil
	return &c
}

func (s *Session) withFavorites(f FavoritesRemote) *Session {
	c := *s
	c.Favorites = f
	return &c
}
