// Package guide is the place aggregation store: it owns the custom, favorite,
// discover and search collections and keeps their favorite state consistent.
package guide

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/FACorreiaa/local-guide/internal/domain/catalog"
	"github.com/FACorreiaa/local-guide/internal/geo"
	"github.com/FACorreiaa/local-guide/internal/types"
)

// ErrNoSession is returned by operations that need a collaborator the session lacks.
var ErrNoSession = errors.New("guide: session has no such collaborator")

// Store is safe for concurrent use. Network and persistence calls run outside its lock.
type Store struct {
	logger   *slog.Logger
	catalog  *catalog.Catalog
	detector *catalog.Detector
	opts     Options

	// persistMu serialises read-modify-write cycles on the custom place list.
	persistMu sync.Mutex

	mu             sync.RWMutex
	session        *Session
	epoch          uint64
	custom         []types.Place
	favorites      []types.Place
	discover       []types.Place
	search         []types.Place
	coordinate     *types.Coordinate
	lastFetched    *types.Coordinate
	activeCategory string
	query          string
	searchSeq      uint64
	lastDiscoverAt time.Time

	loading         bool
	discoverLoading bool
	searchLoading   bool
	discoverErr     string
	searchErr       string
	discoverQuota   bool
	searchQuota     bool
	notLoggedIn     bool

	nearbyCache *cache.Cache
	searchCache *cache.Cache
	detailCache *cache.Cache

	toggles *singleflight.Group
	details *singleflight.Group

	subsMu  sync.Mutex
	subs    map[int]func(State)
	nextSub int
}

// New builds a store over session. The catalog supplies the active category.
func New(session *Session, cat *catalog.Catalog, logger *slog.Logger, opts Options) *Store {
	opts = opts.withDefaults()
	return &Store{
		logger:         logger,
		catalog:        cat,
		detector:       catalog.NewDetector(),
		opts:           opts,
		session:        session,
		custom:         []types.Place{},
		favorites:      []types.Place{},
		discover:       []types.Place{},
		search:         []types.Place{},
		activeCategory: cat.Default().ID,
		notLoggedIn:    !session.Authenticated(),
		nearbyCache:    cache.New(opts.NearbyTTL, 2*opts.NearbyTTL),
		searchCache:    cache.New(opts.SearchTTL, 2*opts.SearchTTL),
		detailCache:    cache.New(cache.NoExpiration, 0),
		toggles:        &singleflight.Group{},
		details:        &singleflight.Group{},
		subs:           make(map[int]func(State)),
	}
}

func (s *Store) now() time.Time { return s.opts.Clock() }

// Subscribe registers fn to run after every state change and returns its cancel func.
func (s *Store) Subscribe(fn func(State)) func() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify() {
	s.subsMu.Lock()
	fns := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()
	if len(fns) == 0 {
		return
	}
	st := s.Snapshot()
	for _, fn := range fns {
		fn(st)
	}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := State{
		CustomPlaces:    types.ClonePlaces(s.custom),
		Favorites:       types.ClonePlaces(s.favorites),
		DiscoverResults: types.ClonePlaces(s.discover),
		SearchResults:   types.ClonePlaces(s.search),
		ActiveCategory:  s.activeCategory,
		Query:           s.query,
		Loading:         s.loading,
		DiscoverLoading: s.discoverLoading,
		SearchLoading:   s.searchLoading,
		DiscoverError:   s.discoverErr,
		SearchError:     s.searchErr,
		NotLoggedIn:     s.notLoggedIn,

		DiscoverQuotaExceeded: s.discoverQuota,
		SearchQuotaExceeded:   s.searchQuota,
		QuotaExceeded:         s.discoverQuota || s.searchQuota,
	}
	if s.coordinate != nil {
		c := *s.coordinate
		st.Coordinate = &c
	}
	if s.lastFetched != nil {
		c := *s.lastFetched
		st.LastFetchedCoordinate = &c
	}
	return st
}

func (s *Store) currentSession() (*Session, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session, s.epoch
}

// favoriteSetLocked must be called with s.mu held.
func (s *Store) favoriteSetLocked() favoriteSet {
	return newFavoriteSet(s.favorites)
}

// reenrichLocked recomputes derived fields of the vendor collections. Callers hold s.mu.
func (s *Store) reenrichLocked() {
	set := s.favoriteSetLocked()
	s.discover = enrichAll(s.discover, set, s.coordinate)
	s.search = enrichAll(s.search, set, s.coordinate)
	s.favorites = enrichAll(s.favorites, set, s.coordinate)
}

// SetCoordinate records the device location. Distances are recomputed only
// when the device moved beyond the configured threshold or no location was known.
func (s *Store) SetCoordinate(c types.Coordinate) error {
	if !geo.Valid(c) {
		return fmt.Errorf("%w: invalid coordinate %v,%v", types.ErrBadRequest, c.Latitude, c.Longitude)
	}

	s.mu.Lock()
	if s.coordinate != nil && !geo.MovedBeyond(*s.coordinate, c, s.opts.MoveThresholdKm) {
		s.mu.Unlock()
		return nil
	}
	s.coordinate = &c
	s.reenrichLocked()
	s.mu.Unlock()

	s.notify()
	return nil
}

// SetActiveCategory switches the discover filter. Callers follow up with a forced refresh.
func (s *Store) SetActiveCategory(id string) error {
	if _, ok := s.catalog.Get(id); !ok {
		return fmt.Errorf("category %q: %w", id, types.ErrNotFound)
	}
	s.mu.Lock()
	s.activeCategory = id
	s.mu.Unlock()
	s.notify()
	return nil
}

// GetPlace looks through custom places, favorites, discover and search results in that order.
func (s *Store) GetPlace(id string) (types.Place, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, coll := range [][]types.Place{s.custom, s.favorites, s.discover, s.search} {
		if i := indexOf(coll, id); i >= 0 {
			return coll[i].Clone(), true
		}
	}
	return types.Place{}, false
}

// Refresh reloads local places and favorites, then forces a discover refresh.
func (s *Store) Refresh(ctx context.Context) error {
	ctx, span := otel.Tracer("GuideStore").Start(ctx, "Refresh")
	defer span.End()

	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()
	s.notify()

	err := errors.Join(
		s.LoadLocalPlaces(ctx),
		s.LoadFavorites(ctx),
		s.RefreshDiscover(ctx, DiscoverOptions{Force: true}),
	)

	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
	s.notify()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "refresh incomplete")
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// SignOut drops the favorites credential and everything derived from the
// remote session. Custom places stay, they live on the device.
func (s *Store) SignOut() {
	s.mu.Lock()
	if s.session != nil {
		s.session = s.session.signedOut()
	}
	s.epoch++
	s.searchSeq++
	s.favorites = []types.Place{}
	s.discover = []types.Place{}
	s.search = []types.Place{}
	s.query = ""
	s.discoverErr, s.searchErr = "", ""
	s.discoverLoading, s.searchLoading = false, false
	s.discoverQuota, s.searchQuota = false, false
	s.notLoggedIn = true
	s.lastDiscoverAt = time.Time{}
	s.lastFetched = nil
	s.toggles = &singleflight.Group{}
	s.details = &singleflight.Group{}
	s.mu.Unlock()

	s.nearbyCache.Flush()
	s.searchCache.Flush()
	s.detailCache.Flush()
	s.logger.Info("session signed out")
	s.notify()
}

// SignIn installs a favorites credential and loads the remote favorites.
func (s *Store) SignIn(ctx context.Context, favorites FavoritesRemote) error {
	s.mu.Lock()
	if s.session == nil {
		s.session = &Session{}
	}
	s.session = s.session.withFavorites(favorites)
	s.epoch++
	s.notLoggedIn = favorites == nil
	s.mu.Unlock()
	return s.LoadFavorites(ctx)
}

// Close releases the session resources.
func (s *Store) Close() error {
	sess, _ := s.currentSession()
	if sess == nil || sess.Close == nil {
		return nil
	}
	return sess.Close()
}

func newCustomID(now time.Time, existing []types.Place) string {
	ms := now.UnixMilli()
	for {
		id := strconv.FormatInt(ms, 10)
		if indexOf(existing, id) < 0 {
			return id
		}
		ms++
	}
}

func startSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer("GuideStore").Start(ctx, op, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}
