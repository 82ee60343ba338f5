package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/FACorreiaa/local-guide/internal/types"
)

// DefaultRadiusMeters is the search radius applied when a category does not set one.
const DefaultRadiusMeters = 5000

// AllID is the catch-all category selected when nothing else is.
const AllID = "all"

var defaultCategories = []types.Category{
	{ID: AllID, Name: "All", Icon: "compass", Radius: DefaultRadiusMeters},
	{ID: "restaurants", Name: "Restaurants", Icon: "restaurant", IncludedTypes: []string{"restaurant"}, Radius: DefaultRadiusMeters},
	{ID: "cafes", Name: "Cafes", Icon: "cafe", IncludedTypes: []string{"cafe", "coffee_shop", "bakery"}, Radius: DefaultRadiusMeters},
	{ID: "bars", Name: "Bars", Icon: "wine", IncludedTypes: []string{"bar", "pub", "wine_bar"}, Radius: DefaultRadiusMeters},
	{ID: "museums", Name: "Museums", Icon: "business", IncludedTypes: []string{"museum", "art_gallery"}, Radius: DefaultRadiusMeters},
	{ID: "parks", Name: "Parks", Icon: "leaf", IncludedTypes: []string{"park", "national_park", "garden"}, Radius: DefaultRadiusMeters},
	{ID: "attractions", Name: "Attractions", Icon: "camera", IncludedTypes: []string{"tourist_attraction", "historical_landmark", "amusement_park"}, Radius: DefaultRadiusMeters},
	{ID: "shopping", Name: "Shopping", Icon: "bag", IncludedTypes: []string{"shopping_mall", "market", "clothing_store"}, Radius: DefaultRadiusMeters},
	{ID: "hotels", Name: "Hotels", Icon: "bed", IncludedTypes: []string{"hotel", "lodging"}, Radius: DefaultRadiusMeters},
	{ID: "nightlife", Name: "Nightlife", Icon: "moon", IncludedTypes: []string{"night_club"}, Keyword: "nightlife", Radius: DefaultRadiusMeters},
}

// Override lets a remote source replace the hard-coded categories.
type Override func(ctx context.Context, base []types.Category) ([]types.Category, error)

// Passthrough is the default override and returns base unchanged.
func Passthrough(_ context.Context, base []types.Category) ([]types.Category, error) {
	return base, nil
}

// Catalog is the immutable category list of a session.
type Catalog struct {
	logger   *slog.Logger
	override Override

	mu         sync.RWMutex
	loaded     bool
	categories []types.Category
	byID       map[string]types.Category
}

// New returns a catalog seeded with the built-in categories. A nil override means Passthrough.
func New(logger *slog.Logger, override Override) *Catalog {
	if override == nil {
		override = Passthrough
	}
	c := &Catalog{logger: logger, override: override}
	c.set(Defaults())
	return c
}

// Defaults returns a copy of the built-in categories.
func Defaults() []types.Category {
	out := make([]types.Category, len(defaultCategories))
	for i, cat := range defaultCategories {
		out[i] = cloneCategory(cat)
	}
	return out
}

// Load applies the override once. Later calls are no-ops.
func (c *Catalog) Load(ctx context.Context) error {
	c.mu.RLock()
	loaded := c.loaded
	c.mu.RUnlock()
	if loaded {
		return nil
	}

	cats, err := c.override(ctx, Defaults())
	if err != nil {
		c.logger.WarnContext(ctx, "category override failed, keeping built-in list", slog.Any("error", err))
		c.mu.Lock()
		c.loaded = true
		c.mu.Unlock()
		return fmt.Errorf("failed to load categories: %w", err)
	}
	if len(cats) == 0 {
		cats = Defaults()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.set(cats)
	c.loaded = true
	c.logger.DebugContext(ctx, "categories loaded", slog.Int("count", len(cats)))
	return nil
}

func (c *Catalog) set(cats []types.Category) {
	c.categories = cats
	c.byID = make(map[string]types.Category, len(cats))
	for _, cat := range cats {
		if cat.Radius <= 0 {
			cat.Radius = DefaultRadiusMeters
		}
		c.byID[cat.ID] = cat
	}
}

// Get returns the category with the given id.
func (c *Catalog) Get(id string) (types.Category, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cat, ok := c.byID[id]
	if !ok {
		return types.Category{}, false
	}
	return cloneCategory(cat), true
}

// All returns every category in display order.
func (c *Catalog) All() []types.Category {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]types.Category, len(c.categories))
	for i, cat := range c.categories {
		out[i] = cloneCategory(c.byID[cat.ID])
	}
	return out
}

// Default returns the catch-all category, or the first one if an override removed it.
func (c *Catalog) Default() types.Category {
	if cat, ok := c.Get(AllID); ok {
		return cat
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.categories) == 0 {
		return cloneCategory(defaultCategories[0])
	}
	return cloneCategory(c.byID[c.categories[0].ID])
}

func cloneCategory(cat types.Category) types.Category {
	if cat.IncludedTypes != nil {
		cat.IncludedTypes = append([]string(nil), cat.IncludedTypes...)
	}
	return cat
}
