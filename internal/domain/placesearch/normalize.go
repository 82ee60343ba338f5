package placesearch

import (
	"slices"
	"strings"
	"time"

	"github.com/FACorreiaa/local-guide/internal/domain/catalog"
	"github.com/FACorreiaa/local-guide/internal/types"
)

// UnnamedPlace is used when the vendor record carries no display name.
const UnnamedPlace = "Unnamed place"

// PhotoURLFunc turns a vendor photo resource name into a fetchable URL.
type PhotoURLFunc func(photoName string) string

var detector = catalog.NewDetector()

var priceLevels = map[string]int{
	"PRICE_LEVEL_FREE":           0,
	"PRICE_LEVEL_INEXPENSIVE":    1,
	"PRICE_LEVEL_MODERATE":       2,
	"PRICE_LEVEL_EXPENSIVE":      3,
	"PRICE_LEVEL_VERY_EXPENSIVE": 4,
}

// Normalize maps one vendor place record to a Place. It never fails; every
// missing field falls back to its zero or placeholder value.
func Normalize(raw map[string]any, photoURL PhotoURLFunc) types.Place {
	return normalizeAt(raw, photoURL, time.Now().UTC())
}

func normalizeAt(raw map[string]any, photoURL PhotoURLFunc, now time.Time) types.Place {
	p := types.Place{
		ID:         placeID(raw),
		Name:       UnnamedPlace,
		Source:     types.SourceGoogle,
		IsFavorite: false,
		VisitCount: 0,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if name := str(object(raw, "displayName"), "text"); name != "" {
		p.Name = name
	} else if name := str(raw, "displayName"); name != "" {
		p.Name = name
	}

	p.Description = str(object(raw, "editorialSummary"), "text")
	p.Address = firstNonEmpty(str(raw, "formattedAddress"), str(raw, "shortFormattedAddress"), str(raw, "vicinity"))

	if loc := object(raw, "location"); loc != nil {
		if lat, ok := num(loc, "latitude"); ok {
			p.Latitude = lat
		}
		if lng, ok := num(loc, "longitude"); ok {
			p.Longitude = lng
		}
	}

	if r, ok := num(raw, "rating"); ok {
		p.Rating = &r
	}
	if n, ok := num(raw, "userRatingCount"); ok {
		count := int(n)
		p.RatingCount = &count
	}
	if open, ok := boolean(object(raw, "currentOpeningHours"), "openNow"); ok {
		p.OpenNow = &open
	} else if open, ok := boolean(object(raw, "regularOpeningHours"), "openNow"); ok {
		p.OpenNow = &open
	}
	p.BusinessStatus = str(raw, "businessStatus")
	p.PriceLevel = priceLevel(raw)

	// Category is always a catalog id or empty; the vendor labels stay in Tags.
	primaryType := str(raw, "primaryType")
	label := str(object(raw, "primaryTypeDisplayName"), "text")
	p.Tags = appendMissing(strs(raw, "types"), primaryType, label)
	if cat, ok := detector.DetectTypes(append([]string{primaryType, label}, p.Tags...)); ok {
		p.Category = cat
	}

	if photoURL != nil {
		if photos, ok := raw["photos"].([]any); ok && len(photos) > 0 {
			if first, ok := photos[0].(map[string]any); ok {
				if name := str(first, "name"); name != "" {
					p.ImageURI = photoURL(name)
				}
			}
		}
	}

	return p
}

// NormalizeList maps a vendor "places" array. Entries that are not objects or
// carry no id are skipped.
func NormalizeList(records []any, photoURL PhotoURLFunc) []types.Place {
	now := time.Now().UTC()
	out := make([]types.Place, 0, len(records))
	for _, rec := range records {
		obj, ok := rec.(map[string]any)
		if !ok {
			continue
		}
		p := normalizeAt(obj, photoURL, now)
		if p.ID == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func appendMissing(tags []string, extra ...string) []string {
	for _, e := range extra {
		if e != "" && !slices.Contains(tags, e) {
			tags = append(tags, e)
		}
	}
	return tags
}

func placeID(raw map[string]any) string {
	if id := str(raw, "id"); id != "" {
		return id
	}
	// resource names look like "places/ChIJ..."
	return strings.TrimPrefix(str(raw, "name"), "places/")
}

func priceLevel(raw map[string]any) *int {
	switch v := raw["priceLevel"].(type) {
	case string:
		if lvl, ok := priceLevels[v]; ok {
			return &lvl
		}
	case float64:
		lvl := int(v)
		return &lvl
	}
	return nil
}

func object(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	o, _ := m[key].(map[string]any)
	return o
}

func str(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}

func num(m map[string]any, key string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	f, ok := m[key].(float64)
	return f, ok
}

func boolean(m map[string]any, key string) (bool, bool) {
	if m == nil {
		return false, false
	}
	b, ok := m[key].(bool)
	return b, ok
}

func strs(m map[string]any, key string) []string {
	items, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
