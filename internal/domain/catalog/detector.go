package catalog

import (
	"strings"

	a "github.com/petar-dambovaliev/aho-corasick"
)

// Keywords are matched on lower-cased text with underscores turned into spaces,
// so vendor types like "coffee_shop" and free text like "Coffee shop" both hit.
var (
	categoryMatcherBuilder = a.NewAhoCorasickBuilder(a.Opts{
		AsciiCaseInsensitive: true,
		MatchOnlyWholeWords:  true,
		MatchKind:            a.LeftMostLongestMatch,
	})

	keywordToCategory = map[string]string{
		// Restaurants
		"restaurant": "restaurants", "food": "restaurants", "meal takeaway": "restaurants",
		"pizza": "restaurants", "bistro": "restaurants", "diner": "restaurants",
		"steak house": "restaurants", "sushi": "restaurants", "tasca": "restaurants",
		// Cafes
		"cafe": "cafes", "coffee": "cafes", "coffee shop": "cafes",
		"bakery": "cafes", "tea house": "cafes", "pastry": "cafes",
		// Bars
		"bar": "bars", "pub": "bars", "wine bar": "bars", "brewery": "bars", "tavern": "bars",
		// Museums
		"museum": "museums", "art gallery": "museums", "gallery": "museums", "exhibition": "museums",
		// Parks
		"park": "parks", "national park": "parks", "garden": "parks", "playground": "parks", "beach": "parks",
		// Attractions
		"tourist attraction": "attractions", "attraction": "attractions",
		"historical landmark": "attractions", "monument": "attractions", "landmark": "attractions",
		"amusement park": "attractions", "castle": "attractions", "church": "attractions", "viewpoint": "attractions",
		// Shopping
		"shopping mall": "shopping", "shopping": "shopping", "market": "shopping",
		"store": "shopping", "clothing store": "shopping", "shop": "shopping",
		// Hotels
		"hotel": "hotels", "lodging": "hotels", "hostel": "hotels",
		"guest house": "hotels", "guesthouse": "hotels", "resort": "hotels",
		// Nightlife
		"night club": "nightlife", "nightclub": "nightlife", "nightlife": "nightlife",
		"club": "nightlife", "casino": "nightlife",
	}

	categoryMatcher = categoryMatcherBuilder.Build(keywords())

	// Lower value wins when text matches several categories.
	categoryPriority = map[string]int{
		"hotels":      1,
		"museums":     2,
		"attractions": 3,
		"nightlife":   4,
		"bars":        5,
		"cafes":       6,
		"restaurants": 7,
		"parks":       8,
		"shopping":    9,
	}
)

func keywords() []string {
	out := make([]string, 0, len(keywordToCategory))
	for k := range keywordToCategory {
		out = append(out, k)
	}
	return out
}

// Detector classifies free text or vendor type lists into a category id.
type Detector struct{}

// NewDetector returns a Detector backed by the shared keyword matcher.
func NewDetector() *Detector { return &Detector{} }

// Detect returns the highest priority category mentioned in text.
func (d *Detector) Detect(text string) (string, bool) {
	text = normalize(text)
	if text == "" {
		return "", false
	}

	matches := categoryMatcher.FindAll(text)
	if len(matches) == 0 {
		return "", false
	}

	best := ""
	bestPriority := 999
	for _, m := range matches {
		cat, ok := keywordToCategory[text[m.Start():m.End()]]
		if !ok {
			continue
		}
		if p := categoryPriority[cat]; p < bestPriority {
			bestPriority = p
			best = cat
		}
	}
	return best, best != ""
}

// DetectTypes classifies a vendor type list, falling back through it in order.
func (d *Detector) DetectTypes(vendorTypes []string) (string, bool) {
	for _, t := range vendorTypes {
		if cat, ok := d.Detect(t); ok {
			return cat, true
		}
	}
	return "", false
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, "_", " ")
}
