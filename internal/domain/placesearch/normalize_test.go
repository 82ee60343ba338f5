package placesearch

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/local-guide/internal/types"
)

func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &m))
	return m
}

func TestNormalize_FullRecord(t *testing.T) {
	raw := decode(t, `{
		"id": "ChIJ123",
		"displayName": {"text": "Time Out Market", "languageCode": "en"},
		"formattedAddress": "Av. 24 de Julho 49, Lisboa",
		"location": {"latitude": 38.7069, "longitude": -9.1459},
		"rating": 4.5,
		"userRatingCount": 52011,
		"currentOpeningHours": {"openNow": true},
		"businessStatus": "OPERATIONAL",
		"priceLevel": "PRICE_LEVEL_MODERATE",
		"types": ["food_court", "restaurant", "point_of_interest"],
		"primaryTypeDisplayName": {"text": "Food court"},
		"editorialSummary": {"text": "Food hall with local chefs."},
		"photos": [{"name": "places/ChIJ123/photos/abc"}]
	}`)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	p := normalizeAt(raw, func(name string) string { return "https://img/" + name }, now)

	assert.Equal(t, "ChIJ123", p.ID)
	assert.Equal(t, "Time Out Market", p.Name)
	assert.Equal(t, "Av. 24 de Julho 49, Lisboa", p.Address)
	assert.Equal(t, "Food hall with local chefs.", p.Description)
	assert.InDelta(t, 38.7069, p.Latitude, 1e-9)
	assert.InDelta(t, -9.1459, p.Longitude, 1e-9)
	require.NotNil(t, p.Rating)
	assert.Equal(t, 4.5, *p.Rating)
	require.NotNil(t, p.RatingCount)
	assert.Equal(t, 52011, *p.RatingCount)
	require.NotNil(t, p.OpenNow)
	assert.True(t, *p.OpenNow)
	require.NotNil(t, p.PriceLevel)
	assert.Equal(t, 2, *p.PriceLevel)
	assert.Equal(t, "OPERATIONAL", p.BusinessStatus)
	assert.Equal(t, "restaurants", p.Category)
	assert.Equal(t, []string{"food_court", "restaurant", "point_of_interest", "Food court"}, p.Tags)
	assert.Equal(t, "https://img/places/ChIJ123/photos/abc", p.ImageURI)
	assert.Equal(t, types.SourceGoogle, p.Source)
	assert.False(t, p.IsFavorite)
	assert.Zero(t, p.VisitCount)
	assert.Equal(t, now, p.CreatedAt)
	assert.Equal(t, now, p.UpdatedAt)
}

func TestNormalize_PartialRecord(t *testing.T) {
	p := Normalize(decode(t, `{"name": "places/XYZ", "types": ["cafe"]}`), nil)

	assert.Equal(t, "XYZ", p.ID)
	assert.Equal(t, UnnamedPlace, p.Name)
	assert.Nil(t, p.Rating)
	assert.Nil(t, p.RatingCount)
	assert.Nil(t, p.OpenNow)
	assert.Nil(t, p.PriceLevel)
	assert.Nil(t, p.DistanceKm)
	assert.Empty(t, p.ImageURI)
	assert.Equal(t, "cafes", p.Category, "falls back to keyword detection")
	assert.False(t, p.CreatedAt.IsZero())
}

func TestNormalize_CategoryIsCatalogID(t *testing.T) {
	tests := []struct {
		name     string
		record   string
		category string
		tags     []string
	}{
		{
			name:     "primary type wins over the types list",
			record:   `{"id": "A", "primaryType": "cafe", "types": ["bar", "cafe"]}`,
			category: "cafes",
			tags:     []string{"bar", "cafe"},
		},
		{
			name:     "display label is detected and kept as a tag",
			record:   `{"id": "B", "primaryTypeDisplayName": {"text": "Art gallery"}}`,
			category: "museums",
			tags:     []string{"Art gallery"},
		},
		{
			name:     "unknown vendor type leaves category empty",
			record:   `{"id": "C", "primaryType": "dentist", "primaryTypeDisplayName": {"text": "Dentist"}, "types": ["dentist", "health"]}`,
			category: "",
			tags:     []string{"dentist", "health", "Dentist"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Normalize(decode(t, tt.record), nil)
			assert.Equal(t, tt.category, p.Category)
			assert.Equal(t, tt.tags, p.Tags)
		})
	}
}

func TestNormalize_WrongTypesDegrade(t *testing.T) {
	p := Normalize(decode(t, `{
		"id": "X",
		"displayName": 42,
		"rating": "five",
		"location": "nowhere",
		"photos": "none",
		"types": [1, "museum", null],
		"priceLevel": 3
	}`), func(string) string { return "unused" })

	assert.Equal(t, UnnamedPlace, p.Name)
	assert.Nil(t, p.Rating)
	assert.Zero(t, p.Latitude)
	assert.Empty(t, p.ImageURI)
	assert.Equal(t, []string{"museum"}, p.Tags)
	require.NotNil(t, p.PriceLevel)
	assert.Equal(t, 3, *p.PriceLevel)
}

func TestNormalize_OpeningHoursFallback(t *testing.T) {
	p := Normalize(decode(t, `{"id":"X","regularOpeningHours":{"openNow":false}}`), nil)
	require.NotNil(t, p.OpenNow)
	assert.False(t, *p.OpenNow)
}

func TestNormalizeList_SkipsNonObjects(t *testing.T) {
	var records []any
	require.NoError(t, json.Unmarshal([]byte(`[{"id":"a"}, "junk", 7, null, {"displayName":{"text":"no id"}}, {"id":"b"}]`), &records))

	got := NormalizeList(records, nil)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
}
