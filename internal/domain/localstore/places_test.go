package localstore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/local-guide/internal/types"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func openTestSQLite(t *testing.T) *SQLiteKV {
	t.Helper()
	kv, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "nested", "guide.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	return kv
}

func samplePlaces() []types.Place {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return []types.Place{
		{
			ID:          "1760000000000",
			Name:        "Cafe X",
			Description: "Best pastel de nata",
			Address:     "Rua Augusta 1",
			Latitude:    1,
			Longitude:   2,
			ImageURI:    "file:///photos/cafe.jpg",
			Category:    "cafes",
			Tags:        []string{"coffee", "pastry"},
			Source:      types.SourceCustom,
			IsFavorite:  true,
			VisitCount:  3,
			CreatedAt:   created,
			UpdatedAt:   created.Add(time.Hour),
		},
		{
			ID:        "1760000000001",
			Name:      "Viewpoint",
			Latitude:  38.71,
			Longitude: -9.13,
			Source:    types.SourceCustom,
			CreatedAt: created,
			UpdatedAt: created,
		},
	}
}

func TestSQLiteKV(t *testing.T) {
	ctx := context.Background()
	kv := openTestSQLite(t)

	_, ok, err := kv.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set(ctx, "k", "v1"))
	require.NoError(t, kv.Set(ctx, "k", "v2"))
	v, ok, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v2", v)

	require.NoError(t, kv.Delete(ctx, "k"))
	_, ok, err = kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPlaces_RoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, kv := range map[string]KV{
		"memory": NewMemoryKV(),
		"sqlite": openTestSQLite(t),
	} {
		t.Run(name, func(t *testing.T) {
			store := NewPlaces(kv, newTestLogger())
			want := samplePlaces()

			require.NoError(t, store.Save(ctx, want))
			got, err := store.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestPlaces_LoadMissingKey(t *testing.T) {
	got, err := NewPlaces(NewMemoryKV(), newTestLogger()).Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestPlaces_LoadHydratesDefaults(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(ctx, PlacesKey, `[{"id":"1","name":"Old entry","latitude":1,"longitude":2}, 42, {"id":"2","name":"Two","visitCount":-4,"createdAt":"2026-01-01T00:00:00Z"}]`))

	loadTime := time.Date(2026, 5, 5, 5, 5, 5, 0, time.UTC)
	store := NewPlaces(kv, newTestLogger())
	store.now = func() time.Time { return loadTime }

	got, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2, "non-object entries are dropped")

	first := got[0]
	assert.Equal(t, types.SourceCustom, first.Source)
	assert.False(t, first.IsFavorite)
	assert.Zero(t, first.VisitCount)
	assert.Equal(t, loadTime, first.CreatedAt)
	assert.Equal(t, loadTime, first.UpdatedAt)

	second := got[1]
	assert.Zero(t, second.VisitCount)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), second.CreatedAt)
	assert.Equal(t, second.CreatedAt, second.UpdatedAt)
}

func TestPlaces_LoadCorruptDocument(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(ctx, PlacesKey, `{not json`))

	_, err := NewPlaces(kv, newTestLogger()).Load(ctx)
	assert.Error(t, err)
}

type failingKV struct{ *MemoryKV }

func (failingKV) Set(context.Context, string, string) error { return errors.New("disk full") }

func TestPlaces_SaveFailureIsPersistenceError(t *testing.T) {
	err := NewPlaces(failingKV{NewMemoryKV()}, newTestLogger()).Save(context.Background(), samplePlaces())
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrPersistence)
	assert.Contains(t, err.Error(), "disk full")
}
