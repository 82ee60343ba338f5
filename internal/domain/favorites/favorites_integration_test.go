//go:build integration

package favorites

import (
	"context"
	"log"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/local-guide/internal/domain/places"
	"github.com/FACorreiaa/local-guide/internal/types"
	"github.com/FACorreiaa/local-guide/pkg/db"
)

var (
	testDB      *db.DB
	testService Service
)

func TestMain(m *testing.M) {
	if err := godotenv.Load("../../../.env.test"); err != nil {
		log.Println("Warning: .env.test file not found for favorites integration tests.")
	}

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		log.Fatal("TEST_DATABASE_URL environment variable is not set for favorites integration tests")
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var err error
	testDB, err = db.New(db.Config{DSN: dbURL, MaxConns: 5}, logger)
	if err != nil {
		log.Fatalf("Unable to connect to test database: %v\n", err)
	}
	if err := testDB.RunMigrations(); err != nil {
		log.Fatalf("Unable to migrate test database: %v\n", err)
	}

	testService = NewService(
		NewRepositoryImpl(testDB.Pool, logger),
		places.NewPostgresRepository(testDB.SQL(), logger),
		logger,
	)

	exitCode := m.Run()
	testDB.Close()
	os.Exit(exitCode)
}

func clearFavoritesTables(t *testing.T) {
	t.Helper()
	_, err := testDB.Pool.Exec(context.Background(), "DELETE FROM places WHERE id LIKE 'itest-%'")
	require.NoError(t, err, "Failed to clear test places")
}

func TestFavoritesService_Integration(t *testing.T) {
	ctx := context.Background()
	clearFavoritesTables(t)
	userID := uuid.New()

	req := types.FavoriteRequest{
		ID:        "itest-louvre",
		Name:      "Louvre",
		Latitude:  48.8606,
		Longitude: 2.3376,
		Category:  "museums",
		Source:    types.SourceGoogle,
	}

	t.Run("add is idempotent", func(t *testing.T) {
		require.NoError(t, testService.Add(ctx, userID, req))
		require.NoError(t, testService.Add(ctx, userID, req))

		list, err := testService.List(ctx, userID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Louvre", list[0].Name)
		assert.Equal(t, types.SourceFavorite, list[0].Source)
		assert.True(t, list[0].IsFavorite)
	})

	t.Run("favorites are per user", func(t *testing.T) {
		list, err := testService.List(ctx, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("legacy toggle of an unknown place", func(t *testing.T) {
		err := testService.SetFavorite(ctx, userID, "itest-missing", true)
		assert.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("remove is idempotent", func(t *testing.T) {
		require.NoError(t, testService.Remove(ctx, userID, req.ID))
		require.NoError(t, testService.Remove(ctx, userID, req.ID))

		list, err := testService.List(ctx, userID)
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}
