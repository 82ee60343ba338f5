package favorites

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/local-guide/internal/types"
)

// MockfavoritesRepo is a mock implementation of Repository
type MockfavoritesRepo struct {
	mock.Mock
}

func (m *MockfavoritesRepo) List(ctx context.Context, userID uuid.UUID) ([]types.Place, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Place), args.Error(1)
}

func (m *MockfavoritesRepo) Add(ctx context.Context, userID uuid.UUID, placeID string) (uuid.UUID, error) {
	args := m.Called(ctx, userID, placeID)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockfavoritesRepo) Remove(ctx context.Context, userID uuid.UUID, placeID string) error {
	args := m.Called(ctx, userID, placeID)
	return args.Error(0)
}

func (m *MockfavoritesRepo) Exists(ctx context.Context, userID uuid.UUID, placeID string) (bool, error) {
	args := m.Called(ctx, userID, placeID)
	return args.Bool(0), args.Error(1)
}

// MockplacesRepo is a mock implementation of places.Repository
type MockplacesRepo struct {
	mock.Mock
}

func (m *MockplacesRepo) Upsert(ctx context.Context, p types.Place) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockplacesRepo) Get(ctx context.Context, id string) (types.Place, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(types.Place), args.Error(1)
}

func setupFavoritesService() (*ServiceImpl, *MockfavoritesRepo, *MockplacesRepo) {
	repo := new(MockfavoritesRepo)
	placesRepo := new(MockplacesRepo)
	svc := NewService(repo, placesRepo, discardLogger())
	svc.now = func() time.Time { return time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC) }
	return svc, repo, placesRepo
}

func TestServiceImpl_List(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("success", func(t *testing.T) {
		svc, repo, _ := setupFavoritesService()
		expected := []types.Place{{ID: "g1", Name: "Louvre", Source: types.SourceFavorite, IsFavorite: true}}
		repo.On("List", mock.Anything, userID).Return(expected, nil).Once()

		got, err := svc.List(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, expected, got)
		repo.AssertExpectations(t)
	})

	t.Run("repository error", func(t *testing.T) {
		svc, repo, _ := setupFavoritesService()
		repo.On("List", mock.Anything, userID).Return(nil, errors.New("db down")).Once()

		_, err := svc.List(ctx, userID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db down")
		repo.AssertExpectations(t)
	})
}

func TestServiceImpl_Add(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	req := types.FavoriteRequest{
		ID: "g1", Name: "Louvre", Latitude: 48.86, Longitude: 2.33,
		Category: "museums", Source: types.SourceFavorite,
	}

	t.Run("upserts the place then the favorite", func(t *testing.T) {
		svc, repo, placesRepo := setupFavoritesService()
		placesRepo.On("Upsert", mock.Anything, mock.MatchedBy(func(p types.Place) bool {
			return p.ID == "g1" && p.Name == "Louvre" && p.Category == "museums" && p.Source == types.SourceGoogle
		})).Return(nil).Once()
		repo.On("Add", mock.Anything, userID, "g1").Return(uuid.New(), nil).Once()

		require.NoError(t, svc.Add(ctx, userID, req))
		placesRepo.AssertExpectations(t)
		repo.AssertExpectations(t)
	})

	for name, lat := range map[string]float64{"latitude out of range": 120, "NaN latitude": math.NaN()} {
		t.Run(name+" touches nothing", func(t *testing.T) {
			svc, repo, placesRepo := setupFavoritesService()
			bad := req
			bad.Latitude = lat

			err := svc.Add(ctx, userID, bad)
			assert.ErrorIs(t, err, types.ErrBadRequest)
			placesRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
			repo.AssertNotCalled(t, "Add", mock.Anything, mock.Anything, mock.Anything)
		})
	}

	t.Run("place upsert failure stops the favorite insert", func(t *testing.T) {
		svc, repo, placesRepo := setupFavoritesService()
		placesRepo.On("Upsert", mock.Anything, mock.Anything).Return(errors.New("constraint")).Once()

		require.Error(t, svc.Add(ctx, userID, req))
		repo.AssertNotCalled(t, "Add", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestServiceImpl_Remove(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	svc, repo, _ := setupFavoritesService()
	repo.On("Remove", mock.Anything, userID, "g1").Return(nil).Once()
	require.NoError(t, svc.Remove(ctx, userID, "g1"))

	assert.ErrorIs(t, svc.Remove(ctx, userID, " "), types.ErrBadRequest)
	repo.AssertExpectations(t)
}

func TestServiceImpl_SetFavorite(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("adding a known place", func(t *testing.T) {
		svc, repo, placesRepo := setupFavoritesService()
		repo.On("Exists", mock.Anything, userID, "g1").Return(false, nil).Once()
		placesRepo.On("Get", mock.Anything, "g1").Return(types.Place{ID: "g1"}, nil).Once()
		repo.On("Add", mock.Anything, userID, "g1").Return(uuid.New(), nil).Once()

		require.NoError(t, svc.SetFavorite(ctx, userID, "g1", true))
		placesRepo.AssertExpectations(t)
		repo.AssertExpectations(t)
	})

	t.Run("adding an unknown place is not found", func(t *testing.T) {
		svc, repo, placesRepo := setupFavoritesService()
		repo.On("Exists", mock.Anything, userID, "g9").Return(false, nil).Once()
		placesRepo.On("Get", mock.Anything, "g9").Return(types.Place{}, types.ErrNotFound).Once()

		err := svc.SetFavorite(ctx, userID, "g9", true)
		assert.ErrorIs(t, err, types.ErrNotFound)
		repo.AssertNotCalled(t, "Add", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("already a favorite writes nothing", func(t *testing.T) {
		svc, repo, placesRepo := setupFavoritesService()
		repo.On("Exists", mock.Anything, userID, "g1").Return(true, nil).Once()

		require.NoError(t, svc.SetFavorite(ctx, userID, "g1", true))
		placesRepo.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
		repo.AssertNotCalled(t, "Add", mock.Anything, mock.Anything, mock.Anything)
		repo.AssertExpectations(t)
	})

	t.Run("lookup failure is returned", func(t *testing.T) {
		svc, repo, _ := setupFavoritesService()
		repo.On("Exists", mock.Anything, userID, "g1").Return(false, errors.New("pool closed")).Once()

		err := svc.SetFavorite(ctx, userID, "g1", true)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "pool closed")
		repo.AssertNotCalled(t, "Add", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("clearing removes", func(t *testing.T) {
		svc, repo, placesRepo := setupFavoritesService()
		repo.On("Remove", mock.Anything, userID, "g1").Return(nil).Once()

		require.NoError(t, svc.SetFavorite(ctx, userID, "g1", false))
		placesRepo.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
		repo.AssertExpectations(t)
	})
}
