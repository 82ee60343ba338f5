package favorites

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/local-guide/internal/domain/places"
	"github.com/FACorreiaa/local-guide/internal/types"
)

// Ensure implementation satisfies the interface
var _ Service = (*ServiceImpl)(nil)

// Service is the favorites business contract served over HTTP.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]types.Place, error)
	// Add stores the place row and marks it favorite for the user.
	Add(ctx context.Context, userID uuid.UUID, req types.FavoriteRequest) error
	Remove(ctx context.Context, userID uuid.UUID, placeID string) error
	// SetFavorite serves the legacy toggle. Adding requires the place row to exist.
	SetFavorite(ctx context.Context, userID uuid.UUID, placeID string, favorite bool) error
}

type ServiceImpl struct {
	logger *slog.Logger
	repo   Repository
	places places.Repository
	now    func() time.Time
}

func NewService(repo Repository, placesRepo places.Repository, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
		places: placesRepo,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func startSpan(ctx context.Context, op string, userID uuid.UUID, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("user.id", userID.String()))
	return otel.Tracer("FavoritesService").Start(ctx, op, trace.WithAttributes(attrs...))
}

func fail(span trace.Span, msg string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
}

func (s *ServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]types.Place, error) {
	ctx, span := startSpan(ctx, "List", userID)
	defer span.End()
	l := s.logger.With(slog.String("method", "List"), slog.String("userID", userID.String()))

	list, err := s.repo.List(ctx, userID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to list favorites", slog.Any("error", err))
		fail(span, "Failed to list favorites", err)
		return nil, fmt.Errorf("error listing favorites: %w", err)
	}
	span.SetStatus(codes.Ok, "Favorites listed")
	return list, nil
}

func (s *ServiceImpl) Add(ctx context.Context, userID uuid.UUID, req types.FavoriteRequest) error {
	ctx, span := startSpan(ctx, "Add", userID, attribute.String("place.id", req.ID))
	defer span.End()
	l := s.logger.With(slog.String("method", "Add"), slog.String("userID", userID.String()), slog.String("placeID", req.ID))

	if err := req.Validate(); err != nil {
		fail(span, "Invalid favorite request", err)
		return err
	}

	place := req.Place(s.now())
	if err := s.places.Upsert(ctx, place); err != nil {
		l.ErrorContext(ctx, "Failed to store place row", slog.Any("error", err))
		fail(span, "Failed to store place row", err)
		return fmt.Errorf("error storing place: %w", err)
	}
	if _, err := s.repo.Add(ctx, userID, place.ID); err != nil {
		l.ErrorContext(ctx, "Failed to add favorite", slog.Any("error", err))
		fail(span, "Failed to add favorite", err)
		return fmt.Errorf("error adding favorite: %w", err)
	}

	l.InfoContext(ctx, "Favorite added")
	span.SetStatus(codes.Ok, "Favorite added")
	return nil
}

func (s *ServiceImpl) Remove(ctx context.Context, userID uuid.UUID, placeID string) error {
	ctx, span := startSpan(ctx, "Remove", userID, attribute.String("place.id", placeID))
	defer span.End()
	l := s.logger.With(slog.String("method", "Remove"), slog.String("userID", userID.String()), slog.String("placeID", placeID))

	if strings.TrimSpace(placeID) == "" {
		err := fmt.Errorf("%w: placeId is required", types.ErrBadRequest)
		fail(span, "Missing place id", err)
		return err
	}
	if err := s.repo.Remove(ctx, userID, placeID); err != nil {
		l.ErrorContext(ctx, "Failed to remove favorite", slog.Any("error", err))
		fail(span, "Failed to remove favorite", err)
		return fmt.Errorf("error removing favorite: %w", err)
	}

	l.InfoContext(ctx, "Favorite removed")
	span.SetStatus(codes.Ok, "Favorite removed")
	return nil
}

func (s *ServiceImpl) SetFavorite(ctx context.Context, userID uuid.UUID, placeID string, favorite bool) error {
	ctx, span := startSpan(ctx, "SetFavorite", userID,
		attribute.String("place.id", placeID), attribute.Bool("favorite", favorite))
	defer span.End()

	if !favorite {
		return s.Remove(ctx, userID, placeID)
	}
	if strings.TrimSpace(placeID) == "" {
		err := fmt.Errorf("%w: placeId is required", types.ErrBadRequest)
		fail(span, "Missing place id", err)
		return err
	}
	exists, err := s.repo.Exists(ctx, userID, placeID)
	if err != nil {
		fail(span, "Favorite lookup failed", err)
		return fmt.Errorf("error checking favorite %s: %w", placeID, err)
	}
	if exists {
		span.SetStatus(codes.Ok, "Favorite already set")
		return nil
	}
	if _, err := s.places.Get(ctx, placeID); err != nil {
		fail(span, "Place row lookup failed", err)
		return fmt.Errorf("error resolving place %s: %w", placeID, err)
	}
	if _, err := s.repo.Add(ctx, userID, placeID); err != nil {
		fail(span, "Failed to add favorite", err)
		return fmt.Errorf("error adding favorite: %w", err)
	}
	span.SetStatus(codes.Ok, "Favorite set")
	return nil
}
