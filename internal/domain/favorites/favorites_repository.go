// Package favorites implements the backend favorites resource: per-user
// favorite rows joined with the place rows they reference.
package favorites

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/local-guide/internal/types"
)

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	List(ctx context.Context, userID uuid.UUID) ([]types.Place, error)
	// Add is idempotent on (user_id, place_id) and returns the favorite row id.
	Add(ctx context.Context, userID uuid.UUID, placeID string) (uuid.UUID, error)
	// Remove is idempotent; removing a missing favorite is not an error.
	Remove(ctx context.Context, userID uuid.UUID, placeID string) error
	Exists(ctx context.Context, userID uuid.UUID, placeID string) (bool, error)
}

// DBTX is the subset of *pgxpool.Pool the repository uses.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// user_id predicates stay raw so pgx receives the uuid.UUID itself; sq.Eq
// would convert it to a string through driver.Valuer.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type RepositoryImpl struct {
	logger *slog.Logger
	pgpool DBTX
}

func NewRepositoryImpl(pgpool DBTX, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{logger: logger, pgpool: pgpool}
}

func (r *RepositoryImpl) startSpan(ctx context.Context, op string, userID uuid.UUID) (context.Context, trace.Span) {
	return otel.Tracer("FavoritesRepository").Start(ctx, op, trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("user.id", userID.String()),
	))
}

func (r *RepositoryImpl) List(ctx context.Context, userID uuid.UUID) ([]types.Place, error) {
	ctx, span := r.startSpan(ctx, "List", userID)
	defer span.End()
	l := r.logger.With(slog.String("method", "List"), slog.String("userID", userID.String()))

	query, args, err := psql.Select(
		"p.id", "p.name", "p.description", "p.address", "p.latitude", "p.longitude",
		"p.image_uri", "p.category", "uf.created_at", "p.updated_at",
	).
		From("user_favorites uf").
		Join("places p ON p.id = uf.place_id").
		Where("uf.user_id = ?", userID).
		OrderBy("uf.created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build favorites query: %w", err)
	}

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		l.ErrorContext(ctx, "failed to query favorites", slog.Any("error", err))
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}
	defer rows.Close()

	places := []types.Place{}
	for rows.Next() {
		var p types.Place
		var description, address, imageURI, category *string
		var addedAt, updatedAt time.Time
		if err := rows.Scan(&p.ID, &p.Name, &description, &address, &p.Latitude, &p.Longitude,
			&imageURI, &category, &addedAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan favorite row: %w", err)
		}
		p.Description = deref(description)
		p.Address = deref(address)
		p.ImageURI = deref(imageURI)
		p.Category = deref(category)
		p.Source = types.SourceFavorite
		p.IsFavorite = true
		p.CreatedAt = addedAt
		p.UpdatedAt = updatedAt
		places = append(places, p)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error iterating favorite rows: %w", err)
	}

	l.DebugContext(ctx, "favorites retrieved", slog.Int("count", len(places)))
	span.SetAttributes(attribute.Int("favorites.count", len(places)))
	return places, nil
}

func (r *RepositoryImpl) Add(ctx context.Context, userID uuid.UUID, placeID string) (uuid.UUID, error) {
	ctx, span := r.startSpan(ctx, "Add", userID)
	defer span.End()

	query, args, err := psql.Insert("user_favorites").
		Columns("id", "user_id", "place_id").
		Values(uuid.New(), userID, placeID).
		Suffix("ON CONFLICT (user_id, place_id) DO UPDATE SET user_id = EXCLUDED.user_id RETURNING id").
		ToSql()
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to build favorite insert: %w", err)
	}

	var id uuid.UUID
	if err := r.pgpool.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		span.RecordError(err)
		return uuid.Nil, fmt.Errorf("failed to add favorite %s: %w", placeID, err)
	}
	return id, nil
}

func (r *RepositoryImpl) Remove(ctx context.Context, userID uuid.UUID, placeID string) error {
	ctx, span := r.startSpan(ctx, "Remove", userID)
	defer span.End()

	query, args, err := psql.Delete("user_favorites").
		Where(sq.Eq{"place_id": placeID}).
		Where("user_id = ?", userID).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build favorite delete: %w", err)
	}

	result, err := r.pgpool.Exec(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to remove favorite %s: %w", placeID, err)
	}
	r.logger.DebugContext(ctx, "favorite delete result",
		slog.String("place_id", placeID), slog.Int64("rows_affected", result.RowsAffected()))
	return nil
}

func (r *RepositoryImpl) Exists(ctx context.Context, userID uuid.UUID, placeID string) (bool, error) {
	ctx, span := r.startSpan(ctx, "Exists", userID)
	defer span.End()

	query, args, err := psql.Select("1").
		Prefix("SELECT EXISTS (").
		From("user_favorites").
		Where(sq.Eq{"place_id": placeID}).
		Where("user_id = ?", userID).
		Suffix(")").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build favorite exists query: %w", err)
	}

	var exists bool
	if err := r.pgpool.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("failed to check favorite %s: %w", placeID, err)
	}
	return exists, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
