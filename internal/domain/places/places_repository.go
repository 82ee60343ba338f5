// Package places stores the place rows referenced by backend favorites.
package places

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/local-guide/internal/types"
)

var _ Repository = (*PostgresRepository)(nil)

type Repository interface {
	// Upsert inserts the place or refreshes its descriptive columns. created_at is kept.
	Upsert(ctx context.Context, p types.Place) error
	Get(ctx context.Context, id string) (types.Place, error)
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var placeColumns = []string{
	"id", "name", "description", "address", "latitude", "longitude",
	"image_uri", "category", "source", "created_at", "updated_at",
}

type PostgresRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewPostgresRepository(db *sql.DB, logger *slog.Logger) *PostgresRepository {
	return &PostgresRepository{db: db, logger: logger}
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (r *PostgresRepository) Upsert(ctx context.Context, p types.Place) error {
	ctx, span := otel.Tracer("PlacesRepository").Start(ctx, "Upsert", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("place.id", p.ID),
	))
	defer span.End()

	now := time.Now().UTC()
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	source := p.Source
	if source == "" {
		source = types.SourceGoogle
	}

	query, args, err := psql.Insert("places").
		Columns(placeColumns...).
		Values(p.ID, p.Name, nullIfEmpty(p.Description), nullIfEmpty(p.Address), p.Latitude, p.Longitude,
			nullIfEmpty(p.ImageURI), nullIfEmpty(p.Category), string(source), createdAt, now).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = COALESCE(EXCLUDED.description, places.description),
			address = COALESCE(EXCLUDED.address, places.address),
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			image_uri = COALESCE(EXCLUDED.image_uri, places.image_uri),
			category = COALESCE(EXCLUDED.category, places.category),
			updated_at = EXCLUDED.updated_at`).
		ToSql()
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to build place upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		span.RecordError(err)
		r.logger.ErrorContext(ctx, "failed to upsert place", slog.String("id", p.ID), slog.Any("error", err))
		return fmt.Errorf("failed to upsert place %s: %w", p.ID, err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (types.Place, error) {
	ctx, span := otel.Tracer("PlacesRepository").Start(ctx, "Get", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("place.id", id),
	))
	defer span.End()

	query, args, err := psql.Select(placeColumns...).From("places").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return types.Place{}, fmt.Errorf("failed to build place query: %w", err)
	}

	var p types.Place
	var description, address, imageURI, category sql.NullString
	var source string
	err = r.db.QueryRowContext(ctx, query, args...).Scan(
		&p.ID, &p.Name, &description, &address, &p.Latitude, &p.Longitude,
		&imageURI, &category, &source, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Place{}, fmt.Errorf("place %s: %w", id, types.ErrNotFound)
	}
	if err != nil {
		span.RecordError(err)
		return types.Place{}, fmt.Errorf("failed to get place %s: %w", id, err)
	}

	p.Description = description.String
	p.Address = address.String
	p.ImageURI = imageURI.String
	p.Category = category.String
	p.Source = types.Source(source)
	return p, nil
}
