package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/places-api/internal/domain"
	"github.com/phrazzld/places-api/internal/platform/logger"
	"github.com/phrazzld/places-api/internal/store"
)

const entityPlace = "place"

const placeColumns = `id, title, description, address, lat, lng, image_ref, creator_id, created_at, updated_at`

// PostgresPlaceStore implements the store.PlaceStore interface
// using a PostgreSQL database as the storage backend.
type PostgresPlaceStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresPlaceStore creates a new PostgreSQL implementation of the PlaceStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresPlaceStore(db store.DBTX, logger *slog.Logger) *PostgresPlaceStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresPlaceStore{
		db:     db,
		logger: logger.With(slog.String("component", "place_store")),
	}
}

// Ensure PostgresPlaceStore implements store.PlaceStore interface
var _ store.PlaceStore = (*PostgresPlaceStore)(nil)

// WithTx implements store.PlaceStore.WithTx
func (s *PostgresPlaceStore) WithTx(tx store.Tx) store.PlaceStore {
	return &PostgresPlaceStore{
		db:     tx,
		logger: s.logger,
	}
}

// InsertPlace implements store.PlaceStore.InsertPlace
// Returns store.ErrInvalidEntity wrapping store.ErrUserNotFound if the creator does not exist.
func (s *PostgresPlaceStore) InsertPlace(ctx context.Context, place *domain.Place) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := place.Validate(); err != nil {
		log.Warn("place validation failed during insert",
			slog.String("error", err.Error()),
			slog.String("place_id", place.ID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO places (` + placeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		place.ID,
		place.Title,
		place.Description,
		place.Address,
		place.Location.Lat,
		place.Location.Lon,
		place.ImageRef,
		place.CreatorID,
		place.CreatedAt,
		place.UpdatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("creator does not exist",
				slog.String("place_id", place.ID.String()),
				slog.String("creator_id", place.CreatorID.String()))
			return fmt.Errorf("%w: %w", store.ErrInvalidEntity, store.ErrUserNotFound)
		}
		log.Error("failed to insert place",
			slog.String("error", err.Error()),
			slog.String("place_id", place.ID.String()))
		return wrapError(entityPlace, "insert", err)
	}

	log.Info("place inserted",
		slog.String("place_id", place.ID.String()),
		slog.String("creator_id", place.CreatorID.String()))
	return nil
}

// FindPlace implements store.PlaceStore.FindPlace
// Returns store.ErrPlaceNotFound if the place does not exist.
func (s *PostgresPlaceStore) FindPlace(ctx context.Context, id uuid.UUID) (*domain.Place, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	row := s.db.QueryRowContext(ctx, `SELECT `+placeColumns+` FROM places WHERE id = $1`, id)

	place, err := scanPlace(row)
	if err != nil {
		if IsNotFoundError(err) {
			log.Debug("place not found", slog.String("place_id", id.String()))
			return nil, store.ErrPlaceNotFound
		}
		log.Error("failed to get place by ID",
			slog.String("error", err.Error()),
			slog.String("place_id", id.String()))
		return nil, wrapError(entityPlace, "find", err)
	}

	return place, nil
}

// FindPlacesByCreator implements store.PlaceStore.FindPlacesByCreator
func (s *PostgresPlaceStore) FindPlacesByCreator(ctx context.Context, userID uuid.UUID) ([]*domain.Place, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+placeColumns+`
		FROM places
		WHERE creator_id = $1
		ORDER BY created_at, id
	`, userID)
	if err != nil {
		log.Error("failed to query places by creator",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, wrapError(entityPlace, "find_by_creator", err)
	}
	defer func() { _ = rows.Close() }()

	places := []*domain.Place{}
	for rows.Next() {
		place, err := scanPlace(rows)
		if err != nil {
			return nil, wrapError(entityPlace, "find_by_creator", err)
		}
		places = append(places, place)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(entityPlace, "find_by_creator", err)
	}

	log.Debug("places retrieved",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(places)))
	return places, nil
}

// UpdatePlace implements store.PlaceStore.UpdatePlace
// Only title, description and updated_at are written.
func (s *PostgresPlaceStore) UpdatePlace(ctx context.Context, place *domain.Place) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := place.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	if place.UpdatedAt.IsZero() {
		place.UpdatedAt = time.Now().UTC()
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE places
		SET title = $1, description = $2, updated_at = $3
		WHERE id = $4
	`, place.Title, place.Description, place.UpdatedAt, place.ID)
	if err != nil {
		log.Error("failed to update place",
			slog.String("error", err.Error()),
			slog.String("place_id", place.ID.String()))
		return wrapError(entityPlace, "update", err)
	}

	if err := CheckRowsAffected(result, store.ErrPlaceNotFound); err != nil {
		return err
	}

	log.Info("place updated", slog.String("place_id", place.ID.String()))
	return nil
}

// DeletePlace implements store.PlaceStore.DeletePlace
// Returns store.ErrPlaceNotFound if the place does not exist.
func (s *PostgresPlaceStore) DeletePlace(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM places WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete place",
			slog.String("error", err.Error()),
			slog.String("place_id", id.String()))
		return wrapError(entityPlace, "delete", err)
	}

	if err := CheckRowsAffected(result, store.ErrPlaceNotFound); err != nil {
		return err
	}

	log.Info("place deleted", slog.String("place_id", id.String()))
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlace(row rowScanner) (*domain.Place, error) {
	var p domain.Place
	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&p.Address,
		&p.Location.Lat,
		&p.Location.Lon,
		&p.ImageRef,
		&p.CreatorID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
