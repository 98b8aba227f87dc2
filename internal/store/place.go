package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/places-api/internal/domain"
)

// PlaceStore defines the interface for place data persistence.
type PlaceStore interface {
	// InsertPlace saves a new place.
	// Returns ErrInvalidEntity if the creator does not exist.
	InsertPlace(ctx context.Context, place *domain.Place) error

	// FindPlace retrieves a place by its ID.
	// Returns ErrPlaceNotFound if the place does not exist.
	FindPlace(ctx context.Context, id uuid.UUID) (*domain.Place, error)

	// FindPlacesByCreator returns the places created by userID, oldest first.
	// An empty slice is returned when the user has no places.
	FindPlacesByCreator(ctx context.Context, userID uuid.UUID) ([]*domain.Place, error)

	// UpdatePlace persists the mutable fields (title, description) of place.
	// Returns ErrPlaceNotFound if the place does not exist.
	UpdatePlace(ctx context.Context, place *domain.Place) error

	// DeletePlace removes a place by its ID.
	// Returns ErrPlaceNotFound if the place does not exist.
	DeletePlace(ctx context.Context, id uuid.UUID) error

	// WithTx returns a PlaceStore whose operations run inside tx.
	WithTx(tx Tx) PlaceStore
}
