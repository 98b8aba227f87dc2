package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/places-api/internal/domain"
	"github.com/phrazzld/places-api/internal/platform/logger"
	"github.com/phrazzld/places-api/internal/store"
)

// Coordinator performs the writes that touch both a place and its creator's
// place set. Each operation runs in a single transaction, so either both
// sides change or neither does.
type Coordinator struct {
	db     store.Transactor
	users  store.UserStore
	places store.PlaceStore
	logger *slog.Logger
}

// NewCoordinator creates a Coordinator. It returns an error if any store
// dependency is nil.
func NewCoordinator(
	db store.Transactor,
	users store.UserStore,
	places store.PlaceStore,
	log *slog.Logger,
) (*Coordinator, error) {
	if db == nil {
		return nil, errors.New("coordinator: transactor cannot be nil")
	}
	if users == nil {
		return nil, errors.New("coordinator: user store cannot be nil")
	}
	if places == nil {
		return nil, errors.New("coordinator: place store cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &Coordinator{
		db:     db,
		users:  users,
		places: places,
		logger: log.With(slog.String("component", "coordinator")),
	}, nil
}

// CreatePlaceForUser inserts place and appends its ID to the place set of
// userID in one transaction.
func (c *Coordinator) CreatePlaceForUser(ctx context.Context, place *domain.Place, userID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, c.logger).With(
		slog.String("place_id", place.ID.String()),
		slog.String("user_id", userID.String()),
	)

	if _, err := c.users.FindUser(ctx, userID); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return newFailure(ErrNotFound, msgUserNotFound, err)
		}
		log.Error("failed to load place creator", slog.String("error", err.Error()))
		return newFailure(ErrWriteFailed, msgCreatePlaceFailed, err)
	}

	err := store.RunInTransaction(ctx, c.db, func(ctx context.Context, tx store.Tx) error {
		if err := c.places.WithTx(tx).InsertPlace(ctx, place); err != nil {
			return err
		}
		return c.users.WithTx(tx).AppendUserPlace(ctx, userID, place.ID)
	})
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return newFailure(ErrNotFound, msgUserNotFound, err)
		}
		log.Error("failed to create place", slog.String("error", err.Error()))
		return newFailure(ErrWriteFailed, msgCreatePlaceFailed, err)
	}

	log.Info("place created")
	return nil
}

// DeletePlace removes the place and drops it from its creator's place set in
// one transaction. A creator set that is already missing the place is logged
// and tolerated.
func (c *Coordinator) DeletePlace(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, c.logger).With(slog.String("place_id", id.String()))

	place, err := c.places.FindPlace(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrPlaceNotFound) {
			return newFailure(ErrNotFound, msgPlaceNotFound, err)
		}
		log.Error("failed to load place for deletion", slog.String("error", err.Error()))
		return newFailure(ErrWriteFailed, msgDeletePlaceFailed, err)
	}

	err = store.RunInTransaction(ctx, c.db, func(ctx context.Context, tx store.Tx) error {
		if err := c.places.WithTx(tx).DeletePlace(ctx, place.ID); err != nil {
			return err
		}
		err := c.users.WithTx(tx).RemoveUserPlace(ctx, place.CreatorID, place.ID)
		if store.IsNotFoundError(err) {
			log.Warn("place was missing from its creator's place set",
				slog.String("user_id", place.CreatorID.String()))
			return nil
		}
		return err
	})
	if err != nil {
		if errors.Is(err, store.ErrPlaceNotFound) {
			return newFailure(ErrNotFound, msgPlaceNotFound, err)
		}
		log.Error("failed to delete place", slog.String("error", err.Error()))
		return newFailure(ErrWriteFailed, msgDeletePlaceFailed, err)
	}

	log.Info("place deleted")
	return nil
}
