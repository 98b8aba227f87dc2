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

// Geocoder resolves a free-text address into coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (domain.Location, error)
}

// PlaceService handles place reads and writes. Writes that change a user's
// place set go through the Coordinator.
type PlaceService struct {
	places      store.PlaceStore
	geocoder    Geocoder
	coordinator *Coordinator
	logger      *slog.Logger
}

// NewPlaceService creates a PlaceService. It returns an error if any
// dependency is nil.
func NewPlaceService(
	places store.PlaceStore,
	geocoder Geocoder,
	coordinator *Coordinator,
	log *slog.Logger,
) (*PlaceService, error) {
	if places == nil {
		return nil, errors.New("place service: place store cannot be nil")
	}
	if geocoder == nil {
		return nil, errors.New("place service: geocoder cannot be nil")
	}
	if coordinator == nil {
		return nil, errors.New("place service: coordinator cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &PlaceService{
		places:      places,
		geocoder:    geocoder,
		coordinator: coordinator,
		logger:      log.With(slog.String("component", "place_service")),
	}, nil
}

// GetPlace returns the place with the given ID.
func (s *PlaceService) GetPlace(ctx context.Context, id uuid.UUID) (*domain.Place, error) {
	place, err := s.places.FindPlace(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrPlaceNotFound) {
			return nil, newFailure(ErrNotFound, msgPlaceNotFound, err)
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to fetch place",
			slog.String("place_id", id.String()),
			slog.String("error", err.Error()))
		return nil, newFailure(ErrWriteFailed, msgFetchPlacesFailed, err)
	}
	return place, nil
}

// GetPlacesByUser returns the places created by userID. A user without any
// places yields a not-found failure.
func (s *PlaceService) GetPlacesByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Place, error) {
	places, err := s.places.FindPlacesByCreator(ctx, userID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to fetch user places",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return nil, newFailure(ErrWriteFailed, msgFetchPlacesFailed, err)
	}
	if len(places) == 0 {
		return nil, newFailure(ErrNotFound, msgUserPlacesNotFound, nil)
	}
	return places, nil
}

// CreatePlace geocodes the draft's address and then creates the place and
// links it to its creator. Nothing is written if geocoding fails.
func (s *PlaceService) CreatePlace(ctx context.Context, draft domain.PlaceDraft) (*domain.Place, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := draft.Validate(); err != nil {
		return nil, newFailure(ErrValidation, msgInvalidInput, err)
	}

	loc, err := s.geocoder.Geocode(ctx, draft.Address)
	if err != nil {
		if f, ok := AsFailure(err); ok {
			return nil, f
		}
		log.Warn("geocoding failed",
			slog.String("address", draft.Address),
			slog.String("error", err.Error()))
		return nil, newFailure(ErrGeocodeFailed, msgGeocodeFailed, err)
	}

	place, err := domain.NewPlace(draft, loc)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidLocation) {
			return nil, newFailure(ErrGeocodeFailed, msgGeocodeFailed, err)
		}
		return nil, newFailure(ErrValidation, msgInvalidInput, err)
	}

	if err := s.coordinator.CreatePlaceForUser(ctx, place, draft.CreatorID); err != nil {
		return nil, err
	}
	return place, nil
}

// UpdatePlace replaces the title and description of a place.
func (s *PlaceService) UpdatePlace(ctx context.Context, id uuid.UUID, title, description string) (*domain.Place, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(slog.String("place_id", id.String()))

	place, err := s.places.FindPlace(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrPlaceNotFound) {
			return nil, newFailure(ErrNotFound, msgPlaceNotFound, err)
		}
		log.Error("failed to load place for update", slog.String("error", err.Error()))
		return nil, newFailure(ErrWriteFailed, msgUpdatePlaceFailed, err)
	}

	if err := place.UpdateDetails(title, description); err != nil {
		return nil, newFailure(ErrValidation, msgInvalidInput, err)
	}

	if err := s.places.UpdatePlace(ctx, place); err != nil {
		if errors.Is(err, store.ErrPlaceNotFound) {
			return nil, newFailure(ErrNotFound, msgPlaceNotFound, err)
		}
		log.Error("failed to update place", slog.String("error", err.Error()))
		return nil, newFailure(ErrWriteFailed, msgUpdatePlaceFailed, err)
	}

	log.Info("place updated")
	return place, nil
}

// DeletePlace removes a place and unlinks it from its creator.
func (s *PlaceService) DeletePlace(ctx context.Context, id uuid.UUID) error {
	return s.coordinator.DeletePlace(ctx, id)
}
