package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/places-api/internal/api/shared"
	"github.com/phrazzld/places-api/internal/domain"
	"github.com/phrazzld/places-api/internal/platform/logger"
)

// PlaceWorkflow is the place behavior the place handler depends on.
type PlaceWorkflow interface {
	GetPlace(ctx context.Context, id uuid.UUID) (*domain.Place, error)
	GetPlacesByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Place, error)
	CreatePlace(ctx context.Context, draft domain.PlaceDraft) (*domain.Place, error)
	UpdatePlace(ctx context.Context, id uuid.UUID, title, description string) (*domain.Place, error)
	DeletePlace(ctx context.Context, id uuid.UUID) error
}

// PlaceHandler handles the /api/places endpoints.
type PlaceHandler struct {
	places PlaceWorkflow
	logger *slog.Logger
}

// NewPlaceHandler creates a new PlaceHandler.
func NewPlaceHandler(places PlaceWorkflow, log *slog.Logger) *PlaceHandler {
	if log == nil {
		log = slog.Default()
	}
	return &PlaceHandler{
		places: places,
		logger: log.With(slog.String("component", "place_handler")),
	}
}

// GetPlace handles GET /api/places/{pid}.
func (h *PlaceHandler) GetPlace(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "pid")
	if !ok {
		return
	}

	place, err := h.places.GetPlace(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, PlaceResponse{Place: place})
}

// GetPlacesByUser handles GET /api/places/user/{uid}.
func (h *PlaceHandler) GetPlacesByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "uid")
	if !ok {
		return
	}

	places, err := h.places.GetPlacesByUser(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, PlacesResponse{Places: places})
}

// CreatePlace handles POST /api/places. The authenticated user becomes the
// creator.
func (h *PlaceHandler) CreatePlace(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req CreatePlaceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	place, err := h.places.CreatePlace(r.Context(), domain.PlaceDraft{
		Title:       req.Title,
		Description: req.Description,
		Address:     req.Address,
		ImageRef:    req.Image,
		CreatorID:   userID,
	})
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, PlaceResponse{Place: place})
}

// UpdatePlace handles PATCH /api/places/{pid}.
func (h *PlaceHandler) UpdatePlace(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.currentUser(w, r); !ok {
		return
	}
	id, ok := h.pathID(w, r, "pid")
	if !ok {
		return
	}

	var req UpdatePlaceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	place, err := h.places.UpdatePlace(r.Context(), id, req.Title, req.Description)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, PlaceResponse{Place: place})
}

// DeletePlace handles DELETE /api/places/{pid}.
func (h *PlaceHandler) DeletePlace(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.currentUser(w, r); !ok {
		return
	}
	id, ok := h.pathID(w, r, "pid")
	if !ok {
		return
	}

	if err := h.places.DeletePlace(r.Context(), id); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, shared.MessageResponse{Message: msgDeletedPlace})
}

func (h *PlaceHandler) pathID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := getPathUUID(r, param)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusUnprocessableEntity, msgInvalidInput, err)
		return uuid.Nil, false
	}
	return id, true
}

func (h *PlaceHandler) currentUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := shared.UserIDFromContext(r.Context())
	if !ok {
		logger.FromContextOrDefault(r.Context(), h.logger).Warn("user ID missing from request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "authentication failed")
		return uuid.Nil, false
	}
	return userID, true
}
