package api

import (
	"github.com/google/uuid"
	"github.com/phrazzld/places-api/internal/domain"
)

// SignupRequest defines the payload for the signup endpoint.
type SignupRequest struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Image    string `json:"image"    validate:"omitempty,imageref=users"`
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	UserID uuid.UUID `json:"userId"`
	Email  string    `json:"email"`
	Token  string    `json:"token"`
}

// UsersResponse wraps the user list.
type UsersResponse struct {
	Users []*domain.User `json:"users"`
}

// CreatePlaceRequest defines the payload for creating a place. The creator
// is always the authenticated user.
type CreatePlaceRequest struct {
	Title       string `json:"title"       validate:"required"`
	Description string `json:"description" validate:"required,min=5"`
	Address     string `json:"address"     validate:"required"`
	Image       string `json:"image"       validate:"omitempty,imageref=places"`
}

// UpdatePlaceRequest defines the payload for updating a place.
type UpdatePlaceRequest struct {
	Title       string `json:"title"       validate:"required"`
	Description string `json:"description" validate:"required,min=5"`
}

// PlaceResponse wraps a single place.
type PlaceResponse struct {
	Place *domain.Place `json:"place"`
}

// PlacesResponse wraps a list of places.
type PlacesResponse struct {
	Places []*domain.Place `json:"places"`
}

// ImageUploadRequest asks for a presigned upload URL.
type ImageUploadRequest struct {
	Kind        string `json:"kind"         validate:"required,oneof=places users"`
	ContentType string `json:"content_type" validate:"required,oneof=image/jpeg image/png image/webp"`
}
