package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/places-api/internal/api/shared"
	"github.com/phrazzld/places-api/internal/platform/objectstore"
	"github.com/phrazzld/places-api/internal/service"
	"github.com/phrazzld/places-api/internal/service/auth"
)

// Client-facing messages produced by the API layer itself.
const (
	msgInvalidInput   = "invalid inputs passed, please check your data"
	msgInvalidRequest = "invalid request format"
	msgRouteNotFound  = "could not find this route"
	msgUnexpected     = "an unknown error occurred"
	msgDeletedPlace   = "deleted place"
	msgInvalidImage   = "invalid image reference"
	msgImageFailed    = "could not prepare image URL, please try again"
)

// MapErrorToStatusCode maps an error to the HTTP status it should produce.
// Workflow failures carry their own status; everything unknown is a 500.
func MapErrorToStatusCode(err error) int {
	if f, ok := service.AsFailure(err); ok {
		return f.Status()
	}

	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized
	case errors.Is(err, objectstore.ErrInvalidRef),
		errors.Is(err, objectstore.ErrUnsupportedType):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a message for err that is safe to send to
// clients. Internal causes never appear in it.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return msgUnexpected
	}
	if f, ok := service.AsFailure(err); ok {
		return f.Message
	}

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "token expired"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrMissingToken):
		return "authentication failed"
	case errors.Is(err, objectstore.ErrInvalidRef),
		errors.Is(err, objectstore.ErrUnsupportedType):
		return msgInvalidImage
	default:
		return msgUnexpected
	}
}

// HandleAPIError writes the response for err and logs its cause.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
}
