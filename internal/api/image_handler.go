package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/places-api/internal/api/shared"
	"github.com/phrazzld/places-api/internal/platform/objectstore"
)

// ImagePresigner hands out presigned image URLs.
type ImagePresigner interface {
	PresignUpload(ctx context.Context, prefix, contentType string) (*objectstore.Upload, error)
	PresignDownload(ctx context.Context, ref string) (string, error)
}

// ImageHandler handles the /api/images endpoints.
type ImageHandler struct {
	images ImagePresigner
}

// NewImageHandler creates a new ImageHandler.
func NewImageHandler(images ImagePresigner) *ImageHandler {
	return &ImageHandler{images: images}
}

// CreateUpload handles POST /api/images. The response carries the image ref
// to use in signup and place requests and a URL to PUT the bytes to.
func (h *ImageHandler) CreateUpload(w http.ResponseWriter, r *http.Request) {
	var req ImageUploadRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	upload, err := h.images.PresignUpload(r.Context(), req.Kind, req.ContentType)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, upload)
}

// Download handles GET /api/images/*, redirecting to a presigned URL.
func (h *ImageHandler) Download(w http.ResponseWriter, r *http.Request) {
	ref := strings.TrimPrefix(chi.URLParam(r, "*"), "/")

	url, err := h.images.PresignDownload(r.Context(), ref)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

func (h *ImageHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := MapErrorToStatusCode(err)
	msg := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError {
		msg = msgImageFailed
	}
	shared.RespondWithErrorAndLog(w, r, status, msg, err)
}

// NotFound responds to unknown routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithError(w, r, http.StatusBadRequest, msgRouteNotFound)
}
