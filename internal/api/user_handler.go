package api

import (
	"context"
	"net/http"

	"github.com/phrazzld/places-api/internal/api/shared"
	"github.com/phrazzld/places-api/internal/domain"
	"github.com/phrazzld/places-api/internal/service"
)

// AccountWorkflow is the account behavior the user handler depends on.
type AccountWorkflow interface {
	Signup(ctx context.Context, name, email, password, imageRef string) (*service.AuthResult, error)
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
}

// UserHandler handles the /api/users endpoints.
type UserHandler struct {
	accounts AccountWorkflow
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(accounts AccountWorkflow) *UserHandler {
	return &UserHandler{accounts: accounts}
}

// ListUsers handles GET /api/users.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.accounts.ListUsers(r.Context())
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, UsersResponse{Users: users})
}

// Signup handles POST /api/users/signup.
func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	res, err := h.accounts.Signup(r.Context(), req.Name, req.Email, req.Password, req.Image)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, AuthResponse{
		UserID: res.UserID,
		Email:  res.Email,
		Token:  res.Token,
	})
}

// Login handles POST /api/users/login.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	res, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, AuthResponse{
		UserID: res.UserID,
		Email:  res.Email,
		Token:  res.Token,
	})
}
