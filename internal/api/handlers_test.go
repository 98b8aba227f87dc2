package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/places-api/internal/api/middleware"
	"github.com/phrazzld/places-api/internal/domain"
	"github.com/phrazzld/places-api/internal/platform/objectstore"
	"github.com/phrazzld/places-api/internal/service"
	"github.com/phrazzld/places-api/internal/service/auth"
	"github.com/phrazzld/places-api/internal/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type stubGeocoder struct {
	err error
}

func (g *stubGeocoder) Geocode(context.Context, string) (domain.Location, error) {
	if g.err != nil {
		return domain.Location{}, g.err
	}
	return domain.Location{Lat: 40.7484, Lon: -73.9857}, nil
}

type stubImages struct {
	err error
}

func (s stubImages) PresignUpload(_ context.Context, prefix, contentType string) (*objectstore.Upload, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &objectstore.Upload{Ref: prefix + "/abc.png", URL: "https://s3.test/put", Method: "PUT"}, nil
}

func (s stubImages) PresignDownload(_ context.Context, ref string) (string, error) {
	if err := objectstore.ValidateRef(ref); err != nil {
		return "", err
	}
	if s.err != nil {
		return "", s.err
	}
	return "https://s3.test/" + ref, nil
}

type testServer struct {
	handler http.Handler
	mem     *storetest.MemStore
	geo     *stubGeocoder
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	mem := storetest.NewMemStore()
	geo := &stubGeocoder{}
	tokens := auth.NewTestTokenService("handler-test-secret-with-32-bytes!!", time.Hour, nil)

	coord, err := service.NewCoordinator(mem, mem.Users(), mem.Places(), nil)
	require.NoError(t, err)
	accounts, err := service.NewAccountService(mem.Users(), auth.NewBcryptHasher(bcrypt.MinCost), tokens, nil)
	require.NoError(t, err)
	places, err := service.NewPlaceService(mem.Places(), geo, coord, nil)
	require.NoError(t, err)

	users := NewUserHandler(accounts)
	placeHandler := NewPlaceHandler(places, nil)
	images := NewImageHandler(stubImages{})
	authMW := middleware.NewAuthMiddleware(tokens, HandleAPIError)

	r := chi.NewRouter()
	r.Use(middleware.Trace(nil))
	r.NotFound(NotFound)
	r.MethodNotAllowed(NotFound)
	r.Route("/api", func(r chi.Router) {
		r.Get("/users", users.ListUsers)
		r.Post("/users/signup", users.Signup)
		r.Post("/users/login", users.Login)
		r.Get("/places/{pid}", placeHandler.GetPlace)
		r.Get("/places/user/{uid}", placeHandler.GetPlacesByUser)
		r.Post("/images", images.CreateUpload)
		r.Get("/images/*", images.Download)
		r.Group(func(r chi.Router) {
			r.Use(authMW.Authenticate)
			r.Post("/places", placeHandler.CreatePlace)
			r.Patch("/places/{pid}", placeHandler.UpdatePlace)
			r.Delete("/places/{pid}", placeHandler.DeletePlace)
		})
	})

	return &testServer{handler: r, mem: mem, geo: geo}
}

func (s *testServer) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) signup(t *testing.T, email string) AuthResponse {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/users/signup",
		`{"name":"Ada","email":"`+email+`","password":"secret123","image":"users/ada.png"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var res AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
		TraceID string `json:"trace_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	assert.NotEmpty(t, body.TraceID)
	return body.Message
}

func TestUserEndpoints(t *testing.T) {
	s := newTestServer(t)

	signed := s.signup(t, "ada@example.com")
	assert.Equal(t, "ada@example.com", signed.Email)
	assert.NotEmpty(t, signed.Token)

	rec := s.do(t, http.MethodPost, "/api/users/signup",
		`{"name":"Ada","email":"ada@example.com","password":"secret123"}`, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "user exists already, please login instead", errorMessage(t, rec))

	rec = s.do(t, http.MethodPost, "/api/users/login", `{"email":"ada@example.com","password":"secret123"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var logged AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &logged))
	assert.Equal(t, signed.UserID, logged.UserID)

	rec = s.do(t, http.MethodPost, "/api/users/login", `{"email":"ada@example.com","password":"nope-nope"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid credentials, could not log you in", errorMessage(t, rec))

	rec = s.do(t, http.MethodGet, "/api/users", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"ada@example.com"`)
	assert.NotContains(t, rec.Body.String(), "$2a$")
	assert.NotContains(t, strings.ToLower(rec.Body.String()), "password")
}

func TestSignupValidation(t *testing.T) {
	s := newTestServer(t)

	cases := map[string]string{
		"missing name":   `{"email":"a@example.com","password":"secret123"}`,
		"bad email":      `{"name":"A","email":"nope","password":"secret123"}`,
		"short password": `{"name":"A","email":"a@example.com","password":"12345"}`,
		"image url":      `{"name":"A","email":"a@example.com","password":"secret123","image":"https://x.test/a.png"}`,
		"place image":    `{"name":"A","email":"a@example.com","password":"secret123","image":"places/a.png"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/users/signup", body, "")
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Equal(t, msgInvalidInput, errorMessage(t, rec))
		})
	}

	rec := s.do(t, http.MethodPost, "/api/users/signup", `{"name":`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlaceLifecycle(t *testing.T) {
	s := newTestServer(t)
	owner := s.signup(t, "owner@example.com")

	body := `{"title":"Empire State Building","description":"famous sky scraper","address":"20 W 34th St"}`

	rec := s.do(t, http.MethodPost, "/api/places", body, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "authentication failed", errorMessage(t, rec))

	rec = s.do(t, http.MethodPost, "/api/places", body, owner.Token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created PlaceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, owner.UserID, created.Place.CreatorID)
	assert.Equal(t, domain.DefaultPlaceImage, created.Place.ImageRef)
	assert.Contains(t, rec.Body.String(), `"lng":-73.9857`)

	rec = s.do(t, http.MethodGet, "/api/places/"+created.Place.ID.String(), "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/places/user/"+owner.UserID.String(), "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var listed PlacesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed.Places, 1)

	rec = s.do(t, http.MethodPatch, "/api/places/"+created.Place.ID.String(),
		`{"title":"ESB","description":"still famous"}`, owner.Token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"title":"ESB"`)

	rec = s.do(t, http.MethodPatch, "/api/places/"+created.Place.ID.String(),
		`{"title":"ESB","description":"tiny"}`, owner.Token)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/places/"+created.Place.ID.String(), "", owner.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"deleted place"}`, rec.Body.String())
	assert.NoError(t, s.mem.CheckSymmetry())

	rec = s.do(t, http.MethodGet, "/api/places/"+created.Place.ID.String(), "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "could not find a place for the provided id", errorMessage(t, rec))

	rec = s.do(t, http.MethodGet, "/api/places/user/"+owner.UserID.String(), "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/places/"+created.Place.ID.String(), "", owner.Token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreatePlace_GeocodeFailure(t *testing.T) {
	s := newTestServer(t)
	owner := s.signup(t, "owner@example.com")
	s.geo.err = errors.New("ZERO_RESULTS")

	rec := s.do(t, http.MethodPost, "/api/places",
		`{"title":"Nowhere","description":"does not exist","address":"zzzz"}`, owner.Token)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "could not find location for the specified address", errorMessage(t, rec))
	assert.Equal(t, 0, s.mem.PlaceCount())
}

func TestCreatePlace_StorageFailureIsOpaque(t *testing.T) {
	s := newTestServer(t)
	owner := s.signup(t, "owner@example.com")
	s.mem.Fail(storetest.OpAppendUserPlace, errors.New("pq: deadlock detected on relation user_places"))

	rec := s.do(t, http.MethodPost, "/api/places",
		`{"title":"Harbour","description":"boats and cafes","address":"1 Quay St"}`, owner.Token)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "creating place failed, please try again", errorMessage(t, rec))
	assert.NotContains(t, rec.Body.String(), "deadlock")
	assert.Equal(t, 0, s.mem.PlaceCount())
}

func TestInvalidPathIDs(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/places/not-a-uuid", "", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/places/user/"+uuid.NewString(), "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/nope", "/api/places"} {
		rec := s.do(t, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
		assert.Equal(t, msgRouteNotFound, errorMessage(t, rec))
	}
}

func TestImageEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/images", `{"kind":"places","content_type":"image/png"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"image":"places/abc.png"`)

	rec = s.do(t, http.MethodPost, "/api/images", `{"kind":"secrets","content_type":"image/png"}`, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/images/places/abc.png", "", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://s3.test/places/abc.png", rec.Header().Get("Location"))

	rec = s.do(t, http.MethodGet, "/api/images/config/secret.png", "", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, msgInvalidImage, errorMessage(t, rec))
}

func TestImageHandler_PresignFailure(t *testing.T) {
	h := NewImageHandler(stubImages{err: errors.New("no credentials in chain")})
	req := httptest.NewRequest(http.MethodPost, "/api/images",
		strings.NewReader(`{"kind":"users","content_type":"image/jpeg"}`))
	rec := httptest.NewRecorder()

	h.CreateUpload(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), msgImageFailed)
	assert.NotContains(t, rec.Body.String(), "credentials")
}

func TestCreatePlace_RejectsForeignImageRef(t *testing.T) {
	s := newTestServer(t)
	owner := s.signup(t, "imgowner@example.com")

	for _, image := range []string{"users/ada.png", "../etc/passwd", "https://x.test/p.png"} {
		body := `{"title":"Pier","description":"Long wooden pier","address":"1 Beach Rd","image":"` + image + `"}`
		rec := s.do(t, http.MethodPost, "/api/places", body, owner.Token)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, image)
		assert.Equal(t, msgInvalidInput, errorMessage(t, rec))
	}
	assert.Equal(t, 0, s.mem.PlaceCount())
}
