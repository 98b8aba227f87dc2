package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/places-api/internal/api"
	apiMiddleware "github.com/phrazzld/places-api/internal/api/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRouter creates the router with all routes and middleware.
func (app *application) setupRouter() (http.Handler, error) {
	metrics, err := apiMiddleware.NewMetrics(app.registry)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.Trace(app.logger))
	r.Use(middleware.Recoverer)
	r.Use(metrics.Handler)

	r.NotFound(api.NotFound)
	r.MethodNotAllowed(api.NotFound)

	userHandler := api.NewUserHandler(app.accounts)
	placeHandler := api.NewPlaceHandler(app.places, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.tokens, api.HandleAPIError)

	r.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Get("/", userHandler.ListUsers)
			r.Post("/signup", userHandler.Signup)
			r.Post("/login", userHandler.Login)
		})

		r.Route("/places", func(r chi.Router) {
			r.Get("/{pid}", placeHandler.GetPlace)
			r.Get("/user/{uid}", placeHandler.GetPlacesByUser)

			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.Authenticate)
				r.Post("/", placeHandler.CreatePlace)
				r.Patch("/{pid}", placeHandler.UpdatePlace)
				r.Delete("/{pid}", placeHandler.DeletePlace)
			})
		})

		if app.images != nil {
			imageHandler := api.NewImageHandler(app.images)
			r.Post("/images", imageHandler.CreateUpload)
			r.Get("/images/*", imageHandler.Download)
		}
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})
	r.Handle("/metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}))

	return r, nil
}
