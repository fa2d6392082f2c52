// Package api exposes the planner over HTTP.
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/skyfreight/cargoplan/app"
	"github.com/skyfreight/cargoplan/config"
	"github.com/skyfreight/cargoplan/core/logger"
)

// Handler holds the routes and their dependencies.
type Handler struct {
	validate *validator.Validate
	cfg      config.Config
	pipeline app.Pipeline
	log      logger.Logger

	Mux *chi.Mux
}

// NewHandler builds the HTTP handler around a configured pipeline.
func NewHandler(cfg config.Config, pipeline app.Pipeline, log logger.Logger) *Handler {
	return &Handler{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		cfg:      cfg,
		pipeline: pipeline,
		log:      log,

		Mux: chi.NewRouter(),
	}
}

// RegisterRoutes mounts all endpoints on the handler's mux.
func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.requestLogger)
	h.Mux.Use(h.recoverer)

	h.Mux.Get("/health", h.Health)
	h.Mux.Route("/plan", func(r chi.Router) {
		r.Post("/run", h.RunPlan)
		r.Post("/sample", h.RunSample)
	})
}
