package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ai-teammate/exercise-video-trigger/internal/middleware"
)

// RouterParams groups the dependencies of NewRouter.
type RouterParams struct {
	Dispatcher EventDispatcher
	// Prober may be nil to skip the bucket check in /health.
	Prober Prober
	// Validator and Audience enable ID-token checks on the trigger route when
	// Audience is non-empty.
	Validator middleware.TokenValidator
	Audience  string
	Logger    *zap.Logger
}

// NewRouter wires the trigger and health routes.
func NewRouter(p RouterParams) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(p.Logger))
	r.Use(chimw.Recoverer)

	r.Get("/health", NewHealthHandler(p.Prober, p.Logger))

	r.Group(func(r chi.Router) {
		if p.Audience != "" {
			r.Use(middleware.RequireIDToken(p.Validator, p.Audience))
		}
		r.Post("/", NewTriggerHandler(p.Dispatcher, p.Logger))
	})

	return r
}
