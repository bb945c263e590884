package api

import (
	"freight-quote-service/internal/api/handlers"
	"freight-quote-service/internal/ports"
	"freight-quote-service/internal/services"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouterDeps struct {
	Orchestrator   *services.QuoteOrchestrator
	Budget         ports.Budget
	Caches         *services.Caches
	Logger         *slog.Logger
	RequestTimeout time.Duration // zero disables the per-request deadline
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// Handlers stay unaware of concrete adapters.
func NewRouter(d RouterDeps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	quotes := &handlers.QuoteHandler{Orchestrator: d.Orchestrator, Logger: d.Logger, Timeout: d.RequestTimeout}
	status := &handlers.StatusHandler{Budget: d.Budget, Caches: d.Caches, Logger: d.Logger}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(d.Logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", handlers.Health)
	r.Get("/budgets", status.Budgets)
	r.Post("/quotes/inputs", quotes.Inputs)

	return r
}
