package handlers

import (
	"freight-quote-service/internal/api/dto"
	"freight-quote-service/internal/ports"
	"freight-quote-service/internal/services"
	"log/slog"
	"net/http"
)

// Health provides a minimal liveness check endpoint.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, slog.Default(), http.StatusOK, map[string]string{"status": "ok"})
}

// StatusHandler reports provider quota usage and cache occupancy.
type StatusHandler struct {
	Budget ports.Budget
	Caches *services.Caches
	Logger *slog.Logger
}

func (h *StatusHandler) Budgets(w http.ResponseWriter, r *http.Request) {
	res := dto.BudgetsResponse{Caches: map[string]int{}, CacheTTLSeconds: map[string]int64{}}
	if h.Budget != nil {
		res.Budgets = h.Budget.Snapshot(r.Context())
	}
	if h.Caches != nil {
		for kind, n := range h.Caches.Sizes() {
			res.Caches[string(kind)] = n
		}
		for kind, ttl := range h.Caches.TTLs() {
			res.CacheTTLSeconds[string(kind)] = int64(ttl.Seconds())
		}
	}
	writeJSON(w, r, loggerOrDefault(h.Logger), http.StatusOK, res)
}
