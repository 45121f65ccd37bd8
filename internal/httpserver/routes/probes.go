package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/patientshare/internal/httpserver/deps"
	"github.com/MrSnakeDoc/patientshare/internal/httpserver/handlers"
)

func init() {
	Register("liveness", registerLiveness)
	Register("readiness", registerReadiness, adminCIDRs)
}

// Liveness stays reachable from anywhere; it exposes no backend state.
func registerLiveness(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))
}

func registerReadiness(r chi.Router, d deps.Deps) {
	r.Get("/readyz", handlers.Readyz(d))
}
