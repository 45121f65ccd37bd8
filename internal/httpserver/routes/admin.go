package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrSnakeDoc/patientshare/internal/httpserver/deps"
	"github.com/MrSnakeDoc/patientshare/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/patientshare/internal/httpserver/mw"
)

func init() { Register("admin", registerAdmin, adminCIDRs, adminHosts) }

func adminCIDRs(d deps.Deps) func(http.Handler) http.Handler {
	return mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger)
}

func adminHosts(d deps.Deps) func(http.Handler) http.Handler {
	return mw.EnforceHost(d.AllowedHosts, d.Logger)
}

func registerAdmin(r chi.Router, d deps.Deps) {
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/api/infra", handlers.Infra(d))

	throttled := r
	if d.AdminLimiter != nil {
		throttled = r.With(mw.RateLimit(d.AdminLimiter, d.TrustProxy, d.Logger))
	}
	throttled.Get("/api/audit", handlers.AuditLog(d))

	if d.SigningEndpoint {
		throttled.Post("/api/generate-signature", handlers.GenerateSignature(d))
	}
}
