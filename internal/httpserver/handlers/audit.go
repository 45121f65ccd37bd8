package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/render"

	"github.com/MrSnakeDoc/patientshare/internal/domain"
	"github.com/MrSnakeDoc/patientshare/internal/httpserver/deps"
)

type auditResponse struct {
	Attempts []domain.WebhookAttempt `json:"attempts"`
}

// AuditLog lists recent webhook attempts, newest first.
func AuditLog(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				writeError(w, r, d.Logger, domain.NewError(domain.KindMalformedInput, "limit must be a positive integer"))
				return
			}
			limit = n
		}

		attempts, err := d.Audit.Recent(r.Context(), limit)
		if err != nil {
			writeError(w, r, d.Logger, domain.WrapError(domain.KindInternal, "failed to read audit log", err))
			return
		}

		w.Header().Set("Cache-Control", "no-store")
		render.Status(r, http.StatusOK)
		render.JSON(w, r, envelope{Success: true, Data: auditResponse{Attempts: attempts}})
	}
}
