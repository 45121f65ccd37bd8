package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/MrSnakeDoc/patientshare/internal/httpserver/deps"
	"github.com/MrSnakeDoc/patientshare/internal/logger"
)

type readyzResponse struct {
	Ready bool   `json:"ready"`
	Error string `json:"error,omitempty"`
}

// Readyz reports whether the share store answers.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := d.Store.Ping(ctx); err != nil {
			d.Logger.Warn("readiness check failed", logger.Error(err))
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, readyzResponse{Ready: false, Error: "store unavailable"})
			return
		}
		render.JSON(w, r, readyzResponse{Ready: true})
	}
}
