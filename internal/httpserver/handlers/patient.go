package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/patientshare/internal/httpserver/deps"
)

type patientResponse struct {
	Patient   json.RawMessage `json:"patient"`
	ExpiresAt time.Time       `json:"expiresAt"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Patient serves a live share to the bearer of its id.
func Patient(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")

		res, err := d.Shares.Retrieve(r.Context(), chi.URLParam(r, "shareId"))
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}

		writeData(w, r, http.StatusOK, patientResponse{
			Patient:   res.Patient,
			ExpiresAt: res.ExpiresAt,
			CreatedAt: res.CreatedAt,
		})
	}
}
