package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/patientshare/internal/httpserver/deps"
	"github.com/MrSnakeDoc/patientshare/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/patientshare/internal/httpserver/mw"
)

func init() { Register("patient", registerPatient, cors) }

func cors(d deps.Deps) func(http.Handler) http.Handler {
	return mw.CORS(d.CORSOrigins)
}

func registerPatient(r chi.Router, d deps.Deps) {
	r.Get("/api/patient/{shareId}", handlers.Patient(d))
	r.Options("/api/patient/{shareId}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}
