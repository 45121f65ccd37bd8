package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/MrSnakeDoc/patientshare/internal/httpserver/deps"
)

type buildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

type healthzResponse struct {
	Status  string    `json:"status"`
	Uptime  string    `json:"uptime"`
	Started time.Time `json:"started"`
	Build   buildInfo `json:"build"`
}

// Healthz is a liveness probe; it never touches a backend.
func Healthz(d deps.Deps) http.HandlerFunc {
	now := d.TimeNow
	if now == nil {
		now = time.Now
	}
	build := buildInfo{
		Version:   d.Version,
		Commit:    d.Commit,
		BuildDate: d.BuildDate,
		GoVersion: d.GoVersion,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		render.JSON(w, r, healthzResponse{
			Status:  "ok",
			Uptime:  now().Sub(d.StartTime).Truncate(time.Second).String(),
			Started: d.StartTime.UTC(),
			Build:   build,
		})
	}
}
