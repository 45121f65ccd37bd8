package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/render"

	"github.com/MrSnakeDoc/patientshare/internal/httpserver/deps"
)

type componentStatus struct {
	OK      bool   `json:"ok"`
	Backend string `json:"backend,omitempty"`
	Error   string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports which backend serves each component and whether the
// stateful ones respond.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := make(map[string]componentStatus, len(d.Backends)+1)
		names := make([]string, 0, len(d.Backends))
		for name := range d.Backends {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			components[name] = componentStatus{OK: true, Backend: d.Backends[name]}
		}

		st := checkStore(r.Context(), d)
		st.Backend = d.Backends["store"]
		components["store"] = st

		render.JSON(w, r, infraResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

func determineMode(components map[string]componentStatus) string {
	// Without the store nothing can be shared or served
	if st, ok := components["store"]; ok && !st.OK {
		return "critical"
	}
	for _, c := range components {
		if !c.OK {
			return "degraded"
		}
	}
	return "operational"
}

func checkStore(ctx context.Context, d deps.Deps) componentStatus {
	if d.Store == nil {
		return componentStatus{OK: false, Error: "not initialized"}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.Store.Ping(ctx); err != nil {
		return componentStatus{OK: false, Error: "unreachable"}
	}
	return componentStatus{OK: true}
}
