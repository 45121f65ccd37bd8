package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/patientshare/internal/httpserver/deps"
	"github.com/MrSnakeDoc/patientshare/internal/logger"
)

// Registrar mounts one group of routes.
type Registrar func(r chi.Router, d deps.Deps)

// Guard builds a group middleware once the dependencies are known.
type Guard func(d deps.Deps) func(http.Handler) http.Handler

type entry struct {
	name   string
	reg    Registrar
	guards []Guard
}

var registry []entry

// Register adds a route group; call it from init(). Guards wrap every
// route of the group, in order.
func Register(name string, reg Registrar, guards ...Guard) {
	registry = append(registry, entry{name: name, reg: reg, guards: guards})
}

// RegisterAll mounts every registered group on r. Called once per router.
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, e := range registry {
		r.Group(func(g chi.Router) {
			for _, guard := range e.guards {
				g.Use(guard(d))
			}
			e.reg(g, d)
		})
		if d.Logger != nil {
			d.Logger.Debug("routes registered",
				logger.String("group", e.name),
				logger.Int("guards", len(e.guards)))
		}
	}
}
