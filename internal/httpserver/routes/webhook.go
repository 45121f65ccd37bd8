package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/patientshare/internal/httpserver/deps"
	"github.com/MrSnakeDoc/patientshare/internal/httpserver/handlers"
)

func init() { Register("webhook", registerWebhook) }

// The webhook applies its own rate limit inside the ingestion protocol.
func registerWebhook(r chi.Router, d deps.Deps) {
	r.Post("/api/webhook", handlers.Webhook(d))
	r.Get("/api/webhook", handlers.WebhookMethodNotAllowed(d))
}
