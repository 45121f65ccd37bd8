package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/MrSnakeDoc/patientshare/internal/httpserver/deps"
	"github.com/MrSnakeDoc/patientshare/internal/ratelimit"
	"github.com/MrSnakeDoc/patientshare/internal/share"
)

type webhookResponse struct {
	ShareID   string    `json:"shareId"`
	ExpiresAt time.Time `json:"expiresAt"`
	ShareURL  string    `json:"shareUrl"`
}

// Webhook accepts a signed patient record and stores it under its share id.
func Webhook(d deps.Deps) http.HandlerFunc {
	limit := strconv.Itoa(d.RateLimitPoints)

	return func(w http.ResponseWriter, r *http.Request) {
		body := http.MaxBytesReader(w, r.Body, d.MaxBodyBytes)
		key := ratelimit.ClientKey(r, d.TrustProxy)

		res, err := d.Shares.Ingest(r.Context(), key, body)
		if err != nil {
			if q, ok := share.QuotaOf(err); ok {
				setQuotaHeaders(w, limit, q)
			}
			writeError(w, r, d.Logger, err)
			return
		}

		setQuotaHeaders(w, limit, res.Quota)
		writeData(w, r, http.StatusCreated, webhookResponse{
			ShareID:   res.ShareID,
			ExpiresAt: res.ExpiresAt,
			ShareURL:  res.ShareURL,
		})
	}
}

func setQuotaHeaders(w http.ResponseWriter, limit string, q ratelimit.Decision) {
	w.Header().Set("X-RateLimit-Limit", limit)
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(q.Remaining))
	if !q.Allowed {
		w.Header().Set("Retry-After", retryAfterSeconds(q.RetryAfter))
	}
}

// WebhookMethodNotAllowed answers reads on the ingestion endpoint.
func WebhookMethodNotAllowed(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", http.MethodPost)
		writeMethodNotAllowed(w, r)
	}
}
