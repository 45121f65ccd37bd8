package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrSnakeDoc/patientshare/internal/domain"
	"github.com/MrSnakeDoc/patientshare/internal/logger"
)

func TestStatusFor(t *testing.T) {
	tests := map[domain.Kind]int{
		domain.KindRateLimitExceeded:    429,
		domain.KindMalformedInput:       400,
		domain.KindValidationFailed:     400,
		domain.KindAuthenticationFailed: 401,
		domain.KindConflict:             409,
		domain.KindNotFound:             404,
		domain.KindExpired:              410,
		domain.KindInternal:             500,
		domain.Kind(99):                 500,
	}
	for kind, want := range tests {
		if got := StatusFor(kind); got != want {
			t.Errorf("StatusFor(%v) = %d, want %d", kind, got, want)
		}
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	tests := map[time.Duration]string{
		0:                      "1",
		300 * time.Millisecond: "1",
		59*time.Second + 1:     "60",
		60 * time.Second:       "60",
	}
	for d, want := range tests {
		if got := retryAfterSeconds(d); got != want {
			t.Errorf("retryAfterSeconds(%v) = %s, want %s", d, got, want)
		}
	}
}

func TestWriteErrorHidesInternalCause(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	tests := []struct {
		name     string
		err      error
		wantCode string
		wantMsg  string
	}{
		{"internal", domain.WrapError(domain.KindInternal, "redis: connection refused", errors.New("dial tcp")), "INTERNAL_ERROR", "internal server error"},
		{"unclassified", errors.New("boom"), "INTERNAL_ERROR", "internal server error"},
		{"expired", domain.NewError(domain.KindExpired, "patient data has expired"), "EXPIRED", "patient data has expired"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeError(w, r, logger.NewNop(), tt.err)

			var got envelope
			if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
				t.Fatalf("invalid body %q: %v", w.Body.String(), err)
			}
			if got.Success || got.Code != tt.wantCode || got.Error != tt.wantMsg {
				t.Errorf("writeError() = %+v", got)
			}
		})
	}
}
