package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/render"

	"github.com/MrSnakeDoc/patientshare/internal/domain"
	"github.com/MrSnakeDoc/patientshare/internal/logger"
)

// CodeMethodNotAllowed is only produced by the transport layer.
const CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"

// envelope is the shape of every API response.
type envelope struct {
	Success bool                `json:"success"`
	Data    any                 `json:"data,omitempty"`
	Error   string              `json:"error,omitempty"`
	Code    string              `json:"code,omitempty"`
	Fields  []domain.FieldError `json:"fields,omitempty"`
}

var kindStatus = map[domain.Kind]int{
	domain.KindRateLimitExceeded:    http.StatusTooManyRequests,
	domain.KindMalformedInput:       http.StatusBadRequest,
	domain.KindValidationFailed:     http.StatusBadRequest,
	domain.KindAuthenticationFailed: http.StatusUnauthorized,
	domain.KindConflict:             http.StatusConflict,
	domain.KindNotFound:             http.StatusNotFound,
	domain.KindExpired:              http.StatusGone,
	domain.KindInternal:             http.StatusInternalServerError,
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(k domain.Kind) int {
	if s, ok := kindStatus[k]; ok {
		return s
	}
	return http.StatusInternalServerError
}

func writeData(w http.ResponseWriter, r *http.Request, status int, data any) {
	render.Status(r, status)
	render.JSON(w, r, envelope{Success: true, Data: data})
}

// writeError renders err. Internal errors never leak their cause.
func writeError(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		log.Error("unclassified handler error", logger.Error(err))
		de = domain.NewError(domain.KindInternal, "internal server error")
	}

	msg := de.Message
	if de.Kind == domain.KindInternal {
		msg = "internal server error"
	}

	render.Status(r, StatusFor(de.Kind))
	render.JSON(w, r, envelope{
		Error:  msg,
		Code:   string(de.Kind.Code()),
		Fields: de.Fields,
	})
}

func writeMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusMethodNotAllowed)
	render.JSON(w, r, envelope{Error: "method not allowed", Code: CodeMethodNotAllowed})
}

// retryAfterSeconds rounds up so clients never retry early.
func retryAfterSeconds(d time.Duration) string {
	s := int(math.Ceil(d.Seconds()))
	if s < 1 {
		s = 1
	}
	return strconv.Itoa(s)
}

// NotFound answers unknown routes with the API envelope.
func NotFound(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusNotFound)
	render.JSON(w, r, envelope{Error: "route not found", Code: string(domain.CodeNotFound)})
}

// MethodNotAllowed answers known routes called with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeMethodNotAllowed(w, r)
}
