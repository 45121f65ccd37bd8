package share

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	"github.com/MrSnakeDoc/patientshare/internal/domain"
	"github.com/MrSnakeDoc/patientshare/internal/logger"
	"github.com/MrSnakeDoc/patientshare/internal/metrics"
	"github.com/MrSnakeDoc/patientshare/internal/ratelimit"
	"github.com/MrSnakeDoc/patientshare/internal/signer"
	"github.com/MrSnakeDoc/patientshare/internal/store"
)

// IngestResult describes a stored share.
type IngestResult struct {
	ShareID   string
	CreatedAt time.Time
	ExpiresAt time.Time
	ShareURL  string
	Quota     ratelimit.Decision
}

// quotaError attaches the admission decision to an Ingest failure so the
// transport can report quota on every response past the limiter.
type quotaError struct {
	quota ratelimit.Decision
	err   error
}

func (e *quotaError) Error() string { return e.err.Error() }
func (e *quotaError) Unwrap() error { return e.err }

// QuotaOf returns the rate limit decision behind an Ingest error. ok is
// false when the limiter itself failed.
func QuotaOf(err error) (quota ratelimit.Decision, ok bool) {
	var qe *quotaError
	if errors.As(err, &qe) {
		return qe.quota, true
	}
	return ratelimit.Decision{}, false
}

// Ingest runs one webhook delivery through rate check, parsing, schema
// validation, signature verification and storage.
//
// A rate limited request returns before body is read and leaves no audit
// entry. Every other outcome is audited with its error code before Ingest
// returns. Errors unwrap to *domain.Error; see QuotaOf for the quota.
func (s *Service) Ingest(ctx context.Context, clientKey string, body io.Reader) (*IngestResult, error) {
	quota, err := s.limiter.Admit(ctx, clientKey)
	if err != nil {
		s.logger.Error("rate limiter unavailable",
			logger.String("client", clientKey),
			logger.Error(err))
		metrics.WebhookAttempt(string(domain.CodeInternal))
		return nil, domain.WrapError(domain.KindInternal, "internal server error", err)
	}
	if !quota.Allowed {
		s.logger.Warn("webhook rate limited",
			logger.String("client", clientKey),
			logger.Duration("retry_after", quota.RetryAfter))
		metrics.WebhookAttempt(string(domain.CodeRateLimit))
		return nil, &quotaError{quota: quota, err: &domain.Error{
			Kind:       domain.KindRateLimitExceeded,
			Message:    "rate limit exceeded",
			RetryAfter: quota.RetryAfter,
		}}
	}

	attempt := &domain.WebhookAttempt{
		Source:    domain.UnknownSource,
		ClientKey: clientKey,
	}
	res, err := s.ingest(ctx, body, attempt)

	attempt.Success = err == nil
	if err != nil {
		attempt.FailureReason = string(domain.KindOf(err).Code())
	}
	s.record(ctx, attempt)
	metrics.WebhookAttempt(outcome(err))

	if err != nil {
		s.logIngestFailure(attempt, err)
		return nil, &quotaError{quota: quota, err: err}
	}

	res.Quota = quota
	s.logger.Info("share created",
		logger.String("share_id_prefix", idPrefix(res.ShareID)),
		logger.String("source", attempt.Source),
		logger.Time("expires_at", res.ExpiresAt))
	return res, nil
}

func (s *Service) ingest(ctx context.Context, body io.Reader, attempt *domain.WebhookAttempt) (*IngestResult, error) {
	raw, err := io.ReadAll(body)
	attempt.Payload = string(raw)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, domain.WrapError(domain.KindMalformedInput, "payload too large", err)
		}
		return nil, domain.WrapError(domain.KindMalformedInput, "failed to read request body", err)
	}

	if !gjson.ValidBytes(raw) || !gjson.ParseBytes(raw).IsObject() {
		return nil, domain.NewError(domain.KindMalformedInput, "invalid JSON format")
	}
	// gjson reads the first of repeated keys and encoding/json the last.
	if key, dup := duplicateKey(gjson.ParseBytes(raw), ""); dup {
		return nil, domain.NewError(domain.KindMalformedInput, "duplicate JSON key: "+key)
	}
	if src := gjson.GetBytes(raw, "source"); src.Type == gjson.String && src.Str != "" {
		attempt.Source = src.Str
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, domain.WrapError(domain.KindMalformedInput, "invalid JSON format", err)
	}

	payload, err := domain.DecodeWebhookPayload(doc)
	if err != nil {
		var de *domain.Error
		if errors.As(err, &de) {
			return nil, de
		}
		return nil, domain.WrapError(domain.KindInternal, "internal server error", err)
	}

	canonical, err := signer.Canonicalize(raw)
	if err != nil {
		return nil, domain.WrapError(domain.KindMalformedInput, "invalid JSON format", err)
	}
	if !s.signer.Verify(canonical, payload.Signature) {
		return nil, domain.NewError(domain.KindAuthenticationFailed, "invalid signature")
	}

	// Store the data document byte for byte as the sender signed it.
	data := json.RawMessage(gjson.GetBytes(raw, "data").Raw)

	rec, err := s.store.Create(ctx, payload.ShareID, data)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, domain.NewError(domain.KindConflict, "shareId already exists")
		}
		return nil, domain.WrapError(domain.KindInternal, "internal server error", err)
	}

	return &IngestResult{
		ShareID:   rec.ShareID,
		CreatedAt: rec.CreatedAt,
		ExpiresAt: rec.ExpiresAt,
		ShareURL:  s.ShareURL(rec.ShareID),
	}, nil
}

// duplicateKey walks v and returns the path of the first object key that
// appears twice within the same object.
func duplicateKey(v gjson.Result, path string) (string, bool) {
	var (
		found string
		dup   bool
	)
	switch {
	case v.IsObject():
		seen := make(map[string]struct{})
		v.ForEach(func(k, child gjson.Result) bool {
			p := k.String()
			if path != "" {
				p = path + "." + p
			}
			if _, ok := seen[k.String()]; ok {
				found, dup = p, true
				return false
			}
			seen[k.String()] = struct{}{}
			found, dup = duplicateKey(child, p)
			return !dup
		})
	case v.IsArray():
		i := 0
		v.ForEach(func(_, child gjson.Result) bool {
			found, dup = duplicateKey(child, path+"."+strconv.Itoa(i))
			i++
			return !dup
		})
	}
	return found, dup
}

func (s *Service) logIngestFailure(a *domain.WebhookAttempt, err error) {
	fields := []logger.Field{
		logger.String("source", a.Source),
		logger.String("client", a.ClientKey),
		logger.String("code", a.FailureReason),
		logger.Error(err),
	}
	if domain.KindOf(err) == domain.KindInternal {
		s.logger.Error("webhook ingestion failed", fields...)
		return
	}
	s.logger.Warn("webhook rejected", fields...)
}
