package share

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/MrSnakeDoc/patientshare/internal/domain"
	"github.com/MrSnakeDoc/patientshare/internal/logger"
	"github.com/MrSnakeDoc/patientshare/internal/metrics"
	"github.com/MrSnakeDoc/patientshare/internal/store"
)

// RetrieveResult is a live share as served to the bearer of its id.
type RetrieveResult struct {
	Patient   json.RawMessage
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Retrieve returns the live record for id. A malformed id is rejected
// without touching the store. The read that discovers expiry purges the
// record and reports KindExpired; later reads report KindNotFound.
func (s *Service) Retrieve(ctx context.Context, id string) (*RetrieveResult, error) {
	res, err := s.retrieve(ctx, id)
	metrics.Retrieval(outcome(err))
	return res, err
}

func (s *Service) retrieve(ctx context.Context, id string) (*RetrieveResult, error) {
	if !domain.ValidShareID(id) {
		return nil, domain.NewError(domain.KindMalformedInput, "invalid share ID format")
	}

	rec, err := s.store.Get(ctx, id)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound):
		return nil, domain.NewError(domain.KindNotFound, "patient data not found")
	case errors.Is(err, store.ErrExpired):
		s.logger.Info("expired share purged", logger.String("share_id_prefix", idPrefix(id)))
		return nil, domain.NewError(domain.KindExpired, "patient data has expired")
	default:
		s.logger.Error("failed to read share",
			logger.String("share_id_prefix", idPrefix(id)),
			logger.Error(err))
		return nil, domain.WrapError(domain.KindInternal, "internal server error", err)
	}

	return &RetrieveResult{
		Patient:   rec.Payload,
		CreatedAt: rec.CreatedAt,
		ExpiresAt: rec.ExpiresAt,
	}, nil
}
