package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/MrSnakeDoc/patientshare/internal/domain"
	"github.com/MrSnakeDoc/patientshare/internal/store"
	"github.com/redis/go-redis/v9"
)

// Store keeps share records as one hash per share. The Redis key outlives
// the share by the retention period so an expired read is still reported
// as expired once; Redis reclaims it afterwards.
type Store struct {
	client *redis.Client
	opts   store.Options
}

var _ store.Store = (*Store)(nil)

// NewStore creates a new Redis store
func NewStore(client *redis.Client, opts store.Options) *Store {
	return &Store{
		client: client,
		opts:   opts.WithDefaults(),
	}
}

func (s *Store) now() time.Time {
	return time.UnixMilli(s.opts.Now().UnixMilli()).UTC()
}

// Create stores a share record if its ID is not taken
func (s *Store) Create(ctx context.Context, id string, payload json.RawMessage) (*domain.ShareRecord, error) {
	createdAt := s.now()
	expiresAt := createdAt.Add(s.opts.TTL)
	keep := s.opts.TTL + s.opts.Retention

	ok, err := createScript.Run(ctx, s.client, []string{ShareKey(id)},
		string(payload),
		createdAt.UnixMilli(),
		expiresAt.UnixMilli(),
		keep.Milliseconds(),
	).Int()
	if err != nil {
		return nil, fmt.Errorf("failed to save share: %w", err)
	}
	if ok == 0 {
		return nil, store.ErrDuplicate
	}

	return &domain.ShareRecord{
		ShareID:   id,
		Payload:   append(json.RawMessage(nil), payload...),
		CreatedAt: createdAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Get retrieves a live share record, purging it if it has expired
func (s *Store) Get(ctx context.Context, id string) (*domain.ShareRecord, error) {
	res, err := getScript.Run(ctx, s.client, []string{ShareKey(id)}, s.now().UnixMilli()).StringSlice()
	if err != nil {
		return nil, fmt.Errorf("failed to get share: %w", err)
	}
	if len(res) == 0 {
		return nil, fmt.Errorf("failed to get share: empty reply")
	}

	switch res[0] {
	case "missing":
		return nil, store.ErrNotFound
	case "expired":
		return nil, store.ErrExpired
	case "live":
	default:
		return nil, fmt.Errorf("failed to get share: unexpected state %q", res[0])
	}
	if len(res) != 4 {
		return nil, fmt.Errorf("failed to get share: malformed reply")
	}

	createdAt, err := parseMillis(res[2])
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", fieldCreatedAt, err)
	}
	expiresAt, err := parseMillis(res[3])
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", fieldExpiresAt, err)
	}

	return &domain.ShareRecord{
		ShareID:   id,
		Payload:   json.RawMessage(res[1]),
		CreatedAt: createdAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Delete removes a share record
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, ShareKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete share: %w", err)
	}
	return nil
}

// Sweep removes records whose retention has elapsed. Redis key expiry does
// the same on its own; this catches keys written without a TTL.
func (s *Store) Sweep(ctx context.Context) (int, error) {
	now := s.now().UnixMilli()
	retention := s.opts.Retention.Milliseconds()

	removed := 0
	iter := s.client.Scan(ctx, 0, KeyPrefixShare+"*", 0).Iterator()
	for iter.Next(ctx) {
		n, err := purgeScript.Run(ctx, s.client, []string{iter.Val()}, now, retention).Int()
		if err != nil {
			return removed, fmt.Errorf("failed to purge share key: %w", err)
		}
		removed += n
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("failed to scan shares: %w", err)
	}
	return removed, nil
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close is a no-op; the client belongs to the caller.
func (s *Store) Close() error {
	return nil
}

func parseMillis(v string) (time.Time, error) {
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms).UTC(), nil
}
