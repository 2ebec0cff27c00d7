package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/merxpay/merx/internal/models"
)

const (
	redisKeyPrefix = "merx:quote:"

	// expiryGrace keeps a quote in Redis slightly past its business expiry,
	// so a late taker still gets the distinct "expired" outcome instead of
	// "not found".
	expiryGrace = time.Minute
)

// RedisStore is the TTL-capable Store backing for multi-instance
// deployments. GETDEL makes the take atomic across processes.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr, password string) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	return &RedisStore{client: client}
}

// NewRedisStoreWithClient wraps an existing client. Used in tests.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Put(ctx context.Context, q *models.Quote) error {
	payload, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("failed to marshal quote: %w", err)
	}

	ttl := time.Until(q.ExpiresAt) + expiryGrace
	if ttl <= 0 {
		ttl = expiryGrace
	}

	if err := s.client.Set(ctx, redisKeyPrefix+q.ID, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store quote: %w", err)
	}
	return nil
}

func (s *RedisStore) TakeIfValid(ctx context.Context, id string) (*models.Quote, error) {
	payload, err := s.client.GetDel(ctx, redisKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, models.ErrQuoteNotFound
		}
		return nil, fmt.Errorf("failed to take quote: %w", err)
	}

	var q models.Quote
	if err := json.Unmarshal(payload, &q); err != nil {
		return nil, fmt.Errorf("failed to unmarshal quote: %w", err)
	}

	if q.Expired(time.Now()) {
		return nil, models.ErrQuoteExpired
	}
	return &q, nil
}

// Sweep is a no-op for Redis: the server expires keys itself.
func (s *RedisStore) Sweep(_ context.Context, _ time.Time) (int, error) {
	return 0, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
