package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/storefront-labs/checkout/internal/clock"
	domain "github.com/storefront-labs/checkout/internal/domain/challenge"
)

// compareAndDelete deletes the key only when the stored code matches, as a
// single server-side step.
var compareAndDelete = redis.NewScript(`
local v = redis.call('GET', KEYS[1])
if not v then
  return 0
end
local ch = cjson.decode(v)
if ch.code == ARGV[1] then
  redis.call('DEL', KEYS[1])
  return 1
end
return 0
`)

type record struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ChallengeStore implements the challenge store on redis. Keys carry a TTL
// matching the challenge deadline, so redis may evict an expired entry
// before a confirm attempt observes it; callers then see ErrNoChallenge,
// which the contract permits for evicted challenges.
type ChallengeStore struct {
	client *redis.Client
	clk    clock.Clock
	prefix string
}

// NewChallengeStore shares the issuing service's clock so the key TTL is
// derived from the same time source that computed ExpiresAt.
func NewChallengeStore(client *redis.Client, clk clock.Clock) *ChallengeStore {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &ChallengeStore{
		client: client,
		clk:    clk,
		prefix: "checkout:challenge:",
	}
}

// NewClient builds a redis client from a URL and verifies connectivity.
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("rediscache: parse url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("rediscache: ping: %w", err)
	}
	return client, nil
}

func (s *ChallengeStore) key(orderID string) string {
	return s.prefix + orderID
}

func (s *ChallengeStore) Put(ctx context.Context, ch domain.Challenge) error {
	payload, err := json.Marshal(record{Code: ch.Code, ExpiresAt: ch.ExpiresAt})
	if err != nil {
		return fmt.Errorf("rediscache: marshal challenge: %w", err)
	}

	ttl := ch.ExpiresAt.Sub(s.clk.Now())
	if ttl <= 0 {
		// Storing without a positive TTL would create an immortal key.
		return fmt.Errorf("rediscache: challenge for %s already expired", ch.OrderID)
	}
	return s.client.Set(ctx, s.key(ch.OrderID), payload, ttl).Err()
}

func (s *ChallengeStore) Get(ctx context.Context, orderID string) (domain.Challenge, error) {
	val, err := s.client.Get(ctx, s.key(orderID)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Challenge{}, domain.ErrNoChallenge
	}
	if err != nil {
		return domain.Challenge{}, fmt.Errorf("rediscache: get: %w", err)
	}

	var rec record
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return domain.Challenge{}, fmt.Errorf("rediscache: decode challenge: %w", err)
	}
	return domain.Challenge{OrderID: orderID, Code: rec.Code, ExpiresAt: rec.ExpiresAt}, nil
}

func (s *ChallengeStore) CompareAndDelete(ctx context.Context, orderID, code string) (bool, error) {
	res, err := compareAndDelete.Run(ctx, s.client, []string{s.key(orderID)}, code).Int()
	if err != nil {
		return false, fmt.Errorf("rediscache: compare-and-delete: %w", err)
	}
	return res == 1, nil
}
