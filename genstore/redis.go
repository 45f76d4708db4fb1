package genstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis shares generations across processes and survives restarts.
// Optionally, a TTL can be applied to generation keys to prevent unbounded growth.
// If a generation key expires, readers observe gen=0 and persisted content
// written at a higher generation reads as absent and gets rebuilt.
type Redis struct {
	rdb         redis.UniversalClient
	ns          string        // logical namespace; keep it per application
	ttl         time.Duration // optional TTL for generation keys; 0 disables expiry
	closeClient bool
}

var _ GenStore = (*Redis)(nil)

// RedisConfig configures a Redis generation store.
type RedisConfig struct {
	Client      redis.UniversalClient
	Namespace   string
	TTL         time.Duration // <= 0 => keys never expire
	CloseClient bool          // set true only if the store exclusively owns the client
}

var ErrNilClient = errors.New("genstore: nil redis client")

func NewRedis(cfg RedisConfig) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	return &Redis{rdb: cfg.Client, ns: cfg.Namespace, ttl: cfg.TTL, closeClient: cfg.CloseClient}, nil
}

func (s *Redis) key(k string) string { return "gen:" + s.ns + ":" + k }

// Snapshot returns the current generation.
// Missing keys are treated as generation 0.
func (s *Redis) Snapshot(ctx context.Context, key string) (uint64, error) {
	res, err := s.rdb.Get(ctx, s.key(key)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	u, err := strconv.ParseUint(res, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("redis gen parse: %w", err)
	}
	return u, nil
}

// Bump atomically increments the generation and (optionally) refreshes TTL.
// When ttl > 0, INCR + EXPIRE are pipelined in a single round-trip.
func (s *Redis) Bump(ctx context.Context, key string) (uint64, error) {
	k := s.key(key)

	if s.ttl <= 0 {
		v, err := s.rdb.Incr(ctx, k).Result()
		if err != nil {
			return 0, err
		}
		return uint64(v), nil
	}

	var incr *redis.IntCmd
	_, err := s.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, k)
		p.Expire(ctx, k, s.ttl)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return uint64(incr.Val()), nil
}

// Cleanup is not applicable (Redis handles expiry if TTL is set).
func (s *Redis) Cleanup(time.Duration) {}

// Close releases the client only when the store owns it.
func (s *Redis) Close(context.Context) error {
	if s.closeClient {
		if err := s.rdb.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
			return err
		}
	}
	return nil
}
