package redis

import (
	"context"
	"errors"

	goredis "github.com/redis/go-redis/v9"

	pr "github.com/unkn0wn-root/cachewrap/provider"
)

var ErrNilClient = errors.New("redis provider: nil client")

// Redis persists contents as plain Redis strings without expiry.
type Redis struct {
	rdb         goredis.UniversalClient
	closeClient bool
}

var _ pr.Provider = (*Redis)(nil)

type Config struct {
	Client      goredis.UniversalClient
	CloseClient bool // set true only if this provider exclusively owns the client
}

func New(cfg Config) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	return &Redis{rdb: cfg.Client, closeClient: cfg.CloseClient}, nil
}

func (p *Redis) Get(ctx context.Context, key pr.Key) ([]byte, bool, error) {
	b, err := p.rdb.Get(ctx, key.String()).Bytes()
	if err == goredis.Nil {
		return nil, false, nil // miss
	}
	if err != nil {
		return nil, false, err // transport/server error
	}
	return b, true, nil
}

func (p *Redis) Set(ctx context.Context, key pr.Key, value []byte) (bool, error) {
	if err := p.rdb.Set(ctx, key.String(), value, 0).Err(); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Redis) Del(ctx context.Context, key pr.Key) error {
	return p.rdb.Del(ctx, key.String()).Err()
}

// Close releases the underlying redis client only when this provider owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (p *Redis) Close(context.Context) error {
	if p.closeClient {
		if err := p.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}
