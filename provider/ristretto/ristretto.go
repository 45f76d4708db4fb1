package ristretto

import (
	"context"
	"errors"

	rc "github.com/dgraph-io/ristretto"

	pr "github.com/unkn0wn-root/cachewrap/provider"
)

// Provider keeps persisted contents in an in-process Ristretto cache. Ristretto
// may drop entries under cost pressure; a dropped entry loads as absent and the
// wrapper rebuilds it.
type Provider struct {
	c *rc.Cache
}

var _ pr.Provider = (*Provider)(nil)

type Config struct {
	NumCounters int64
	MaxCost     int64 // in bytes; each entry costs len(value)
	BufferItems int64
	Metrics     bool
}

func New(cfg Config) (*Provider, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, errors.New("ristretto: invalid config")
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return &Provider{c: c}, nil
}

func (p *Provider) Get(_ context.Context, key pr.Key) ([]byte, bool, error) {
	k := key.String()
	v, ok := p.c.Get(k)
	if !ok {
		return nil, false, nil
	}
	b, _ := v.([]byte)
	if b == nil {
		// self-heal: drop unexpected entry shape
		p.c.Del(k)
		return nil, false, nil
	}
	return b, true, nil
}

// Set waits for the write to be applied so a following Get observes it.
func (p *Provider) Set(_ context.Context, key pr.Key, value []byte) (bool, error) {
	ok := p.c.Set(key.String(), value, int64(len(value)))
	p.c.Wait()
	return ok, nil
}

func (p *Provider) Del(_ context.Context, key pr.Key) error {
	p.c.Del(key.String())
	return nil
}

func (p *Provider) Close(_ context.Context) error {
	p.c.Wait()
	p.c.Close()
	return nil
}

// Metrics exposes Ristretto metrics (nil unless Config.Metrics).
func (p *Provider) Metrics() *rc.Metrics { return p.c.Metrics }
