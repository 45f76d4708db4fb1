package bigcache

import (
	"context"
	"errors"
	"time"

	bc "github.com/allegro/bigcache/v3"

	pr "github.com/unkn0wn-root/cachewrap/provider"
)

// Provider keeps persisted contents in an in-process BigCache. Entries outlive
// individual wrappers but not the process; useful when caches are torn down
// and recreated at runtime.
type Provider struct {
	c *bc.BigCache
}

var _ pr.Provider = (*Provider)(nil)

type Config struct {
	// LifeWindow bounds how long an entry is kept; 0 => effectively forever.
	LifeWindow         time.Duration
	MaxEntrySize       int
	HardMaxCacheSizeMB int // ~ memory limit; 0 = unlimited
}

const forever = 100 * 365 * 24 * time.Hour

func New(ctx context.Context, cfg Config) (*Provider, error) {
	life := cfg.LifeWindow
	if life <= 0 {
		life = forever
	}
	conf := bc.DefaultConfig(life)
	conf.CleanWindow = 0 // entries are never evicted by age unless LifeWindow is set
	if cfg.LifeWindow > 0 {
		conf.CleanWindow = cfg.LifeWindow
	}
	if cfg.MaxEntrySize > 0 {
		conf.MaxEntrySize = cfg.MaxEntrySize
	}
	if cfg.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	}
	conf.Verbose = false
	c, err := bc.New(ctx, conf)
	if err != nil {
		return nil, err
	}
	return &Provider{c: c}, nil
}

func (p *Provider) Get(_ context.Context, key pr.Key) ([]byte, bool, error) {
	b, err := p.c.Get(key.String())
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil, false, nil
	}
	return b, err == nil, err
}

func (p *Provider) Set(_ context.Context, key pr.Key, value []byte) (bool, error) {
	return true, p.c.Set(key.String(), value)
}

func (p *Provider) Del(_ context.Context, key pr.Key) error {
	err := p.c.Delete(key.String())
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil
	}
	return err
}

func (p *Provider) Close(_ context.Context) error {
	return p.c.Close()
}
