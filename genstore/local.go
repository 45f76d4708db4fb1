package genstore

import (
	"context"
	"sync"
	"time"
)

type localGenEntry struct {
	Gen       uint64
	UpdatedAt time.Time
}

// Local keeps generations in-process. Generations are lost on restart, so
// pair it with a provider that is also process-local (bigcache, ristretto).
// Optional cleanup loop to prune long-inactive entries.
type Local struct {
	mu     sync.RWMutex
	gens   map[string]localGenEntry
	ticker *time.Ticker
	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once

	retention time.Duration
}

var _ GenStore = (*Local)(nil)

// NewLocal returns a Local store. Cleanup runs every cleanupInterval when both
// arguments are positive.
func NewLocal(cleanupInterval, retention time.Duration) *Local {
	s := &Local{
		gens:      make(map[string]localGenEntry),
		retention: retention,
	}
	if cleanupInterval > 0 && retention > 0 {
		s.ticker = time.NewTicker(cleanupInterval)
		s.stopCh = make(chan struct{})
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for {
				select {
				case <-s.ticker.C:
					s.Cleanup(retention)
				case <-s.stopCh:
					return
				}
			}
		}()
	}
	return s
}

func (s *Local) Snapshot(_ context.Context, k string) (uint64, error) {
	s.mu.RLock()
	e, ok := s.gens[k]
	s.mu.RUnlock()
	if !ok {
		return 0, nil
	}
	return e.Gen, nil
}

func (s *Local) Bump(_ context.Context, k string) (uint64, error) {
	now := time.Now()
	s.mu.Lock()
	e := s.gens[k]
	e.Gen++
	e.UpdatedAt = now
	s.gens[k] = e
	s.mu.Unlock()
	return e.Gen, nil
}

func (s *Local) Cleanup(retention time.Duration) {
	if retention <= 0 {
		return
	}
	cutoff := time.Now().Add(-retention)

	s.mu.Lock()
	for k, e := range s.gens {
		if !e.UpdatedAt.IsZero() && e.UpdatedAt.Before(cutoff) {
			delete(s.gens, k)
		}
	}
	s.mu.Unlock()
}

// Close stops the cleanup loop. Safe to call more than once.
func (s *Local) Close(_ context.Context) error {
	if s.stopCh == nil {
		return nil
	}
	s.once.Do(func() {
		close(s.stopCh)
		s.ticker.Stop() // stop ticker before waiting
		s.wg.Wait()
	})
	return nil
}
