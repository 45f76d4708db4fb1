// Package asynchook moves Hooks calls off the caller's goroutine. Events are
// queued to a fixed pool of workers and dropped when the queue is full.
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{LoadMissEvery: 10})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	users, _ := cachewrap.New(ctx, cachewrap.Options[string, User]{
//	    Name:  "users",
//	    Hooks: hooks,
//	})
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/cachewrap"
)

type Hooks struct {
	inner   cachewrap.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	dropped atomic.Uint64
}

var _ cachewrap.Hooks = (*Hooks)(nil)

func New(inner cachewrap.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains the queue and stops the workers. Events sent after Close
// panic, so close only after every cache using h is closed.
func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

// Dropped is the number of events discarded because the queue was full.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) LoadMiss(c string)     { h.try(func() { h.inner.LoadMiss(c) }) }
func (h *Hooks) LoadRejected(c string) { h.try(func() { h.inner.LoadRejected(c) }) }
func (h *Hooks) Built(c string)        { h.try(func() { h.inner.Built(c) }) }
func (h *Hooks) DependentMissing(c, d string) {
	h.try(func() { h.inner.DependentMissing(c, d) })
}
func (h *Hooks) StoreSelfHeal(c, r string) {
	h.try(func() { h.inner.StoreSelfHeal(c, r) })
}
func (h *Hooks) FinalizeError(c string, err error) {
	h.try(func() { h.inner.FinalizeError(c, err) })
}
