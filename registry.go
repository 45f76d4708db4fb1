package cachewrap

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// Registry maps cache names to live caches. Dependents are resolved through it.
type Registry interface {
	IsRegistered(name string) bool
	// Register stores c under name. The last registrant wins.
	Register(name string, c Cache)
	// Lookup returns the cache under name; ok=false if unknown.
	Lookup(name string) (c Cache, ok bool)
	Unregister(name string)
}

// Manager is the default Registry. It is safe for concurrent use and carries
// the storage root persistent caches are keyed under.
type Manager struct {
	mu     sync.RWMutex
	caches map[string]Cache
	root   string
}

var _ Registry = (*Manager)(nil)

// NewManager returns an empty Manager. root "" => DefaultRoot.
func NewManager(root string) *Manager {
	return &Manager{
		caches: make(map[string]Cache),
		root:   coalesce(root, DefaultRoot),
	}
}

var (
	defaultOnce    sync.Once
	defaultManager *Manager
)

// DefaultManager returns the process-wide Manager used when Options.Manager is
// nil. Prefer passing an explicit Manager; tests should always do so.
func DefaultManager() *Manager {
	defaultOnce.Do(func() { defaultManager = NewManager("") })
	return defaultManager
}

// Root is the storage root for persistent caches registered here.
func (m *Manager) Root() string { return m.root }

func (m *Manager) IsRegistered(name string) bool {
	m.mu.RLock()
	_, ok := m.caches[name]
	m.mu.RUnlock()
	return ok
}

func (m *Manager) Register(name string, c Cache) {
	m.mu.Lock()
	m.caches[name] = c
	m.mu.Unlock()
}

func (m *Manager) Lookup(name string) (Cache, bool) {
	m.mu.RLock()
	c, ok := m.caches[name]
	m.mu.RUnlock()
	return c, ok
}

func (m *Manager) Unregister(name string) {
	m.mu.Lock()
	delete(m.caches, name)
	m.mu.Unlock()
}

// unregisterIf removes name only while it still maps to c.
func (m *Manager) unregisterIf(name string, c Cache) {
	m.mu.Lock()
	if cur, ok := m.caches[name]; ok && cur == c {
		delete(m.caches, name)
	}
	m.mu.Unlock()
}

// Names returns the registered names in sorted order.
func (m *Manager) Names() []string {
	m.mu.RLock()
	out := make([]string, 0, len(m.caches))
	for n := range m.caches {
		out = append(out, n)
	}
	m.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Close finalizes every registered cache (save, then unregister).
// All caches are closed even if some fail; the errors are joined.
func (m *Manager) Close(ctx context.Context) error {
	var errs []error
	for _, n := range m.Names() {
		c, ok := m.Lookup(n)
		if !ok {
			continue
		}
		if err := c.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Lookup returns the cache registered under name as a typed Wrapper.
// ok is false when the name is unknown or holds a different K/V.
func Lookup[K comparable, V any](r Registry, name string) (*Wrapper[K, V], bool) {
	c, ok := r.Lookup(name)
	if !ok {
		return nil, false
	}
	w, ok := c.(*Wrapper[K, V])
	return w, ok
}

type rooter interface {
	Root() string
}
