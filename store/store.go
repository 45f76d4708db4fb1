// Package store implements cachewrap.Storage on top of a byte Provider and a
// Codec. Persisted content is framed with the generation it was written at;
// unreadable or stale content loads as absent and is deleted (self-heal), so
// the wrapper falls back to building.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/unkn0wn-root/cachewrap"
	c "github.com/unkn0wn-root/cachewrap/codec"
	gen "github.com/unkn0wn-root/cachewrap/genstore"
	"github.com/unkn0wn-root/cachewrap/internal/wire"
	pr "github.com/unkn0wn-root/cachewrap/provider"
)

// Options configure a Store. Provider is required.
type Options[K comparable, V any] struct {
	// Required
	Provider pr.Provider

	Codec    c.Codec[map[K]V] // nil => JSON
	GenStore gen.GenStore     // nil => generations are not tracked (frames carry 0)
	Logger   cachewrap.Logger // nil => NopLogger
	Hooks    cachewrap.Hooks  // nil => NopHooks
}

// Store persists cachewrap mappings.
type Store[K comparable, V any] struct {
	provider pr.Provider
	codec    c.Codec[map[K]V]
	gens     gen.GenStore
	log      cachewrap.Logger
	hooks    cachewrap.Hooks
}

var _ cachewrap.Storage[string, int] = (*Store[string, int])(nil)

func New[K comparable, V any](opts Options[K, V]) (*Store[K, V], error) {
	if opts.Provider == nil {
		return nil, errors.New("store: provider is required")
	}
	s := &Store[K, V]{
		provider: opts.Provider,
		codec:    opts.Codec,
		gens:     opts.GenStore,
		log:      opts.Logger,
		hooks:    opts.Hooks,
	}
	if s.codec == nil {
		s.codec = c.JSON[map[K]V]{}
	}
	if s.log == nil {
		s.log = cachewrap.NopLogger{}
	}
	if s.hooks == nil {
		s.hooks = cachewrap.NopHooks{}
	}
	return s, nil
}

// Load returns the persisted mapping, or nil when nothing usable is stored.
// Provider and generation-store errors are returned as is.
func (s *Store[K, V]) Load(ctx context.Context, root, name string) (cachewrap.Mapping[K, V], error) {
	k := pr.Key{Root: root, Name: name}
	raw, ok, err := s.provider.Get(ctx, k)
	if err != nil || !ok {
		return nil, err
	}

	g, payload, err := wire.Decode(raw)
	if err != nil {
		return nil, s.selfHeal(ctx, k, "corrupt", err)
	}
	if s.gens != nil {
		cur, err := s.gens.Snapshot(ctx, k.String())
		if err != nil {
			return nil, err
		}
		if g != cur {
			return nil, s.selfHeal(ctx, k, "stale_gen", fmt.Errorf("gen %d != current %d", g, cur))
		}
	}
	m, err := s.codec.Decode(payload)
	if err != nil {
		return nil, s.selfHeal(ctx, k, "decode", err)
	}
	if m == nil {
		m = make(map[K]V)
	}
	return cachewrap.Dict[K, V](m), nil
}

// Save persists contents. nil contents are a no-op.
func (s *Store[K, V]) Save(ctx context.Context, root, name string, contents cachewrap.Mapping[K, V]) error {
	d := cachewrap.ToDict(contents)
	if d == nil {
		return nil
	}
	k := pr.Key{Root: root, Name: name}

	payload, err := s.codec.Encode(map[K]V(d))
	if err != nil {
		return fmt.Errorf("store: encode %q: %w", name, err)
	}
	var g uint64
	if s.gens != nil {
		if g, err = s.gens.Bump(ctx, k.String()); err != nil {
			return err
		}
	}

	ok, err := s.provider.Set(ctx, k, wire.Encode(g, payload))
	if err != nil {
		return err
	}
	if !ok {
		s.log.Warn("persisted write rejected by provider", cachewrap.Fields{"cache": name, "root": root})
	}
	return nil
}

// Delete removes persisted contents. A missing entry is not an error.
func (s *Store[K, V]) Delete(ctx context.Context, root, name string) error {
	k := pr.Key{Root: root, Name: name}
	if err := s.provider.Del(ctx, k); err != nil {
		return err
	}
	if s.gens != nil {
		if _, err := s.gens.Bump(ctx, k.String()); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the generation store and the provider.
func (s *Store[K, V]) Close(ctx context.Context) error {
	var errs []error
	if s.gens != nil {
		errs = append(errs, s.gens.Close(ctx))
	}
	errs = append(errs, s.provider.Close(ctx))
	return errors.Join(errs...)
}

// selfHeal drops unreadable persisted content. The load itself reports absent.
func (s *Store[K, V]) selfHeal(ctx context.Context, k pr.Key, reason string, cause error) error {
	s.log.Warn("dropping unreadable persisted content", cachewrap.Fields{"cache": k.Name, "root": k.Root, "reason": reason, "err": cause})
	s.hooks.StoreSelfHeal(k.Name, reason)
	_ = s.provider.Del(ctx, k)
	return nil
}
