package cachewrap

import (
	"context"
	"fmt"
	"iter"
	"reflect"
	"sort"
)

// State is the lifecycle state of a Wrapper's contents.
type State uint8

const (
	Unloaded State = iota // contents absent
	Loaded                // contents present and, if configured, validator-approved
	Building              // transient, only while build runs
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loaded:
		return "loaded"
	case Building:
		return "building"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Wrapper proxies a Mapping and owns its lifecycle. The pointer is the stable
// identity: contents are replaced wholesale underneath it.
type Wrapper[K comparable, V any] struct {
	name       string
	contents   Mapping[K, V]
	state      State
	dependents map[string]struct{}
	cb         Callbacks[K, V]
	reg        Registry
	log        Logger
	hooks      Hooks
}

var _ Cache = (*Wrapper[string, int])(nil)

// New constructs a Wrapper, registers it unless the name is already taken, and,
// when no initial contents were given, runs LoadOrBuild (cascading). If that
// fails the wrapper is unregistered again and only the error is returned.
func New[K comparable, V any](ctx context.Context, opts Options[K, V]) (*Wrapper[K, V], error) {
	if opts.Name == "" {
		return nil, ErrNameRequired
	}

	w := &Wrapper[K, V]{
		name:       opts.Name,
		dependents: make(map[string]struct{}, len(opts.Dependents)),
		cb:         opts.Callbacks,
	}
	// a nil map behind the interface counts as no contents
	if !isNil(opts.Contents) {
		w.contents = opts.Contents
		w.state = Loaded
	}
	for _, d := range opts.Dependents {
		w.dependents[d] = struct{}{}
	}

	// defaults
	if opts.Manager != nil {
		w.reg = opts.Manager
	} else {
		w.reg = DefaultManager()
	}
	w.log = coalesce[Logger](opts.Logger, NopLogger{})
	w.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})

	if !w.reg.IsRegistered(w.name) {
		w.reg.Register(w.name, w)
	}

	if w.contents == nil && !opts.SkipInitialLoad {
		if _, _, err := w.LoadOrBuild(ctx); err != nil {
			w.unregister()
			return nil, err
		}
	}
	return w, nil
}

func (w *Wrapper[K, V]) Name() string { return w.name }
func (w *Wrapper[K, V]) State() State { return w.state }

// Contents returns the wrapped mapping, nil when Unloaded. Mutations through
// the returned value are visible through the wrapper.
func (w *Wrapper[K, V]) Contents() Mapping[K, V] { return w.contents }

// Dependents returns the dependent names in sorted order. Order carries no
// meaning beyond determinism.
func (w *Wrapper[K, V]) Dependents() []string {
	out := make([]string, 0, len(w.dependents))
	for d := range w.dependents {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// AddDependent records names as dependents. Idempotent.
func (w *Wrapper[K, V]) AddDependent(names ...string) {
	for _, n := range names {
		w.dependents[n] = struct{}{}
	}
}

// AddDependentCache records the names of caches as dependents. Idempotent.
func (w *Wrapper[K, V]) AddDependentCache(caches ...Named) {
	for _, c := range caches {
		w.dependents[c.Name()] = struct{}{}
	}
}

// Names maps caches to their names, for Options.Dependents.
func Names(caches ...Named) []string {
	out := make([]string, len(caches))
	for i, c := range caches {
		out[i] = c.Name()
	}
	return out
}

// Has reports whether key is cached. It never fails: absent contents hold nothing.
func (w *Wrapper[K, V]) Has(key K) bool {
	if w.contents == nil {
		return false
	}
	_, ok := w.contents.Get(key)
	return ok
}

func (w *Wrapper[K, V]) Get(key K) (V, bool, error) {
	var zero V
	if err := w.mustHaveContents(); err != nil {
		return zero, false, err
	}
	v, ok := w.contents.Get(key)
	return v, ok, nil
}

func (w *Wrapper[K, V]) Set(key K, value V) error {
	if err := w.mustHaveContents(); err != nil {
		return err
	}
	w.contents.Set(key, value)
	return nil
}

func (w *Wrapper[K, V]) Delete(key K) error {
	if err := w.mustHaveContents(); err != nil {
		return err
	}
	w.contents.Delete(key)
	return nil
}

func (w *Wrapper[K, V]) Len() (int, error) {
	if err := w.mustHaveContents(); err != nil {
		return 0, err
	}
	return w.contents.Len(), nil
}

// All iterates the contents.
func (w *Wrapper[K, V]) All() (iter.Seq2[K, V], error) {
	if err := w.mustHaveContents(); err != nil {
		return nil, err
	}
	return w.contents.All(), nil
}

func (w *Wrapper[K, V]) mustHaveContents() error {
	if w.contents == nil {
		return &ContentsAbsentError{Cache: w.name}
	}
	return nil
}

// As returns the first of w and its contents that implements T. Use it to reach
// behavior a richer contents type offers beyond Mapping.
func As[T any, K comparable, V any](w *Wrapper[K, V]) (T, error) {
	if t, ok := any(w).(T); ok {
		return t, nil
	}
	if w.contents != nil {
		if t, ok := w.contents.(T); ok {
			return t, nil
		}
	}
	var zero T
	return zero, &UnknownAttributeError{
		Cache:     w.name,
		Wrapper:   fmt.Sprintf("%T", w),
		Contents:  fmt.Sprintf("%T", w.contents),
		Attribute: reflect.TypeFor[T]().String(),
	}
}
