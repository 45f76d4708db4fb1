package cachewrap

import (
	"context"
	"iter"
)

// Mapping is the set of operations a Wrapper delegates to its contents.
// Richer types may implement more; reach them through As.
type Mapping[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V)
	Delete(key K)
	Len() int
	All() iter.Seq2[K, V]
}

// Cache is the type-erased view of a Wrapper held by a Registry.
// The unexported step method keeps implementations inside this package.
type Cache interface {
	Name() string
	Dependents() []string
	State() State
	Close(ctx context.Context) error

	step(ctx context.Context, o op) (outcome, error)
}

// Named is anything that can stand in for a dependent by name.
type Named interface {
	Name() string
}

type (
	// LoaderFunc returns previously stored contents, or nil when there is nothing to load.
	LoaderFunc[K comparable, V any] func(ctx context.Context, name string) (Mapping[K, V], error)
	// SaverFunc persists contents and may return what it actually stored; nil
	// means the contents it was given. It must tolerate nil contents.
	SaverFunc[K comparable, V any] func(ctx context.Context, name string, contents Mapping[K, V]) (Mapping[K, V], error)
	// BuilderFunc constructs contents from scratch.
	BuilderFunc[K comparable, V any] func(ctx context.Context, name string) (Mapping[K, V], error)
	// DeleterFunc removes whatever is persisted under name.
	DeleterFunc func(ctx context.Context, name string) error
	// ProcessorFunc transforms contents right before save or right after load/build.
	ProcessorFunc[K comparable, V any] func(contents Mapping[K, V]) (Mapping[K, V], error)
	// ValidatorFunc reports whether loaded contents are acceptable.
	ValidatorFunc[K comparable, V any] func(contents Mapping[K, V]) bool
)

// Callbacks parameterize every lifecycle transition. Every field is optional.
type Callbacks[K comparable, V any] struct {
	Loader        LoaderFunc[K, V]
	Saver         SaverFunc[K, V]
	Builder       BuilderFunc[K, V]
	Deleter       DeleterFunc
	PreProcessor  ProcessorFunc[K, V]
	PostProcessor ProcessorFunc[K, V]
	Validator     ValidatorFunc[K, V]
}

// merge returns c with every non-nil field of over applied on top.
func (c Callbacks[K, V]) merge(over Callbacks[K, V]) Callbacks[K, V] {
	if over.Loader != nil {
		c.Loader = over.Loader
	}
	if over.Saver != nil {
		c.Saver = over.Saver
	}
	if over.Builder != nil {
		c.Builder = over.Builder
	}
	if over.Deleter != nil {
		c.Deleter = over.Deleter
	}
	if over.PreProcessor != nil {
		c.PreProcessor = over.PreProcessor
	}
	if over.PostProcessor != nil {
		c.PostProcessor = over.PostProcessor
	}
	if over.Validator != nil {
		c.Validator = over.Validator
	}
	return c
}

// Options configure a Wrapper. Only Name is required.
type Options[K comparable, V any] struct {
	// Required
	Name string // unique within the registry

	Contents   Mapping[K, V] // initial contents; nil => LoadOrBuild on construction
	Dependents []string      // names of caches that operations cascade to
	Manager    Registry      // nil => DefaultManager()
	Callbacks  Callbacks[K, V]

	Logger Logger // nil => NopLogger
	Hooks  Hooks  // nil => NopHooks

	SkipInitialLoad bool // leave contents absent instead of calling LoadOrBuild
}

// CallOption tunes a single lifecycle call.
type CallOption func(*callConfig)

type callConfig struct {
	cascade bool
}

// Cascade overrides whether the call propagates to dependents.
func Cascade(on bool) CallOption {
	return func(c *callConfig) { c.cascade = on }
}

func resolveCall(def bool, opts []CallOption) callConfig {
	cfg := callConfig{cascade: def}
	for _, o := range opts {
		if o != nil {
			o(&cfg)
		}
	}
	return cfg
}
