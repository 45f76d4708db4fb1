package cachewrap

import "context"

// Storage persists mappings under (root, name). Load returns nil, nil when
// nothing is stored. Save must tolerate nil contents. See package store.
type Storage[K comparable, V any] interface {
	Load(ctx context.Context, root, name string) (Mapping[K, V], error)
	Save(ctx context.Context, root, name string, contents Mapping[K, V]) error
	Delete(ctx context.Context, root, name string) error
}

// NewNonPersistent builds a Wrapper whose default loader always yields an
// empty Dict, so it never persists anything. Callbacks in opts override it.
func NewNonPersistent[K comparable, V any](ctx context.Context, opts Options[K, V]) (*Wrapper[K, V], error) {
	def := Callbacks[K, V]{
		Loader: func(context.Context, string) (Mapping[K, V], error) {
			return NewDict[K, V](), nil
		},
	}
	opts.Callbacks = def.merge(opts.Callbacks)
	return New(ctx, opts)
}

// PersistOptions select where a persistent cache lives.
type PersistOptions struct {
	// Root groups persisted caches, e.g. a directory. "" => the manager's root
	// when it has one, else DefaultRoot.
	Root string
}

// NewPersistent builds a Wrapper whose loader, saver and deleter go through st,
// keyed by (root, name). Any of those three set in opts.Callbacks wins.
func NewPersistent[K comparable, V any](ctx context.Context, opts Options[K, V], st Storage[K, V], popts ...PersistOptions) (*Wrapper[K, V], error) {
	if opts.Name == "" {
		return nil, ErrNameRequired
	}
	var po PersistOptions
	if len(popts) > 0 {
		po = popts[0]
	}
	root := po.Root
	if root == "" {
		reg := opts.Manager
		if reg == nil {
			reg = DefaultManager()
		}
		if r, ok := reg.(rooter); ok {
			root = r.Root()
		}
	}
	root = coalesce(root, DefaultRoot)

	def := Callbacks[K, V]{
		Loader: func(ctx context.Context, name string) (Mapping[K, V], error) {
			return st.Load(ctx, root, name)
		},
		Saver: func(ctx context.Context, name string, contents Mapping[K, V]) (Mapping[K, V], error) {
			if isNil(contents) {
				return nil, nil
			}
			return nil, st.Save(ctx, root, name, contents)
		},
		Deleter: func(ctx context.Context, name string) error {
			return st.Delete(ctx, root, name)
		},
	}
	opts.Callbacks = def.merge(opts.Callbacks)
	return New(ctx, opts)
}
