package cachewrap

import (
	"context"
	"errors"
	"fmt"
)

// Close finalizes the wrapper: a non-cascading save, then removal from the
// registry if the name still maps to this wrapper. Nothing runs this
// automatically; use Scoped or defer Close.
// The wrapper stays usable as a mapping afterwards.
func (w *Wrapper[K, V]) Close(ctx context.Context) error {
	_, err := w.save(ctx)
	if err != nil {
		w.log.Error("save on close failed", Fields{"cache": w.name, "err": err})
		w.hooks.FinalizeError(w.name, err)
	}

	w.unregister()
	return err
}

// unregister removes w from its registry if the name still maps to w.
func (w *Wrapper[K, V]) unregister() {
	if m, ok := w.reg.(*Manager); ok {
		m.unregisterIf(w.name, w)
	} else if cur, ok := w.reg.Lookup(w.name); ok && cur == Cache(w) {
		w.reg.Unregister(w.name)
	}
}

// Scoped runs fn with w and closes w on every exit path, including panics.
// A close error is joined with fn's error.
func Scoped[K comparable, V any](ctx context.Context, w *Wrapper[K, V], fn func(*Wrapper[K, V]) error) (err error) {
	defer func() {
		r := recover()
		if cerr := w.Close(ctx); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close %q: %w", w.name, cerr))
		}
		if r != nil {
			panic(r)
		}
	}()
	return fn(w)
}
