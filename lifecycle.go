package cachewrap

import (
	"context"
	"fmt"
)

// Load replaces the contents with whatever the loader returns. Without a
// loader, or when the loader returns nil, or when the validator rejects the
// result, the wrapper ends Unloaded and Load returns nil.
// Does not cascade by default.
func (w *Wrapper[K, V]) Load(ctx context.Context, opts ...CallOption) (Mapping[K, V], error) {
	if _, err := w.run(ctx, opLoad, resolveCall(false, opts)); err != nil {
		return nil, err
	}
	return w.contents, nil
}

// Invalidate discards in-memory contents and re-pulls them from the loader.
// Cascades by default.
func (w *Wrapper[K, V]) Invalidate(ctx context.Context, opts ...CallOption) (Mapping[K, V], error) {
	if _, err := w.run(ctx, opLoad, resolveCall(true, opts)); err != nil {
		return nil, err
	}
	return w.contents, nil
}

// Save passes the contents through the pre-processor and hands them to the
// saver. It returns the saver's result, or the processed contents when the
// saver returns nil or there is none. It never changes state.
// Does not cascade by default.
func (w *Wrapper[K, V]) Save(ctx context.Context, opts ...CallOption) (Mapping[K, V], error) {
	out, err := w.run(ctx, opSave, resolveCall(false, opts))
	if err != nil {
		return nil, err
	}
	m, _ := out.contents.(Mapping[K, V])
	return m, nil
}

// DeleteSavedContent runs the deleter. In-memory contents are NOT touched; use
// InvalidateAndRebuild to reset both. Cascades by default.
func (w *Wrapper[K, V]) DeleteSavedContent(ctx context.Context, opts ...CallOption) error {
	_, err := w.run(ctx, opDeleteSaved, resolveCall(true, opts))
	return err
}

// InvalidateAndRebuild invalidates, deletes saved content and builds this
// cache, then does the same for each dependent. Cascades by default.
func (w *Wrapper[K, V]) InvalidateAndRebuild(ctx context.Context, opts ...CallOption) error {
	_, err := w.run(ctx, opInvalidateAndRebuild, resolveCall(true, opts))
	return err
}

// LoadOrBuild cascades into dependents first, then loads this cache and
// builds it if the load produced nothing. loaded reports whether the load
// succeeded. Cascades by default.
func (w *Wrapper[K, V]) LoadOrBuild(ctx context.Context, opts ...CallOption) (loaded bool, contents Mapping[K, V], err error) {
	out, err := w.run(ctx, opLoadOrBuild, resolveCall(true, opts))
	if err != nil {
		return false, w.contents, err
	}
	return out.loaded, w.contents, nil
}

func (w *Wrapper[K, V]) run(ctx context.Context, o op, cfg callConfig) (outcome, error) {
	t := newTraversal(o, cfg.cascade, w.reg, w.log, w.hooks)
	out, _, err := t.visit(ctx, w)
	return out, err
}

// step is the node-local action of o.
func (w *Wrapper[K, V]) step(ctx context.Context, o op) (outcome, error) {
	switch o {
	case opLoad:
		m, err := w.load(ctx)
		return outcome{loaded: !isNil(m), contents: m}, err
	case opSave:
		m, err := w.save(ctx)
		return outcome{contents: m}, err
	case opDeleteSaved:
		return outcome{}, w.deleteSaved(ctx)
	case opInvalidateAndRebuild:
		if _, err := w.load(ctx); err != nil {
			return outcome{}, err
		}
		if err := w.deleteSaved(ctx); err != nil {
			return outcome{}, err
		}
		m, err := w.build(ctx)
		return outcome{contents: m}, err
	case opLoadOrBuild:
		m, err := w.load(ctx)
		if err != nil {
			return outcome{}, err
		}
		if !isNil(m) {
			return outcome{loaded: true, contents: m}, nil
		}
		m, err = w.build(ctx)
		return outcome{contents: m}, err
	default:
		return outcome{}, fmt.Errorf("cachewrap: %q: unknown op %d", w.name, o)
	}
}

func (w *Wrapper[K, V]) load(ctx context.Context) (Mapping[K, V], error) {
	w.contents = nil
	w.state = Unloaded
	if w.cb.Loader == nil {
		return nil, nil
	}

	m, err := w.cb.Loader(ctx, w.name)
	if err != nil {
		return nil, err
	}
	if isNil(m) {
		w.log.Debug("loader returned nothing", Fields{"cache": w.name})
		w.hooks.LoadMiss(w.name)
		return nil, nil
	}
	if w.cb.Validator != nil && !w.cb.Validator(m) {
		w.log.Debug("loaded contents rejected by validator", Fields{"cache": w.name})
		w.hooks.LoadRejected(w.name)
		return nil, nil
	}
	if m, err = w.postProcess(m); err != nil {
		return nil, err
	}

	w.contents = m
	w.state = Loaded
	w.log.Debug("loaded", Fields{"cache": w.name, "len": m.Len()})
	return m, nil
}

// build always ends Loaded unless the builder, a processor or the saver fails.
// The contents are swapped in only once fully built.
func (w *Wrapper[K, V]) build(ctx context.Context) (Mapping[K, V], error) {
	prev := w.state
	w.state = Building

	var (
		m   Mapping[K, V]
		err error
	)
	if w.cb.Builder == nil {
		m = NewDict[K, V]()
	} else if m, err = w.cb.Builder(ctx, w.name); err != nil {
		w.state = prev
		return nil, err
	}
	if isNil(m) {
		m = NewDict[K, V]()
	}
	if m, err = w.postProcess(m); err != nil {
		w.state = prev
		return nil, err
	}

	w.contents = m
	w.state = Loaded
	w.log.Debug("built", Fields{"cache": w.name, "len": m.Len()})
	w.hooks.Built(w.name)

	if _, err := w.save(ctx); err != nil {
		return m, err
	}
	return m, nil
}

// save runs the pre-processor and the saver. A nil pre-processor result keeps
// the input; a nil saver result means the processed contents.
func (w *Wrapper[K, V]) save(ctx context.Context) (Mapping[K, V], error) {
	m := w.contents
	if w.cb.PreProcessor != nil {
		p, err := w.cb.PreProcessor(m)
		if err != nil {
			return nil, err
		}
		if !isNil(p) {
			m = p
		}
	}
	if w.cb.Saver == nil {
		return m, nil
	}
	out, err := w.cb.Saver(ctx, w.name, m)
	if err != nil {
		return nil, err
	}
	if isNil(out) {
		return m, nil
	}
	return out, nil
}

func (w *Wrapper[K, V]) deleteSaved(ctx context.Context) error {
	if w.cb.Deleter == nil {
		return nil
	}
	return w.cb.Deleter(ctx, w.name)
}

// postProcess runs the post-processor. A nil result keeps the input.
func (w *Wrapper[K, V]) postProcess(m Mapping[K, V]) (Mapping[K, V], error) {
	if w.cb.PostProcessor == nil {
		return m, nil
	}
	p, err := w.cb.PostProcessor(m)
	if err != nil {
		return nil, err
	}
	if isNil(p) {
		return m, nil
	}
	return p, nil
}
