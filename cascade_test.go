package cachewrap

import (
	"context"
	"errors"
	"slices"
	"testing"
)

type missingRecorder struct {
	NopHooks
	missing []string
}

func (h *missingRecorder) DependentMissing(cache, dependent string) {
	h.missing = append(h.missing, cache+"->"+dependent)
}

// graph registers one wrapper per entry of deps, all sharing cnt and st.
func graph(t *testing.T, mgr *Manager, cnt *counter, st memStorage, deps map[string][]string) map[string]*Wrapper[string, int] {
	t.Helper()
	out := make(map[string]*Wrapper[string, int], len(deps))
	for name, ds := range deps {
		out[name] = newTestWrapper(t, mgr, name, func(o *Options[string, int]) {
			o.Dependents = ds
			o.Callbacks = callbacks(cnt, st)
		})
	}
	return out
}

func TestLoadOrBuildCycleVisitsEachOnce(t *testing.T) {
	cnt := newCounter()
	ws := graph(t, NewManager(""), cnt, memStorage{}, map[string][]string{
		"a": {"b"},
		"b": {"a"},
	})

	loaded, m, err := ws["a"].LoadOrBuild(context.Background())
	if err != nil {
		t.Fatalf("LoadOrBuild: %v", err)
	}
	if loaded || m == nil {
		t.Fatalf("expected a fresh build, got loaded=%v m=%v", loaded, m)
	}
	for _, n := range []string{"a", "b"} {
		if cnt.n(n, "load") != 1 || cnt.n(n, "build") != 1 {
			t.Fatalf("%s: load=%d build=%d", n, cnt.n(n, "load"), cnt.n(n, "build"))
		}
		if ws[n].State() != Loaded {
			t.Fatalf("%s: state %v", n, ws[n].State())
		}
	}
	// dependents first
	if cnt.order[0] != "b.load" {
		t.Fatalf("order = %v", cnt.order)
	}
}

func TestSelfDependencyTerminates(t *testing.T) {
	cnt := newCounter()
	ws := graph(t, NewManager(""), cnt, memStorage{}, map[string][]string{"self": {"self"}})
	if err := ws["self"].InvalidateAndRebuild(context.Background()); err != nil {
		t.Fatal(err)
	}
	if cnt.n("self", "build") != 1 {
		t.Fatalf("build = %d", cnt.n("self", "build"))
	}
}

func TestInvalidateDiamondLoadsSharedDependentOnce(t *testing.T) {
	cnt := newCounter()
	st := memStorage{"a": {"x": 1}, "b": {"x": 1}, "c": {"x": 1}, "d": {"x": 1}}
	ws := graph(t, NewManager(""), cnt, st, map[string][]string{
		"a": {"b", "c"},
		"b": {"d"},
		"c": {"d"},
		"d": nil,
	})

	if _, err := ws["a"].Invalidate(context.Background()); err != nil {
		t.Fatal(err)
	}
	for _, n := range []string{"a", "b", "c", "d"} {
		if cnt.n(n, "load") != 1 {
			t.Fatalf("%s loaded %d times", n, cnt.n(n, "load"))
		}
	}
	want := []string{"d.load", "b.load", "c.load", "a.load"}
	if !slices.Equal(cnt.order, want) {
		t.Fatalf("order = %v, want %v", cnt.order, want)
	}
}

func TestMissingDependentIsSkipped(t *testing.T) {
	ctx := context.Background()
	cnt := newCounter()
	hooks := &missingRecorder{}
	mgr := NewManager("")
	w := newTestWrapper(t, mgr, "a", func(o *Options[string, int]) {
		o.Dependents = []string{"ghost", "b"}
		o.Callbacks = callbacks(cnt, memStorage{})
		o.Hooks = hooks
	})
	graph(t, mgr, cnt, memStorage{}, map[string][]string{"b": nil})

	if _, _, err := w.LoadOrBuild(ctx); err != nil {
		t.Fatalf("LoadOrBuild: %v", err)
	}
	if cnt.n("b", "build") != 1 || cnt.n("a", "build") != 1 {
		t.Fatalf("calls %v", cnt.calls)
	}
	if !slices.Equal(hooks.missing, []string{"a->ghost"}) {
		t.Fatalf("missing = %v", hooks.missing)
	}
}

func TestInvalidateAndRebuildIsNodeFirstPerDependent(t *testing.T) {
	cnt := newCounter()
	st := memStorage{"a": {"old": 1}, "b": {"old": 1}}
	ws := graph(t, NewManager(""), cnt, st, map[string][]string{
		"a": {"b"},
		"b": nil,
	})

	if err := ws["a"].InvalidateAndRebuild(context.Background()); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"a.load", "a.delete", "a.build", "a.save",
		"b.load", "b.delete", "b.build", "b.save",
	}
	if !slices.Equal(cnt.order, want) {
		t.Fatalf("order = %v, want %v", cnt.order, want)
	}
	for _, n := range []string{"a", "b"} {
		if !ws[n].Has("built") || ws[n].Has("old") {
			t.Fatalf("%s was not rebuilt: %v", n, ws[n].Contents())
		}
	}
}

func TestCascadeAbortsOnFirstError(t *testing.T) {
	ctx := context.Background()
	cnt := newCounter()
	boom := errors.New("deleter down")
	mgr := NewManager("")
	ws := graph(t, mgr, cnt, memStorage{}, map[string][]string{
		"a": {"b", "c"},
		"c": nil,
	})
	newTestWrapper(t, mgr, "b", func(o *Options[string, int]) {
		o.Callbacks.Deleter = func(context.Context, string) error { return boom }
	})

	if err := ws["a"].DeleteSavedContent(ctx); !errors.Is(err, boom) {
		t.Fatalf("expected deleter error, got %v", err)
	}
	if cnt.n("c", "delete") != 0 || cnt.n("a", "delete") != 0 {
		t.Fatalf("nothing should run after the failing dependent: %v", cnt.calls)
	}
}

func TestCascadeOverride(t *testing.T) {
	ctx := context.Background()
	cnt := newCounter()
	st := memStorage{"a": {"x": 1}, "b": {"x": 1}}
	ws := graph(t, NewManager(""), cnt, st, map[string][]string{
		"a": {"b"},
		"b": nil,
	})

	if _, err := ws["a"].Invalidate(ctx, Cascade(false)); err != nil {
		t.Fatal(err)
	}
	if cnt.n("b", "load") != 0 {
		t.Fatalf("Cascade(false) must not touch dependents")
	}

	// Load and Save do not cascade unless asked to
	if _, err := ws["a"].Load(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := ws["a"].Save(ctx); err != nil {
		t.Fatal(err)
	}
	if cnt.n("b", "load") != 0 || cnt.n("b", "save") != 0 {
		t.Fatalf("default Load/Save cascaded: %v", cnt.calls)
	}

	if _, err := ws["a"].Load(ctx, Cascade(true)); err != nil {
		t.Fatal(err)
	}
	if _, err := ws["a"].Save(ctx, Cascade(true)); err != nil {
		t.Fatal(err)
	}
	if cnt.n("b", "load") != 1 || cnt.n("b", "save") != 1 {
		t.Fatalf("Cascade(true) did not reach b: %v", cnt.calls)
	}
}

func TestCascadeReachesDifferentlyTypedDependents(t *testing.T) {
	ctx := context.Background()
	mgr := NewManager("")
	built := false
	newTestWrapper(t, mgr, "parent", func(o *Options[string, int]) {
		o.Dependents = []string{"labels"}
	})
	labels, err := New(ctx, Options[int, string]{
		Name:            "labels",
		Manager:         mgr,
		SkipInitialLoad: true,
		Callbacks: Callbacks[int, string]{
			Builder: func(context.Context, string) (Mapping[int, string], error) {
				built = true
				return Dict[int, string]{1: "one"}, nil
			},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	parent, _ := Lookup[string, int](mgr, "parent")
	if err := parent.InvalidateAndRebuild(ctx); err != nil {
		t.Fatal(err)
	}
	if !built || !labels.Has(1) {
		t.Fatalf("dependent of another type was not rebuilt")
	}
}

func TestSeparateCallsHaveSeparateSeenSets(t *testing.T) {
	ctx := context.Background()
	cnt := newCounter()
	ws := graph(t, NewManager(""), cnt, memStorage{}, map[string][]string{
		"a": {"b"},
		"b": nil,
	})
	for range 2 {
		if err := ws["a"].InvalidateAndRebuild(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if cnt.n("b", "build") != 2 {
		t.Fatalf("b built %d times across two calls", cnt.n("b", "build"))
	}
}
