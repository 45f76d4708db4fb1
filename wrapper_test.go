package cachewrap

import (
	"context"
	"errors"
	"iter"
	"maps"
	"strings"
	"testing"
)

// counter records how often each callback ran for each cache.
type counter struct {
	calls map[string]int // "<cache>.<callback>" -> count
	order []string       // "<cache>.<callback>" in call order
}

func newCounter() *counter { return &counter{calls: make(map[string]int)} }

func (c *counter) hit(cache, cb string) {
	k := cache + "." + cb
	c.calls[k]++
	c.order = append(c.order, k)
}

func (c *counter) n(cache, cb string) int { return c.calls[cache+"."+cb] }

// memStorage is an in-memory persisted side keyed by cache name.
type memStorage map[string]Dict[string, int]

// callbacks wires every lifecycle callback to st and records calls in cnt.
func callbacks(cnt *counter, st memStorage) Callbacks[string, int] {
	return Callbacks[string, int]{
		Loader: func(_ context.Context, name string) (Mapping[string, int], error) {
			cnt.hit(name, "load")
			d, ok := st[name]
			if !ok {
				return nil, nil
			}
			return maps.Clone(d), nil
		},
		Saver: func(_ context.Context, name string, m Mapping[string, int]) (Mapping[string, int], error) {
			cnt.hit(name, "save")
			if m != nil {
				st[name] = maps.Clone(ToDict(m))
			}
			return nil, nil
		},
		Builder: func(_ context.Context, name string) (Mapping[string, int], error) {
			cnt.hit(name, "build")
			return Dict[string, int]{"built": 1}, nil
		},
		Deleter: func(_ context.Context, name string) error {
			cnt.hit(name, "delete")
			delete(st, name)
			return nil
		},
	}
}

func newTestWrapper(t *testing.T, mgr *Manager, name string, mutate func(*Options[string, int])) *Wrapper[string, int] {
	t.Helper()
	opts := Options[string, int]{
		Name:            name,
		Manager:         mgr,
		SkipInitialLoad: true,
	}
	if mutate != nil {
		mutate(&opts)
	}
	w, err := New(context.Background(), opts)
	if err != nil {
		t.Fatalf("New(%s): %v", name, err)
	}
	return w
}

func TestNewRequiresName(t *testing.T) {
	if _, err := New(context.Background(), Options[string, int]{Manager: NewManager("")}); !errors.Is(err, ErrNameRequired) {
		t.Fatalf("expected ErrNameRequired, got %v", err)
	}
}

func TestNewRegistersOnce(t *testing.T) {
	mgr := NewManager("")
	first := newTestWrapper(t, mgr, "users", nil)
	second := newTestWrapper(t, mgr, "users", nil)

	got, ok := mgr.Lookup("users")
	if !ok || got != Cache(first) {
		t.Fatalf("first registrant should stay registered, got %v", got)
	}
	if got == Cache(second) {
		t.Fatalf("second wrapper must not replace the first")
	}
	if w, ok := Lookup[string, int](mgr, "users"); !ok || w != first {
		t.Fatalf("typed Lookup returned %v, %v", w, ok)
	}
	if _, ok := Lookup[string, string](mgr, "users"); ok {
		t.Fatalf("typed Lookup must fail for a different V")
	}
}

func TestNewWithoutContentsRunsLoadOrBuild(t *testing.T) {
	cnt := newCounter()
	st := memStorage{}
	w, err := New(context.Background(), Options[string, int]{
		Name:      "users",
		Manager:   NewManager(""),
		Callbacks: callbacks(cnt, st),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if cnt.n("users", "load") != 1 || cnt.n("users", "build") != 1 || cnt.n("users", "save") != 1 {
		t.Fatalf("unexpected calls %v", cnt.calls)
	}
	if w.State() != Loaded {
		t.Fatalf("state = %v, want loaded", w.State())
	}
	if v, ok, err := w.Get("built"); err != nil || !ok || v != 1 {
		t.Fatalf("Get(built) = %v %v %v", v, ok, err)
	}
	if _, ok := st["users"]; !ok {
		t.Fatalf("build must be followed by a save")
	}
}

func TestNewWithContentsSkipsLoad(t *testing.T) {
	cnt := newCounter()
	w, err := New(context.Background(), Options[string, int]{
		Name:      "users",
		Manager:   NewManager(""),
		Contents:  Dict[string, int]{"a": 1},
		Callbacks: callbacks(cnt, memStorage{}),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(cnt.calls) != 0 {
		t.Fatalf("no callback should run, got %v", cnt.calls)
	}
	if w.State() != Loaded {
		t.Fatalf("state = %v, want loaded", w.State())
	}
}

func TestMappingProxy(t *testing.T) {
	w := newTestWrapper(t, NewManager(""), "users", func(o *Options[string, int]) {
		o.Contents = Dict[string, int]{"a": 1}
	})

	if !w.Has("a") || w.Has("b") {
		t.Fatalf("Has mismatch")
	}
	if err := w.Set("b", 2); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if n, err := w.Len(); err != nil || n != 2 {
		t.Fatalf("Len = %d, %v", n, err)
	}
	if err := w.Delete("a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	seq, err := w.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	got := maps.Collect(seq)
	if len(got) != 1 || got["b"] != 2 {
		t.Fatalf("All = %v", got)
	}
	if v, ok, err := w.Get("missing"); err != nil || ok || v != 0 {
		t.Fatalf("Get(missing) = %v %v %v", v, ok, err)
	}
	// mutations through the wrapper are visible through Contents and vice versa
	w.Contents().Set("c", 3)
	if !w.Has("c") {
		t.Fatalf("Contents() must expose the live mapping")
	}
}

func TestItemOpsFailWhenContentsAbsent(t *testing.T) {
	w := newTestWrapper(t, NewManager(""), "users", nil)
	if w.State() != Unloaded || w.Contents() != nil {
		t.Fatalf("expected Unloaded wrapper")
	}
	if w.Has("a") {
		t.Fatalf("Has must be false on absent contents")
	}

	checks := map[string]error{}
	_, _, checks["get"] = w.Get("a")
	checks["set"] = w.Set("a", 1)
	checks["delete"] = w.Delete("a")
	_, checks["len"] = w.Len()
	_, checks["all"] = w.All()

	for op, err := range checks {
		var cae *ContentsAbsentError
		if !errors.As(err, &cae) || cae.Cache != "users" {
			t.Fatalf("%s: expected ContentsAbsentError for users, got %v", op, err)
		}
		if !errors.Is(err, ErrContentsAbsent) {
			t.Fatalf("%s: errors.Is(ErrContentsAbsent) failed", op)
		}
		if !strings.Contains(err.Error(), `"users"`) {
			t.Fatalf("%s: message must name the cache: %v", op, err)
		}
	}
}

// ordered is a richer contents type with behavior beyond Mapping.
type ordered struct {
	Dict[string, int]
	keys []string
}

func (o *ordered) Set(k string, v int) {
	if _, ok := o.Dict[k]; !ok {
		o.keys = append(o.keys, k)
	}
	o.Dict[k] = v
}

func (o *ordered) Keys() []string { return o.keys }

func (o *ordered) All() iter.Seq2[string, int] {
	return func(yield func(string, int) bool) {
		for _, k := range o.keys {
			if !yield(k, o.Dict[k]) {
				return
			}
		}
	}
}

type keyer interface{ Keys() []string }

func TestAsReachesContentsCapabilities(t *testing.T) {
	o := &ordered{Dict: Dict[string, int]{}}
	w := newTestWrapper(t, NewManager(""), "ordered", func(opts *Options[string, int]) {
		opts.Contents = o
	})
	_ = w.Set("z", 1)
	_ = w.Set("a", 2)

	k, err := As[keyer](w)
	if err != nil {
		t.Fatalf("As[keyer]: %v", err)
	}
	if got := k.Keys(); len(got) != 2 || got[0] != "z" || got[1] != "a" {
		t.Fatalf("Keys = %v", got)
	}

	// the wrapper's own capabilities come first
	if n, err := As[Named](w); err != nil || n.Name() != "ordered" {
		t.Fatalf("As[Named] = %v, %v", n, err)
	}
}

func TestAsUnknownAttribute(t *testing.T) {
	w := newTestWrapper(t, NewManager(""), "plain", func(o *Options[string, int]) {
		o.Contents = Dict[string, int]{}
	})
	_, err := As[keyer](w)
	var uae *UnknownAttributeError
	if !errors.As(err, &uae) || !errors.Is(err, ErrUnknownAttribute) {
		t.Fatalf("expected UnknownAttributeError, got %v", err)
	}
	msg := err.Error()
	for _, want := range []string{`"plain"`, "*cachewrap.Wrapper[string,int]", "cachewrap.Dict[string,int]", "cachewrap.keyer"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message %q should mention %q", msg, want)
		}
	}

	absent := newTestWrapper(t, NewManager(""), "absent", nil)
	if _, err := As[keyer](absent); err == nil || !strings.Contains(err.Error(), "<nil>") {
		t.Fatalf("expected <nil> contents type in %v", err)
	}
}

func TestAddDependentIdempotent(t *testing.T) {
	mgr := NewManager("")
	a := newTestWrapper(t, mgr, "a", func(o *Options[string, int]) { o.Dependents = []string{"b"} })
	c := newTestWrapper(t, mgr, "c", nil)

	a.AddDependent("b", "b")
	a.AddDependentCache(c, c)
	got := a.Dependents()
	if len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Fatalf("Dependents = %v", got)
	}
	if names := Names(a, c); len(names) != 2 || names[0] != "a" || names[1] != "c" {
		t.Fatalf("Names = %v", names)
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{Unloaded: "unloaded", Loaded: "loaded", Building: "building", State(9): "State(9)"} {
		if s.String() != want {
			t.Fatalf("%d.String() = %q, want %q", s, s.String(), want)
		}
	}
}
