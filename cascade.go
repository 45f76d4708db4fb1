package cachewrap

import "context"

// op selects the node-local action a traversal performs.
type op uint8

const (
	opLoad op = iota // also Invalidate
	opSave
	opDeleteSaved
	opInvalidateAndRebuild
	opLoadOrBuild
)

func (o op) String() string {
	switch o {
	case opLoad:
		return "load"
	case opSave:
		return "save"
	case opDeleteSaved:
		return "delete_saved_content"
	case opInvalidateAndRebuild:
		return "invalidate_and_rebuild"
	case opLoadOrBuild:
		return "load_or_build"
	default:
		return "unknown"
	}
}

// nodeFirst reports whether the op acts on a node before its dependents.
func (o op) nodeFirst() bool { return o == opInvalidateAndRebuild }

// outcome is what a node-local action produced. Only the root's outcome is
// returned to the caller.
type outcome struct {
	loaded   bool
	contents any
}

// traversal is one logical cascading call. seen is created once per top-level
// call and shared by every recursive visit.
type traversal struct {
	op      op
	cascade bool
	reg     Registry
	log     Logger
	hooks   Hooks
	seen    map[string]struct{}
}

func newTraversal(o op, cascade bool, reg Registry, log Logger, hooks Hooks) *traversal {
	return &traversal{
		op:      o,
		cascade: cascade,
		reg:     reg,
		log:     log,
		hooks:   hooks,
		seen:    make(map[string]struct{}),
	}
}

// visit runs the op on c and, when cascading, on every dependent reachable
// from c. visited is false if c was already seen in this traversal.
func (t *traversal) visit(ctx context.Context, c Cache) (out outcome, visited bool, err error) {
	name := c.Name()
	if _, ok := t.seen[name]; ok {
		return outcome{}, false, nil
	}
	t.seen[name] = struct{}{}

	if t.op.nodeFirst() {
		if out, err = c.step(ctx, t.op); err != nil {
			return out, true, err
		}
		return out, true, t.dependents(ctx, c)
	}

	if err = t.dependents(ctx, c); err != nil {
		return outcome{}, true, err
	}
	out, err = c.step(ctx, t.op)
	return out, true, err
}

func (t *traversal) dependents(ctx context.Context, c Cache) error {
	if !t.cascade {
		return nil
	}
	for _, d := range c.Dependents() {
		if _, ok := t.seen[d]; ok {
			continue
		}
		dc, ok := t.reg.Lookup(d)
		if !ok || dc == nil {
			t.log.Debug("dependent not registered; skipped", Fields{"cache": c.Name(), "dependent": d, "op": t.op.String()})
			t.hooks.DependentMissing(c.Name(), d)
			continue
		}
		if _, _, err := t.visit(ctx, dc); err != nil {
			return err
		}
	}
	return nil
}
