// Package cachewrap implements reference-stable cache wrappers: a Wrapper behaves
// like the mapping it holds, while its contents can be reloaded, rebuilt,
// invalidated or purged from storage without ever replacing the Wrapper itself.
// Anything holding a *Wrapper keeps working after the underlying data is swapped.
//
// Components:
//   - Wrapper[K, V]: mapping proxy plus the lifecycle state machine
//     (Unloaded, Loaded, Building) driven by pluggable Callbacks.
//   - Registry: name -> cache lookup. Dependents are stored by name and resolved
//     through the registry on demand; unknown names are skipped.
//   - Storage[K, V]: persisted mapping keyed by (root, name). See package store for
//     the Provider + Codec implementation.
//
// Cascading operations walk the dependency graph depth first and visit every
// cache at most once per call, so cyclic and diamond-shaped graphs are fine:
//
//	users, _ := cachewrap.NewPersistent(ctx, cachewrap.Options[string, User]{
//	    Name:    "users",
//	    Manager: mgr,
//	}, st)
//	defer users.Close(ctx)
//
//	_ = users.InvalidateAndRebuild(ctx) // users and every dependent rebuild once
//
// Wrappers are not safe for concurrent use. Manager is.
package cachewrap
