package cachewrap

// Hooks are lightweight callbacks for high-signal lifecycle events.
// Implementations MUST be cheap and non-blocking; wrap slow sinks with
// hooks/async.
type Hooks interface {
	// The loader returned nothing for the cache.
	LoadMiss(cache string)

	// The validator rejected loaded contents; the cache is left Unloaded.
	LoadRejected(cache string)

	// Contents were built from scratch (builder or empty mapping).
	Built(cache string)

	// A cascade skipped a dependent that is not registered.
	DependentMissing(cache, dependent string)

	// Persisted content was unreadable and removed.
	// reason ∈ {"corrupt", "stale_gen", "decode"}
	StoreSelfHeal(cache, reason string)

	// The save performed while closing a wrapper failed.
	FinalizeError(cache string, err error)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) LoadMiss(string)                 {}
func (NopHooks) LoadRejected(string)             {}
func (NopHooks) Built(string)                    {}
func (NopHooks) DependentMissing(string, string) {}
func (NopHooks) StoreSelfHeal(string, string)    {}
func (NopHooks) FinalizeError(string, error)     {}
