package cachewrap

// DefaultRoot is the storage root used when neither the persistent options
// nor the manager name one.
const DefaultRoot = ".cache"

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
