package cachewrap

import (
	"errors"
	"fmt"
)

var (
	ErrNameRequired     = errors.New("cachewrap: name is required")
	ErrContentsAbsent   = errors.New("cachewrap: contents absent")
	ErrUnknownAttribute = errors.New("cachewrap: unknown attribute")
)

// ContentsAbsentError is returned by item-level operations on a Wrapper
// whose contents are not loaded.
type ContentsAbsentError struct {
	Cache string
}

func (e *ContentsAbsentError) Error() string {
	return fmt.Sprintf("cachewrap: no cache contents defined for %q", e.Cache)
}

func (e *ContentsAbsentError) Is(target error) bool { return target == ErrContentsAbsent }

// UnknownAttributeError is returned by As when neither the wrapper nor its
// contents provide the requested capability.
type UnknownAttributeError struct {
	Cache     string
	Wrapper   string // wrapper type
	Contents  string // contents type, "<nil>" when absent
	Attribute string // requested capability type
}

func (e *UnknownAttributeError) Error() string {
	return fmt.Sprintf("cachewrap: cache %q: %s and %s have no attribute %s",
		e.Cache, e.Wrapper, e.Contents, e.Attribute)
}

func (e *UnknownAttributeError) Is(target error) bool { return target == ErrUnknownAttribute }
