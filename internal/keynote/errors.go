package keynote

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrNotFound is the sentinel every LookupError unwraps to.
var ErrNotFound = errors.New("not found")

// ErrEmptySlide is returned when a slide has no content to title it.
var ErrEmptySlide = errors.New("slide has no content")

// LookupError reports a reference in the document graph that could not be
// resolved. The document cannot be rendered when one occurs.
type LookupError struct {
	Kind string // "entry", "proxy", "slide flags" or "slide"
	Key  string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Kind, e.Key, ErrNotFound)
}

func (e *LookupError) Unwrap() error {
	return ErrNotFound
}

func lookupID(kind string, id uint64) *LookupError {
	return &LookupError{Kind: kind, Key: strconv.FormatUint(id, 10)}
}
