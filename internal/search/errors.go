package search

import "fmt"

// MissingPropertyError reports a mandatory property absent from the input
// set. The supervising process injects the search port before launch, so
// its absence is surfaced through this distinct type rather than a generic
// configuration error.
type MissingPropertyError struct {
	Key string
}

func (e *MissingPropertyError) Error() string {
	return fmt.Sprintf("property %q is not set", e.Key)
}
