// Package props holds the property set a spyglass process is launched with.
//
// Properties are flat, dot-separated string key/value pairs supplied by the
// host application: a config file under the conf directory layered with
// SPYGLASS_* environment overrides. The set is snapshotted once at process
// entry and is read-only afterwards; both the settings resolver and the
// process launcher receive a *PropertySet and never consult the environment
// themselves.
//
// Lookup distinguishes "absent" from "set to an empty string"; several
// resolution rules (node naming, cluster membership) depend on that
// difference.
package props

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// PropertySet is an immutable string key/value mapping.
type PropertySet struct {
	values map[string]string
}

// New builds a PropertySet from a plain map. The map is copied, so later
// mutation of the argument does not leak into the set.
func New(values map[string]string) *PropertySet {
	copied := make(map[string]string, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return &PropertySet{values: copied}
}

// Has reports whether key is present, even when its value is empty.
func (p *PropertySet) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

// Value returns the value for key, or "" when the key is absent.
func (p *PropertySet) Value(key string) string {
	return p.values[key]
}

// ValueDefault returns the value for key, or def when the key is absent.
// An explicitly set empty value wins over the default.
func (p *PropertySet) ValueDefault(key, def string) string {
	if v, ok := p.values[key]; ok {
		return v
	}
	return def
}

// Int parses the value for key as a base-10 integer. Absent keys are an
// error; callers that need to tell "absent" apart from "malformed" check
// Has first.
func (p *PropertySet) Int(key string) (int, error) {
	v, ok := p.values[key]
	if !ok {
		return 0, fmt.Errorf("property %q is not set", key)
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("property %q is not an integer: %q", key, v)
	}
	return n, nil
}

// Bool reads the value for key as a boolean: a present value counts as true
// exactly when it equals "true" ignoring case and surrounding whitespace.
// Absent keys return def. Parsing never fails.
func (p *PropertySet) Bool(key string, def bool) bool {
	v, ok := p.values[key]
	if !ok {
		return def
	}
	return strings.EqualFold(strings.TrimSpace(v), "true")
}

// Keys returns all property keys in sorted order.
func (p *PropertySet) Keys() []string {
	keys := make([]string, 0, len(p.values))
	for k := range p.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
