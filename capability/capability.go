// Package capability models Linux capability sets and applies them to
// the live process under a minimal-privilege-window protocol.
package capability

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for capability handling.
var (
	// ErrInvalidName indicates a capability name could not be parsed.
	ErrInvalidName = errors.New("invalid capability name")

	// ErrNotHeld indicates the triple requests a capability the
	// process does not hold in its permitted set.
	ErrNotHeld = errors.New("capability not held by process")

	// ErrTransitionFailed indicates a step of the transition protocol
	// failed. The process must not continue after this error.
	ErrTransitionFailed = errors.New("capability transition failed")
)

// Canonical normalizes a capability name to libcap text form
// ("cap_sys_boot"). Both "CAP_SYS_BOOT" and "sys_boot" are accepted.
func Canonical(name string) (string, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return "", fmt.Errorf("%w: empty name", ErrInvalidName)
	}
	if !strings.HasPrefix(n, "cap_") {
		n = "cap_" + n
	}
	for _, c := range n {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '_' {
			return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
		}
	}
	return n, nil
}

// Set is an unordered collection of capability names in canonical form.
type Set struct {
	names map[string]struct{}
}

// NewSet builds a set from capability names, canonicalizing each.
func NewSet(names ...string) (Set, error) {
	s := Set{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		c, err := Canonical(n)
		if err != nil {
			return Set{}, err
		}
		s.names[c] = struct{}{}
	}
	return s, nil
}

// MustSet builds a set and panics on invalid names. Use only with
// known-good literals in tests.
func MustSet(names ...string) Set {
	s, err := NewSet(names...)
	if err != nil {
		panic(err)
	}
	return s
}

// Has reports whether the set contains the named capability.
func (s Set) Has(name string) bool {
	c, err := Canonical(name)
	if err != nil {
		return false
	}
	_, ok := s.names[c]
	return ok
}

// Len returns the number of capabilities in the set.
func (s Set) Len() int {
	return len(s.names)
}

// IsEmpty reports whether the set contains no capabilities.
func (s Set) IsEmpty() bool {
	return len(s.names) == 0
}

// Names returns the capability names in sorted order.
func (s Set) Names() []string {
	out := make([]string, 0, len(s.names))
	for n := range s.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// String renders the set as a comma-separated sorted list.
func (s Set) String() string {
	return strings.Join(s.Names(), ",")
}

// Triple is the inheritable/ambient/bounding capability state a
// decision grants to the target command.
//
// The ambient set must be a subset of the inheritable set; the kernel
// refuses ambient capabilities that are not also inheritable.
type Triple struct {
	Inheritable Set
	Ambient     Set
	Bounding    Set
}

// Granted returns every capability the triple would hand to the child,
// the union of the inheritable and ambient sets.
func (t Triple) Granted() Set {
	out := Set{names: make(map[string]struct{}, t.Inheritable.Len()+t.Ambient.Len())}
	for n := range t.Inheritable.names {
		out.names[n] = struct{}{}
	}
	for n := range t.Ambient.names {
		out.names[n] = struct{}{}
	}
	return out
}

// Validate checks internal consistency of the triple.
func (t Triple) Validate() error {
	for _, n := range t.Ambient.Names() {
		if !t.Inheritable.Has(n) {
			return fmt.Errorf("%w: ambient %s not in inheritable set", ErrInvalidName, n)
		}
	}
	return nil
}

// String renders the triple for diagnostics and rights reporting.
func (t Triple) String() string {
	return fmt.Sprintf("i=[%s] a=[%s] b=[%s]", t.Inheritable, t.Ambient, t.Bounding)
}
