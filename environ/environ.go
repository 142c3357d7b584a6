// Package environ filters the inherited environment and secures the
// executable search path for a privileged exec.
package environ

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/victoralfred/caprun/internal/match"
)

// ErrFilter indicates a system-level fault while filtering. An empty
// result is not an error.
var ErrFilter = errors.New("unable to filter environment variables")

// Var is a single name=value pair.
type Var struct {
	Name  string
	Value string
}

// Sanitized is the environment assembled for the child process. It is
// always a fresh allocation; the inherited block is never mutated.
// Entries are uniquely named and ordered by name so that a given input
// always produces the same output.
type Sanitized []Var

// Strings renders the environment as name=value pairs for the exec
// boundary.
func (s Sanitized) Strings() []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[i] = v.Name + "=" + v.Value
	}
	return out
}

// Lookup returns the value for a name and whether it is present.
func (s Sanitized) Lookup(name string) (string, bool) {
	for _, v := range s {
		if v.Name == name {
			return v.Value, true
		}
	}
	return "", false
}

// Filter builds the child environment from an inherited snapshot.
// A variable whose name matches keep propagates verbatim; one whose
// name matches check propagates only if its value passes the validator
// for that variable; everything else is dropped. Unlisted variables
// never reach the child.
func Filter(inherited []string, keep, check []string) (Sanitized, error) {
	keepList, err := match.CompileAll(keep)
	if err != nil {
		return nil, fmt.Errorf("%w: keep pattern: %v", ErrFilter, err)
	}
	checkList, err := match.CompileAll(check)
	if err != nil {
		return nil, fmt.Errorf("%w: check pattern: %v", ErrFilter, err)
	}

	seen := make(map[string]bool, len(inherited))
	out := make(Sanitized, 0, len(inherited))

	for _, entry := range inherited {
		name, value, ok := strings.Cut(entry, "=")
		if !ok || name == "" {
			continue
		}
		// First occurrence wins for duplicated names.
		if seen[name] {
			continue
		}
		seen[name] = true

		switch {
		case keepList.Match(name):
			out = append(out, Var{Name: name, Value: value})
		case checkList.Match(name):
			if CheckValue(name, value) {
				out = append(out, Var{Name: name, Value: value})
			}
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
