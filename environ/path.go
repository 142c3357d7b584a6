package environ

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Sentinel errors for path securing.
var (
	// ErrEmptySearchPath indicates filtering left no usable search
	// directory while command resolution may still need one.
	ErrEmptySearchPath = errors.New("secured search path is empty")

	// ErrPathPolicy indicates an invalid path policy configuration.
	ErrPathPolicy = errors.New("invalid path policy")
)

// PathMode selects how the child's search path is produced.
type PathMode string

const (
	// PathFixed replaces the search path with a configured list. The
	// inherited PATH is never consulted. This is the default-safe
	// mode for privileged execution.
	PathFixed PathMode = "fixed"

	// PathFilteredInherit keeps inherited directories that pass the
	// trust checks, preserving their relative order.
	PathFilteredInherit PathMode = "filtered-inherit"
)

// PathPolicy configures search-path securing for a task.
type PathPolicy struct {
	Mode PathMode
	Dirs []string
}

// SecuredPath is an ordered list of validated directories.
type SecuredPath []string

// String joins the directories with the PATH delimiter.
func (p SecuredPath) String() string {
	return strings.Join(p, string(os.PathListSeparator))
}

// SecurePath produces the trusted search path for the child. Under a
// fixed policy the configured list is returned unconditionally. Under
// filtered-inherit, each inherited directory survives only if it is
// absolute, not the current directory, and not world-writable; an
// empty result is reported as ErrEmptySearchPath so the caller can
// decide whether a search is still needed.
func SecurePath(inherited string, policy PathPolicy) (SecuredPath, error) {
	switch policy.Mode {
	case PathFixed:
		out := make(SecuredPath, len(policy.Dirs))
		copy(out, policy.Dirs)
		return out, nil

	case PathFilteredInherit:
		var out SecuredPath
		for _, dir := range strings.Split(inherited, string(os.PathListSeparator)) {
			if trustedDir(dir) {
				out = append(out, dir)
			}
		}
		if len(out) == 0 {
			return nil, ErrEmptySearchPath
		}
		return out, nil

	default:
		return nil, fmt.Errorf("%w: unknown mode %q", ErrPathPolicy, policy.Mode)
	}
}

// trustedDir reports whether a single inherited PATH entry may be
// searched by a privileged process.
func trustedDir(dir string) bool {
	if dir == "" || dir == "." {
		return false
	}
	if !filepath.IsAbs(dir) {
		return false
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return false
	}
	if info.Mode().Perm()&0o002 != 0 {
		return false
	}
	return true
}
