// Package command resolves a requested command to a concrete
// executable and replaces the process image with it.
package command

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/victoralfred/caprun/environ"
)

// Sentinel errors for command resolution.
var (
	// ErrNotFound indicates no executable candidate was found.
	ErrNotFound = errors.New("command not found")

	// ErrPathTooLong indicates canonicalization would exceed the
	// maximum path length.
	ErrPathTooLong = errors.New("path too long")
)

// Resolved is a requested command bound to a concrete absolute path
// that was executable at resolution time.
type Resolved struct {
	// Requested is the name as given on the command line.
	Requested string

	// Path is the resolved absolute path.
	Path string
}

// Resolve locates the executable for a requested name. The canonical,
// symlink-resolved path is preferred when it exists and is executable;
// otherwise each directory of the secured search path is tried in
// order and the first executable candidate wins.
func Resolve(requested string, searchPath environ.SecuredPath) (Resolved, error) {
	if len(requested) >= unix.PathMax {
		return Resolved{}, fmt.Errorf("%w: %q", ErrPathTooLong, truncateForDiag(requested))
	}

	if abs, err := filepath.Abs(requested); err == nil {
		canonical, cerr := filepath.EvalSymlinks(abs)
		if cerr == nil {
			if len(canonical) >= unix.PathMax {
				return Resolved{}, fmt.Errorf("%w: %q", ErrPathTooLong, truncateForDiag(requested))
			}
			if executable(canonical) {
				return Resolved{Requested: requested, Path: canonical}, nil
			}
		}
	}

	for _, dir := range searchPath {
		candidate := filepath.Join(dir, requested)
		if executable(candidate) {
			return Resolved{Requested: requested, Path: candidate}, nil
		}
	}

	return Resolved{}, fmt.Errorf("%w: %s", ErrNotFound, requested)
}

// executable reports whether the path is a regular file executable by
// the current effective privileges.
func executable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	return unix.Access(path, unix.X_OK) == nil
}

// truncateForDiag bounds over-long names in diagnostics.
func truncateForDiag(s string) string {
	const limit = 64
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
