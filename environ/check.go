package environ

import "strings"

// maxTZLength bounds checked TZ values, matching PATH_MAX on Linux.
const maxTZLength = 4096

// CheckValue reports whether a checked variable's value is safe to
// propagate into a privileged exec. Values that could redirect
// dynamic linking, shell behavior, or locale-driven code paths are
// rejected.
func CheckValue(name, value string) bool {
	if name == "" || value == "" {
		return false
	}
	if name == "TZ" {
		return tzIsSafe(value)
	}
	return !strings.ContainsAny(value, "/%")
}

// tzIsSafe validates a TZ value. tzcode treats a value beginning with
// ':' as a path, so the check applies to the remainder: no absolute
// paths, no '..' path elements, printable non-space ASCII only, and a
// bounded length.
func tzIsSafe(value string) bool {
	v := strings.TrimPrefix(value, ":")

	if strings.HasPrefix(v, "/") {
		return false
	}

	lastch := byte('/')
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c <= ' ' || c > '~' {
			return false
		}
		if lastch == '/' && c == '.' && i+1 < len(v) && v[i+1] == '.' &&
			(i+2 == len(v) || v[i+2] == '/') {
			return false
		}
		lastch = c
	}

	return len(v) < maxTZLength
}
