// Package match provides wildcard name matching shared by the policy
// and environment packages.
package match

import (
	"regexp"
	"strings"
)

// Pattern is a compiled wildcard pattern. The only metacharacter is
// '*', which matches any (possibly empty) sequence.
type Pattern struct {
	raw string
	re  *regexp.Regexp
}

// Compile compiles a wildcard pattern. A pattern without '*' compiles
// to an exact-match pattern.
func Compile(pattern string) (*Pattern, error) {
	escaped := regexp.QuoteMeta(pattern)
	escaped = strings.ReplaceAll(escaped, "\\*", ".*")
	re, err := regexp.Compile("^" + escaped + "$")
	if err != nil {
		return nil, err
	}
	return &Pattern{raw: pattern, re: re}, nil
}

// Match reports whether s matches the pattern.
func (p *Pattern) Match(s string) bool {
	return p.re.MatchString(s)
}

// String returns the original pattern text.
func (p *Pattern) String() string {
	return p.raw
}

// IsLiteral reports whether the pattern contains no wildcard and
// therefore only matches itself.
func (p *Pattern) IsLiteral() bool {
	return !strings.Contains(p.raw, "*")
}

// List is an ordered collection of compiled patterns.
type List []*Pattern

// CompileAll compiles every pattern, failing on the first invalid one.
func CompileAll(patterns []string) (List, error) {
	list := make(List, 0, len(patterns))
	for _, p := range patterns {
		cp, err := Compile(p)
		if err != nil {
			return nil, err
		}
		list = append(list, cp)
	}
	return list, nil
}

// Match reports whether s matches any pattern in the list.
func (l List) Match(s string) bool {
	for _, p := range l {
		if p.Match(s) {
			return true
		}
	}
	return false
}
