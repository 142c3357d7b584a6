// Package identity resolves the invoking user and group memberships.
package identity

import (
	"errors"
	"fmt"
	"os/user"
	"strconv"
)

// Sentinel errors for identity resolution.
var (
	// ErrUserLookup indicates the invoking user could not be resolved.
	ErrUserLookup = errors.New("unable to resolve invoking user")

	// ErrGroupLookup indicates group memberships could not be resolved.
	ErrGroupLookup = errors.New("unable to resolve group memberships")
)

// Identity is the resolved invoking identity. It is immutable once
// resolved and owned by the invocation that created it.
type Identity struct {
	// Username is the canonical login name.
	Username string

	// UID is the numeric user id.
	UID int

	// GID is the primary group id.
	GID int
}

// Resolver looks up identity information from the system databases.
type Resolver interface {
	// UsernameFor resolves the canonical username for a uid.
	UsernameFor(uid int) (string, error)

	// GroupNamesFor resolves the ordered group names for a user.
	// The primary group is first; the remainder preserve the system
	// lookup order.
	GroupNamesFor(username string, primaryGID int) ([]string, error)
}

// OSResolver resolves identities from the operating system user and
// group databases.
type OSResolver struct{}

// NewOSResolver creates a resolver backed by the system databases.
func NewOSResolver() *OSResolver {
	return &OSResolver{}
}

// UsernameFor implements Resolver.UsernameFor.
func (r *OSResolver) UsernameFor(uid int) (string, error) {
	u, err := user.LookupId(strconv.Itoa(uid))
	if err != nil {
		return "", fmt.Errorf("%w: uid %d: %v", ErrUserLookup, uid, err)
	}
	return u.Username, nil
}

// GroupNamesFor implements Resolver.GroupNamesFor.
func (r *OSResolver) GroupNamesFor(username string, primaryGID int) ([]string, error) {
	u, err := user.Lookup(username)
	if err != nil {
		return nil, fmt.Errorf("%w: user %s: %v", ErrGroupLookup, username, err)
	}

	ids, err := u.GroupIds()
	if err != nil {
		return nil, fmt.Errorf("%w: user %s: %v", ErrGroupLookup, username, err)
	}

	primary := strconv.Itoa(primaryGID)
	names := make([]string, 0, len(ids)+1)
	seen := make(map[string]bool, len(ids)+1)

	// The primary group leads the list so that reporting stays
	// deterministic regardless of the supplementary lookup order.
	g, err := user.LookupGroupId(primary)
	if err != nil {
		return nil, fmt.Errorf("%w: gid %s: %v", ErrGroupLookup, primary, err)
	}
	names = append(names, g.Name)
	seen[g.Name] = true

	for _, id := range ids {
		g, err := user.LookupGroupId(id)
		if err != nil {
			return nil, fmt.Errorf("%w: gid %s: %v", ErrGroupLookup, id, err)
		}
		if seen[g.Name] {
			continue
		}
		names = append(names, g.Name)
		seen[g.Name] = true
	}

	return names, nil
}

// Resolve builds the full Identity plus group list for a uid/gid pair.
func Resolve(r Resolver, uid, gid int) (Identity, []string, error) {
	name, err := r.UsernameFor(uid)
	if err != nil {
		return Identity{}, nil, err
	}

	groups, err := r.GroupNamesFor(name, gid)
	if err != nil {
		return Identity{}, nil, err
	}

	return Identity{Username: name, UID: uid, GID: gid}, groups, nil
}
