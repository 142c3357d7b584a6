//go:build linux

package capability

import (
	"fmt"

	"golang.org/x/sys/unix"
	"kernel.org/pub/linux/libs/security/libcap/cap"
)

// OSPrimitive manipulates the real process capability state through
// libcap. All methods affect the calling process only.
type OSPrimitive struct{}

// NewOSPrimitive creates the libcap-backed primitive.
func NewOSPrimitive() *OSPrimitive {
	return &OSPrimitive{}
}

// SetMetaPrivilege implements Primitive.SetMetaPrivilege by toggling
// CAP_SETPCAP in the effective set.
func (p *OSPrimitive) SetMetaPrivilege(enable bool) error {
	c := cap.GetProc()
	if err := c.SetFlag(cap.Effective, enable, cap.SETPCAP); err != nil {
		return fmt.Errorf("flagging cap_setpcap: %w", err)
	}
	if err := c.SetProc(); err != nil {
		return fmt.Errorf("setting process capabilities: %w", err)
	}
	return nil
}

// Apply implements Primitive.Apply. The triple is installed through a
// single IAB tuple write. Capabilities absent from the triple's
// bounding set are dropped from the process bounding set; a granted
// capability that is not in the permitted set is refused outright.
func (p *OSPrimitive) Apply(t Triple) error {
	cur := cap.GetProc()
	for _, name := range t.Granted().Names() {
		val, err := cap.FromName(name)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidName, name)
		}
		held, err := cur.GetFlag(cap.Permitted, val)
		if err != nil {
			return fmt.Errorf("querying permitted set: %w", err)
		}
		if !held {
			return fmt.Errorf("%w: %s", ErrNotHeld, name)
		}
	}

	iab := cap.NewIAB()

	for _, name := range t.Inheritable.Names() {
		val, err := cap.FromName(name)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidName, name)
		}
		if err := iab.SetVector(cap.Inh, true, val); err != nil {
			return fmt.Errorf("building inheritable vector: %w", err)
		}
	}

	for _, name := range t.Ambient.Names() {
		val, err := cap.FromName(name)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidName, name)
		}
		// An ambient capability must also be inheritable.
		if err := iab.SetVector(cap.Inh, true, val); err != nil {
			return fmt.Errorf("building inheritable vector: %w", err)
		}
		if err := iab.SetVector(cap.Amb, true, val); err != nil {
			return fmt.Errorf("building ambient vector: %w", err)
		}
	}

	// The IAB bounding vector records deletions: everything outside
	// the triple's bounding set is marked for dropping.
	for val := cap.Value(0); val < cap.MaxBits(); val++ {
		if t.Bounding.Has(val.String()) {
			continue
		}
		if err := iab.SetVector(cap.Bound, true, val); err != nil {
			return fmt.Errorf("building bounding vector: %w", err)
		}
	}

	if err := iab.SetProc(); err != nil {
		return fmt.Errorf("installing capability triple: %w", err)
	}
	return nil
}

// ActivateNoRootLockdown implements Primitive.ActivateNoRootLockdown
// with locked securebits plus PR_SET_NO_NEW_PRIVS. Both attributes
// survive exec and cannot be cleared afterwards.
func (p *OSPrimitive) ActivateNoRootLockdown() error {
	secbits := cap.GetSecbits() | cap.SecbitNoRoot | cap.SecbitNoRootLocked
	if err := secbits.Set(); err != nil {
		return fmt.Errorf("setting securebits: %w", err)
	}
	if err := unix.Prctl(unix.PR_SET_NO_NEW_PRIVS, 1, 0, 0, 0); err != nil {
		return fmt.Errorf("setting no_new_privs: %w", err)
	}
	return nil
}
