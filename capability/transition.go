package capability

import "fmt"

// Primitive is the narrow OS interface for capability manipulation.
// Implementations must treat every call as irreversible: the caller
// never retries a failed privilege operation.
type Primitive interface {
	// Apply installs the full triple (inheritable, ambient, bounding)
	// atomically as one operation. It requires the meta-privilege to
	// be active in the effective set.
	Apply(t Triple) error

	// SetMetaPrivilege raises or lowers the capability that permits
	// changing the process's own capability sets.
	SetMetaPrivilege(enable bool) error

	// ActivateNoRootLockdown irreversibly prevents the process and its
	// descendants from regaining superuser privilege via set-id
	// execution. The attribute is inherited across exec.
	ActivateNoRootLockdown() error
}

// Transition applies a capability triple under the ordered protocol:
//
//  1. acquire the meta-privilege in the effective set
//  2. install the triple atomically
//  3. release the meta-privilege
//  4. if requested, activate the no-root lockdown
//
// Any failure aborts the sequence; the meta-privilege is never left
// active on a failure branch.
type Transition struct {
	prim Primitive
}

// NewTransition creates a transition over the given primitive.
func NewTransition(p Primitive) *Transition {
	return &Transition{prim: p}
}

// Apply runs the transition protocol. On error the process must exit;
// its capability state is not guaranteed to match either the old or
// the intended configuration.
func (tr *Transition) Apply(t Triple, noRoot bool) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrTransitionFailed, err)
	}

	if err := tr.prim.SetMetaPrivilege(true); err != nil {
		return fmt.Errorf("%w: acquiring meta-privilege: %v", ErrTransitionFailed, err)
	}

	applyErr := tr.prim.Apply(t)

	// The meta-privilege window closes unconditionally, even when the
	// install failed.
	dropErr := tr.prim.SetMetaPrivilege(false)

	if applyErr != nil {
		return fmt.Errorf("%w: installing capability triple: %v", ErrTransitionFailed, applyErr)
	}
	if dropErr != nil {
		return fmt.Errorf("%w: releasing meta-privilege: %v", ErrTransitionFailed, dropErr)
	}

	if noRoot {
		if err := tr.prim.ActivateNoRootLockdown(); err != nil {
			return fmt.Errorf("%w: activating no-root lockdown: %v", ErrTransitionFailed, err)
		}
	}

	return nil
}
