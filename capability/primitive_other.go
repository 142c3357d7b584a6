//go:build !linux

package capability

import "errors"

// ErrUnsupported is returned on platforms without Linux capabilities.
var ErrUnsupported = errors.New("capability transition unsupported on this platform")

// OSPrimitive is a stub on non-Linux platforms; every method fails.
type OSPrimitive struct{}

// NewOSPrimitive creates the stub primitive.
func NewOSPrimitive() *OSPrimitive {
	return &OSPrimitive{}
}

// Apply implements Primitive.Apply.
func (p *OSPrimitive) Apply(t Triple) error { return ErrUnsupported }

// SetMetaPrivilege implements Primitive.SetMetaPrivilege.
func (p *OSPrimitive) SetMetaPrivilege(enable bool) error { return ErrUnsupported }

// ActivateNoRootLockdown implements Primitive.ActivateNoRootLockdown.
func (p *OSPrimitive) ActivateNoRootLockdown() error { return ErrUnsupported }
