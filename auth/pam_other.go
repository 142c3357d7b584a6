//go:build !linux || !cgo

package auth

import "errors"

// ErrPAMUnavailable is returned where the PAM stack cannot be linked.
var ErrPAMUnavailable = errors.New("PAM authentication unavailable on this platform")

// PAMAuthenticator is a stub where PAM is unavailable; every
// verification fails closed.
type PAMAuthenticator struct {
	Service string
}

// NewPAMAuthenticator creates the stub authenticator.
func NewPAMAuthenticator(service string) *PAMAuthenticator {
	return &PAMAuthenticator{Service: service}
}

// Authenticate implements Authenticator.
func (a *PAMAuthenticator) Authenticate(username string) (bool, error) {
	return false, ErrPAMUnavailable
}
