// Package auth verifies the resolved identity before any privileged
// state is touched. Credential verification itself is delegated to an
// Authenticator collaborator; this package only consumes the verdict.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/time/rate"
)

// Sentinel errors for authentication.
var (
	// ErrAuthenticationFailed indicates the collaborator rejected the
	// identity, or the operator aborted the interaction.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrThrottled indicates too many recent attempts.
	ErrThrottled = errors.New("authentication attempts throttled")
)

// Authenticator verifies a username. Implementations may block on
// interactive operator input. An abort is reported as a false verdict,
// identical to a failure.
type Authenticator interface {
	Authenticate(username string) (bool, error)
}

// GateConfig configures the authentication gate.
type GateConfig struct {
	// AttemptsPerMinute bounds verification attempts.
	AttemptsPerMinute float64

	// Burst is the attempt burst size.
	Burst int
}

// DefaultGateConfig returns the default gate configuration.
func DefaultGateConfig() GateConfig {
	return GateConfig{AttemptsPerMinute: 6, Burst: 3}
}

// Gate wraps an Authenticator with attempt throttling. The throttle
// only limits how often verification may start; a single invocation
// never retries a failed verification.
type Gate struct {
	auth    Authenticator
	limiter *rate.Limiter
}

// NewGate creates a gate over the authenticator.
func NewGate(a Authenticator, cfg GateConfig) *Gate {
	return &Gate{
		auth:    a,
		limiter: rate.NewLimiter(rate.Limit(cfg.AttemptsPerMinute/60), cfg.Burst),
	}
}

// Verify authenticates the username, failing closed on any error or
// negative verdict.
func (g *Gate) Verify(username string) error {
	if !g.limiter.Allow() {
		return ErrThrottled
	}

	ok, err := g.auth.Authenticate(username)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}
	if !ok {
		return ErrAuthenticationFailed
	}
	return nil
}
