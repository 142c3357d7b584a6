package auth

import (
	"errors"
	"testing"
)

// fakeAuthenticator returns a scripted verdict.
type fakeAuthenticator struct {
	verdict bool
	err     error
	calls   int
}

func (f *fakeAuthenticator) Authenticate(username string) (bool, error) {
	f.calls++
	return f.verdict, f.err
}

func TestGate_Success(t *testing.T) {
	fake := &fakeAuthenticator{verdict: true}
	g := NewGate(fake, DefaultGateConfig())

	if err := g.Verify("alice"); err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if fake.calls != 1 {
		t.Errorf("Expected one authentication attempt, got %d", fake.calls)
	}
}

func TestGate_NegativeVerdict(t *testing.T) {
	fake := &fakeAuthenticator{verdict: false}
	g := NewGate(fake, DefaultGateConfig())

	err := g.Verify("alice")
	if err == nil {
		t.Fatal("Expected authentication failure")
	}
	if !errors.Is(err, ErrAuthenticationFailed) {
		t.Errorf("Expected ErrAuthenticationFailed, got %v", err)
	}
}

func TestGate_CollaboratorFaultFailsClosed(t *testing.T) {
	fake := &fakeAuthenticator{err: errors.New("conversation aborted")}
	g := NewGate(fake, DefaultGateConfig())

	err := g.Verify("alice")
	if !errors.Is(err, ErrAuthenticationFailed) {
		t.Errorf("A collaborator fault is an authentication failure, got %v", err)
	}
}

func TestGate_NoRetryOnFailure(t *testing.T) {
	fake := &fakeAuthenticator{verdict: false}
	g := NewGate(fake, DefaultGateConfig())

	_ = g.Verify("alice")
	if fake.calls != 1 {
		t.Errorf("Verification must never retry, got %d attempts", fake.calls)
	}
}

func TestGate_Throttle(t *testing.T) {
	fake := &fakeAuthenticator{verdict: false}
	g := NewGate(fake, GateConfig{AttemptsPerMinute: 0.0001, Burst: 2})

	_ = g.Verify("alice")
	_ = g.Verify("alice")

	err := g.Verify("alice")
	if !errors.Is(err, ErrThrottled) {
		t.Errorf("Expected ErrThrottled after burst exhaustion, got %v", err)
	}
	if fake.calls != 2 {
		t.Errorf("Throttled attempts must not reach the collaborator, got %d", fake.calls)
	}
}
