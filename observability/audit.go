package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/victoralfred/gowritter/safepath"
)

// AuditLogger provides immutable audit logging. A privilege launcher
// records every invocation outcome before the process image is
// replaced or the process exits.
type AuditLogger interface {
	// Log logs an audit event.
	Log(ctx context.Context, event *AuditEvent) error

	// Close closes the audit logger.
	Close() error
}

// AuditEvent represents an audit log entry for one invocation.
type AuditEvent struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Type      AuditEventType `json:"type"`
	User      string         `json:"user"`
	Groups    []string       `json:"groups,omitempty"`
	Role      string         `json:"role,omitempty"`
	Task      string         `json:"task,omitempty"`
	Command   string         `json:"command"`
	Args      []string       `json:"args,omitempty"`
	Resolved  string         `json:"resolved,omitempty"`
	Caps      string         `json:"caps,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// AuditEventType represents the type of audit event.
type AuditEventType string

const (
	// AuditEventExec records a successful transition up to exec.
	AuditEventExec AuditEventType = "exec"

	// AuditEventPolicyDenied records a policy denial.
	AuditEventPolicyDenied AuditEventType = "policy_denied"

	// AuditEventAuthFailure records a failed authentication.
	AuditEventAuthFailure AuditEventType = "auth_failure"

	// AuditEventInfo records an info-mode rights query.
	AuditEventInfo AuditEventType = "info"

	// AuditEventError records any other fatal pipeline error.
	AuditEventError AuditEventType = "error"
)

// AuditLogLevel determines what events to log.
type AuditLogLevel string

const (
	// AuditLogAll logs all events.
	AuditLogAll AuditLogLevel = "all"

	// AuditLogFailures logs only failures.
	AuditLogFailures AuditLogLevel = "failures"
)

// AuditConfig configures the audit logger.
type AuditConfig struct {
	Enabled  bool
	LogLevel AuditLogLevel
	BasePath string
	FilePath string
}

// DefaultAuditConfig returns default audit configuration.
func DefaultAuditConfig() AuditConfig {
	return AuditConfig{
		Enabled:  true,
		LogLevel: AuditLogAll,
		BasePath: "/var/log",
		FilePath: "caprun/audit.log",
	}
}

// NewAuditEvent creates an event with a fresh ID and timestamp.
func NewAuditEvent(typ AuditEventType, user, command string) *AuditEvent {
	return &AuditEvent{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Type:      typ,
		User:      user,
		Command:   command,
	}
}

// fileAuditLogger implements AuditLogger using gowritter.
type fileAuditLogger struct {
	safePath *safepath.SafePath
	config   AuditConfig
	mu       sync.Mutex
}

// NewFileAuditLogger creates a new file-based audit logger.
func NewFileAuditLogger(config AuditConfig) (AuditLogger, error) {
	sp, err := safepath.New(config.BasePath)
	if err != nil {
		return nil, fmt.Errorf("creating safe path: %w", err)
	}

	return &fileAuditLogger{
		config:   config,
		safePath: sp,
	}, nil
}

// Log implements AuditLogger.Log.
func (l *fileAuditLogger) Log(ctx context.Context, event *AuditEvent) error {
	if !l.config.Enabled {
		return nil
	}

	if !l.shouldLog(event) {
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling audit event: %w", err)
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.safePath.AppendFile(l.config.FilePath, data, 0o600); err != nil {
		return fmt.Errorf("writing audit log: %w", err)
	}

	return nil
}

// Close implements AuditLogger.Close.
func (l *fileAuditLogger) Close() error {
	return nil
}

func (l *fileAuditLogger) shouldLog(event *AuditEvent) bool {
	switch l.config.LogLevel {
	case AuditLogAll:
		return true
	case AuditLogFailures:
		return event.Type != AuditEventExec && event.Type != AuditEventInfo
	default:
		return true
	}
}

// NoopAuditLogger returns a no-op audit logger.
func NoopAuditLogger() AuditLogger {
	return &noopAuditLogger{}
}

type noopAuditLogger struct{}

func (l *noopAuditLogger) Log(ctx context.Context, event *AuditEvent) error { return nil }
func (l *noopAuditLogger) Close() error                                     { return nil }
