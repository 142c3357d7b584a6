package launcher

import (
	"errors"
	"fmt"
)

// Sentinel errors for the launch pipeline. Denial and transition
// failures reuse the sentinels of the packages that own them.
var (
	// ErrUsage indicates bad flags or a missing command. The caller
	// shows usage and exits zero.
	ErrUsage = errors.New("invalid usage")

	// ErrIdentityLookup indicates the invoking identity could not be
	// resolved.
	ErrIdentityLookup = errors.New("identity lookup failed")

	// ErrAuthentication indicates the identity could not be verified.
	ErrAuthentication = errors.New("authentication failed")
)

// ErrorCode provides structured error classification.
type ErrorCode string

const (
	// ErrCodeUsage indicates bad flags or arguments.
	ErrCodeUsage ErrorCode = "USAGE"

	// ErrCodeIdentity indicates an identity lookup failure.
	ErrCodeIdentity ErrorCode = "IDENTITY_LOOKUP_FAILED"

	// ErrCodeAuthentication indicates a failed authentication.
	ErrCodeAuthentication ErrorCode = "AUTHENTICATION_FAILED"

	// ErrCodePolicyDenied indicates a policy denial.
	ErrCodePolicyDenied ErrorCode = "POLICY_DENIED"

	// ErrCodeCapability indicates a capability transition failure.
	ErrCodeCapability ErrorCode = "CAPABILITY_APPLICATION_FAILED"

	// ErrCodeEnvironment indicates an environment filtering failure.
	ErrCodeEnvironment ErrorCode = "ENVIRONMENT_FILTER_FAILED"

	// ErrCodePath indicates a search path securing failure.
	ErrCodePath ErrorCode = "PATH_SECURITY_FAILED"

	// ErrCodeResolution indicates a command resolution failure.
	ErrCodeResolution ErrorCode = "COMMAND_RESOLUTION_FAILED"

	// ErrCodeExec indicates the process image could not be replaced.
	ErrCodeExec ErrorCode = "EXEC_FAILED"

	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// LaunchError provides detailed error information for one pipeline
// stage. The operator sees a single diagnostic line built from it.
type LaunchError struct {
	// Op is the pipeline stage that failed.
	Op string

	// Command is the requested command, when known.
	Command string

	// Err is the underlying error.
	Err error

	// Code is the structured error code.
	Code ErrorCode
}

// Error returns the error message.
func (e *LaunchError) Error() string {
	if e.Command != "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Command, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *LaunchError) Unwrap() error {
	return e.Err
}

// Is reports whether the error matches the target.
func (e *LaunchError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// newError creates a launch error for a pipeline stage.
func newError(op string, code ErrorCode, command string, err error) error {
	return &LaunchError{
		Op:      op,
		Command: command,
		Err:     err,
		Code:    code,
	}
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	var launchErr *LaunchError
	if errors.As(err, &launchErr) {
		return launchErr.Code
	}
	return ErrCodeInternal
}

// ExitCode maps an error to the process exit status. Help, version and
// info display exit zero; every failure category exits one.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, ErrUsage) {
		return 0
	}
	return 1
}
