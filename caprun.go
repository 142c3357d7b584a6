package caprun

import (
	"context"
	"path/filepath"

	"github.com/victoralfred/caprun/auth"
	"github.com/victoralfred/caprun/capability"
	"github.com/victoralfred/caprun/command"
	"github.com/victoralfred/caprun/config"
	"github.com/victoralfred/caprun/identity"
	"github.com/victoralfred/caprun/launcher"
	"github.com/victoralfred/caprun/observability"
	"github.com/victoralfred/caprun/policy"
	"github.com/victoralfred/caprun/rights"
)

// =============================================================================
// Core Types
// =============================================================================

// Launcher runs the privilege resolution and secure execution pipeline.
type Launcher = launcher.Launcher

// Request is one launch invocation.
type Request = launcher.Request

// Builder creates configured Launcher instances.
type Builder = launcher.Builder

// LaunchError provides detailed error information for a pipeline stage.
type LaunchError = launcher.LaunchError

// ErrorCode provides structured error classification.
type ErrorCode = launcher.ErrorCode

// =============================================================================
// Policy Types
// =============================================================================

// PolicyLoader loads and manages policies from YAML files.
type PolicyLoader = policy.Loader

// PolicyConfig represents a loaded policy configuration.
type PolicyConfig = policy.Config

// PolicyStore resolves identities against the configured roles.
type PolicyStore = policy.Store

// Decision is the outcome of policy resolution.
type Decision = policy.Decision

// Config is the main configuration for caprun.
type Config = config.Config

// =============================================================================
// Error Variables
// =============================================================================

// Common errors returned by the library.
var (
	// ErrUsage indicates bad flags or a missing command.
	ErrUsage = launcher.ErrUsage

	// ErrAuthentication indicates the identity could not be verified.
	ErrAuthentication = launcher.ErrAuthentication

	// ErrIdentityLookup indicates the invoking identity could not be
	// resolved.
	ErrIdentityLookup = launcher.ErrIdentityLookup

	// ErrDenied is the deliberately generic policy denial.
	ErrDenied = policy.ErrDenied

	// ErrTransitionFailed indicates the capability transition failed.
	ErrTransitionFailed = capability.ErrTransitionFailed

	// ErrCommandNotFound indicates no executable candidate was found.
	ErrCommandNotFound = command.ErrNotFound

	// ErrExecFailed indicates the process image could not be replaced.
	ErrExecFailed = command.ErrExecFailed
)

// =============================================================================
// Factory Functions
// =============================================================================

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return config.DefaultConfig()
}

// New creates a Launcher wired to the operating system: system identity
// databases, PAM authentication, the on-disk YAML policy, the libcap
// capability primitive and the real exec call.
func New(cfg Config) (*Launcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	loader, err := policy.NewLoader(cfg.PolicyBasePath, cfg.PolicyPath)
	if err != nil {
		return nil, err
	}
	store, err := loader.Load(context.Background())
	if err != nil {
		return nil, err
	}

	audit, err := observability.NewFileAuditLogger(cfg.Audit)
	if err != nil {
		return nil, err
	}

	telemetry, err := observability.NewTelemetry(cfg.Telemetry)
	if err != nil {
		return nil, err
	}

	execer := command.NewExecutor()
	execer.Shell = cfg.ShellPath

	return launcher.NewBuilder().
		WithIdentityResolver(identity.NewOSResolver()).
		WithGate(auth.NewGate(auth.NewPAMAuthenticator(cfg.PAMService), cfg.Auth)).
		WithPolicyStore(store).
		WithTransition(capability.NewTransition(capability.NewOSPrimitive())).
		WithExecer(execer).
		WithAudit(audit).
		WithTelemetry(telemetry).
		Build()
}

// NewBuilder creates a launcher builder for custom wiring.
func NewBuilder() *Builder {
	return launcher.NewBuilder()
}

// =============================================================================
// Policy Loading
// =============================================================================

// LoadPolicy loads a role policy from a YAML file. The basePath is the
// directory containing the policy file; policyFile is relative to it.
//
// Example policy.yaml:
//
//	version: "1.0"
//	roles:
//	  - name: ops-role
//	    groups: [ops]
//	    tasks:
//	      - id: reboot
//	        commands: [/usr/sbin/shutdown]
//	        capabilities:
//	          ambient: [CAP_SYS_BOOT]
//	        options:
//	          no_root: true
//	          env_keep: [TERM, LANG]
func LoadPolicy(basePath, policyFile string) (*PolicyLoader, error) {
	return policy.NewLoader(basePath, policyFile)
}

// LoadPolicyFromPath loads a policy from a full file path.
func LoadPolicyFromPath(path string) (*PolicyLoader, error) {
	dir := filepath.Dir(path)
	file := filepath.Base(path)
	return policy.NewLoader(dir, file)
}

// ExamplePolicy returns an example policy configuration. Use this as a
// starting point for creating your own policies.
func ExamplePolicy() *PolicyConfig {
	return policy.ExamplePolicy()
}

// =============================================================================
// Convenience Functions
// =============================================================================

// NewRightsReporter creates the read-only info-mode reporter over a
// policy store.
func NewRightsReporter(store PolicyStore) *rights.Reporter {
	return rights.NewReporter(store)
}

// ExitCode maps a launch error to the process exit status.
func ExitCode(err error) int {
	return launcher.ExitCode(err)
}

// =============================================================================
// Version Information
// =============================================================================

// Version returns the library version.
func Version() string {
	return "1.0.0"
}
