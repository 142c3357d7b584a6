// Package caprun provides a privilege-delegation launcher built on
// Linux capabilities.
//
// An invoking identity requests to run a target command; caprun decides
// from a role-based policy which capability triple the command may run
// with, applies that triple to the live process under a minimal
// meta-privilege window, sanitizes the environment and search path, and
// finally replaces the process image with the resolved command.
//
// # Basic Usage
//
//	launcher, err := caprun.New(caprun.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	err = launcher.Launch(ctx, caprun.Request{
//	    UID:     os.Getuid(),
//	    GID:     os.Getgid(),
//	    Command: "shutdown",
//	    Args:    []string{"-h", "now"},
//	    Env:     os.Environ(),
//	})
//
// On success Launch never returns: the process image is replaced.
//
// # Security Model
//
// Every decision fails closed. A denial is always reported as a
// generic "permission denied" so callers cannot probe which rule
// failed. Capability installation is atomic-or-abort: the transient
// meta-privilege is never left active on any failure branch, and no
// privilege-affecting operation is ever retried.
//
// # File I/O
//
// All file operations use github.com/victoralfred/gowritter/safepath
// for secure path handling. Direct use of os.ReadFile, os.WriteFile,
// os.Open, os.Create, or io/ioutil is prohibited within this library.
//
// # Package Structure
//
//   - caprun: Main entry point and convenience functions
//   - launcher: Pipeline orchestration
//   - policy: YAML policy loading, validation and resolution
//   - capability: Capability sets and the transition protocol
//   - environ: Environment filtering and search path securing
//   - command: Command resolution and the exec boundary
//   - identity: Invoking user and group resolution
//   - auth: Authentication gate with throttling
//   - rights: Info-mode rights reporting
//   - observability: OpenTelemetry tracing and audit logging
//   - config: Configuration management
package caprun
