// Package launcher orchestrates the privilege resolution and secure
// execution pipeline: identity, authentication, policy, capability
// transition, environment sanitization and the final exec.
package launcher

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/victoralfred/caprun/capability"
	"github.com/victoralfred/caprun/command"
	"github.com/victoralfred/caprun/environ"
	"github.com/victoralfred/caprun/identity"
	"github.com/victoralfred/caprun/observability"
	"github.com/victoralfred/caprun/policy"
	"github.com/victoralfred/caprun/rights"
)

// Gate verifies a resolved identity. It may block on interactive
// input.
type Gate interface {
	// Verify authenticates the user or returns an error.
	Verify(username string) error
}

// Transitioner applies a capability triple to the live process.
type Transitioner interface {
	// Apply installs the triple and, when requested, the no-root
	// lockdown. Any error is fatal for the invocation.
	Apply(t capability.Triple, noRoot bool) error
}

// Execer replaces the process image. On success it never returns.
type Execer interface {
	Exec(cmd command.Resolved, argv []string, env []string) error
}

// Request is one launch invocation. The environment is an immutable
// snapshot taken at process start; the pipeline never reads the
// ambient environment directly.
type Request struct {
	// UID and GID identify the invoking process.
	UID int
	GID int

	// Command is the requested command name or path.
	Command string

	// Args are the arguments after the command.
	Args []string

	// Env is the inherited environment snapshot.
	Env []string

	// RoleHint restricts resolution to one role. It never widens the
	// granted rights.
	RoleHint string
}

// Launcher runs the pipeline. Each invocation is independent and
// short-lived; nothing is cached across invocations.
type Launcher struct {
	resolver   identity.Resolver
	gate       Gate
	store      policy.Store
	transition Transitioner
	execer     Execer
	audit      observability.AuditLogger
	telemetry  observability.Telemetry
}

// Builder creates configured Launcher instances.
type Builder struct {
	resolver   identity.Resolver
	gate       Gate
	store      policy.Store
	transition Transitioner
	execer     Execer
	audit      observability.AuditLogger
	telemetry  observability.Telemetry
}

// NewBuilder creates a new launcher builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// WithIdentityResolver sets the identity resolver.
func (b *Builder) WithIdentityResolver(r identity.Resolver) *Builder {
	b.resolver = r
	return b
}

// WithGate sets the authentication gate.
func (b *Builder) WithGate(g Gate) *Builder {
	b.gate = g
	return b
}

// WithPolicyStore sets the policy store.
func (b *Builder) WithPolicyStore(s policy.Store) *Builder {
	b.store = s
	return b
}

// WithTransition sets the capability transitioner.
func (b *Builder) WithTransition(t Transitioner) *Builder {
	b.transition = t
	return b
}

// WithExecer sets the process image replacer.
func (b *Builder) WithExecer(e Execer) *Builder {
	b.execer = e
	return b
}

// WithAudit sets the audit logger.
func (b *Builder) WithAudit(a observability.AuditLogger) *Builder {
	b.audit = a
	return b
}

// WithTelemetry sets the telemetry provider.
func (b *Builder) WithTelemetry(t observability.Telemetry) *Builder {
	b.telemetry = t
	return b
}

// Build creates the launcher. Missing observability collaborators
// default to no-ops; the pipeline collaborators are required.
func (b *Builder) Build() (*Launcher, error) {
	if b.resolver == nil || b.gate == nil || b.store == nil || b.transition == nil || b.execer == nil {
		return nil, errors.New("launcher: missing pipeline collaborator")
	}

	audit := b.audit
	if audit == nil {
		audit = observability.NoopAuditLogger()
	}
	telemetry := b.telemetry
	if telemetry == nil {
		telemetry = observability.NoopTelemetry()
	}

	return &Launcher{
		resolver:   b.resolver,
		gate:       b.gate,
		store:      b.store,
		transition: b.transition,
		execer:     b.execer,
		audit:      audit,
		telemetry:  telemetry,
	}, nil
}

// Launch runs the full pipeline for the request. On success the
// process image is replaced and Launch never returns. Every error is
// fatal; nothing in the pipeline retries.
func (l *Launcher) Launch(ctx context.Context, req Request) error {
	ctx, endSpan := l.telemetry.StartSpan(ctx, "launcher.Launch",
		observability.WithAttribute("command", req.Command),
	)
	defer endSpan()

	l.telemetry.RecordInvocation(ctx, map[string]string{"command": req.Command})

	ident, groups, err := identity.Resolve(l.resolver, req.UID, req.GID)
	if err != nil {
		l.telemetry.RecordFailure(ctx, nil)
		return newError("resolve_identity", ErrCodeIdentity, req.Command, ErrIdentityLookup)
	}

	if err := l.gate.Verify(ident.Username); err != nil {
		event := observability.NewAuditEvent(observability.AuditEventAuthFailure, ident.Username, req.Command)
		event.Error = err.Error()
		_ = l.audit.Log(ctx, event)
		l.telemetry.RecordAuthFailure(ctx, map[string]string{"user": ident.Username})
		return newError("authenticate", ErrCodeAuthentication, req.Command, ErrAuthentication)
	}

	decision, err := l.store.Resolve(ident.Username, groups, req.Command, req.RoleHint)
	if err != nil {
		l.telemetry.RecordFailure(ctx, nil)
		return newError("resolve_policy", ErrCodeInternal, req.Command, err)
	}
	if !decision.Granted {
		event := observability.NewAuditEvent(observability.AuditEventPolicyDenied, ident.Username, req.Command)
		event.Groups = groups
		_ = l.audit.Log(ctx, event)
		l.telemetry.RecordDenial(ctx, map[string]string{"user": ident.Username})
		// The diagnostic stays generic so callers cannot probe which
		// rule failed.
		return newError("resolve_policy", ErrCodePolicyDenied, req.Command, policy.ErrDenied)
	}

	if err := l.transition.Apply(decision.Caps, decision.Options.NoRoot); err != nil {
		l.telemetry.RecordFailure(ctx, nil)
		return newError("apply_capabilities", ErrCodeCapability, req.Command, err)
	}

	sanitized, err := environ.Filter(req.Env, decision.Options.EnvKeep, decision.Options.EnvCheck)
	if err != nil {
		l.telemetry.RecordFailure(ctx, nil)
		return newError("filter_environment", ErrCodeEnvironment, req.Command, err)
	}

	secured, err := environ.SecurePath(inheritedPath(req.Env), decision.Options.Path)
	if err != nil {
		// An empty search path only matters when the command still
		// needs one.
		if !errors.Is(err, environ.ErrEmptySearchPath) || !strings.Contains(req.Command, "/") {
			l.telemetry.RecordFailure(ctx, nil)
			return newError("secure_path", ErrCodePath, req.Command, err)
		}
	}

	resolved, err := command.Resolve(req.Command, secured)
	if err != nil {
		l.telemetry.RecordFailure(ctx, nil)
		return newError("resolve_command", ErrCodeResolution, req.Command, err)
	}

	// The secured path is authoritative for PATH; a kept inherited
	// value must not shadow it, and names stay unique at the exec
	// boundary.
	env := make([]string, 0, len(sanitized)+1)
	for _, v := range sanitized {
		if v.Name == "PATH" {
			continue
		}
		env = append(env, v.Name+"="+v.Value)
	}
	if len(secured) > 0 {
		env = append(env, "PATH="+secured.String())
	}

	argv := make([]string, 0, len(req.Args)+1)
	argv = append(argv, req.Command)
	argv = append(argv, req.Args...)

	// The audit record is written before exec because a successful
	// exec never returns.
	event := observability.NewAuditEvent(observability.AuditEventExec, ident.Username, req.Command)
	event.Groups = groups
	event.Role = decision.Role
	event.Task = decision.Task
	event.Args = req.Args
	event.Resolved = resolved.Path
	event.Caps = decision.Caps.Granted().String()
	_ = l.audit.Log(ctx, event)

	if err := l.execer.Exec(resolved, argv, env); err != nil {
		l.telemetry.RecordFailure(ctx, nil)
		return newError("exec", ErrCodeExec, req.Command, err)
	}
	return nil
}

// Info renders the identity's resolved rights to w. It never touches
// process state.
func (l *Launcher) Info(ctx context.Context, w io.Writer, uid, gid int, roleHint string) error {
	ctx, endSpan := l.telemetry.StartSpan(ctx, "launcher.Info")
	defer endSpan()

	ident, groups, err := identity.Resolve(l.resolver, uid, gid)
	if err != nil {
		return newError("resolve_identity", ErrCodeIdentity, "", ErrIdentityLookup)
	}

	event := observability.NewAuditEvent(observability.AuditEventInfo, ident.Username, "")
	event.Groups = groups
	event.Role = roleHint
	_ = l.audit.Log(ctx, event)

	reporter := rights.NewReporter(l.store)
	return reporter.Report(w, ident.Username, groups, roleHint)
}

// inheritedPath extracts PATH from the inherited snapshot.
func inheritedPath(env []string) string {
	for _, entry := range env {
		if value, ok := strings.CutPrefix(entry, "PATH="); ok {
			return value
		}
	}
	return ""
}
