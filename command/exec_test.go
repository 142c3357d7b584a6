package command

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"golang.org/x/sys/unix"
)

// recordingExec captures execve invocations and fails with a fixed
// error, standing in for the kernel call.
type recordingExec struct {
	calls []execCall
	errs  []error
}

type execCall struct {
	argv0 string
	argv  []string
	envv  []string
}

func (r *recordingExec) exec(argv0 string, argv []string, envv []string) error {
	r.calls = append(r.calls, execCall{argv0: argv0, argv: argv, envv: envv})
	err := r.errs[0]
	if len(r.errs) > 1 {
		r.errs = r.errs[1:]
	}
	return err
}

func TestExec_ShellFallbackOnENOEXEC(t *testing.T) {
	rec := &recordingExec{errs: []error{unix.ENOEXEC, unix.EACCES}}
	e := &Executor{Shell: "/bin/sh", execve: rec.exec}

	cmd := Resolved{Requested: "deploy.sh", Path: "/opt/bin/deploy.sh"}
	argv := []string{"deploy.sh", "--dry-run"}
	env := []string{"TERM=xterm"}

	err := e.Exec(cmd, argv, env)
	if err == nil {
		t.Fatal("Exec must report an error when the kernel call returns")
	}
	if !errors.Is(err, ErrExecFailed) {
		t.Errorf("Expected ErrExecFailed, got %v", err)
	}

	if len(rec.calls) != 2 {
		t.Fatalf("Expected one retry via the shell, got %d calls", len(rec.calls))
	}

	first := rec.calls[0]
	if first.argv0 != "/opt/bin/deploy.sh" {
		t.Errorf("First attempt must target the resolved path, got %q", first.argv0)
	}

	second := rec.calls[1]
	if second.argv0 != "/bin/sh" {
		t.Errorf("Fallback must launch the shell, got %q", second.argv0)
	}

	wantArgv := []string{"sh", "/opt/bin/deploy.sh", "--dry-run"}
	if !reflect.DeepEqual(second.argv, wantArgv) {
		t.Errorf("Fallback argv = %v, want %v", second.argv, wantArgv)
	}

	if !reflect.DeepEqual(second.envv, env) {
		t.Errorf("Fallback must carry the sanitized environment, got %v", second.envv)
	}
}

func TestExec_NoErrorWhenInjectedCallSucceeds(t *testing.T) {
	rec := &recordingExec{errs: []error{nil}}
	e := &Executor{Shell: "/bin/sh", execve: rec.exec}

	if err := e.Exec(Resolved{Requested: "tool", Path: "/usr/bin/tool"}, []string{"tool"}, nil); err != nil {
		t.Errorf("A successful injected call must not be reported as a failure, got %v", err)
	}
}

func TestExec_NoErrorWhenFallbackSucceeds(t *testing.T) {
	rec := &recordingExec{errs: []error{unix.ENOEXEC, nil}}
	e := &Executor{Shell: "/bin/sh", execve: rec.exec}

	cmd := Resolved{Requested: "deploy.sh", Path: "/opt/bin/deploy.sh"}
	if err := e.Exec(cmd, []string{"deploy.sh"}, nil); err != nil {
		t.Errorf("A successful fallback must not be reported as a failure, got %v", err)
	}
	if len(rec.calls) != 2 {
		t.Errorf("Expected the shell fallback to run, got %d calls", len(rec.calls))
	}
}

func TestExec_NoFallbackOnOtherErrors(t *testing.T) {
	rec := &recordingExec{errs: []error{unix.EACCES}}
	e := &Executor{Shell: "/bin/sh", execve: rec.exec}

	cmd := Resolved{Requested: "tool", Path: "/usr/bin/tool"}
	err := e.Exec(cmd, []string{"tool"}, nil)
	if err == nil {
		t.Fatal("Exec must report an error when the kernel call returns")
	}

	if len(rec.calls) != 1 {
		t.Errorf("Only ENOEXEC triggers the fallback, got %d calls", len(rec.calls))
	}
}

func TestExec_ErrorNamesTarget(t *testing.T) {
	rec := &recordingExec{errs: []error{unix.ENOENT}}
	e := &Executor{Shell: "/bin/sh", execve: rec.exec}

	err := e.Exec(Resolved{Requested: "mytool", Path: "/usr/bin/mytool"}, []string{"mytool"}, nil)
	if err == nil {
		t.Fatal("Expected error")
	}
	if got := err.Error(); !strings.Contains(got, "mytool") {
		t.Errorf("Diagnostic must name the target for the operator, got %q", got)
	}
}
