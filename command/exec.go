package command

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// ErrExecFailed indicates the kernel refused to replace the process
// image.
var ErrExecFailed = errors.New("exec failed")

// DefaultShell interprets targets that lack an executable header.
const DefaultShell = "/bin/sh"

// ExecFunc is the kernel-level image replacement call. On success it
// never returns.
type ExecFunc func(argv0 string, argv []string, envv []string) error

// Executor replaces the process image with the resolved command.
type Executor struct {
	// Shell is the interpreter used for the script fallback.
	Shell string

	execve ExecFunc
}

// NewExecutor creates an executor backed by the real execve call.
func NewExecutor() *Executor {
	return &Executor{Shell: DefaultShell, execve: unix.Exec}
}

// Exec replaces the process image with the target. argv carries the
// full argument vector including argv[0]; env is the sanitized
// environment at the exec boundary. If the kernel rejects the target
// because it is not a directly executable binary format, the shell
// interpreter is launched once with the target path prepended as the
// first script argument. On success Exec never returns.
func (e *Executor) Exec(cmd Resolved, argv []string, env []string) error {
	err := e.execve(cmd.Path, argv, env)
	if errors.Is(err, unix.ENOEXEC) {
		nargv := make([]string, 0, len(argv)+1)
		nargv = append(nargv, "sh", cmd.Path)
		if len(argv) > 1 {
			nargv = append(nargv, argv[1:]...)
		}
		err = e.execve(e.Shell, nargv, env)
	}
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %v", ErrExecFailed, cmd.Requested, err)
}
