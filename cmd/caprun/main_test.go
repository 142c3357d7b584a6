package main

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
)

// execute parses args through the real CLI surface and records the
// positional arguments handed to the run function.
func execute(t *testing.T, opts *options, args []string) ([]string, error) {
	t.Helper()

	var got []string
	cmd := newRootCmd(opts, func(c *cobra.Command, argv []string) error {
		got = append([]string{}, argv...)
		return nil
	})

	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	return got, cmd.Execute()
}

func TestCLI_TargetFlagsReachTarget(t *testing.T) {
	opts := &options{}
	argv, err := execute(t, opts, []string{"ls", "-la"})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	want := []string{"ls", "-la"}
	if len(argv) != len(want) {
		t.Fatalf("argv = %v, want %v", argv, want)
	}
	for i := range want {
		if argv[i] != want[i] {
			t.Errorf("argv[%d] = %q, want %q", i, argv[i], want[i])
		}
	}
}

func TestCLI_TargetFlagDoesNotToggleInfoMode(t *testing.T) {
	opts := &options{}
	argv, err := execute(t, opts, []string{"shutdown", "-i", "now"})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	if opts.info {
		t.Error("A flag after the target command must not switch modes")
	}

	want := []string{"shutdown", "-i", "now"}
	if len(argv) != len(want) {
		t.Fatalf("argv = %v, want %v", argv, want)
	}
	for i := range want {
		if argv[i] != want[i] {
			t.Errorf("argv[%d] = %q, want %q", i, argv[i], want[i])
		}
	}
}

func TestCLI_OwnFlagsBeforeCommand(t *testing.T) {
	opts := &options{}
	argv, err := execute(t, opts, []string{"-i", "-r", "ops-role", "shutdown"})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	if !opts.info {
		t.Error("A flag before the target command belongs to the launcher")
	}
	if opts.role != "ops-role" {
		t.Errorf("role = %q, want %q", opts.role, "ops-role")
	}
	if len(argv) != 1 || argv[0] != "shutdown" {
		t.Errorf("argv = %v, want [shutdown]", argv)
	}
}
