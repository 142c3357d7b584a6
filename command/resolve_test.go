package command

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/victoralfred/caprun/environ"
)

// writeExecutable creates a file with or without the execute bit.
func writeExecutable(t *testing.T, dir, name string, executable bool) string {
	t.Helper()
	mode := os.FileMode(0o644)
	if executable {
		mode = 0o755
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), mode); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

func TestResolve_SearchOrder(t *testing.T) {
	// PATH "/usr/bin:/bin" analogue: the command exists only in the
	// second directory and must resolve there.
	usrbin := t.TempDir()
	bin := t.TempDir()
	want := writeExecutable(t, bin, "ls", true)

	got, err := Resolve("ls", environ.SecuredPath{usrbin, bin})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	if got.Path != want {
		t.Errorf("Expected %q, got %q", want, got.Path)
	}
	if got.Requested != "ls" {
		t.Errorf("Requested name must be preserved, got %q", got.Requested)
	}
}

func TestResolve_FirstMatchWins(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	want := writeExecutable(t, first, "tool", true)
	writeExecutable(t, second, "tool", true)

	got, err := Resolve("tool", environ.SecuredPath{first, second})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	if got.Path != want {
		t.Errorf("First directory in order must win, got %q", got.Path)
	}
}

func TestResolve_CanonicalPathPreferred(t *testing.T) {
	dir := t.TempDir()
	target := writeExecutable(t, dir, "real-tool", true)

	link := filepath.Join(dir, "tool-link")
	if err := os.Symlink(target, link); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	// A decoy on the search path must lose to the canonical path.
	decoyDir := t.TempDir()
	writeExecutable(t, decoyDir, filepath.Base(link), true)

	got, err := Resolve(link, environ.SecuredPath{decoyDir})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	if got.Path != target {
		t.Errorf("Expected symlink-resolved path %q, got %q", target, got.Path)
	}
}

func TestResolve_NonExecutableCanonicalFallsBack(t *testing.T) {
	cwd := t.TempDir()
	writeExecutable(t, cwd, "tool", false)

	searchDir := t.TempDir()
	want := writeExecutable(t, searchDir, "tool", true)

	oldwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(cwd); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	defer func() {
		if err := os.Chdir(oldwd); err != nil {
			t.Errorf("restoring wd: %v", err)
		}
	}()

	got, err := Resolve("tool", environ.SecuredPath{searchDir})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	if got.Path != want {
		t.Errorf("Expected PATH fallback to %q, got %q", want, got.Path)
	}
}

func TestResolve_NotFound(t *testing.T) {
	empty := t.TempDir()

	_, err := Resolve("no-such-command", environ.SecuredPath{empty})
	if err == nil {
		t.Fatal("Expected resolution failure")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "no-such-command") {
		t.Errorf("Diagnostic must name the command, got %q", err.Error())
	}
}

func TestResolve_PathTooLong(t *testing.T) {
	long := "/" + strings.Repeat("a", 4096)

	_, err := Resolve(long, nil)
	if err == nil {
		t.Fatal("Expected resolution failure")
	}
	if !errors.Is(err, ErrPathTooLong) {
		t.Errorf("Expected ErrPathTooLong, got %v", err)
	}
}

func TestResolve_DirectoryIsNotExecutable(t *testing.T) {
	parent := t.TempDir()
	sub := filepath.Join(parent, "subdir")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	_, err := Resolve("subdir", environ.SecuredPath{parent})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("A directory must never resolve as a command, got %v", err)
	}
}
