package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDir_UsesXDGRuntimeDirWhenSet(t *testing.T) {
	td := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", td)

	got, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error: %v", err)
	}
	if got != td {
		t.Fatalf("Dir() = %q, want %q", got, td)
	}
}

func TestDir_FallbacksWhenXDGRuntimeDirMissing(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "")

	got, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error: %v", err)
	}

	wantRun := fmt.Sprintf("/run/user/%d", os.Getuid())
	wantTmp := fmt.Sprintf("/tmp/rrtile-runtime-%d", os.Getuid())
	if got != wantRun && got != wantTmp {
		t.Fatalf("Dir() = %q, want %q or %q", got, wantRun, wantTmp)
	}
}

func TestSocketPath(t *testing.T) {
	td := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", td)
	t.Setenv(EnvSocket, "")

	socket, err := SocketPath()
	if err != nil {
		t.Fatalf("SocketPath() error: %v", err)
	}
	if !strings.HasPrefix(socket, td) || !strings.HasSuffix(socket, "/rrtile.sock") {
		t.Fatalf("SocketPath() = %q, want rrtile.sock under %q", socket, td)
	}

	t.Setenv(EnvSocket, "/tmp/custom.sock")
	socket, err = SocketPath()
	if err != nil {
		t.Fatalf("SocketPath() error: %v", err)
	}
	if socket != "/tmp/custom.sock" {
		t.Fatalf("SocketPath() = %q, want override", socket)
	}
}

func TestPrivateDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")

	got, err := privateDir(dir, os.Getuid())
	if err != nil {
		t.Fatalf("privateDir error: %v", err)
	}
	if got != dir {
		t.Fatalf("privateDir = %q, want %q", got, dir)
	}

	if err := os.Chmod(dir, 0o755); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	if _, err := privateDir(dir, os.Getuid()); err == nil {
		t.Fatalf("expected error for group/world readable dir")
	}
}

func TestPrivateDir_RejectsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := privateDir(path, os.Getuid()); err == nil {
		t.Fatalf("expected error for non-directory")
	}
}
