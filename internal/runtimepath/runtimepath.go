// Package runtimepath locates per-user runtime files such as the daemon
// socket.
package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// EnvSocket overrides the socket path.
const EnvSocket = "RRTILE_SOCKET"

// Dir returns the directory holding the daemon socket: $XDG_RUNTIME_DIR,
// then /run/user/<uid>, then a private /tmp/rrtile-runtime-<uid>.
func Dir() (string, error) {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir, nil
	}

	uid := os.Getuid()
	if dir := fmt.Sprintf("/run/user/%d", uid); isDir(dir) {
		return dir, nil
	}
	return privateDir(fmt.Sprintf("/tmp/rrtile-runtime-%d", uid), uid)
}

// SocketPath returns the daemon IPC socket path.
func SocketPath() (string, error) {
	if p := os.Getenv(EnvSocket); p != "" {
		return p, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "rrtile.sock"), nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// privateDir creates dir with mode 0700 and refuses one that another user
// owns or that others can read.
func privateDir(dir string, uid int) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create runtime dir: %w", err)
	}
	info, err := os.Lstat(dir)
	if err != nil {
		return "", fmt.Errorf("stat runtime dir: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("runtime dir %s is not a directory", dir)
	}
	if st, ok := info.Sys().(*syscall.Stat_t); ok && int(st.Uid) != uid {
		return "", fmt.Errorf("runtime dir %s is owned by uid %d", dir, st.Uid)
	}
	if info.Mode().Perm()&0o077 != 0 {
		return "", fmt.Errorf("runtime dir %s has mode %o, want 0700", dir, info.Mode().Perm())
	}
	return dir, nil
}
