//go:build !windows

package launcher

import "syscall"

// detachedAttr puts the child in its own process group so signals aimed at
// the launcher do not reach it.
func detachedAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}
