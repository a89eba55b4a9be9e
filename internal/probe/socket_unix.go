//go:build linux || darwin || freebsd || netbsd || openbsd

package probe

import (
	"golang.org/x/sys/unix"
)

// setDebug enables SO_DEBUG on a socket on Unix systems.
func setDebug(fd uintptr) error {
	return unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_DEBUG, 1)
}
