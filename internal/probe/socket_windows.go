//go:build windows

package probe

// setDebug is not available for raw sockets on Windows.
func setDebug(fd uintptr) error {
	return ErrUnsupported
}
