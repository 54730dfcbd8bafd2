//go:build !windows

// Package osutils answers questions about the desktop session the bench
// injects into.
package osutils

// IsAdmin is a stub for non-Windows platforms
func IsAdmin() bool {
	return false
}

// ForegroundWindowTitle is a stub for non-Windows platforms
func ForegroundWindowTitle() string {
	return ""
}
