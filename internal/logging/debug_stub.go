//go:build !windows

package logging

import "github.com/edaniels/golog"

// NewDebugOutput falls back to the console logger on non-Windows platforms.
func NewDebugOutput(name string, debug bool) golog.Logger {
	return New(name, debug)
}
