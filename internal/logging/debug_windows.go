package logging

import (
	"strings"
	"unsafe"

	"github.com/edaniels/golog"
	"golang.org/x/sys/windows"
)

var procOutputDebugStringW = windows.NewLazySystemDLL("kernel32.dll").NewProc("OutputDebugStringW")

// debugOutput sends each line to the attached debugger.
type debugOutput struct{}

func (debugOutput) Write(p []byte) (int, error) {
	msg, err := windows.UTF16PtrFromString(strings.ReplaceAll(string(p), "\x00", " "))
	if err != nil {
		return 0, err
	}
	procOutputDebugStringW.Call(uintptr(unsafe.Pointer(msg)))
	return len(p), nil
}

func (debugOutput) Sync() error { return nil }

// NewDebugOutput returns a logger writing to the debugger output
// (OutputDebugString). This is the only channel available inside the host.
func NewDebugOutput(name string, debug bool) golog.Logger {
	return NewWriterLogger(name, debugOutput{}, debug)
}
