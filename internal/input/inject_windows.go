//go:build windows

package input

import (
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

var (
	user32        = windows.NewLazySystemDLL("user32.dll")
	procSendInput = user32.NewProc("SendInput")
)

// SendInputInjector sends scan-code keyboard events through SendInput.
type SendInputInjector struct{}

// NewInjector creates a SendInput-backed injector
func NewInjector() *SendInputInjector {
	return &SendInputInjector{}
}

// SendKey sends one key-down or key-up for scanCode.
func (i *SendInputInjector) SendKey(scanCode uint16, release bool) error {
	in := KeyboardInput(scanCode, release)

	ret, _, err := procSendInput.Call(
		1,
		uintptr(unsafe.Pointer(&in)),
		unsafe.Sizeof(in),
	)
	if ret == 0 {
		return errors.Wrapf(err, "SendInput scan=0x%02X release=%v", scanCode, release)
	}
	return nil
}
