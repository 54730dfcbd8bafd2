//go:build !windows

package input

// Stub implementation for non-Windows platforms

// SendInputInjector is a stub injector; every call fails.
type SendInputInjector struct{}

// NewInjector creates a new stub injector
func NewInjector() *SendInputInjector {
	return &SendInputInjector{}
}

// SendKey injects a keyboard event (stub)
func (i *SendInputInjector) SendKey(scanCode uint16, release bool) error {
	return ErrUnsupportedPlatform
}
