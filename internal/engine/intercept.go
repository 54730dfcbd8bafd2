package engine

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Interceptor redirects native functions. It is implemented by whatever
// detour library the loader ships with.
type Interceptor interface {
	// Attach queues a redirect of target to detour and returns the address
	// that still reaches the original code.
	Attach(name string, target, detour uintptr) (trampoline uintptr, err error)
	// Commit applies every queued redirect.
	Commit() error
	// Abort drops every queued redirect.
	Abort() error
}

// Hook is one redirect. Trampoline is filled in by AttachAll.
type Hook struct {
	Name       string
	Target     uintptr
	Detour     uintptr
	Trampoline uintptr
}

// AttachAll attaches every hook and commits them together. If any attach
// fails nothing is committed.
func AttachAll(ic Interceptor, hooks []*Hook) error {
	var err error
	for _, h := range hooks {
		tramp, attachErr := ic.Attach(h.Name, h.Target, h.Detour)
		switch {
		case attachErr != nil:
			err = multierr.Append(err, errors.Wrapf(ErrAttachFailed, "%s at 0x%X: %v", h.Name, h.Target, attachErr))
		case tramp == 0:
			err = multierr.Append(err, errors.Wrapf(ErrNoTrampoline, "%s at 0x%X", h.Name, h.Target))
		default:
			h.Trampoline = tramp
		}
	}
	if err != nil {
		return multierr.Combine(err, ic.Abort())
	}
	return errors.Wrap(ic.Commit(), "commit hooks")
}
