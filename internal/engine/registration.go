package engine

import (
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
)

// WorkerStarter starts a background worker. Start reports whether this call
// started it.
type WorkerStarter interface {
	Start() bool
}

// RegistrationHook runs in place of the host's standard library setup. It
// lets the host register its own libraries, starts the input worker and
// adds Functions to the global table.
type RegistrationHook struct {
	Original  func(machine uintptr)
	Engine    Engine
	Worker    WorkerStarter
	Functions []FunctionEntry
	Logger    golog.Logger
}

// Register is the detour body. The worker is started at most once no matter
// how often the host calls this.
func (h *RegistrationHook) Register(machine uintptr) error {
	h.Logger.Debug("Executor: RegisterLibrary")
	if h.Original != nil {
		h.Original(machine)
	}

	if h.Worker.Start() {
		h.Logger.Debug("Executor: created input worker")
	}

	if err := h.Engine.RegisterLibrary(machine, h.Functions, "", true); err != nil {
		h.Logger.Errorw("Executor: RegisterLibrary failed", "error", err)
		return errors.Wrap(err, "register bridge functions")
	}
	return nil
}
