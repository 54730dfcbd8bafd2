// Package patch assembles the in-process patch: the input dispatcher, the
// script bridge, the bytecode loader and the two engine hooks.
package patch

import (
	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"gmpatch/internal/bridge"
	"gmpatch/internal/config"
	"gmpatch/internal/engine"
	"gmpatch/internal/input"
)

// Hook names as reported to the interceptor.
const (
	LoaderHookName       = "ExecuteGmLib"
	RegistrationHookName = "gmMachineLib"
)

// Natives converts between Go handlers and native entry points. The host
// implementation uses syscall callbacks; tests use plain functions.
type Natives interface {
	LoaderDetour(l *engine.PatchLoader) uintptr
	RegistrationDetour(h *engine.RegistrationHook) uintptr
	// Loader and Void read the trampoline at call time, so they may be
	// created before the hooks are attached.
	Loader(trampoline *uintptr) engine.LoaderFunc
	Void(trampoline *uintptr) func(arg uintptr)
}

// Patch is the assembled patch.
type Patch struct {
	Dispatcher   *input.Dispatcher
	Bridge       *bridge.Bridge
	Loader       *engine.PatchLoader
	Registration *engine.RegistrationHook

	hooks  []*engine.Hook
	logger golog.Logger
}

// New wires the components from cfg. Nothing touches the host until Install.
func New(cfg config.PatchConfig, injector input.Injector, eng engine.Engine, alloc engine.Allocator, logger golog.Logger) *Patch {
	d := input.NewDispatcher(injector, logger)
	b := bridge.New(d, logger)
	return &Patch{
		Dispatcher: d,
		Bridge:     b,
		Loader: &engine.PatchLoader{
			ScriptName: cfg.ScriptName,
			PatchPath:  cfg.PatchPath,
			Allocator:  alloc,
			Logger:     logger,
		},
		Registration: &engine.RegistrationHook{
			Engine:    eng,
			Worker:    d,
			Functions: b.Functions(),
			Logger:    logger,
		},
		logger: logger,
	}
}

// Install redirects the host loader and machine library setup to the patch.
// Both hooks are committed together or not at all.
func (p *Patch) Install(ic engine.Interceptor, addrs config.HookAddresses, n Natives) error {
	if p.hooks != nil {
		return errors.New("patch already installed")
	}
	loader := &engine.Hook{
		Name:   LoaderHookName,
		Target: uintptr(addrs.Loader),
		Detour: n.LoaderDetour(p.Loader),
	}
	registration := &engine.Hook{
		Name:   RegistrationHookName,
		Target: uintptr(addrs.MachineLib),
		Detour: n.RegistrationDetour(p.Registration),
	}
	p.Loader.Next = n.Loader(&loader.Trampoline)
	p.Registration.Original = n.Void(&registration.Trampoline)

	hooks := []*engine.Hook{loader, registration}
	if err := engine.AttachAll(ic, hooks); err != nil {
		p.logger.Errorw("Executor: detour failed", "error", err)
		return err
	}
	p.hooks = hooks
	p.logger.Debugw("Executor: detours attached",
		LoaderHookName, addrs.Loader.String(),
		RegistrationHookName, addrs.MachineLib.String(),
	)
	return nil
}

// Hooks returns the attached hooks, or nil before a successful Install.
func (p *Patch) Hooks() []*engine.Hook {
	return p.hooks
}
