package patch

import (
	"gmpatch/internal/config"
	"gmpatch/internal/engine"
	"gmpatch/internal/input"
	"gmpatch/internal/logging"
)

// HostNatives creates real native entry points.
type HostNatives struct{}

func (HostNatives) LoaderDetour(l *engine.PatchLoader) uintptr { return engine.LoaderDetour(l) }

func (HostNatives) RegistrationDetour(h *engine.RegistrationHook) uintptr {
	return engine.RegistrationDetour(h)
}

func (HostNatives) Loader(trampoline *uintptr) engine.LoaderFunc {
	return engine.NativeLoader(trampoline)
}

func (HostNatives) Void(trampoline *uintptr) func(uintptr) { return engine.NativeVoid(trampoline) }

// NewHost builds the patch for use inside the host process: SendInput
// injection, the host's own RegisterLibrary, CRT buffers and debugger
// output.
func NewHost(cfg config.PatchConfig) *Patch {
	logger := logging.NewDebugOutput("executor", cfg.Debug)
	return New(cfg,
		input.NewInjector(),
		&engine.HostEngine{RegisterLibraryAddr: uintptr(cfg.Hooks.RegisterLibrary)},
		engine.CRTAllocator{},
		logger,
	)
}

// InstallHost attaches the patch using the host natives.
func (p *Patch) InstallHost(ic engine.Interceptor, addrs config.HookAddresses) error {
	return p.Install(ic, addrs, HostNatives{})
}
