//go:build windows

package engine

import (
	"sync"
	"syscall"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

// gmFunctionEntry is the host's library table entry.
type gmFunctionEntry struct {
	name     *byte
	fn       uintptr
	userData uintptr
}

// HostEngine registers libraries by calling the host's RegisterLibrary.
type HostEngine struct {
	RegisterLibraryAddr uintptr

	mu sync.Mutex
	// tables handed to the host stay reachable for the life of the process
	tables [][]gmFunctionEntry
}

func (e *HostEngine) RegisterLibrary(machine uintptr, fns []FunctionEntry, table string, newTable bool) error {
	if len(fns) == 0 {
		return nil
	}
	entries := make([]gmFunctionEntry, len(fns))
	for i, fn := range fns {
		name, err := windows.BytePtrFromString(fn.Name)
		if err != nil {
			return errors.Wrapf(err, "function name %q", fn.Name)
		}
		entries[i] = gmFunctionEntry{name: name, fn: NativeCallback(fn.Func)}
	}

	var tablePtr *byte
	if table != "" {
		var err error
		if tablePtr, err = windows.BytePtrFromString(table); err != nil {
			return errors.Wrapf(err, "table name %q", table)
		}
	}

	e.mu.Lock()
	e.tables = append(e.tables, entries)
	e.mu.Unlock()

	syscall.SyscallN(e.RegisterLibraryAddr,
		machine,
		uintptr(unsafe.Pointer(&entries[0])),
		uintptr(len(entries)),
		uintptr(unsafe.Pointer(tablePtr)),
		boolArg(newTable),
	)
	return nil
}

// NativeCallback exposes fn as an `int fn(gmThread*)` the host can call.
func NativeCallback(fn Callback) uintptr {
	return syscall.NewCallback(func(thread uintptr) uintptr {
		return uintptr(fn(NewFrameReader(thread)))
	})
}

// NativeLoader calls the host loader through the trampoline stored at tramp.
func NativeLoader(tramp *uintptr) LoaderFunc {
	return func(req LoadRequest) int64 {
		var buf uintptr
		if len(req.Buffer) > 0 {
			buf = uintptr(unsafe.Pointer(&req.Buffer[0]))
		}
		ret, _, _ := syscall.SyscallN(*tramp,
			req.Self,
			req.native.filename,
			req.native.fullname,
			buf,
			uintptr(uint32(len(req.Buffer))),
			req.Arg6,
			uintptr(req.Arg7),
		)
		return int64(ret)
	}
}

// LoaderDetour returns a native entry point with the host loader's signature
// that runs l.Load.
func LoaderDetour(l *PatchLoader) uintptr {
	return syscall.NewCallback(func(self, filename, fullname, buf, buflen, arg6, arg7 uintptr) uintptr {
		req := LoadRequest{
			Self:     self,
			Filename: cString(filename),
			Fullname: cString(fullname),
			Arg6:     arg6,
			Arg7:     byte(arg7),
			native:   nativeNames{filename: filename, fullname: fullname, buffer: buf},
		}
		if buf != 0 {
			req.Buffer = unsafe.Slice((*byte)(unsafe.Pointer(buf)), uint32(buflen)) //nolint:govet
		}
		return uintptr(l.Load(req))
	})
}

// NativeVoid calls a `void fn(void*)` through the trampoline stored at tramp.
func NativeVoid(tramp *uintptr) func(arg uintptr) {
	return func(arg uintptr) {
		syscall.SyscallN(*tramp, arg)
	}
}

// RegistrationDetour returns a native `void fn(gmMachine*)` that runs
// h.Register.
func RegistrationDetour(h *RegistrationHook) uintptr {
	return syscall.NewCallback(func(machine uintptr) uintptr {
		_ = h.Register(machine)
		return 0
	})
}

func cString(p uintptr) string {
	if p == 0 {
		return ""
	}
	return windows.BytePtrToString((*byte)(unsafe.Pointer(p))) //nolint:govet
}

func boolArg(b bool) uintptr {
	if b {
		return 1
	}
	return 0
}
