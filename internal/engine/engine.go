// Package engine models the parts of the host's embedded GameMonkey engine
// that the patch touches: library registration, the script loader and the
// call frame handed to native functions.
package engine

import "github.com/pkg/errors"

// ResultOK is the status a native function returns to the interpreter.
const ResultOK = 0

var (
	// ErrAttachFailed is returned when a hook could not be installed.
	ErrAttachFailed = errors.New("hook attach failed")

	// ErrNoTrampoline is returned when an interceptor reports success but
	// hands back no way to reach the original function.
	ErrNoTrampoline = errors.New("interceptor returned no trampoline")
)

// ArgumentReader reads positional arguments of a native call. Index 0 is
// the first argument. Readers do not validate type or count.
type ArgumentReader interface {
	NumParams() int
	ReadInt(i int) int32
	ReadFloat(i int) float32
	ReadBool(i int) bool
}

// Callback is a native function exposed to scripts.
type Callback func(args ArgumentReader) int

// FunctionEntry names a Callback in a library table.
type FunctionEntry struct {
	Name string
	Func Callback
}

// Engine is the host's library registration surface.
type Engine interface {
	// RegisterLibrary adds fns to table, or to the global table when table
	// is empty.
	RegisterLibrary(machine uintptr, fns []FunctionEntry, table string, newTable bool) error
}
