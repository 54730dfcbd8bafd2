// Package bridge exposes the input dispatcher to scripts as the Dinput and
// Dcancel library functions.
package bridge

import (
	"github.com/edaniels/golog"

	"gmpatch/internal/engine"
	"gmpatch/internal/input"
)

// Script-visible function names.
const (
	InputFunc  = "Dinput"
	CancelFunc = "Dcancel"
)

// Queue is the part of the dispatcher scripts can reach.
type Queue interface {
	Enqueue(ev input.KeyEvent)
	Cancel()
}

// Bridge turns native calls into queue operations.
type Bridge struct {
	queue  Queue
	logger golog.Logger
}

// New creates a bridge feeding queue.
func New(queue Queue, logger golog.Logger) *Bridge {
	return &Bridge{queue: queue, logger: logger}
}

// Input implements Dinput(key, delay, release). The key is an integer scan
// code, delay a float in milliseconds (truncated) and release an integer
// flag. Arguments are read as-is; a call with the wrong shape enqueues
// whatever the frame happens to hold.
func (b *Bridge) Input(args engine.ArgumentReader) int {
	key := args.ReadInt(0)
	delay := args.ReadFloat(1)
	release := args.ReadInt(2)

	b.queue.Enqueue(input.NewKeyEvent(uint8(key), int(delay), release != 0))
	b.logger.Debugw("Executor: Dinput", "key", key, "delay", delay, "release", release, "delay_ms", int(delay))
	return engine.ResultOK
}

// Cancel implements Dcancel(). Arguments are ignored.
func (b *Bridge) Cancel(engine.ArgumentReader) int {
	b.queue.Cancel()
	b.logger.Debug("Executor: Dcancel")
	return engine.ResultOK
}

// Functions returns the library table entries for the bridge.
func (b *Bridge) Functions() []engine.FunctionEntry {
	return []engine.FunctionEntry{
		{Name: InputFunc, Func: b.Input},
		{Name: CancelFunc, Func: b.Cancel},
	}
}
