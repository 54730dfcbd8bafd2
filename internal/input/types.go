// Package input queues synthetic keyboard events and replays them on a
// single background worker.
package input

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// ErrUnsupportedPlatform is returned by injectors on platforms without a
// synthetic input facility.
var ErrUnsupportedPlatform = errors.New("input injection not supported on this platform")

// KeyEvent is one queued keyboard action.
type KeyEvent struct {
	// Key is the hardware scan code sent to the OS.
	Key uint8

	// Delay is how long the worker waits after sending this event before
	// it takes the next one.
	Delay time.Duration

	// Release marks a key-up; false is a key-down.
	Release bool
}

// NewKeyEvent builds a KeyEvent from script-level values. Negative delays
// are treated as zero.
func NewKeyEvent(key uint8, delayMs int, release bool) KeyEvent {
	if delayMs < 0 {
		delayMs = 0
	}
	return KeyEvent{
		Key:     key,
		Delay:   time.Duration(delayMs) * time.Millisecond,
		Release: release,
	}
}

func (e KeyEvent) String() string {
	action := "press"
	if e.Release {
		action = "release"
	}
	return fmt.Sprintf("%s 0x%02X (+%dms)", action, e.Key, e.Delay.Milliseconds())
}

// Injector delivers a single keyboard event to the operating system.
type Injector interface {
	SendKey(scanCode uint16, release bool) error
}
