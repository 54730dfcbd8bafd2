package input

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/edaniels/golog"
	"go.viam.com/utils"
)

// State is the worker's current phase.
type State int32

const (
	StateIdle State = iota // worker not started
	StateWaiting
	StateDraining
	StateCancelling
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWaiting:
		return "waiting"
	case StateDraining:
		return "draining"
	case StateCancelling:
		return "cancelling"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Stats is a snapshot of the dispatcher counters.
type Stats struct {
	Enqueued      uint64
	Dispatched    uint64
	Failures      uint64
	Discarded     uint64
	Cancellations uint64
}

// Sleeper paces the worker between events. It returns false when ctx ended
// before d elapsed.
type Sleeper func(ctx context.Context, d time.Duration) bool

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithSleeper replaces the pacing sleep.
func WithSleeper(s Sleeper) Option {
	return func(d *Dispatcher) {
		d.sleep = s
	}
}

// Dispatcher owns the command queue, the cancellation flag and the single
// worker that drains the queue into an Injector.
//
// The queue and the flag are guarded by mu; cond is bound to mu. The worker
// never holds mu while sending an event or pacing.
type Dispatcher struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []KeyEvent
	cancel  bool
	stopped bool

	injector Injector
	logger   golog.Logger
	sleep    Sleeper

	startOnce sync.Once
	started   atomic.Bool
	done      chan struct{}
	ctx       context.Context
	stopCtx   context.CancelFunc

	state         atomic.Int32
	enqueued      atomic.Uint64
	dispatched    atomic.Uint64
	failures      atomic.Uint64
	discarded     atomic.Uint64
	cancellations atomic.Uint64
}

// NewDispatcher creates a dispatcher sending through injector. The worker
// is not running until Start is called.
func NewDispatcher(injector Injector, logger golog.Logger, opts ...Option) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		injector: injector,
		logger:   logger,
		sleep:    utils.SelectContextOrWait,
		done:     make(chan struct{}),
		ctx:      ctx,
		stopCtx:  cancel,
	}
	d.cond = sync.NewCond(&d.mu)
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Enqueue appends ev to the tail of the queue and wakes the worker.
func (d *Dispatcher) Enqueue(ev KeyEvent) {
	d.mu.Lock()
	d.queue = append(d.queue, ev)
	d.cond.Signal()
	d.mu.Unlock()
	d.enqueued.Add(1)
}

// Cancel asks the worker to discard everything queued. Requests made before
// the worker observes the flag collapse into one drain.
func (d *Dispatcher) Cancel() {
	d.mu.Lock()
	d.cancel = true
	d.cond.Signal()
	d.mu.Unlock()
}

// Start launches the worker. Only the first call starts it; the return value
// reports whether this call did.
func (d *Dispatcher) Start() bool {
	started := false
	d.startOnce.Do(func() {
		started = true
		d.started.Store(true)
		d.state.Store(int32(StateWaiting))
		d.logger.Debug("Executor: starting input worker")
		utils.ManagedGo(d.run, func() { close(d.done) })
	})
	if !started {
		d.logger.Debug("Executor: input worker already running")
	}
	return started
}

// Stop ends the worker and waits for it to return. Events still queued are
// dropped. The injected patch never calls this; it exists for tools and
// tests.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	d.stopped = true
	d.cond.Broadcast()
	d.mu.Unlock()
	d.stopCtx()

	if d.started.Load() {
		<-d.done
	}
	d.state.Store(int32(StateStopped))
}

// Pending returns the number of queued events.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// State returns the worker's current phase.
func (d *Dispatcher) State() State {
	return State(d.state.Load())
}

// Stats returns a snapshot of the counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Enqueued:      d.enqueued.Load(),
		Dispatched:    d.dispatched.Load(),
		Failures:      d.failures.Load(),
		Discarded:     d.discarded.Load(),
		Cancellations: d.cancellations.Load(),
	}
}

// run is the worker loop. mu is released explicitly rather than deferred so
// a panic while dispatching (mu not held) leaves the mutex usable when
// ManagedGo restarts the loop.
func (d *Dispatcher) run() {
	d.mu.Lock()
	for {
		for len(d.queue) == 0 && !d.cancel && !d.stopped {
			d.state.Store(int32(StateWaiting))
			d.logger.Debug("Executor: waiting for incoming events")
			d.cond.Wait()
		}
		if d.stopped {
			d.mu.Unlock()
			return
		}
		if d.cancel {
			d.drainLocked()
			continue
		}

		d.state.Store(int32(StateDraining))
		for len(d.queue) > 0 {
			if d.cancel || d.stopped {
				break
			}
			ev := d.queue[0]
			d.queue[0] = KeyEvent{}
			d.queue = d.queue[1:]

			d.mu.Unlock()
			d.dispatch(ev)
			d.mu.Lock()
		}
	}
}

// drainLocked discards the whole queue and clears the flag. mu must be held.
func (d *Dispatcher) drainLocked() {
	d.state.Store(int32(StateCancelling))
	n := len(d.queue)
	d.queue = nil
	d.cancel = false
	d.discarded.Add(uint64(n))
	d.cancellations.Add(1)
	d.logger.Debugw("Executor: cancelled queued input", "discarded", n)
}

func (d *Dispatcher) dispatch(ev KeyEvent) {
	d.logger.Debugw("Executor: send", "event", ev.String(), "tick", time.Now().UnixMilli())
	if err := d.injector.SendKey(uint16(ev.Key), ev.Release); err != nil {
		d.failures.Add(1)
		d.logger.Errorw("Executor: SendInput failed", "event", ev.String(), "error", err)
	} else {
		d.dispatched.Add(1)
	}
	if ev.Delay > 0 {
		d.sleep(d.ctx, ev.Delay)
	}
}
