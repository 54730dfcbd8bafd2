package engine

import (
	"errors"
	"testing"

	"github.com/edaniels/golog"
	"go.viam.com/test"
)

type registered struct {
	machine  uintptr
	names    []string
	table    string
	newTable bool
}

type fakeEngine struct {
	calls  []registered
	err    error
	onCall func()
}

func (e *fakeEngine) RegisterLibrary(machine uintptr, fns []FunctionEntry, table string, newTable bool) error {
	names := make([]string, 0, len(fns))
	for _, fn := range fns {
		names = append(names, fn.Name)
	}
	e.calls = append(e.calls, registered{machine: machine, names: names, table: table, newTable: newTable})
	if e.onCall != nil {
		e.onCall()
	}
	return e.err
}

type onceWorker struct {
	calls   int
	started int
	onStart func()
}

func (w *onceWorker) Start() bool {
	w.calls++
	if w.onStart != nil {
		w.onStart()
	}
	if w.started > 0 {
		return false
	}
	w.started++
	return true
}

func testFunctions() []FunctionEntry {
	nop := func(ArgumentReader) int { return ResultOK }
	return []FunctionEntry{{Name: "Dinput", Func: nop}, {Name: "Dcancel", Func: nop}}
}

func TestRegistrationHookOrder(t *testing.T) {
	var order []string
	eng := &fakeEngine{onCall: func() { order = append(order, "register") }}
	worker := &onceWorker{onStart: func() { order = append(order, "start") }}
	h := &RegistrationHook{
		Original:  func(machine uintptr) { order = append(order, "original") },
		Engine:    eng,
		Worker:    worker,
		Functions: testFunctions(),
		Logger:    golog.NewTestLogger(t),
	}

	test.That(t, h.Register(0x1000), test.ShouldBeNil)

	test.That(t, order, test.ShouldResemble, []string{"original", "start", "register"})
	test.That(t, worker.started, test.ShouldEqual, 1)
	test.That(t, eng.calls, test.ShouldHaveLength, 1)
	test.That(t, eng.calls[0].machine, test.ShouldEqual, uintptr(0x1000))
	test.That(t, eng.calls[0].names, test.ShouldResemble, []string{"Dinput", "Dcancel"})
	test.That(t, eng.calls[0].table, test.ShouldEqual, "")
	test.That(t, eng.calls[0].newTable, test.ShouldBeTrue)
}

func TestRegistrationHookStartsWorkerOnce(t *testing.T) {
	eng := &fakeEngine{}
	worker := &onceWorker{}
	h := &RegistrationHook{Engine: eng, Worker: worker, Functions: testFunctions(), Logger: golog.NewTestLogger(t)}

	for i := 0; i < 3; i++ {
		test.That(t, h.Register(uintptr(0x1000+i)), test.ShouldBeNil)
	}
	test.That(t, worker.calls, test.ShouldEqual, 3)
	test.That(t, worker.started, test.ShouldEqual, 1)
	test.That(t, eng.calls, test.ShouldHaveLength, 3)
}

func TestRegistrationHookEngineError(t *testing.T) {
	eng := &fakeEngine{err: errors.New("table full")}
	h := &RegistrationHook{Engine: eng, Worker: &onceWorker{}, Logger: golog.NewTestLogger(t)}
	err := h.Register(1)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "table full")
}
