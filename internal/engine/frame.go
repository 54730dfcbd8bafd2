package engine

import "unsafe"

// Layout is the byte layout of the host's gmThread and gmVariable. The host
// ships a modified engine, so these do not match upstream GameMonkey.
type Layout struct {
	ParamCount uintptr // int16 number of parameters of the current call
	Stack      uintptr // *gmVariable value stack
	Base       uintptr // int32 index of the first argument on the stack
	SlotSize   uintptr // sizeof(gmVariable)
}

// DefaultLayout matches the game build the patch targets.
var DefaultLayout = Layout{
	ParamCount: 0xA0,
	Stack:      0x38,
	Base:       0x48,
	SlotSize:   24,
}

// FrameReader reads arguments straight out of a gmThread in host memory.
// A wrong Layout reads garbage; nothing here can detect that.
type FrameReader struct {
	thread uintptr
	layout Layout
}

// NewFrameReader wraps the gmThread at thread using DefaultLayout.
func NewFrameReader(thread uintptr) FrameReader {
	return FrameReader{thread: thread, layout: DefaultLayout}
}

// NewFrameReaderWithLayout wraps thread with an explicit layout.
func NewFrameReaderWithLayout(thread uintptr, layout Layout) FrameReader {
	return FrameReader{thread: thread, layout: layout}
}

func (f FrameReader) NumParams() int {
	return int(*(*int16)(at(f.thread, f.layout.ParamCount)))
}

// slot returns the address of argument i. The value union sits at offset 0
// of the slot.
func (f FrameReader) slot(i int) unsafe.Pointer {
	stack := *(*uintptr)(at(f.thread, f.layout.Stack))
	base := *(*int32)(at(f.thread, f.layout.Base))
	return at(stack, uintptr(int(base)+i)*f.layout.SlotSize)
}

func (f FrameReader) ReadInt(i int) int32 {
	return *(*int32)(f.slot(i))
}

func (f FrameReader) ReadFloat(i int) float32 {
	return *(*float32)(f.slot(i))
}

func (f FrameReader) ReadBool(i int) bool {
	return f.ReadInt(i) != 0
}

// at converts a host address plus offset to a pointer. The memory belongs to
// the host, not the Go heap.
func at(addr, off uintptr) unsafe.Pointer {
	return unsafe.Pointer(addr + off) //nolint:govet
}
