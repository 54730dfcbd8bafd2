//go:build windows

package engine

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	msvcrt     = windows.NewLazySystemDLL("msvcrt.dll")
	procMalloc = msvcrt.NewProc("malloc")
	procFree   = msvcrt.NewProc("free")
)

// CRTAllocator allocates with the C runtime's malloc so the engine can
// release the buffer with free.
type CRTAllocator struct{}

func (CRTAllocator) Alloc(n int) []byte {
	if n == 0 {
		return []byte{}
	}
	p, _, _ := procMalloc.Call(uintptr(n))
	if p == 0 {
		panic("malloc failed")
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(p)), n) //nolint:govet
}

func (CRTAllocator) Free(buf []byte) {
	if len(buf) == 0 {
		return
	}
	procFree.Call(uintptr(unsafe.Pointer(&buf[0])))
}
