package engine

import (
	"testing"
	"unsafe"

	"go.viam.com/test"
	"golang.org/x/sys/windows"
)

// hostMemory returns n zeroed bytes allocated outside the Go heap.
func hostMemory(t *testing.T, n int) []byte {
	t.Helper()
	addr, err := windows.VirtualAlloc(0, uintptr(n), windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	test.That(t, err, test.ShouldBeNil)
	t.Cleanup(func() { windows.VirtualFree(addr, 0, windows.MEM_RELEASE) })
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), n) //nolint:govet
}
