//go:build unix

package engine

import (
	"testing"

	"go.viam.com/test"
	"golang.org/x/sys/unix"
)

// hostMemory returns n zeroed bytes mapped outside the Go heap.
func hostMemory(t *testing.T, n int) []byte {
	t.Helper()
	mem, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	test.That(t, err, test.ShouldBeNil)
	t.Cleanup(func() { unix.Munmap(mem) })
	return mem
}
