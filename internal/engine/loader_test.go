package engine

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.viam.com/test"
)

const targetScript = "Sidequest_ArcheryRange_TargetManager.gm"

type countingAllocator struct {
	allocs int
	frees  int
}

func (a *countingAllocator) Alloc(n int) []byte {
	a.allocs++
	return make([]byte, n)
}

func (a *countingAllocator) Free([]byte) { a.frees++ }

func newTestLoader(t *testing.T, patchPath string) (*PatchLoader, *[]LoadRequest, *countingAllocator) {
	t.Helper()
	var seen []LoadRequest
	alloc := &countingAllocator{}
	return &PatchLoader{
		ScriptName: targetScript,
		PatchPath:  patchPath,
		Allocator:  alloc,
		Logger:     golog.NewTestLogger(t),
		Next: func(req LoadRequest) int64 {
			seen = append(seen, req)
			return 1
		},
	}, &seen, alloc
}

func TestPatchLoaderSubstitutesTarget(t *testing.T) {
	patch := []byte("gml0\x01\x00\x00\x00patched bytecode")
	path := filepath.Join(t.TempDir(), "patch_.gmb")
	test.That(t, os.WriteFile(path, patch, 0o644), test.ShouldBeNil)

	l, seen, alloc := newTestLoader(t, path)
	ret := l.Load(LoadRequest{Filename: targetScript, Buffer: []byte("engine bytes"), Arg7: 1})

	test.That(t, ret, test.ShouldEqual, int64(1))
	test.That(t, *seen, test.ShouldHaveLength, 1)
	test.That(t, (*seen)[0].Buffer, test.ShouldResemble, patch)
	test.That(t, (*seen)[0].Arg7, test.ShouldEqual, byte(1))
	test.That(t, alloc.allocs, test.ShouldEqual, 1)
}

func TestPatchLoaderForwardsOtherScripts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patch_.gmb")
	test.That(t, os.WriteFile(path, []byte("patched"), 0o644), test.ShouldBeNil)

	l, seen, alloc := newTestLoader(t, path)
	original := []byte{0x67, 0x6d, 0x6c, 0x30, 0x00, 0xff}
	l.Load(LoadRequest{Filename: "Sidequest_Other.gm", Buffer: original})

	test.That(t, *seen, test.ShouldHaveLength, 1)
	test.That(t, (*seen)[0].Buffer, test.ShouldResemble, original)
	test.That(t, &(*seen)[0].Buffer[0], test.ShouldEqual, &original[0])
	test.That(t, alloc.allocs, test.ShouldEqual, 0)
}

func TestPatchLoaderMissingPatchForwardsEngineBuffer(t *testing.T) {
	l, seen, _ := newTestLoader(t, filepath.Join(t.TempDir(), "missing.gmb"))
	original := []byte("engine bytes")
	l.Load(LoadRequest{Filename: targetScript, Buffer: original})

	test.That(t, *seen, test.ShouldHaveLength, 1)
	test.That(t, (*seen)[0].Buffer, test.ShouldResemble, original)
}

func TestHeapAllocator(t *testing.T) {
	var a HeapAllocator
	buf := a.Alloc(16)
	test.That(t, buf, test.ShouldHaveLength, 16)
	a.Free(buf)
}

func TestPatchLoaderKeepsNativeBuffer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patch_.gmb")
	test.That(t, os.WriteFile(path, []byte("patched"), 0o644), test.ShouldBeNil)
	l, seen, _ := newTestLoader(t, path)

	// an empty but non-null engine buffer
	l.Load(LoadRequest{Filename: "Sidequest_Other.gm", Buffer: []byte{}, native: nativeNames{buffer: 0x1000}})
	l.Load(LoadRequest{Filename: targetScript, Buffer: []byte{}, native: nativeNames{buffer: 0x2000}})

	test.That(t, *seen, test.ShouldHaveLength, 2)
	test.That(t, (*seen)[0].native.buffer, test.ShouldEqual, uintptr(0x1000))
	test.That(t, (*seen)[1].native.buffer, test.ShouldEqual, uintptr(0))
	test.That(t, (*seen)[1].Buffer, test.ShouldResemble, []byte("patched"))
}

type fileInfo struct {
	fs.FileInfo
	size int64
}

func (i fileInfo) Size() int64 { return i.size }

type badCloseFile struct {
	*bytes.Reader
}

func (f badCloseFile) Stat() (fs.FileInfo, error) { return fileInfo{size: f.Size()}, nil }
func (f badCloseFile) Close() error               { return errors.New("close failed") }

func TestPatchLoaderCloseErrorFreesBuffer(t *testing.T) {
	orig := openPatch
	t.Cleanup(func() { openPatch = orig })
	openPatch = func(string) (patchFile, error) {
		return badCloseFile{bytes.NewReader([]byte("patched"))}, nil
	}

	l, seen, alloc := newTestLoader(t, "patch_.gmb")
	original := []byte("engine bytes")
	l.Load(LoadRequest{Filename: targetScript, Buffer: original})

	test.That(t, *seen, test.ShouldHaveLength, 1)
	test.That(t, (*seen)[0].Buffer, test.ShouldResemble, original)
	test.That(t, alloc.allocs, test.ShouldEqual, 1)
	test.That(t, alloc.frees, test.ShouldEqual, 1)
}
