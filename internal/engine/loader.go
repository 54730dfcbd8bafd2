package engine

import (
	"io"
	"io/fs"
	"os"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// LoadRequest is one call of the host's "execute script library" function.
type LoadRequest struct {
	Self     uintptr
	Filename string
	Fullname string
	Buffer   []byte
	Arg6     uintptr
	Arg7     byte

	// native keeps the host's own pointers so they can be passed back
	// unchanged.
	native nativeNames
}

type nativeNames struct {
	filename uintptr
	fullname uintptr
	buffer   uintptr // zero once Buffer has been substituted
}

// LoaderFunc executes a script library.
type LoaderFunc func(req LoadRequest) int64

// Allocator hands out buffers the engine may keep and later free.
type Allocator interface {
	Alloc(n int) []byte
	Free(buf []byte)
}

// HeapAllocator allocates on the Go heap.
type HeapAllocator struct{}

func (HeapAllocator) Alloc(n int) []byte { return make([]byte, n) }

func (HeapAllocator) Free([]byte) {}

// PatchLoader swaps the bytecode of one script for a precompiled file before
// handing the call to the original loader.
type PatchLoader struct {
	ScriptName string
	PatchPath  string
	Allocator  Allocator
	Next       LoaderFunc
	Logger     golog.Logger
}

// Load forwards req to Next, with the buffer replaced by the patch file when
// req names ScriptName. If the patch cannot be read the engine's own buffer
// is forwarded.
func (p *PatchLoader) Load(req LoadRequest) int64 {
	p.Logger.Debugw("Executor: ExecuteGmLib", "filename", req.Filename, "len", len(req.Buffer))
	if req.Filename == p.ScriptName {
		buf, err := p.readPatch()
		if err != nil {
			p.Logger.Errorw("Executor: patch not applied", "filename", req.Filename, "error", err)
		} else {
			req.Buffer = buf
			req.native.buffer = 0
			p.Logger.Debugw("Executor: substituted bytecode", "filename", req.Filename, "len", len(buf))
		}
	}
	return p.Next(req)
}

type patchFile interface {
	io.ReadCloser
	Stat() (fs.FileInfo, error)
}

var openPatch = func(name string) (patchFile, error) { return os.Open(name) }

func (p *PatchLoader) readPatch() (buf []byte, err error) {
	f, err := openPatch(p.PatchPath)
	if err != nil {
		return nil, errors.Wrap(err, "open patch")
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
		if err != nil && buf != nil {
			p.Allocator.Free(buf)
			buf = nil
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "stat patch")
	}

	buf = p.Allocator.Alloc(int(info.Size()))
	if _, err := io.ReadFull(f, buf); err != nil {
		p.Allocator.Free(buf)
		return nil, errors.Wrapf(err, "read patch %s", p.PatchPath)
	}
	return buf, nil
}
