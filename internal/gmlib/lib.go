// Package gmlib reads, writes and edits compiled GameMonkey libraries
// ("gml0" files) and the script tables embedded in level files.
package gmlib

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

var le = binary.LittleEndian

const (
	HeaderSize         = 20
	FunctionHeaderSize = 32

	// FlagDebug marks a library carrying source, names and line info.
	FlagDebug = 1
)

var (
	libMagic  = [4]byte{'g', 'm', 'l', '0'}
	funcMagic = [4]byte{'f', 'u', 'n', 'c'}
)

// Header is the fixed library header. Offsets are recomputed by Bytes.
type Header struct {
	Magic          [4]byte
	Flags          uint32
	StringsOffset  uint32
	SourceOffset   uint32
	FunctionOffset uint32
}

// StringTable holds NUL-terminated strings addressed by byte offset.
type StringTable []byte

// At returns the string starting at off.
func (st StringTable) At(off uint32) string {
	if int(off) >= len(st) {
		return ""
	}
	s := st[off:]
	if i := bytes.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return string(s)
}

// Find returns the offset of the first NUL-terminated occurrence of s.
func (st StringTable) Find(s string) (uint32, bool) {
	needle := append([]byte(s), 0)
	i := bytes.Index(st, needle)
	if i < 0 {
		return 0, false
	}
	return uint32(i), true
}

// Source is the embedded script source. The text normally ends with a NUL.
type Source struct {
	Flags uint32
	Text  []byte
}

// Code returns the source text without its terminating NUL.
func (s Source) Code() []byte {
	return bytes.TrimSuffix(s.Text, []byte{0})
}

// FunctionHeader is the fixed part of a function record.
type FunctionHeader struct {
	Magic          [4]byte
	ID             uint32
	Flags          uint32
	NumParams      uint32
	NumLocals      uint32
	BaseClassCount uint32
	MaxStackSize   uint32
	CodeLen        uint32
}

// LineInfo maps a bytecode address to a source line.
type LineInfo struct {
	Address uint32
	Line    uint32
}

// Function is one compiled function. Symbols holds the string offsets of
// its parameters followed by its locals.
type Function struct {
	Header      FunctionHeader
	Code        []byte
	DebugName   uint32
	BaseClasses []uint32
	Lines       []LineInfo
	Symbols     []uint32
}

// Lib is a decoded gml0 library.
type Lib struct {
	Header    Header
	Strings   StringTable
	Source    Source
	Functions []*Function
}

// Name returns the debug name of fn.
func (l *Lib) Name(fn *Function) string {
	return l.Strings.At(fn.DebugName)
}

// Symbol returns the name of local slot idx of fn.
func (l *Lib) Symbol(fn *Function, idx uint32) (string, error) {
	if int(idx) >= len(fn.Symbols) {
		return "", errors.Wrapf(ErrBadSymbol, "symbol %d of %d", idx, len(fn.Symbols))
	}
	return l.Strings.At(fn.Symbols[idx]), nil
}

type reader struct {
	buf []byte
	err error
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > len(r.buf) {
		r.err = ErrTruncated
		return nil
	}
	b := r.buf[:n]
	r.buf = r.buf[n:]
	return b
}

func (r *reader) u32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return le.Uint32(b)
}

func (r *reader) magic() (m [4]byte) {
	copy(m[:], r.take(4))
	return m
}

// section returns a reader positioned at off, or a failed reader.
func section(data []byte, off uint32) *reader {
	if int(off) > len(data) {
		return &reader{err: ErrTruncated}
	}
	return &reader{buf: data[off:]}
}

// Read decodes a library. Only debug libraries are accepted, and the
// function section must end exactly at the end of data.
func Read(data []byte) (*Lib, error) {
	r := &reader{buf: data}
	lib := &Lib{}
	lib.Header = Header{
		Magic:          r.magic(),
		Flags:          r.u32(),
		StringsOffset:  r.u32(),
		SourceOffset:   r.u32(),
		FunctionOffset: r.u32(),
	}
	if r.err != nil {
		return nil, errors.Wrap(r.err, "reading header")
	}
	if lib.Header.Magic != libMagic {
		return nil, ErrBadMagic
	}
	if lib.Header.Flags&FlagDebug == 0 {
		return nil, ErrNotDebug
	}

	st := section(data, lib.Header.StringsOffset)
	size := st.u32()
	lib.Strings = StringTable(bytes.Clone(st.take(int(size))))
	if st.err != nil {
		return nil, errors.Wrap(st.err, "reading string table")
	}

	sc := section(data, lib.Header.SourceOffset)
	size = sc.u32()
	lib.Source.Flags = sc.u32()
	lib.Source.Text = bytes.Clone(sc.take(int(size)))
	if sc.err != nil {
		return nil, errors.Wrap(sc.err, "reading source")
	}

	fr := section(data, lib.Header.FunctionOffset)
	count := fr.u32()
	for i := uint32(0); i < count && fr.err == nil; i++ {
		fn, err := readFunction(fr)
		if err != nil {
			return nil, errors.Wrapf(err, "reading function %d", i)
		}
		lib.Functions = append(lib.Functions, fn)
	}
	if fr.err != nil {
		return nil, errors.Wrap(fr.err, "reading functions")
	}
	if len(fr.buf) != 0 {
		return nil, errors.Wrapf(ErrTrailingData, "%d bytes left", len(fr.buf))
	}
	return lib, nil
}

func readFunction(r *reader) (*Function, error) {
	fn := &Function{}
	fn.Header = FunctionHeader{
		Magic:          r.magic(),
		ID:             r.u32(),
		Flags:          r.u32(),
		NumParams:      r.u32(),
		NumLocals:      r.u32(),
		BaseClassCount: r.u32(),
		MaxStackSize:   r.u32(),
		CodeLen:        r.u32(),
	}
	if r.err != nil {
		return nil, r.err
	}
	if fn.Header.Magic != funcMagic {
		return nil, ErrBadFunctionMagic
	}
	fn.Code = bytes.Clone(r.take(int(fn.Header.CodeLen)))
	fn.DebugName = r.u32()
	for i := uint32(0); i < fn.Header.BaseClassCount && r.err == nil; i++ {
		fn.BaseClasses = append(fn.BaseClasses, r.u32())
	}
	lines := r.u32()
	for i := uint32(0); i < lines && r.err == nil; i++ {
		fn.Lines = append(fn.Lines, LineInfo{Address: r.u32(), Line: r.u32()})
	}
	for i := uint32(0); i < fn.Header.NumParams+fn.Header.NumLocals && r.err == nil; i++ {
		fn.Symbols = append(fn.Symbols, r.u32())
	}
	return fn, r.err
}

// Bytes encodes the library in canonical order: header, string table,
// source, functions. Header offsets are recomputed; magic and flags are
// kept. Function code lengths follow the stored code.
func (l *Lib) Bytes() []byte {
	var st, sc, fns bytes.Buffer
	putU32(&st, uint32(len(l.Strings)))
	st.Write(l.Strings)

	putU32(&sc, uint32(len(l.Source.Text)))
	putU32(&sc, l.Source.Flags)
	sc.Write(l.Source.Text)

	putU32(&fns, uint32(len(l.Functions)))
	for _, fn := range l.Functions {
		h := fn.Header
		h.CodeLen = uint32(len(fn.Code))
		h.BaseClassCount = uint32(len(fn.BaseClasses))
		fns.Write(h.Magic[:])
		for _, v := range []uint32{h.ID, h.Flags, h.NumParams, h.NumLocals, h.BaseClassCount, h.MaxStackSize, h.CodeLen} {
			putU32(&fns, v)
		}
		fns.Write(fn.Code)
		putU32(&fns, fn.DebugName)
		for _, b := range fn.BaseClasses {
			putU32(&fns, b)
		}
		putU32(&fns, uint32(len(fn.Lines)))
		for _, li := range fn.Lines {
			putU32(&fns, li.Address)
			putU32(&fns, li.Line)
		}
		for _, s := range fn.Symbols {
			putU32(&fns, s)
		}
	}

	var out bytes.Buffer
	out.Write(l.Header.Magic[:])
	putU32(&out, l.Header.Flags)
	putU32(&out, HeaderSize)
	putU32(&out, uint32(HeaderSize+st.Len()))
	putU32(&out, uint32(HeaderSize+st.Len()+sc.Len()))
	out.Write(st.Bytes())
	out.Write(sc.Bytes())
	out.Write(fns.Bytes())
	return out.Bytes()
}

func putU32(b *bytes.Buffer, v uint32) {
	var w [4]byte
	le.PutUint32(w[:], v)
	b.Write(w[:])
}
