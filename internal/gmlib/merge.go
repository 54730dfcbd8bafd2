package gmlib

import (
	"bytes"

	"github.com/pkg/errors"
)

// MergeCandidate pairs a base function with the patch function that
// replaces it. Both share a debug name.
type MergeCandidate struct {
	Name    string
	BaseID  uint32
	PatchID uint32
}

// Merge replaces every function of base whose debug name also appears in
// patch with the patch's version. The patch string table is appended to
// base's, and string and symbol operands of the replacement code are
// rewritten to point into the merged table. A replaced function keeps its
// id, debug name and base classes; header, code, symbols and line info come
// from the patch. patch is not modified.
func Merge(base, patch *Lib) ([]MergeCandidate, error) {
	merged := StringTable(bytes.Join(
		append(bytes.Split(base.Strings, []byte{0}), bytes.Split(patch.Strings, []byte{0})...),
		[]byte{0},
	))

	byName := make(map[string]*Function, len(base.Functions))
	for _, fn := range base.Functions {
		byName[base.Name(fn)] = fn
	}

	type replacement struct {
		into, from *Function
		code       []byte
		symbols    []uint32
	}
	var (
		candidates []MergeCandidate
		pending    []replacement
	)
	for _, p := range patch.Functions {
		name := patch.Name(p)
		o, ok := byName[name]
		if !ok {
			continue
		}
		code, symbols, err := relocate(patch, p, merged)
		if err != nil {
			return nil, errors.Wrapf(err, "relocating %q", name)
		}
		candidates = append(candidates, MergeCandidate{Name: name, BaseID: o.Header.ID, PatchID: p.Header.ID})
		pending = append(pending, replacement{into: o, from: p, code: code, symbols: symbols})
	}

	// base is only touched once every replacement relocated cleanly
	for _, r := range pending {
		id := r.into.Header.ID
		r.into.Header = r.from.Header
		r.into.Header.ID = id
		r.into.Code = r.code
		r.into.Symbols = r.symbols
		r.into.Lines = append([]LineInfo(nil), r.from.Lines...)
	}

	base.Strings = merged
	return candidates, nil
}

// relocate returns copies of fn's code and symbol table with every string
// reference resolved against merged.
func relocate(src *Lib, fn *Function, merged StringTable) ([]byte, []uint32, error) {
	lookup := func(off uint32) (uint32, error) {
		s := src.Strings.At(off)
		n, ok := merged.Find(s)
		if !ok {
			return 0, errors.Errorf("string %q missing from merged table", s)
		}
		return n, nil
	}

	symbols := make([]uint32, len(fn.Symbols))
	for i, off := range fn.Symbols {
		n, err := lookup(off)
		if err != nil {
			return nil, nil, err
		}
		symbols[i] = n
	}

	code := bytes.Clone(fn.Code)
	ins, err := Decode(code)
	if err != nil {
		return nil, nil, err
	}
	for _, in := range ins {
		switch in.Op.Operand() {
		case OperandSymbol:
			if int(in.Operand) >= len(symbols) {
				return nil, nil, errors.Wrapf(ErrBadSymbol, "at %04d", in.Offset)
			}
		case OperandString:
			n, err := lookup(in.Operand)
			if err != nil {
				return nil, nil, err
			}
			le.PutUint32(code[in.Offset+4:], n)
		}
	}
	return code, symbols, nil
}
