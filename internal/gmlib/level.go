package gmlib

import (
	"github.com/pkg/errors"
)

// Script is one compiled script stored in a level file.
type Script struct {
	Name string
	Lib  []byte
}

// ReadLevel returns the scripts embedded in a level.bin file in file order.
// A level that nests other levels yields ErrNestedLevel and no scripts.
func ReadLevel(data []byte) ([]Script, error) {
	r := &reader{buf: data}
	tag := r.take(1)
	if r.err != nil {
		return nil, errors.Wrap(r.err, "reading level tag")
	}
	if tag[0] != 1 {
		return nil, errors.Wrapf(ErrBadLevel, "tag %d", tag[0])
	}

	names := StringTable(r.take(int(r.u32())))
	if nested := r.u32(); r.err == nil && nested != 0 {
		return nil, ErrNestedLevel
	}

	count := r.u32()
	var scripts []Script
	for i := uint32(0); i < count && r.err == nil; i++ {
		nameOff := r.u32()
		body := r.take(int(r.u32()))
		if r.err != nil {
			break
		}
		scripts = append(scripts, Script{Name: names.At(nameOff), Lib: body})
	}
	if r.err != nil {
		return nil, errors.Wrapf(r.err, "reading script %d of %d", len(scripts), count)
	}
	return scripts, nil
}
