package gmlib

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
)

func words(vals ...uint32) []byte {
	var b bytes.Buffer
	for _, v := range vals {
		putU32(&b, v)
	}
	return b.Bytes()
}

func newFunction(id uint32, name uint32, code []byte, symbols ...uint32) *Function {
	return &Function{
		Header: FunctionHeader{
			Magic:        funcMagic,
			ID:           id,
			NumParams:    uint32(len(symbols)),
			MaxStackSize: 4,
			CodeLen:      uint32(len(code)),
		},
		Code:      code,
		DebugName: name,
		Lines:     []LineInfo{{Address: 0, Line: 1}},
		Symbols:   symbols,
	}
}

func sampleLib() *Lib {
	// "main\0" @0, "x\0" @5, "foo\0" @7
	return &Lib{
		Header:  Header{Magic: libMagic, Flags: FlagDebug},
		Strings: StringTable("main\x00x\x00foo\x00"),
		Source:  Source{Flags: 0, Text: []byte("x = \"foo\";\x00")},
		Functions: []*Function{
			newFunction(0, 0, words(
				uint32(OpPushStr), 7,
				uint32(OpSetLocal), 0,
				uint32(OpPushInt), 0xFFFFFFFE,
				uint32(OpPushFP), 0x3FC00000,
				uint32(OpBrz), 40,
				uint32(OpCall), 2,
				uint32(OpPushFn), 1,
				uint32(OpRet),
			), 5),
		},
	}
}

func TestRoundTrip(t *testing.T) {
	lib := sampleLib()
	data := lib.Bytes()

	got, err := Read(data)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got.Strings, test.ShouldResemble, lib.Strings)
	test.That(t, got.Source, test.ShouldResemble, lib.Source)
	test.That(t, got.Functions, test.ShouldHaveLength, 1)
	test.That(t, got.Functions[0], test.ShouldResemble, lib.Functions[0])
	test.That(t, got.Header.StringsOffset, test.ShouldEqual, uint32(HeaderSize))
	test.That(t, got.Bytes(), test.ShouldResemble, data)
	test.That(t, string(got.Source.Code()), test.ShouldEqual, "x = \"foo\";")
}

func TestReadRejects(t *testing.T) {
	good := sampleLib().Bytes()

	badMagic := bytes.Clone(good)
	copy(badMagic, "gml1")
	_, err := Read(badMagic)
	test.That(t, errors.Is(err, ErrBadMagic), test.ShouldBeTrue)

	noDebug := bytes.Clone(good)
	noDebug[4] = 0
	_, err = Read(noDebug)
	test.That(t, errors.Is(err, ErrNotDebug), test.ShouldBeTrue)

	_, err = Read(append(bytes.Clone(good), 0))
	test.That(t, errors.Is(err, ErrTrailingData), test.ShouldBeTrue)

	_, err = Read(good[:len(good)-2])
	test.That(t, errors.Is(err, ErrTruncated), test.ShouldBeTrue)

	_, err = Read(good[:10])
	test.That(t, errors.Is(err, ErrTruncated), test.ShouldBeTrue)

	lib := sampleLib()
	lib.Functions[0].Header.Magic = [4]byte{'f', 'u', 'n', 'k'}
	_, err = Read(lib.Bytes())
	test.That(t, errors.Is(err, ErrBadFunctionMagic), test.ShouldBeTrue)
}

func TestDisassemble(t *testing.T) {
	var out strings.Builder
	err := Disassemble(&out, sampleLib(), 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out.String(), test.ShouldEqual, strings.Join([]string{
		"0000 BC_PUSHSTR foo",
		"0008 BC_SETLOCAL x",
		"0016 BC_PUSHINT -2",
		"0024 BC_PUSHFP 1.5",
		"0032 BC_BRZ ptr=0040",
		"0040 BC_CALL params=2",
		"0048 BC_PUSHFN function_1",
		"0056 BC_RET",
		"",
	}, "\n"))

	err = Disassemble(&out, sampleLib(), 3)
	test.That(t, errors.Is(err, ErrNoSuchFunction), test.ShouldBeTrue)
}

func TestDisassembleBadSymbol(t *testing.T) {
	lib := sampleLib()
	lib.Functions[0].Code = words(uint32(OpGetLocal), 9)
	var out strings.Builder
	err := Disassemble(&out, lib, 0)
	test.That(t, errors.Is(err, ErrBadSymbol), test.ShouldBeTrue)
}

func TestDecodeTruncated(t *testing.T) {
	ins, err := Decode(words(uint32(OpRet), uint32(OpPushInt)))
	test.That(t, err, test.ShouldEqual, ErrTruncated)
	test.That(t, ins, test.ShouldHaveLength, 1)

	_, err = Decode([]byte{1, 0})
	test.That(t, err, test.ShouldEqual, ErrTruncated)
}

func TestOpcodeString(t *testing.T) {
	test.That(t, OpGetDot.String(), test.ShouldEqual, "BC_GETDOT")
	test.That(t, OpFork.String(), test.ShouldEqual, "BC_FORK")
	test.That(t, Opcode(99).String(), test.ShouldEqual, "BC_UNKNOWN(99)")
}

func TestMerge(t *testing.T) {
	base := sampleLib()
	base.Functions = append(base.Functions, newFunction(1, 5, words(uint32(OpRet))))

	// "main\0" @0, "bar\0" @5, "y\0" @9, "other\0" @11
	patch := &Lib{
		Header:  Header{Magic: libMagic, Flags: FlagDebug},
		Strings: StringTable("main\x00bar\x00y\x00other\x00"),
		Functions: []*Function{
			newFunction(7, 0, words(
				uint32(OpPushStr), 5,
				uint32(OpGetLocal), 0,
				uint32(OpRetv),
			), 9),
			newFunction(8, 11, words(uint32(OpRet))),
		},
	}
	patchCode := bytes.Clone(patch.Functions[0].Code)

	candidates, err := Merge(base, patch)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, candidates, test.ShouldResemble, []MergeCandidate{{Name: "main", BaseID: 0, PatchID: 7}})

	// base table, an empty separator string, then the patch table
	test.That(t, string(base.Strings), test.ShouldEqual, "main\x00x\x00foo\x00\x00main\x00bar\x00y\x00other\x00")
	test.That(t, base.Functions, test.ShouldHaveLength, 2)

	fn := base.Functions[0]
	test.That(t, fn.Header.ID, test.ShouldEqual, uint32(0))
	test.That(t, fn.DebugName, test.ShouldEqual, uint32(0))
	test.That(t, fn.Code, test.ShouldResemble, words(
		uint32(OpPushStr), 17,
		uint32(OpGetLocal), 0,
		uint32(OpRetv),
	))
	test.That(t, fn.Symbols, test.ShouldResemble, []uint32{21})
	test.That(t, base.Name(fn), test.ShouldEqual, "main")

	var out strings.Builder
	test.That(t, Disassemble(&out, base, 0), test.ShouldBeNil)
	test.That(t, out.String(), test.ShouldEqual, "0000 BC_PUSHSTR bar\n0008 BC_GETLOCAL y\n0016 BC_RETV\n")

	// the patch library itself is left alone
	test.That(t, patch.Functions[0].Code, test.ShouldResemble, patchCode)
	test.That(t, patch.Functions[0].Symbols, test.ShouldResemble, []uint32{9})

	merged, err := Read(base.Bytes())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, merged.Functions[0].Code, test.ShouldResemble, fn.Code)
}

func TestMergeNoCandidates(t *testing.T) {
	base := sampleLib()
	patch := &Lib{
		Header:    Header{Magic: libMagic, Flags: FlagDebug},
		Strings:   StringTable("other\x00"),
		Functions: []*Function{newFunction(0, 0, words(uint32(OpRet)))},
	}
	before := bytes.Clone(base.Functions[0].Code)

	candidates, err := Merge(base, patch)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, candidates, test.ShouldBeEmpty)
	test.That(t, base.Functions[0].Code, test.ShouldResemble, before)
}

func TestMergeFailureLeavesBaseAlone(t *testing.T) {
	base := sampleLib()
	base.Functions = append(base.Functions, newFunction(1, 5, words(uint32(OpRet))))
	strs := bytes.Clone(base.Strings)
	code := bytes.Clone(base.Functions[0].Code)

	// "main" relocates cleanly, "x" refers to a symbol it does not have
	patch := &Lib{
		Header:  Header{Magic: libMagic, Flags: FlagDebug},
		Strings: StringTable("main\x00x\x00"),
		Functions: []*Function{
			newFunction(3, 0, words(uint32(OpRet))),
			newFunction(4, 5, words(uint32(OpGetLocal), 2, uint32(OpRet))),
		},
	}

	candidates, err := Merge(base, patch)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, ErrBadSymbol), test.ShouldBeTrue)
	test.That(t, candidates, test.ShouldBeNil)
	test.That(t, base.Strings, test.ShouldResemble, strs)
	test.That(t, base.Functions[0].Code, test.ShouldResemble, code)
	test.That(t, base.Functions[1].Code, test.ShouldResemble, words(uint32(OpRet)))
}

func TestStringTable(t *testing.T) {
	st := StringTable("ab\x00b\x00")
	test.That(t, st.At(0), test.ShouldEqual, "ab")
	test.That(t, st.At(1), test.ShouldEqual, "b")
	test.That(t, st.At(100), test.ShouldEqual, "")

	off, ok := st.Find("b")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, off, test.ShouldEqual, uint32(1))
	_, ok = st.Find("c")
	test.That(t, ok, test.ShouldBeFalse)
}

func levelFile(nested uint32, names string, scripts ...[]byte) []byte {
	var b bytes.Buffer
	b.WriteByte(1)
	putU32(&b, uint32(len(names)))
	b.WriteString(names)
	putU32(&b, nested)
	putU32(&b, uint32(len(scripts)/2))
	for i := 0; i+1 < len(scripts); i += 2 {
		b.Write(scripts[i])
		putU32(&b, uint32(len(scripts[i+1])))
		b.Write(scripts[i+1])
	}
	return b.Bytes()
}

func TestReadLevel(t *testing.T) {
	data := levelFile(0, "a.gm\x00b.gm\x00",
		words(5), []byte("de"),
		words(0), []byte("abc"),
	)
	scripts, err := ReadLevel(data)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, scripts, test.ShouldResemble, []Script{
		{Name: "b.gm", Lib: []byte("de")},
		{Name: "a.gm", Lib: []byte("abc")},
	})
}

func TestReadLevelRejects(t *testing.T) {
	_, err := ReadLevel(levelFile(1, ""))
	test.That(t, err, test.ShouldEqual, ErrNestedLevel)

	bad := levelFile(0, "")
	bad[0] = 2
	_, err = ReadLevel(bad)
	test.That(t, errors.Is(err, ErrBadLevel), test.ShouldBeTrue)

	short := levelFile(0, "a.gm\x00", words(0), []byte("abc"))
	_, err = ReadLevel(short[:len(short)-1])
	test.That(t, errors.Is(err, ErrTruncated), test.ShouldBeTrue)

	_, err = ReadLevel(nil)
	test.That(t, errors.Is(err, ErrTruncated), test.ShouldBeTrue)
}
