package gmlib

import "fmt"

// Opcode is a GameMonkey bytecode instruction. Every opcode is a 32-bit
// little-endian word; some are followed by one 32-bit operand.
type Opcode uint32

const (
	OpGetDot Opcode = iota
	OpSetDot
	OpGetInd
	OpSetInd
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRem
	OpBitOr
	OpBitXor
	OpBitAnd
	OpBitShl
	OpBitShr
	OpBitInv
	OpLT
	OpGT
	OpLTE
	OpGTE
	OpEQ
	OpNEQ
	OpNeg
	OpPos
	OpNot
	OpNop
	OpLine
	OpBra
	OpBrz
	OpBrnz
	OpBrzk
	OpBrnzk
	OpCall
	OpRet
	OpRetv
	OpForeach
	OpPop
	OpPop2
	OpDup
	OpDup2
	OpSwap
	OpPushNull
	OpPushInt
	OpPushInt0
	OpPushInt1
	OpPushFP
	OpPushStr
	OpPushTbl
	OpPushFn
	OpPushThis
	OpGetLocal
	OpSetLocal
	OpGetGlobal
	OpSetGlobal
	OpGetThis
	OpSetThis
	OpFork
)

var opcodeNames = [...]string{
	"BC_GETDOT", "BC_SETDOT", "BC_GETIND", "BC_SETIND",
	"BC_OP_ADD", "BC_OP_SUB", "BC_OP_MUL", "BC_OP_DIV", "BC_OP_REM",
	"BC_BIT_OR", "BC_BIT_XOR", "BC_BIT_AND", "BC_BIT_SHL", "BC_BIT_SHR", "BC_BIT_INV",
	"BC_OP_LT", "BC_OP_GT", "BC_OP_LTE", "BC_OP_GTE", "BC_OP_EQ", "BC_OP_NEQ",
	"BC_OP_NEG", "BC_OP_POS", "BC_OP_NOT",
	"BC_NOP", "BC_LINE",
	"BC_BRA", "BC_BRZ", "BC_BRNZ", "BC_BRZK", "BC_BRNZK",
	"BC_CALL", "BC_RET", "BC_RETV", "BC_FOREACH",
	"BC_POP", "BC_POP2", "BC_DUP", "BC_DUP2", "BC_SWAP",
	"BC_PUSHNULL", "BC_PUSHINT", "BC_PUSHINT0", "BC_PUSHINT1", "BC_PUSHFP",
	"BC_PUSHSTR", "BC_PUSHTBL", "BC_PUSHFN", "BC_PUSHTHIS",
	"BC_GETLOCAL", "BC_SETLOCAL", "BC_GETGLOBAL", "BC_SETGLOBAL",
	"BC_GETTHIS", "BC_SETTHIS", "BC_FORK",
}

func (o Opcode) String() string {
	if int(o) < len(opcodeNames) {
		return opcodeNames[o]
	}
	return fmt.Sprintf("BC_UNKNOWN(%d)", uint32(o))
}

// OperandKind says how the word after an opcode is interpreted.
type OperandKind int

const (
	OperandNone OperandKind = iota
	OperandBranch
	OperandInt
	OperandFloat
	OperandArity
	OperandSymbol // index into the function's symbol table
	OperandString // offset into the library string table
	OperandFunction
)

// Operand returns the operand kind of o.
func (o Opcode) Operand() OperandKind {
	switch o {
	case OpBra, OpBrz, OpBrnz, OpBrzk, OpBrnzk:
		return OperandBranch
	case OpForeach, OpPushInt:
		return OperandInt
	case OpPushFP:
		return OperandFloat
	case OpCall:
		return OperandArity
	case OpGetLocal, OpSetLocal:
		return OperandSymbol
	case OpGetDot, OpSetDot, OpGetThis, OpSetThis, OpGetGlobal, OpSetGlobal, OpPushStr:
		return OperandString
	case OpPushFn:
		return OperandFunction
	default:
		return OperandNone
	}
}

// Instruction is one decoded bytecode instruction.
type Instruction struct {
	Offset  int
	Op      Opcode
	Operand uint32
}

// Decode splits bytecode into instructions. Trailing bytes that do not form
// a whole word are reported as ErrTruncated.
func Decode(code []byte) ([]Instruction, error) {
	var out []Instruction
	for i := 0; i < len(code); {
		if i+4 > len(code) {
			return out, ErrTruncated
		}
		ins := Instruction{Offset: i, Op: Opcode(le.Uint32(code[i:]))}
		i += 4
		if ins.Op.Operand() != OperandNone {
			if i+4 > len(code) {
				return out, ErrTruncated
			}
			ins.Operand = le.Uint32(code[i:])
			i += 4
		}
		out = append(out, ins)
	}
	return out, nil
}
