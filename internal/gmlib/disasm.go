package gmlib

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/pkg/errors"
)

// Disassemble writes one line per instruction of function idx:
// the byte offset, the opcode name and its decoded operand.
func Disassemble(w io.Writer, lib *Lib, idx int) error {
	if idx < 0 || idx >= len(lib.Functions) {
		return errors.Wrapf(ErrNoSuchFunction, "function %d of %d", idx, len(lib.Functions))
	}
	fn := lib.Functions[idx]
	code, decodeErr := Decode(fn.Code)
	for _, ins := range code {
		operand, err := lib.formatOperand(fn, ins)
		if err != nil {
			return errors.Wrapf(err, "at %04d", ins.Offset)
		}
		if _, err := fmt.Fprintf(w, "%04d %s%s\n", ins.Offset, ins.Op, operand); err != nil {
			return err
		}
	}
	return decodeErr
}

func (l *Lib) formatOperand(fn *Function, ins Instruction) (string, error) {
	switch ins.Op.Operand() {
	case OperandBranch:
		return fmt.Sprintf(" ptr=%04d", ins.Operand), nil
	case OperandInt:
		return " " + strconv.FormatInt(int64(int32(ins.Operand)), 10), nil
	case OperandFloat:
		return " " + strconv.FormatFloat(float64(math.Float32frombits(ins.Operand)), 'g', -1, 32), nil
	case OperandArity:
		return fmt.Sprintf(" params=%d", ins.Operand), nil
	case OperandSymbol:
		name, err := l.Symbol(fn, ins.Operand)
		if err != nil {
			return "", err
		}
		return " " + name, nil
	case OperandString:
		return " " + l.Strings.At(ins.Operand), nil
	case OperandFunction:
		return fmt.Sprintf(" function_%d", ins.Operand), nil
	default:
		return "", nil
	}
}
