package main

import (
	"flag"
	"fmt"

	"github.com/pkg/errors"

	"gmpatch/internal/gmlib"
)

// runDisasm prints the bytecode of one function, or of all of them.
func runDisasm(e *env, args []string) error {
	fs := flag.NewFlagSet("disasm", flag.ContinueOnError)
	fn := fs.Int("fn", -1, "Function index (default: all)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: " + disasmUsage)
	}
	lib, err := readLib(fs.Arg(0))
	if err != nil {
		return err
	}

	if *fn >= 0 {
		return gmlib.Disassemble(e.out, lib, *fn)
	}
	for i, f := range lib.Functions {
		fmt.Fprintf(e.out, "; function %d %s (id %d, params %d, locals %d)\n",
			i, lib.Name(f), f.Header.ID, f.Header.NumParams, f.Header.NumLocals)
		if err := gmlib.Disassemble(e.out, lib, i); err != nil {
			return err
		}
		fmt.Fprintln(e.out)
	}
	return nil
}
