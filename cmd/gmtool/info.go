package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/pkg/errors"

	"gmpatch/internal/gmlib"
)

// runInfo prints the header and function table of a library.
func runInfo(e *env, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: " + infoUsage)
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	n := gmlib.HeaderSize
	if len(data) < n {
		n = len(data)
	}
	HexDump(e.out, data[:n], 0)

	lib, err := gmlib.Read(data)
	if err != nil {
		return errors.Wrap(err, args[0])
	}
	h := lib.Header
	fmt.Fprintf(e.out, "magic %s flags 0x%X strings @%d source @%d functions @%d\n",
		h.Magic[:], h.Flags, h.StringsOffset, h.SourceOffset, h.FunctionOffset)
	fmt.Fprintf(e.out, "string table %d bytes, source %d bytes, %d functions\n",
		len(lib.Strings), len(lib.Source.Text), len(lib.Functions))

	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tID\tNAME\tPARAMS\tLOCALS\tSTACK\tCODE\tLINES")
	for i, f := range lib.Functions {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%d\t%d\t%d\t%d\t%d\n", i, f.Header.ID, lib.Name(f),
			f.Header.NumParams, f.Header.NumLocals, f.Header.MaxStackSize, len(f.Code), len(f.Lines))
	}
	return tw.Flush()
}

// HexDump prints buffer 16 bytes per line with printable ascii on the right.
func HexDump(w io.Writer, buffer []byte, ea uintptr) {
	for i := 0; i < len(buffer); i += 16 {
		fmt.Fprintf(w, "%08X:", uintptr(i)+ea)
		for j := 0; j < 16; j++ {
			if j == 8 {
				fmt.Fprint(w, " ")
			}
			if i+j < len(buffer) {
				fmt.Fprintf(w, " %02x", buffer[i+j])
			} else {
				fmt.Fprint(w, "   ")
			}
		}

		fmt.Fprint(w, "  |")
		for j := 0; j < 16 && i+j < len(buffer); j++ {
			if c := buffer[i+j]; c >= 32 && c <= 126 {
				fmt.Fprintf(w, "%c", c)
			} else {
				fmt.Fprint(w, ".")
			}
		}
		fmt.Fprintln(w, "|")
	}
}
