package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"

	"gmpatch/internal/gmlib"
)

// runCompile echoes the source, runs the compiler backend and always leaves
// an output file behind, empty if the backend produced nothing. Compile
// errors are reported but never fail the command.
func runCompile(e *env, args []string) error {
	fs := flag.NewFlagSet("compile", flag.ContinueOnError)
	backend := fs.String("backend", e.cfg.Compiler.Backend, "Compiler backend executable")
	src := fs.String("src", e.cfg.Compiler.Source, "Script to compile")
	out := fs.String("out", e.cfg.Compiler.Output, "Compiled library to write")
	if err := fs.Parse(args); err != nil {
		return err
	}

	source, err := os.ReadFile(*src)
	if err != nil {
		e.logger.Errorw("Compile: cannot read source", "path", *src, "error", err)
	}
	fmt.Fprintln(e.out, string(source))

	// a failed build must not leave the previous library in place
	if err := os.Remove(*out); err != nil && !os.IsNotExist(err) {
		e.logger.Errorw("Compile: cannot remove old output", "path", *out, "error", err)
	}

	diag, err := compileWith(context.Background(), *backend, *src, *out)
	if len(diag) > 0 {
		for _, line := range strings.Split(strings.TrimRight(string(diag), "\r\n"), "\n") {
			fmt.Fprintln(e.out, strings.TrimRight(line, "\r"))
		}
	}
	if err != nil {
		e.logger.Errorw("Compile: backend failed", "backend", *backend, "error", err)
	}

	if err := ensureFile(*out); err != nil {
		e.logger.Errorw("Compile: cannot write output", "path", *out, "error", err)
		return nil
	}
	summarize(e, *out)
	return nil
}

// compileWith runs "backend <src> <out>" and returns its combined output.
func compileWith(ctx context.Context, backend, src, out string) ([]byte, error) {
	if backend == "" {
		return nil, errors.New("no compiler backend configured")
	}
	var buf bytes.Buffer
	cmd := exec.CommandContext(ctx, backend, src, out)
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	return buf.Bytes(), errors.Wrap(err, "running compiler")
}

func ensureFile(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	return f.Close()
}

func summarize(e *env, path string) {
	data, err := os.ReadFile(path)
	if err != nil || len(data) == 0 {
		e.logger.Warnw("Compile: output is empty", "path", path)
		return
	}
	lib, err := gmlib.Read(data)
	if err != nil {
		e.logger.Warnw("Compile: output is not a debug library", "path", path, "error", err)
		return
	}
	e.logger.Infow("Compile: wrote library", "path", path, "bytes", len(data), "functions", len(lib.Functions))
}
