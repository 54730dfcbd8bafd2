package main

import (
	"flag"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
	"go.uber.org/multierr"

	"gmpatch/internal/gmlib"
)

// runLevels extracts the compiled scripts of level files, plus their
// embedded source converted from cp1250 to UTF-8.
func runLevels(e *env, args []string) error {
	fs := flag.NewFlagSet("levels", flag.ContinueOnError)
	outDir := fs.String("o", "", "Output directory (default: next to each input)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("usage: " + levelsUsage)
	}

	var err error
	for _, path := range fs.Args() {
		err = multierr.Append(err, extractLevel(e, path, *outDir))
	}
	return err
}

func extractLevel(e *env, path, outDir string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	scripts, err := gmlib.ReadLevel(data)
	if errors.Is(err, gmlib.ErrNestedLevel) {
		e.logger.Warnw("Warning: Skipped a nested level file", "path", path)
		return nil
	}
	if err != nil {
		return errors.Wrap(err, path)
	}

	dir := levelDir(path, outDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for _, s := range scripts {
		e.logger.Infof("Extracting script %s in %s", s.Name, filepath.Base(path))
		name := filepath.Base(s.Name)
		if err := os.WriteFile(filepath.Join(dir, name+"b"), s.Lib, 0644); err != nil {
			return err
		}
		src, err := scriptSource(s.Lib)
		if err != nil {
			e.logger.Warnw("Levels: no source", "script", s.Name, "error", err)
			continue
		}
		if err := os.WriteFile(filepath.Join(dir, name), src, 0644); err != nil {
			return err
		}
	}
	return nil
}

// levelDir is "<dir>/<name>.level" for "<name>.level.bin". Other names get
// a ".d" suffix.
func levelDir(path, outDir string) string {
	base := strings.TrimSuffix(filepath.Base(path), ".bin")
	if base == filepath.Base(path) {
		base += ".d"
	}
	if outDir == "" {
		outDir = filepath.Dir(path)
	}
	return filepath.Join(outDir, base)
}

func scriptSource(lib []byte) ([]byte, error) {
	parsed, err := gmlib.Read(lib)
	if err != nil {
		return nil, err
	}
	return charmap.Windows1250.NewDecoder().Bytes(parsed.Source.Code())
}
