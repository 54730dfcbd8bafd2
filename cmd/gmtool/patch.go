package main

import (
	"os"

	"github.com/pkg/errors"

	"gmpatch/internal/gmlib"
)

// runPatch merges the functions of a patch library into a base library.
func runPatch(e *env, args []string) error {
	if len(args) != 3 {
		return errors.New("usage: " + patchUsage)
	}
	base, err := readLib(args[0])
	if err != nil {
		return err
	}
	patch, err := readLib(args[1])
	if err != nil {
		return err
	}

	candidates, err := gmlib.Merge(base, patch)
	if err != nil {
		return err
	}
	for _, c := range candidates {
		e.logger.Infof("Candidate: %d %d (%s)", c.PatchID, c.BaseID, c.Name)
	}
	if len(candidates) == 0 {
		e.logger.Warn("Patch: no function of the patch matches the input")
	}
	return errors.Wrap(os.WriteFile(args[2], base.Bytes(), 0644), "writing output")
}

func readLib(path string) (*gmlib.Lib, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lib, err := gmlib.Read(data)
	return lib, errors.Wrap(err, path)
}
