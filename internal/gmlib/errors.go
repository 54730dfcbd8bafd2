package gmlib

import "github.com/pkg/errors"

var (
	// ErrBadMagic is returned when a library does not start with "gml0"
	ErrBadMagic = errors.New("not a gml0 library")

	// ErrNotDebug is returned for libraries compiled without debug info
	ErrNotDebug = errors.New("only debug libraries are supported")

	// ErrBadFunctionMagic is returned when a function record does not start with "func"
	ErrBadFunctionMagic = errors.New("bad function magic")

	// ErrTrailingData is returned when bytes remain after the last function
	ErrTrailingData = errors.New("not all data consumed")

	// ErrTruncated is returned when a record runs past the end of the input
	ErrTruncated = errors.New("unexpected end of data")

	// ErrNoSuchFunction is returned for a function index outside the library
	ErrNoSuchFunction = errors.New("function index out of range")

	ErrBadSymbol = errors.New("symbol index out of range")

	// ErrBadLevel is returned when a level file has the wrong leading byte
	ErrBadLevel = errors.New("not a level file")

	// ErrNestedLevel is returned for level files that embed other levels
	ErrNestedLevel = errors.New("nested level file")
)
