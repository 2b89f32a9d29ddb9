package sample

import (
	"errors"
	"fmt"
)

var (
	// ErrFileShrunk is returned by Reload when the backing file became shorter.
	ErrFileShrunk = errors.New("file shrunk")

	// ErrUnsupportedFormat is returned when opening a file with an unknown format.
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// IOError reports a failure to open or read a recording.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
