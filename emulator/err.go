package emulator

import (
	"errors"

	"github.com/ezrec/duet/translate"
)

var f = translate.From

var (
	// ErrStepLimit is raised when a run exceeds Emulator.StepLimit.
	ErrStepLimit = errors.New(f("step limit exceeded"))
)

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	Instance int
	Pc       int64
	LineNo   int
	Err      error
}

func (err *ErrRuntime) Error() string {
	return f("cpu %d pc %d line %d %v", err.Instance, err.Pc, err.LineNo, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
