package cli

import (
	"errors"
	"fmt"

	"github.com/roach88/lazyq/internal/checkpoint"
	"github.com/roach88/lazyq/internal/engine"
	"github.com/roach88/lazyq/internal/pipeline"
)

// Error codes for failures outside pipeline loading.
const (
	ErrCodeGeneric     = "E000" // Generic/unknown error
	ErrCodeCompile     = "E007" // Statement emission failed
	ErrCodeWriteFailed = "E008" // File write error
	ErrCodeConnect     = "E009" // Database could not be opened
)

// loadRegistry loads the pipeline at path and builds its checkpoint
// registry bound to eng.
func loadRegistry(path string, eng *engine.Engine) (*pipeline.Pipeline, *checkpoint.Registry, error) {
	p, err := pipeline.Load(path)
	if err != nil {
		return nil, nil, err
	}
	reg, err := pipeline.Build(p, eng)
	if err != nil {
		return nil, nil, err
	}
	return p, reg, nil
}

// errorCode picks the code reported for err.
func errorCode(err error) string {
	var lerr *pipeline.LoadError
	if errors.As(err, &lerr) {
		return lerr.Code
	}
	var cerr *checkpoint.Error
	if errors.As(err, &cerr) {
		return string(cerr.Code)
	}
	return ErrCodeGeneric
}

// fail reports err through the formatter and returns the ExitError the
// command should return.
func fail(formatter *OutputFormatter, exitCode int, err error) error {
	code := errorCode(err)
	var details any
	var cerr *checkpoint.Error
	if errors.As(err, &cerr) && cerr.Checkpoint != "" {
		details = map[string]any{"checkpoint": cerr.Checkpoint, "overwrite": cerr.Overwrite}
	}
	_ = formatter.Error(code, err.Error(), details)
	return WrapExitError(exitCode, fmt.Sprintf("%s: %s", code, err.Error()), nil)
}
