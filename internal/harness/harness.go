package harness

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/lazyq/internal/checkpoint"
	"github.com/roach88/lazyq/internal/engine"
	"github.com/roach88/lazyq/internal/pipeline"
)

// EngineURL is the URL of the database every scenario runs against.
const EngineURL = "sqlite::memory:"

// Run executes a scenario against a fresh in-memory database and evaluates
// its assertions.
//
// An error is returned only when the scenario could not be run at all:
// the database could not be opened, a setup statement failed, or the
// pipeline did not load or build. Failed expectations are reported in the
// Result.
func Run(ctx context.Context, s *Scenario) (*Result, error) {
	eng, err := engine.Open(ctx, EngineURL)
	if err != nil {
		return nil, fmt.Errorf("open engine: %w", err)
	}
	defer eng.Close()

	for i, stmt := range s.Setup {
		if _, err := eng.DB().ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("setup statement %d: %w", i, err)
		}
	}

	p, err := pipeline.Load(s.Pipeline)
	if err != nil {
		return nil, err
	}
	reg, err := pipeline.Build(p, eng)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	result.Statements, err = reg.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("compile pipeline %q: %w", p.Name, err)
	}

	execution, execErr := reg.Execute(ctx, eng, s.Overwrite)
	switch {
	case execErr == nil && s.ExpectError != "":
		result.AddError(fmt.Sprintf("expected execution to fail with %s, but it succeeded", s.ExpectError))
	case execErr != nil && s.ExpectError == "":
		result.AddError(fmt.Sprintf("execution failed: %v", execErr))
	case execErr != nil && !checkpoint.IsError(execErr, checkpoint.ErrorCode(s.ExpectError)):
		result.AddError(fmt.Sprintf("expected execution to fail with %s, got: %v", s.ExpectError, execErr))
	}
	result.Execution = execution
	result.ExecutionError = execErr

	for i, a := range s.Assertions {
		if err := evaluate(ctx, eng, execution, a); err != nil {
			result.AddError(fmt.Sprintf("assertion %d (%s): %v", i, a.Type, err))
		}
	}

	slog.Debug("scenario finished",
		"scenario", s.Name,
		"pass", result.Pass,
		"errors", len(result.Errors))
	return result, nil
}
