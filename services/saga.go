package services

import (
	"context"
	"log/slog"
)

// The enrollment workflow is a saga: an ordered list of writes against
// stores that offer no cross-table transaction as a whole. Each step
// declares whether its failure aborts the sequence or is merely logged.

type stepOutcome int

const (
	stepOK stepOutcome = iota
	stepSoftFailed // best-effort step failed; sequence continues
	stepHardFailed // critical step failed; sequence aborted
)

type sagaStep struct {
	name     string
	critical bool
	run      func(ctx context.Context) error
}

type stepResult struct {
	name    string
	outcome stepOutcome
	err     error
}

func (r stepResult) ok() bool { return r.outcome == stepOK }

// runSaga executes steps in order. A failing critical step aborts and
// returns its error; a failing best-effort step is logged and the
// sequence continues. Results for every executed step are returned so
// callers can inspect which bookkeeping writes landed.
func runSaga(ctx context.Context, logger *slog.Logger, saga string, steps []sagaStep) ([]stepResult, error) {
	results := make([]stepResult, 0, len(steps))

	for _, step := range steps {
		err := step.run(ctx)
		if err == nil {
			results = append(results, stepResult{name: step.name, outcome: stepOK})
			continue
		}

		if step.critical {
			results = append(results, stepResult{name: step.name, outcome: stepHardFailed, err: err})
			return results, err
		}

		// The primary action already succeeded; a bookkeeping failure is
		// logged, never surfaced to the user.
		logger.Error("best-effort saga step failed",
			slog.String("saga", saga),
			slog.String("step", step.name),
			slog.Any("error", err))
		results = append(results, stepResult{name: step.name, outcome: stepSoftFailed, err: err})
	}

	return results, nil
}
