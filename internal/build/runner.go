package build

import (
	"context"
	"errors"
	"log/slog"
	"time"

	ferrors "git.home.luguber.info/inful/uibuild/internal/foundation/errors"
	"git.home.luguber.info/inful/uibuild/internal/logfields"
)

// RunStages executes stages in order, recording timing and stopping on the
// first error. Stages after a failure are recorded as skipped.
func RunStages(ctx context.Context, bs *State, stages []StageDef) error {
	for i, st := range stages {
		if err := ctx.Err(); err != nil {
			se := NewCanceledStageError(st.Name, err)
			bs.Report.recordStage(StageRecord{Name: st.Name, Result: StageResultCanceled, Error: se.Error()}, bs.recorder)
			skipRest(bs, stages[i+1:])
			return se
		}

		slog.Debug("Stage starting", logfields.BuildID(bs.Report.BuildID), logfields.Stage(string(st.Name)))
		t0 := time.Now()
		err := st.Fn(ctx, bs)
		dur := time.Since(t0)

		if err == nil {
			bs.Report.recordStage(StageRecord{Name: st.Name, Result: StageResultSuccess, Duration: dur}, bs.recorder)
			slog.Info("Stage completed", logfields.Stage(string(st.Name)), logfields.Duration(dur))
			continue
		}

		se := classifyStageError(st.Name, err)
		result := StageResultFatal
		if se.Kind == StageErrorCanceled {
			result = StageResultCanceled
		}
		bs.Report.recordStage(StageRecord{Name: st.Name, Result: result, Duration: dur, Error: se.Err.Error()}, bs.recorder)
		slog.Error("Stage failed",
			logfields.Stage(string(st.Name)),
			slog.String("category", string(ferrors.GetCategory(se.Err))),
			logfields.Duration(dur),
			logfields.Error(se.Err))
		skipRest(bs, stages[i+1:])
		return se
	}
	return nil
}

func classifyStageError(stage StageName, err error) *StageError {
	var se *StageError
	if errors.As(err, &se) {
		return se
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return NewCanceledStageError(stage, err)
	}
	return NewFatalStageError(stage, err)
}

func skipRest(bs *State, rest []StageDef) {
	for _, st := range rest {
		bs.Report.recordStage(StageRecord{Name: st.Name, Result: StageResultSkipped}, bs.recorder)
	}
}
