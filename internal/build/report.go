package build

import (
	"errors"
	"time"

	ferrors "git.home.luguber.info/inful/uibuild/internal/foundation/errors"
	"git.home.luguber.info/inful/uibuild/internal/metrics"
	"git.home.luguber.info/inful/uibuild/internal/version"
)

// Outcome is the final result of a build run.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// StageRecord is one stage's entry in a Report.
type StageRecord struct {
	Name     StageName
	Result   StageResult
	Duration time.Duration
	Error    string `json:",omitempty"`
}

// Report captures what a build run did.
type Report struct {
	BuildID     string
	Version     string
	BaseDir     string
	OutputDir   string
	Locales     []string
	Modules     []string
	Force       bool
	Start       time.Time
	End         time.Time
	Stages      []StageRecord
	Outcome     Outcome
	FailedStage StageName `json:",omitempty"`
	Error       string    `json:",omitempty"`
}

func newReport(buildID string, start time.Time) *Report {
	return &Report{
		BuildID: buildID,
		Version: version.Version,
		Start:   start,
	}
}

// Duration is the wall time of the run.
func (r *Report) Duration() time.Duration {
	if r.End.IsZero() {
		return 0
	}
	return r.End.Sub(r.Start)
}

// Succeeded reports whether every stage succeeded.
func (r *Report) Succeeded() bool {
	return r.Outcome == OutcomeSuccess
}

// ExitCode maps the outcome to the process exit code.
func (r *Report) ExitCode() int {
	if r.Succeeded() {
		return ferrors.ExitSuccess
	}
	return ferrors.ExitFailure
}

// Stage returns the record for name.
func (r *Report) Stage(name StageName) (StageRecord, bool) {
	for _, s := range r.Stages {
		if s.Name == name {
			return s, true
		}
	}
	return StageRecord{}, false
}

func (r *Report) recordStage(rec StageRecord, recorder metrics.Recorder) {
	r.Stages = append(r.Stages, rec)
	if rec.Result != StageResultSkipped {
		recorder.ObserveStageDuration(string(rec.Name), rec.Duration)
	}
	recorder.IncStageResult(string(rec.Name), metrics.ResultLabel(rec.Result))
}

// finish derives the outcome from err and stamps the end time.
func (r *Report) finish(err error, end time.Time, recorder metrics.Recorder) {
	r.End = end
	switch {
	case err == nil:
		r.Outcome = OutcomeSuccess
	default:
		r.Outcome = OutcomeFailed
		var se *StageError
		if errors.As(err, &se) {
			r.FailedStage = se.Stage
			if se.Kind == StageErrorCanceled {
				r.Outcome = OutcomeCanceled
			}
		}
		r.Error = err.Error()
	}
	recorder.ObserveBuildDuration(r.Duration())
	recorder.IncBuildOutcome(string(r.Outcome))
	recorder.SetLastBuildTimestamp(end)
}
