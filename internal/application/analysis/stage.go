package analysis

import (
	"github.com/doeshing/promptsmith/internal/application/coerce"
	"github.com/doeshing/promptsmith/internal/ports"
)

// Stage is a step of the analysis and comparison pipelines.
type Stage int

const (
	StageFormatting Stage = iota
	StageCallingModel
	StageSanitizing
	StageCoercing
	StageDone
	StageError
)

func (s Stage) String() string {
	switch s {
	case StageFormatting:
		return "formatting"
	case StageCallingModel:
		return "calling_model"
	case StageSanitizing:
		return "sanitizing"
	case StageCoercing:
		return "coercing"
	case StageDone:
		return "done"
	case StageError:
		return "error"
	default:
		return "unknown"
	}
}

// CanTransition reports whether the pipeline may move from s to next.
// Stages advance one at a time; error is reachable from every stage except done.
func (s Stage) CanTransition(next Stage) bool {
	switch {
	case s == StageDone || s == StageError:
		return false
	case next == StageError:
		return true
	default:
		return next == s+1
	}
}

// failure is the tagged error outcome of the model call or the parse stage.
type failure struct {
	Stage Stage
	Kind  coerce.FailureKind
	Err   error
}

// tracker walks one pipeline run through its stages and logs every transition.
type tracker struct {
	op     string
	stage  Stage
	logger ports.Logger
}

func newTracker(op string, logger ports.Logger) *tracker {
	return &tracker{op: op, stage: StageFormatting, logger: logger}
}

func (t *tracker) enter(next Stage) {
	if !t.stage.CanTransition(next) {
		t.logger.Warn("unexpected pipeline transition", map[string]interface{}{
			"op":   t.op,
			"from": t.stage.String(),
			"to":   next.String(),
		})
	}
	t.logger.Debug("pipeline stage", map[string]interface{}{
		"op":   t.op,
		"from": t.stage.String(),
		"to":   next.String(),
	})
	t.stage = next
}

func (t *tracker) fail(kind coerce.FailureKind, err error) *failure {
	f := &failure{Stage: t.stage, Kind: kind, Err: err}
	t.logger.Error("pipeline stage failed", err, map[string]interface{}{
		"op":    t.op,
		"stage": t.stage.String(),
		"kind":  kind.String(),
	})
	t.enter(StageError)
	return f
}
