package pipeline

import "fmt"

// Stage is one transform in the chain.
type Stage int

const (
	StageRemoveBackground Stage = iota
	StagePad
	StageResize

	numStages
)

// Stages lists the chain in application order.
var Stages = [numStages]Stage{StageRemoveBackground, StagePad, StageResize}

func (s Stage) String() string {
	switch s {
	case StageRemoveBackground:
		return "remove-background"
	case StagePad:
		return "pad"
	case StageResize:
		return "resize"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// StageState is a stage's position in its lifecycle:
// Disabled -> Pending -> Applied, or back to its prior state on failure.
type StageState int

const (
	Disabled StageState = iota
	Pending
	Applied
)

func (s StageState) String() string {
	switch s {
	case Disabled:
		return "disabled"
	case Pending:
		return "pending"
	case Applied:
		return "applied"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// StageError wraps a transform failure with the stage that failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
