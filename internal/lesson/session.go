package lesson

import (
	"errors"
	"math"
)

// DefaultHearts is the error budget of a new attempt when none is configured
const DefaultHearts = 5

// Phase is the lifecycle stage of an attempt
type Phase int

const (
	PhaseActive Phase = iota
	PhaseCompleted
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseActive:
		return "active"
	case PhaseCompleted:
		return "completed"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further transitions are possible
func (p Phase) IsTerminal() bool {
	return p == PhaseCompleted || p == PhaseFailed
}

// FailureReason tells apart the two ways an attempt can fail. It has no
// effect on what gets persisted.
type FailureReason int

const (
	FailureNone FailureReason = iota
	FailureHeartsExhausted
	FailureAborted
)

func (r FailureReason) String() string {
	switch r {
	case FailureHeartsExhausted:
		return "hearts_exhausted"
	case FailureAborted:
		return "aborted"
	default:
		return ""
	}
}

// State is the full state of one lesson attempt. It is a plain value:
// every Engine transition takes a State and returns the next one.
type State struct {
	StepIndex       int
	Hearts          int
	ProgressPercent int
	Selection       string
	HasSelection    bool
	Verdict         Verdict
	Phase           Phase
	Reason          FailureReason
}

var (
	ErrNoSteps       = errors.New("lesson: no steps")
	ErrInvalidHearts = errors.New("lesson: hearts must be at least 1")
)

// Engine holds the immutable inputs of an attempt: the ordered steps, the
// grading policy and the initial error budget
type Engine struct {
	steps  []Step
	policy GradingPolicy
	hearts int
}

// NewEngine creates an engine over a non-empty list of steps
func NewEngine(steps []Step, policy GradingPolicy, heartsInitial int) (*Engine, error) {
	if len(steps) == 0 {
		return nil, ErrNoSteps
	}
	if heartsInitial < 1 {
		return nil, ErrInvalidHearts
	}
	return &Engine{steps: steps, policy: policy, hearts: heartsInitial}, nil
}

// TotalSteps returns the number of steps in the lesson
func (e *Engine) TotalSteps() int {
	return len(e.steps)
}

// HeartsInitial returns the error budget an attempt starts with
func (e *Engine) HeartsInitial() int {
	return e.hearts
}

// Start returns the initial state of a new attempt
func (e *Engine) Start() State {
	return State{Hearts: e.hearts, Phase: PhaseActive}
}

// CurrentStep returns the step presented in s, or false once the attempt is over
func (e *Engine) CurrentStep(s State) (Step, bool) {
	if s.Phase != PhaseActive || s.StepIndex >= len(e.steps) {
		return Step{}, false
	}
	return e.steps[s.StepIndex], true
}

// CanSubmit reports whether SubmitSelection would grade an answer in s
func (e *Engine) CanSubmit(s State) bool {
	step, ok := e.CurrentStep(s)
	return ok && step.IsGraded() && !s.HasSelection
}

// CanAdvance reports whether Advance would move past the current step in s
func (e *Engine) CanAdvance(s State) bool {
	step, ok := e.CurrentStep(s)
	if !ok || s.Hearts <= 0 {
		return false
	}
	return !step.IsGraded() || s.HasSelection
}

// SubmitSelection grades answer against the current quiz step. Only the first
// selection on a step is graded; later ones leave the state untouched. An
// incorrect answer costs a heart and the attempt fails as soon as none are
// left. Submitting on a step that is not a quiz panics.
func (e *Engine) SubmitSelection(s State, answer string) State {
	if s.Phase != PhaseActive {
		return s
	}
	step := e.steps[s.StepIndex]
	if !step.IsGraded() {
		panic(invalidUse("selection submitted on %s step %d", step.Kind, s.StepIndex))
	}
	if s.HasSelection {
		return s
	}

	s.Selection = answer
	s.HasSelection = true
	s.Verdict = e.policy.Grade(step, answer)

	if s.Verdict == VerdictIncorrect {
		s.Hearts--
		if s.Hearts <= 0 {
			s.Hearts = 0
			s.Phase = PhaseFailed
			s.Reason = FailureHeartsExhausted
		}
	}
	return s
}

// Advance moves to the next step. Leaving the last step completes the
// attempt with progress at exactly 100. Advancing past an unanswered quiz
// panics.
func (e *Engine) Advance(s State) State {
	if s.Phase != PhaseActive {
		return s
	}
	if !e.CanAdvance(s) {
		panic(invalidUse("advance from step %d without a selection", s.StepIndex))
	}

	s.StepIndex++
	s.Selection = ""
	s.HasSelection = false
	s.Verdict = VerdictNone

	if progress := e.progress(s.StepIndex); progress > s.ProgressPercent {
		s.ProgressPercent = progress
	}

	if s.StepIndex == len(e.steps) {
		s.ProgressPercent = 100
		s.Phase = PhaseCompleted
	}
	return s
}

// Abort ends an active attempt as failed
func (e *Engine) Abort(s State) State {
	if s.Phase != PhaseActive {
		return s
	}
	s.Phase = PhaseFailed
	s.Reason = FailureAborted
	return s
}

func (e *Engine) progress(stepIndex int) int {
	p := int(math.Round(float64(stepIndex) / float64(len(e.steps)) * 100))
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
