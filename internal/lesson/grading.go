package lesson

import (
	"fmt"
	"strings"
)

// InvalidUseError is the panic value raised when the engine or the grading
// policy is called in a way the caller should have ruled out
type InvalidUseError struct {
	Msg string
}

func (e *InvalidUseError) Error() string {
	return "lesson: invalid use: " + e.Msg
}

func invalidUse(format string, args ...interface{}) *InvalidUseError {
	return &InvalidUseError{Msg: fmt.Sprintf(format, args...)}
}

// Verdict is the outcome of grading a quiz response
type Verdict int

const (
	VerdictNone Verdict = iota
	VerdictCorrect
	VerdictIncorrect
)

func (v Verdict) String() string {
	switch v {
	case VerdictCorrect:
		return "correct"
	case VerdictIncorrect:
		return "incorrect"
	default:
		return ""
	}
}

// GradingPolicy decides whether a quiz response matches the expected answer.
//
// Both sides are trimmed of leading and trailing whitespace. With
// CaseSensitive unset the comparison uses Unicode case folding, otherwise
// the trimmed strings must be byte-identical.
type GradingPolicy struct {
	CaseSensitive bool
}

// Grade grades a response against a quiz step. It panics with an
// *InvalidUseError when the step is not a quiz.
func (p GradingPolicy) Grade(step Step, response string) Verdict {
	if step.Kind != KindQuiz {
		panic(invalidUse("grade called on %s step", step.Kind))
	}

	got := strings.TrimSpace(response)
	want := strings.TrimSpace(step.CorrectAnswer)

	var match bool
	if p.CaseSensitive {
		match = got == want
	} else {
		match = strings.EqualFold(got, want)
	}

	if match {
		return VerdictCorrect
	}
	return VerdictIncorrect
}
