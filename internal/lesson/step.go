package lesson

import (
	"fmt"
	"strings"
)

// StepKind identifies how a step is presented and whether it is graded
type StepKind int

const (
	KindExposition StepKind = iota
	KindAudioPrompt
	KindQuiz
)

// String returns the wire name of the step kind
func (k StepKind) String() string {
	switch k {
	case KindExposition:
		return "exposition"
	case KindAudioPrompt:
		return "audio"
	case KindQuiz:
		return "quiz"
	default:
		return fmt.Sprintf("StepKind(%d)", int(k))
	}
}

// ParseStepKind converts a wire name back into a StepKind.
// "text" is accepted as an alias for exposition steps.
func ParseStepKind(s string) (StepKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "exposition", "text":
		return KindExposition, nil
	case "audio", "audio_prompt":
		return KindAudioPrompt, nil
	case "quiz":
		return KindQuiz, nil
	default:
		return 0, fmt.Errorf("unknown step kind %q", s)
	}
}

// Step is one unit of lesson content. Steps are owned by the content
// source and never modified by the engine.
type Step struct {
	Kind          StepKind
	Content       string
	MediaRef      string
	Options       []string
	CorrectAnswer string
}

// IsGraded reports whether the step needs a selection before the learner can move on
func (s Step) IsGraded() bool {
	switch s.Kind {
	case KindQuiz:
		return true
	case KindExposition, KindAudioPrompt:
		return false
	default:
		panic(invalidUse("unknown step kind %d", int(s.Kind)))
	}
}

// Validate checks that a step carries the fields its kind requires
func (s Step) Validate() error {
	switch s.Kind {
	case KindExposition, KindAudioPrompt:
		if strings.TrimSpace(s.Content) == "" {
			return fmt.Errorf("%s step has no content", s.Kind)
		}
	case KindQuiz:
		if len(s.Options) < 2 {
			return fmt.Errorf("quiz step needs at least two options")
		}
		found := false
		for _, option := range s.Options {
			if option == s.CorrectAnswer {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("quiz answer %q is not one of the options", s.CorrectAnswer)
		}
	default:
		return fmt.Errorf("unknown step kind %d", int(s.Kind))
	}
	return nil
}
