package lesson

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGradingPolicy(t *testing.T) {
	quiz := Step{
		Kind:          KindQuiz,
		Content:       "What does namaste mean?",
		Options:       []string{"Hello/Greetings", "Goodbye"},
		CorrectAnswer: "Hello/Greetings",
	}

	tests := []struct {
		name          string
		caseSensitive bool
		response      string
		want          Verdict
	}{
		{"exact match", false, "Hello/Greetings", VerdictCorrect},
		{"surrounding whitespace", false, "  Hello/Greetings\n", VerdictCorrect},
		{"different case folded", false, "hello/greetings", VerdictCorrect},
		{"different case strict", true, "hello/greetings", VerdictIncorrect},
		{"strict with whitespace", true, " Hello/Greetings ", VerdictCorrect},
		{"wrong option", false, "Goodbye", VerdictIncorrect},
		{"empty response", false, "", VerdictIncorrect},
		{"inner whitespace matters", false, "Hello / Greetings", VerdictIncorrect},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := GradingPolicy{CaseSensitive: tt.caseSensitive}
			assert.Equal(t, tt.want, policy.Grade(quiz, tt.response))
			// same input, same verdict
			assert.Equal(t, tt.want, policy.Grade(quiz, tt.response))
		})
	}
}

func TestGradeNonQuizPanics(t *testing.T) {
	policy := GradingPolicy{}
	for _, kind := range []StepKind{KindExposition, KindAudioPrompt} {
		step := Step{Kind: kind, Content: "listen"}
		assert.Panics(t, func() { policy.Grade(step, "anything") }, kind.String())
	}
}

func TestStepValidate(t *testing.T) {
	tests := []struct {
		name    string
		step    Step
		wantErr bool
	}{
		{"exposition", Step{Kind: KindExposition, Content: "hi"}, false},
		{"empty exposition", Step{Kind: KindExposition}, true},
		{"audio without media", Step{Kind: KindAudioPrompt, Content: "repeat"}, false},
		{"quiz", Step{Kind: KindQuiz, Content: "q", Options: []string{"a", "b"}, CorrectAnswer: "b"}, false},
		{"quiz answer missing", Step{Kind: KindQuiz, Content: "q", Options: []string{"a", "b"}, CorrectAnswer: "c"}, true},
		{"quiz single option", Step{Kind: KindQuiz, Content: "q", Options: []string{"a"}, CorrectAnswer: "a"}, true},
		{"unknown kind", Step{Kind: StepKind(9), Content: "x"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.step.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseStepKind(t *testing.T) {
	for _, kind := range []StepKind{KindExposition, KindAudioPrompt, KindQuiz} {
		parsed, err := ParseStepKind(kind.String())
		assert.NoError(t, err)
		assert.Equal(t, kind, parsed)
	}

	parsed, err := ParseStepKind("text")
	assert.NoError(t, err)
	assert.Equal(t, KindExposition, parsed)

	_, err = ParseStepKind("video")
	assert.Error(t, err)
}
