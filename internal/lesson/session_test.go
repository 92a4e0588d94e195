package lesson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeStepLesson() []Step {
	return []Step{
		{Kind: KindExposition, Content: "Namaste is a greeting"},
		{Kind: KindQuiz, Content: "Pick A", Options: []string{"A", "X"}, CorrectAnswer: "A"},
		{Kind: KindQuiz, Content: "Pick B", Options: []string{"B", "Y"}, CorrectAnswer: "B"},
	}
}

func newTestEngine(t *testing.T, steps []Step, hearts int) *Engine {
	t.Helper()
	engine, err := NewEngine(steps, GradingPolicy{}, hearts)
	require.NoError(t, err)
	return engine
}

func TestNewEngineRejectsBadInput(t *testing.T) {
	_, err := NewEngine(nil, GradingPolicy{}, 5)
	assert.ErrorIs(t, err, ErrNoSteps)

	_, err = NewEngine(threeStepLesson(), GradingPolicy{}, 0)
	assert.ErrorIs(t, err, ErrInvalidHearts)
}

func TestStartState(t *testing.T) {
	engine := newTestEngine(t, threeStepLesson(), DefaultHearts)
	s := engine.Start()

	assert.Equal(t, 0, s.StepIndex)
	assert.Equal(t, 5, s.Hearts)
	assert.Equal(t, 0, s.ProgressPercent)
	assert.False(t, s.HasSelection)
	assert.Equal(t, PhaseActive, s.Phase)
}

func TestWrongAnswerThenCompletion(t *testing.T) {
	engine := newTestEngine(t, threeStepLesson(), 2)
	s := engine.Start()

	s = engine.Advance(s)
	require.Equal(t, 1, s.StepIndex)

	s = engine.SubmitSelection(s, "X")
	assert.Equal(t, 1, s.Hearts)
	assert.Equal(t, PhaseActive, s.Phase)
	assert.Equal(t, VerdictIncorrect, s.Verdict)

	s = engine.Advance(s)
	assert.Equal(t, 2, s.StepIndex)

	s = engine.SubmitSelection(s, "B")
	assert.Equal(t, 1, s.Hearts)
	assert.Equal(t, VerdictCorrect, s.Verdict)

	s = engine.Advance(s)
	assert.Equal(t, PhaseCompleted, s.Phase)
	assert.Equal(t, 100, s.ProgressPercent)
}

func TestLastHeartFailsImmediately(t *testing.T) {
	engine := newTestEngine(t, threeStepLesson(), 1)
	s := engine.Advance(engine.Start())

	s = engine.SubmitSelection(s, "X")
	assert.Equal(t, 0, s.Hearts)
	assert.Equal(t, PhaseFailed, s.Phase)
	assert.Equal(t, FailureHeartsExhausted, s.Reason)

	_, ok := engine.CurrentStep(s)
	assert.False(t, ok, "no step is presented after failing")

	// the second quiz is never reached
	after := engine.Advance(s)
	assert.Equal(t, s, after)
	assert.Equal(t, 1, after.StepIndex)
}

func TestResubmissionIsIgnored(t *testing.T) {
	engine := newTestEngine(t, threeStepLesson(), 3)
	s := engine.Advance(engine.Start())

	s = engine.SubmitSelection(s, "X")
	again := engine.SubmitSelection(s, "X")
	assert.Equal(t, s, again)
	assert.Equal(t, 2, again.Hearts)

	changed := engine.SubmitSelection(s, "A")
	assert.Equal(t, "X", changed.Selection)
	assert.Equal(t, VerdictIncorrect, changed.Verdict)
}

func TestHeartsFollowIncorrectCount(t *testing.T) {
	steps := make([]Step, 0, 8)
	for i := 0; i < 8; i++ {
		steps = append(steps, Step{Kind: KindQuiz, Content: "q", Options: []string{"yes", "no"}, CorrectAnswer: "yes"})
	}

	for _, hearts := range []int{1, 3, 5, 8} {
		engine := newTestEngine(t, steps, hearts)
		s := engine.Start()
		wrong := 0
		for s.Phase == PhaseActive {
			s = engine.SubmitSelection(s, "no")
			wrong++
			assert.Equal(t, max(0, hearts-wrong), s.Hearts)
			if s.Phase == PhaseActive {
				s = engine.Advance(s)
			}
		}

		if hearts < len(steps) {
			assert.Equal(t, PhaseFailed, s.Phase, "hearts=%d", hearts)
			assert.Equal(t, hearts, wrong)
		} else {
			// the final wrong answer on the last step empties the budget
			assert.Equal(t, PhaseFailed, s.Phase, "hearts=%d", hearts)
			assert.Equal(t, len(steps), wrong)
		}
		assert.GreaterOrEqual(t, s.Hearts, 0)
	}
}

func TestProgressIsMonotonic(t *testing.T) {
	steps := []Step{
		{Kind: KindExposition, Content: "a"},
		{Kind: KindAudioPrompt, Content: "b", MediaRef: "/audio/b.mp3"},
		{Kind: KindQuiz, Content: "c", Options: []string{"1", "2"}, CorrectAnswer: "1"},
		{Kind: KindExposition, Content: "d"},
		{Kind: KindQuiz, Content: "e", Options: []string{"1", "2"}, CorrectAnswer: "2"},
		{Kind: KindExposition, Content: "f"},
	}
	engine := newTestEngine(t, steps, 5)
	s := engine.Start()

	last := s.ProgressPercent
	for s.Phase == PhaseActive {
		if engine.CanSubmit(s) {
			s = engine.SubmitSelection(s, "1")
			assert.GreaterOrEqual(t, s.ProgressPercent, last)
			last = s.ProgressPercent
			continue
		}
		s = engine.Advance(s)
		assert.GreaterOrEqual(t, s.ProgressPercent, last)
		assert.LessOrEqual(t, s.ProgressPercent, 100)
		last = s.ProgressPercent
	}

	assert.Equal(t, PhaseCompleted, s.Phase)
	assert.Equal(t, 100, s.ProgressPercent)
}

func TestProgressRounding(t *testing.T) {
	steps := []Step{
		{Kind: KindExposition, Content: "a"},
		{Kind: KindExposition, Content: "b"},
		{Kind: KindExposition, Content: "c"},
	}
	engine := newTestEngine(t, steps, 5)
	s := engine.Start()

	s = engine.Advance(s)
	assert.Equal(t, 33, s.ProgressPercent)
	s = engine.Advance(s)
	assert.Equal(t, 67, s.ProgressPercent)
	s = engine.Advance(s)
	assert.Equal(t, 100, s.ProgressPercent)
}

func TestAbort(t *testing.T) {
	engine := newTestEngine(t, threeStepLesson(), 5)
	s := engine.Advance(engine.Start())

	s = engine.Abort(s)
	assert.Equal(t, PhaseFailed, s.Phase)
	assert.Equal(t, FailureAborted, s.Reason)
	assert.Equal(t, 5, s.Hearts, "aborting does not touch hearts")

	assert.Equal(t, s, engine.Abort(s))
	assert.Equal(t, s, engine.SubmitSelection(s, "A"))
	assert.Equal(t, s, engine.Advance(s))
}

func TestCompletedIsTerminal(t *testing.T) {
	engine := newTestEngine(t, []Step{{Kind: KindExposition, Content: "only"}}, 5)
	s := engine.Advance(engine.Start())
	require.Equal(t, PhaseCompleted, s.Phase)

	assert.Equal(t, s, engine.Advance(s))
	assert.Equal(t, s, engine.Abort(s))
	assert.Equal(t, s, engine.SubmitSelection(s, "anything"))
}

func TestInvalidUsePanics(t *testing.T) {
	engine := newTestEngine(t, threeStepLesson(), 5)
	s := engine.Start()

	assert.False(t, engine.CanSubmit(s))
	assert.PanicsWithError(t, "lesson: invalid use: selection submitted on exposition step 0", func() {
		engine.SubmitSelection(s, "A")
	})

	s = engine.Advance(s)
	assert.False(t, engine.CanAdvance(s))
	assert.Panics(t, func() {
		engine.Advance(s)
	})
}
