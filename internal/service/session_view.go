package service

// SessionView is what clients see of a lesson attempt
type SessionView struct {
	ID              string    `json:"id"`
	LessonID        string    `json:"lessonId"`
	LessonTitle     string    `json:"lessonTitle"`
	Phase           string    `json:"phase"`
	StepIndex       int       `json:"stepIndex"`
	TotalSteps      int       `json:"totalSteps"`
	Hearts          int       `json:"hearts"`
	HeartsInitial   int       `json:"heartsInitial"`
	ProgressPercent int       `json:"progressPercent"`
	Step            *StepView `json:"step,omitempty"`
	Selection       string    `json:"selection,omitempty"`
	Verdict         string    `json:"verdict,omitempty"`
	FailureReason   string    `json:"failureReason,omitempty"`
	XPEarned        int       `json:"xpEarned"`
	MinutesRecorded int       `json:"minutesRecorded"`
}

// StepView is the presented step. The correct answer is only revealed once
// a selection has been made.
type StepView struct {
	Kind          string   `json:"kind"`
	Content       string   `json:"content"`
	MediaRef      string   `json:"mediaRef,omitempty"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correctAnswer,omitempty"`
}

// view must be called with a.mu held
func (a *attempt) view() *SessionView {
	v := &SessionView{
		ID:              a.id,
		LessonID:        a.lesson.ID,
		LessonTitle:     a.lesson.Title,
		Phase:           a.state.Phase.String(),
		StepIndex:       a.state.StepIndex,
		TotalSteps:      a.engine.TotalSteps(),
		Hearts:          a.state.Hearts,
		HeartsInitial:   a.engine.HeartsInitial(),
		ProgressPercent: a.state.ProgressPercent,
		Selection:       a.state.Selection,
		Verdict:         a.state.Verdict.String(),
		FailureReason:   a.state.Reason.String(),
		XPEarned:        a.xpEarned,
	}
	if a.minutesRecorded {
		v.MinutesRecorded = a.minutes
	}

	if step, ok := a.engine.CurrentStep(a.state); ok {
		sv := &StepView{
			Kind:     step.Kind.String(),
			Content:  step.Content,
			MediaRef: step.MediaRef,
			Options:  step.Options,
		}
		if a.state.HasSelection {
			sv.CorrectAnswer = step.CorrectAnswer
		}
		v.Step = sv
	}
	return v
}
