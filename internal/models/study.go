package models

import "time"

// DateLayout is the storage and wire format of calendar dates
const DateLayout = "2006-01-02"

// CalendarDay returns the calendar date of t in loc as midnight UTC, so
// that dates compare and subtract independently of any time zone
func CalendarDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DailyStudyRecord accumulates the minutes a user studied on one calendar day.
// There is at most one record per (UserID, Date).
type DailyStudyRecord struct {
	UserID       string
	Date         time.Time
	MinutesSpent int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DateString returns the record date in DateLayout
func (r DailyStudyRecord) DateString() string {
	return r.Date.Format(DateLayout)
}

// CompletionStatus is the outcome stored for a lesson attempt
type CompletionStatus string

const (
	StatusCompleted CompletionStatus = "completed"
	StatusAbandoned CompletionStatus = "abandoned"
)

// LessonCompletionRecord is one finished lesson of a user. Only records
// with StatusCompleted count towards XP and the completed lesson total.
type LessonCompletionRecord struct {
	ID          int64
	UserID      string
	LessonID    string
	Score       int
	Status      CompletionStatus
	CompletedAt time.Time
}

// UserStatsSnapshot is derived on read from daily records and completions
type UserStatsSnapshot struct {
	DaysStreak          int `json:"daysStreak"`
	TotalXP             int `json:"totalXP"`
	LessonsCompleted    int `json:"lessonsCompleted"`
	TotalMinutes        int `json:"totalMinutes"`
	LastWeekMinutes     int `json:"lastWeekMinutes"`
	AverageDailyMinutes int `json:"averageDailyMinutes"`
}
