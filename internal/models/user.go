package models

import "time"

// Profile defaults applied when a user is first seen
const (
	DefaultNativeLanguage = "English"
	DefaultLearningGoal   = "Intermediate"
	DefaultDailyGoal      = 30
)

// User is the learner profile attached to an identity provider subject
type User struct {
	ID             int64     `json:"id"`
	AuthSubject    string    `json:"authSubject"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	NativeLanguage string    `json:"nativeLanguage"`
	LearningGoal   string    `json:"learningGoal"`
	DailyGoal      int       `json:"dailyGoal"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// ProfileUpdate holds the editable profile fields
type ProfileUpdate struct {
	Name           string `json:"name"`
	NativeLanguage string `json:"nativeLanguage"`
	LearningGoal   string `json:"learningGoal"`
	DailyGoal      int    `json:"dailyGoal"`
}
