package service

import (
	"context"
	"time"

	"linguapath/internal/models"
)

// StudyGateway is the storage contract for study time and lesson completions.
// *repository.StudyRepository implements it.
type StudyGateway interface {
	AccumulateMinutes(ctx context.Context, userID string, date time.Time, delta int) (*models.DailyStudyRecord, error)
	RecordCompletion(ctx context.Context, userID, lessonID string, score int) (*models.LessonCompletionRecord, error)
	QueryDailyRecords(ctx context.Context, userID string, from, to time.Time) ([]models.DailyStudyRecord, error)
	QueryCompletions(ctx context.Context, userID string) ([]models.LessonCompletionRecord, error)
}
