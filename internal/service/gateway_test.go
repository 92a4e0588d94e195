package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"linguapath/internal/models"
	"linguapath/internal/repository"
)

// memoryGateway is an in-memory StudyGateway for service tests
type memoryGateway struct {
	mu          sync.Mutex
	daily       map[string]*models.DailyStudyRecord
	completions []models.LessonCompletionRecord

	failAccumulate bool
	failComplete   bool
	failQuery      bool

	accumulateCalls int
	completeCalls   int
}

func newMemoryGateway() *memoryGateway {
	return &memoryGateway{daily: make(map[string]*models.DailyStudyRecord)}
}

func (g *memoryGateway) AccumulateMinutes(_ context.Context, userID string, date time.Time, delta int) (*models.DailyStudyRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.accumulateCalls++
	if g.failAccumulate {
		return nil, repository.ErrStorageUnavailable
	}

	key := userID + "/" + date.Format(models.DateLayout)
	rec, ok := g.daily[key]
	if !ok {
		rec = &models.DailyStudyRecord{UserID: userID, Date: date}
		g.daily[key] = rec
	}
	rec.MinutesSpent += delta
	copied := *rec
	return &copied, nil
}

func (g *memoryGateway) RecordCompletion(_ context.Context, userID, lessonID string, score int) (*models.LessonCompletionRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.completeCalls++
	if g.failComplete {
		return nil, repository.ErrStorageUnavailable
	}

	rec := models.LessonCompletionRecord{
		ID:          int64(len(g.completions) + 1),
		UserID:      userID,
		LessonID:    lessonID,
		Score:       score,
		Status:      models.StatusCompleted,
		CompletedAt: time.Now(),
	}
	g.completions = append(g.completions, rec)
	return &rec, nil
}

func (g *memoryGateway) QueryDailyRecords(_ context.Context, userID string, from, to time.Time) ([]models.DailyStudyRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failQuery {
		return nil, repository.ErrStorageUnavailable
	}

	var out []models.DailyStudyRecord
	for _, rec := range g.daily {
		if rec.UserID != userID {
			continue
		}
		if !from.IsZero() && rec.Date.Before(from) {
			continue
		}
		if !to.IsZero() && rec.Date.After(to) {
			continue
		}
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (g *memoryGateway) QueryCompletions(_ context.Context, userID string) ([]models.LessonCompletionRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failQuery {
		return nil, repository.ErrStorageUnavailable
	}

	var out []models.LessonCompletionRecord
	for _, c := range g.completions {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (g *memoryGateway) completionsFor(userID string) int {
	completions, _ := g.QueryCompletions(context.Background(), userID)
	return len(completions)
}

func (g *memoryGateway) minutesOn(userID string, date time.Time) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if rec, ok := g.daily[userID+"/"+date.Format(models.DateLayout)]; ok {
		return rec.MinutesSpent
	}
	return 0
}

var _ StudyGateway = (*memoryGateway)(nil)
var _ StudyGateway = (*repository.StudyRepository)(nil)
