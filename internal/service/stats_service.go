package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"linguapath/internal/models"
)

// maxMinutesPerReport caps a single time-tracking report at one day
const maxMinutesPerReport = 24 * 60

// StatsService records study time and derives learner statistics
type StatsService struct {
	gateway StudyGateway
	loc     *time.Location
	now     func() time.Time
	logger  logrus.FieldLogger
}

// NewStatsService creates a stats service. loc decides which calendar day
// "today" is.
func NewStatsService(gateway StudyGateway, loc *time.Location, logger logrus.FieldLogger) *StatsService {
	if loc == nil {
		loc = time.UTC
	}
	return &StatsService{
		gateway: gateway,
		loc:     loc,
		now:     time.Now,
		logger:  logger,
	}
}

// Today returns the current calendar day in the service's time zone
func (s *StatsService) Today() time.Time {
	return models.CalendarDay(s.now(), s.loc)
}

// TrackTime adds minutes to today's study record of the user
func (s *StatsService) TrackTime(ctx context.Context, userID string, minutes int) (*models.DailyStudyRecord, error) {
	if minutes <= 0 || minutes > maxMinutesPerReport {
		return nil, ErrInvalidMinutes
	}

	record, err := s.gateway.AccumulateMinutes(ctx, userID, s.Today(), minutes)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user":    userID,
		"date":    record.DateString(),
		"added":   minutes,
		"minutes": record.MinutesSpent,
	}).Debug("Study time recorded")
	return record, nil
}

// ComputeStats loads the user's records and completions and derives the
// snapshot. A user without any activity gets a zero snapshot.
func (s *StatsService) ComputeStats(ctx context.Context, userID string) (models.UserStatsSnapshot, error) {
	var (
		records     []models.DailyStudyRecord
		completions []models.LessonCompletionRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = s.gateway.QueryDailyRecords(gctx, userID, time.Time{}, time.Time{})
		return err
	})
	g.Go(func() error {
		var err error
		completions, err = s.gateway.QueryCompletions(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.UserStatsSnapshot{}, fmt.Errorf("compute stats: %w", err)
	}

	return ComputeSnapshot(records, completions, s.Today()), nil
}

// RecentDays returns the user's records of the last n days, today included
func (s *StatsService) RecentDays(ctx context.Context, userID string, n int) ([]models.DailyStudyRecord, error) {
	today := s.Today()
	return s.gateway.QueryDailyRecords(ctx, userID, today.AddDate(0, 0, -(n-1)), today)
}

// ComputeSnapshot derives the statistics from raw records. today must be a
// calendar day as returned by models.CalendarDay.
func ComputeSnapshot(records []models.DailyStudyRecord, completions []models.LessonCompletionRecord, today time.Time) models.UserStatsSnapshot {
	perDay := lo.Reduce(records, func(acc map[string]int, r models.DailyStudyRecord, _ int) map[string]int {
		acc[r.DateString()] += r.MinutesSpent
		return acc
	}, map[string]int{})

	weekStart := today.AddDate(0, 0, -6)
	lastWeek := lo.Filter(records, func(r models.DailyStudyRecord, _ int) bool {
		return !r.Date.Before(weekStart) && !r.Date.After(today)
	})

	completed := lo.Filter(completions, func(c models.LessonCompletionRecord, _ int) bool {
		return c.Status == models.StatusCompleted
	})

	return models.UserStatsSnapshot{
		DaysStreak:          streak(perDay, today),
		TotalXP:             lo.SumBy(completed, func(c models.LessonCompletionRecord) int { return c.Score }),
		LessonsCompleted:    len(completed),
		TotalMinutes:        lo.SumBy(records, minutesOf),
		LastWeekMinutes:     lo.SumBy(lastWeek, minutesOf),
		AverageDailyMinutes: averagePerDay(perDay),
	}
}

func minutesOf(r models.DailyStudyRecord) int {
	return r.MinutesSpent
}

// streak counts consecutive active days walking back from today. An empty
// today does not break the streak yet; the walk then starts at yesterday.
func streak(perDay map[string]int, today time.Time) int {
	active := func(d time.Time) bool {
		return perDay[d.Format(models.DateLayout)] > 0
	}

	day := today
	if !active(day) {
		day = day.AddDate(0, 0, -1)
	}

	count := 0
	for active(day) {
		count++
		day = day.AddDate(0, 0, -1)
	}
	return count
}

func averagePerDay(perDay map[string]int) int {
	data := lo.Map(lo.Values(perDay), func(m int, _ int) float64 { return float64(m) })
	mean, err := stats.Mean(data)
	if err != nil {
		// empty input
		return 0
	}
	return int(math.Round(mean))
}
