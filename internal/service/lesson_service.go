package service

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"linguapath/internal/content"
	"linguapath/internal/lesson"
	"linguapath/internal/models"
)

// LessonFinder looks up lessons by ID. *content.Catalog implements it.
type LessonFinder interface {
	Get(id string) (*content.Lesson, bool)
}

// LessonSettings configures attempts and the score of completed lessons
type LessonSettings struct {
	HeartsInitial int
	Grading       lesson.GradingPolicy
	XPPerLesson   int
	XPPerHeart    int
	SessionTTL    time.Duration
	Location      *time.Location
}

// LessonService hosts lesson attempts in memory. Each attempt is driven by
// a lesson.Engine; events for one attempt are applied one at a time.
type LessonService struct {
	lessons  LessonFinder
	gateway  StudyGateway
	settings LessonSettings
	logger   logrus.FieldLogger
	now      func() time.Time

	mu       sync.Mutex
	attempts map[string]*attempt
}

type attempt struct {
	id       string
	userID   string
	lesson   *content.Lesson
	engine   *lesson.Engine
	lastSeen atomic.Int64

	mu        sync.Mutex
	state     lesson.State
	startedAt time.Time
	endedAt   time.Time
	xpEarned  int
	minutes   int

	completionRecorded bool
	minutesRecorded    bool
}

// NewLessonService creates a lesson service
func NewLessonService(lessons LessonFinder, gateway StudyGateway, settings LessonSettings, logger logrus.FieldLogger) *LessonService {
	if settings.HeartsInitial < 1 {
		settings.HeartsInitial = lesson.DefaultHearts
	}
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	return &LessonService{
		lessons:  lessons,
		gateway:  gateway,
		settings: settings,
		logger:   logger,
		now:      time.Now,
		attempts: make(map[string]*attempt),
	}
}

// Start begins a new attempt of lessonID for userID
func (s *LessonService) Start(ctx context.Context, userID, lessonID string) (*SessionView, error) {
	l, ok := s.lessons.Get(lessonID)
	if !ok {
		return nil, ErrLessonNotFound
	}

	engine, err := lesson.NewEngine(l.Steps, s.settings.Grading, s.settings.HeartsInitial)
	if err != nil {
		return nil, err
	}

	now := s.now()
	a := &attempt{
		id:        uuid.NewString(),
		userID:    userID,
		lesson:    l,
		engine:    engine,
		state:     engine.Start(),
		startedAt: now,
	}
	a.lastSeen.Store(now.UnixNano())

	s.mu.Lock()
	s.attempts[a.id] = a
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"user":    userID,
		"lesson":  lessonID,
		"session": a.id,
	}).Info("Lesson attempt started")

	return a.view(), nil
}

// Get returns the current view of an attempt. A terminal attempt whose
// results could not be stored yet is reported again.
func (s *LessonService) Get(ctx context.Context, userID, sessionID string) (*SessionView, error) {
	return s.apply(ctx, userID, sessionID, func(a *attempt) error { return nil })
}

// SubmitAnswer grades answer on the current quiz step. A second answer on
// the same step is ignored.
func (s *LessonService) SubmitAnswer(ctx context.Context, userID, sessionID, answer string) (*SessionView, error) {
	return s.apply(ctx, userID, sessionID, func(a *attempt) error {
		if a.state.Phase.IsTerminal() || a.state.HasSelection {
			return nil
		}
		if !a.engine.CanSubmit(a.state) {
			return ErrInvalidTransition
		}
		a.state = a.engine.SubmitSelection(a.state, answer)
		return nil
	})
}

// Advance moves the attempt to its next step
func (s *LessonService) Advance(ctx context.Context, userID, sessionID string) (*SessionView, error) {
	return s.apply(ctx, userID, sessionID, func(a *attempt) error {
		if a.state.Phase.IsTerminal() {
			return nil
		}
		if !a.engine.CanAdvance(a.state) {
			return ErrInvalidTransition
		}
		a.state = a.engine.Advance(a.state)
		return nil
	})
}

// Abort ends the attempt as failed
func (s *LessonService) Abort(ctx context.Context, userID, sessionID string) (*SessionView, error) {
	return s.apply(ctx, userID, sessionID, func(a *attempt) error {
		a.state = a.engine.Abort(a.state)
		return nil
	})
}

func (s *LessonService) apply(ctx context.Context, userID, sessionID string, fn func(a *attempt) error) (*SessionView, error) {
	a, err := s.lookup(userID, sessionID)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastSeen.Store(s.now().UnixNano())

	wasTerminal := a.state.Phase.IsTerminal()
	if err := fn(a); err != nil {
		return nil, err
	}
	if !wasTerminal && a.state.Phase.IsTerminal() {
		s.finish(a)
	}
	if err := s.report(ctx, a); err != nil {
		return nil, err
	}
	return a.view(), nil
}

func (s *LessonService) lookup(userID, sessionID string) (*attempt, error) {
	s.mu.Lock()
	a, ok := s.attempts[sessionID]
	s.mu.Unlock()

	if !ok || a.userID != userID {
		return nil, ErrSessionNotFound
	}
	return a, nil
}

// finish fixes the results of an attempt at its first terminal transition
func (s *LessonService) finish(a *attempt) {
	a.endedAt = s.now()
	a.minutes = elapsedMinutes(a.startedAt, a.endedAt)
	if a.state.Phase == lesson.PhaseCompleted {
		a.xpEarned = s.settings.XPPerLesson + a.state.Hearts*s.settings.XPPerHeart
	}

	s.logger.WithFields(logrus.Fields{
		"user":     a.userID,
		"lesson":   a.lesson.ID,
		"session":  a.id,
		"phase":    a.state.Phase.String(),
		"reason":   a.state.Reason.String(),
		"hearts":   a.state.Hearts,
		"xp":       a.xpEarned,
		"minutes":  a.minutes,
		"progress": a.state.ProgressPercent,
	}).Info("Lesson attempt finished")
}

// report stores whatever results of a terminal attempt are still missing.
// Completed attempts earn a completion record; every ended attempt adds its
// minutes. Each write is flagged once done so a retry repeats only the
// failed one.
func (s *LessonService) report(ctx context.Context, a *attempt) error {
	if !a.state.Phase.IsTerminal() {
		return nil
	}

	if a.state.Phase == lesson.PhaseCompleted && !a.completionRecorded {
		if _, err := s.gateway.RecordCompletion(ctx, a.userID, a.lesson.ID, a.xpEarned); err != nil {
			s.logger.WithError(err).WithField("session", a.id).Error("Failed to record lesson completion")
			return err
		}
		a.completionRecorded = true
	}

	if !a.minutesRecorded {
		if a.minutes > 0 {
			day := models.CalendarDay(a.endedAt, s.settings.Location)
			if _, err := s.gateway.AccumulateMinutes(ctx, a.userID, day, a.minutes); err != nil {
				s.logger.WithError(err).WithField("session", a.id).Error("Failed to record lesson minutes")
				return err
			}
		}
		a.minutesRecorded = true
	}
	return nil
}

// EvictIdle drops attempts not touched for longer than the session TTL and
// returns how many were dropped. Attempts busy with a call are kept for the
// next round. Ended attempts whose results never reached storage are logged.
func (s *LessonService) EvictIdle() int {
	cutoff := s.now().Add(-s.settings.SessionTTL).UnixNano()

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, a := range s.attempts {
		if a.lastSeen.Load() >= cutoff || !a.mu.TryLock() {
			continue
		}
		if pending := a.unreported(); len(pending) > 0 {
			s.logger.WithFields(logrus.Fields{
				"session": a.id,
				"user":    a.userID,
				"lesson":  a.lesson.ID,
				"phase":   a.state.Phase.String(),
				"xp":      a.xpEarned,
				"minutes": a.minutes,
				"pending": pending,
			}).Warn("Evicting lesson attempt with unsaved results")
		}
		a.mu.Unlock()

		delete(s.attempts, id)
		evicted++
	}
	return evicted
}

// unreported lists the writes of an ended attempt that have not succeeded.
// a.mu must be held.
func (a *attempt) unreported() []string {
	if !a.state.Phase.IsTerminal() {
		return nil
	}
	var pending []string
	if a.state.Phase == lesson.PhaseCompleted && !a.completionRecorded {
		pending = append(pending, "completion")
	}
	if !a.minutesRecorded && a.minutes > 0 {
		pending = append(pending, "minutes")
	}
	return pending
}

// RunJanitor evicts idle attempts every interval until ctx is done
func (s *LessonService) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.EvictIdle(); n > 0 {
				s.logger.WithField("evicted", n).Info("Evicted idle lesson attempts")
			}
		}
	}
}

func elapsedMinutes(start, end time.Time) int {
	m := int(math.Round(end.Sub(start).Minutes()))
	if m < 0 {
		return 0
	}
	if m > maxMinutesPerReport {
		return maxMinutesPerReport
	}
	return m
}
