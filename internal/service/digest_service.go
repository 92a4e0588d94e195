package service

import (
	"context"
	"sync/atomic"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"linguapath/internal/models"
	"linguapath/internal/validation"
)

// digestWorkers bounds concurrent per-user digest work
const digestWorkers = 4

// WeeklyDigest is the content of one learner's weekly email
type WeeklyDigest struct {
	Stats      models.UserStatsSnapshot
	DailyGoal  int
	DaysOnGoal int
}

// Mailer delivers weekly digests. *EmailService implements it.
type Mailer interface {
	IsEnabled() bool
	SendWeeklyDigest(ctx context.Context, toEmail, toName string, digest WeeklyDigest) error
}

// Recipients lists the users that can receive email.
// *repository.UserRepository implements it.
type Recipients interface {
	ListWithEmail(ctx context.Context) ([]models.User, error)
}

// DigestResult counts the outcome of a digest run
type DigestResult struct {
	Sent   int
	Failed int
}

// DigestService builds and sends weekly progress digests
type DigestService struct {
	users  Recipients
	stats  *StatsService
	mailer Mailer
	logger logrus.FieldLogger
}

// NewDigestService creates a new digest service
func NewDigestService(users Recipients, stats *StatsService, mailer Mailer, logger logrus.FieldLogger) *DigestService {
	return &DigestService{users: users, stats: stats, mailer: mailer, logger: logger}
}

// Build computes the digest of one user
func (s *DigestService) Build(ctx context.Context, user models.User) (WeeklyDigest, error) {
	snap, err := s.stats.ComputeStats(ctx, user.AuthSubject)
	if err != nil {
		return WeeklyDigest{}, err
	}
	week, err := s.stats.RecentDays(ctx, user.AuthSubject, 7)
	if err != nil {
		return WeeklyDigest{}, err
	}

	goal := user.DailyGoal
	if goal < 1 {
		goal = models.DefaultDailyGoal
	}
	return WeeklyDigest{
		Stats:      snap,
		DailyGoal:  goal,
		DaysOnGoal: lo.CountBy(week, func(r models.DailyStudyRecord) bool { return r.MinutesSpent >= goal }),
	}, nil
}

// Run sends a digest to every user with an email address. A failure for one
// user is logged and counted without stopping the others; only a failure to
// list the recipients is returned.
func (s *DigestService) Run(ctx context.Context) (DigestResult, error) {
	if !s.mailer.IsEnabled() {
		s.logger.Info("Email disabled, skipping weekly digest")
		return DigestResult{}, nil
	}

	users, err := s.users.ListWithEmail(ctx)
	if err != nil {
		return DigestResult{}, err
	}
	deliverable := lo.Filter(users, func(u models.User, _ int) bool {
		return validation.ValidateEmail(u.Email) == nil
	})
	if skipped := len(users) - len(deliverable); skipped > 0 {
		s.logger.WithField("skipped", skipped).Warn("Skipping users with malformed email addresses")
	}

	var sent, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(digestWorkers)

	for _, user := range deliverable {
		g.Go(func() error {
			log := s.logger.WithField("user", user.AuthSubject)

			digest, err := s.Build(gctx, user)
			if err == nil {
				err = s.mailer.SendWeeklyDigest(gctx, user.Email, user.Name, digest)
			}
			if err != nil {
				log.WithError(err).Warn("Weekly digest failed")
				failed.Add(1)
				return nil
			}
			sent.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	result := DigestResult{Sent: int(sent.Load()), Failed: int(failed.Load())}
	s.logger.WithFields(logrus.Fields{"sent": result.Sent, "failed": result.Failed}).Info("Weekly digest finished")
	return result, nil
}
