package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"linguapath/internal/models"
	"linguapath/internal/repository"
)

const backupVersion = "2.0"

// BackupData represents the complete database backup structure
type BackupData struct {
	Version      string              `json:"version"`
	ExportedAt   time.Time           `json:"exported_at"`
	Users        []models.User       `json:"users"`
	DailyRecords []DailyRecordBackup `json:"daily_records"`
	Completions  []CompletionBackup  `json:"completions"`
}

// DailyRecordBackup represents a daily study record for backup
type DailyRecordBackup struct {
	UserID  string `json:"user_id"`
	Date    string `json:"date"`
	Minutes int    `json:"minutes"`
}

// CompletionBackup represents a lesson completion for backup
type CompletionBackup struct {
	UserID      string    `json:"user_id"`
	LessonID    string    `json:"lesson_id"`
	Score       int       `json:"score"`
	Status      string    `json:"status"`
	CompletedAt time.Time `json:"completed_at"`
}

// BackupService handles database backup and restore operations
type BackupService struct {
	users  *repository.UserRepository
	study  *repository.StudyRepository
	logger logrus.FieldLogger
}

// NewBackupService creates a new backup service
func NewBackupService(users *repository.UserRepository, study *repository.StudyRepository, logger logrus.FieldLogger) *BackupService {
	return &BackupService{users: users, study: study, logger: logger}
}

// ExportFile writes a complete backup to outputPath
func (s *BackupService) ExportFile(ctx context.Context, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := s.Export(ctx, file); err != nil {
		return err
	}
	s.logger.WithField("path", outputPath).Info("Database exported successfully")
	return file.Close()
}

// Export writes a complete backup as indented JSON to w
func (s *BackupService) Export(ctx context.Context, w io.Writer) error {
	s.logger.Info("Starting database export")

	backup := &BackupData{
		Version:    backupVersion,
		ExportedAt: time.Now().UTC(),
	}

	users, err := s.users.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to export users: %w", err)
	}
	backup.Users = users

	records, err := s.study.AllDailyRecords(ctx)
	if err != nil {
		return fmt.Errorf("failed to export daily records: %w", err)
	}
	for _, r := range records {
		backup.DailyRecords = append(backup.DailyRecords, DailyRecordBackup{
			UserID:  r.UserID,
			Date:    r.DateString(),
			Minutes: r.MinutesSpent,
		})
	}

	completions, err := s.study.AllCompletions(ctx)
	if err != nil {
		return fmt.Errorf("failed to export completions: %w", err)
	}
	for _, c := range completions {
		backup.Completions = append(backup.Completions, CompletionBackup{
			UserID:      c.UserID,
			LessonID:    c.LessonID,
			Score:       c.Score,
			Status:      string(c.Status),
			CompletedAt: c.CompletedAt,
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"users":        len(backup.Users),
		"dailyRecords": len(backup.DailyRecords),
		"completions":  len(backup.Completions),
	}).Info("Export finished")
	return nil
}

// ImportFile restores a backup from inputPath
func (s *BackupService) ImportFile(ctx context.Context, inputPath string, clear bool) error {
	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.Import(ctx, file, clear)
}

// Import restores a backup read from r. Users, daily records and completions
// already present are kept as they are, so the same backup can be imported
// again without counting anything twice. With clear set all existing data is
// deleted first.
func (s *BackupService) Import(ctx context.Context, r io.Reader, clear bool) error {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"version":    backup.Version,
		"exportedAt": backup.ExportedAt,
	}).Info("Starting database import")

	if clear {
		if err := s.study.Clear(ctx); err != nil {
			return err
		}
		if err := s.users.Clear(ctx); err != nil {
			return err
		}
		s.logger.Warn("Existing data cleared")
	}

	if err := s.importUsers(ctx, backup.Users); err != nil {
		return fmt.Errorf("failed to import users: %w", err)
	}
	if err := s.importDailyRecords(ctx, backup.DailyRecords); err != nil {
		return fmt.Errorf("failed to import daily records: %w", err)
	}
	if err := s.importCompletions(ctx, backup.Completions); err != nil {
		return fmt.Errorf("failed to import completions: %w", err)
	}

	s.logger.Info("Database import completed successfully")
	return nil
}

func (s *BackupService) importUsers(ctx context.Context, users []models.User) error {
	for _, u := range users {
		existing, err := s.users.GetBySubject(ctx, u.AuthSubject)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		user := u
		if user.CreatedAt.IsZero() {
			user.CreatedAt = time.Now().UTC()
			user.UpdatedAt = user.CreatedAt
		}
		if err := s.users.Insert(ctx, &user); err != nil {
			return err
		}
	}
	return nil
}

// importDailyRecords adds the backup minutes of every (user, date) that has
// no record yet. Days already present are left alone so importing the same
// backup twice, or re-running a partial import, never inflates study time.
func (s *BackupService) importDailyRecords(ctx context.Context, records []DailyRecordBackup) error {
	existing := map[string]map[string]bool{}
	skipped := 0

	for _, r := range records {
		if r.Minutes <= 0 {
			continue
		}
		date, err := time.Parse(models.DateLayout, r.Date)
		if err != nil {
			return fmt.Errorf("record of %s: bad date %q", r.UserID, r.Date)
		}

		days, ok := existing[r.UserID]
		if !ok {
			stored, err := s.study.QueryDailyRecords(ctx, r.UserID, time.Time{}, time.Time{})
			if err != nil {
				return err
			}
			days = make(map[string]bool, len(stored))
			for _, d := range stored {
				days[d.DateString()] = true
			}
			existing[r.UserID] = days
		}

		key := date.Format(models.DateLayout)
		if days[key] {
			skipped++
			continue
		}
		if _, err := s.study.AccumulateMinutes(ctx, r.UserID, date, r.Minutes); err != nil {
			return err
		}
		days[key] = true
	}

	if skipped > 0 {
		s.logger.WithField("skipped", skipped).Info("Daily records already present were skipped")
	}
	return nil
}

// importCompletions inserts the completions not already stored, matched on
// user, lesson and completion time
func (s *BackupService) importCompletions(ctx context.Context, completions []CompletionBackup) error {
	existing := map[string]map[string]bool{}
	skipped := 0

	for _, c := range completions {
		status := models.CompletionStatus(c.Status)
		if status != models.StatusCompleted && status != models.StatusAbandoned {
			return fmt.Errorf("completion of %s: unknown status %q", c.UserID, c.Status)
		}

		keys, ok := existing[c.UserID]
		if !ok {
			stored, err := s.study.QueryCompletions(ctx, c.UserID)
			if err != nil {
				return err
			}
			keys = make(map[string]bool, len(stored))
			for _, sc := range stored {
				keys[completionKey(sc.LessonID, sc.CompletedAt)] = true
			}
			existing[c.UserID] = keys
		}

		key := completionKey(c.LessonID, c.CompletedAt)
		if keys[key] {
			skipped++
			continue
		}
		if _, err := s.study.InsertCompletion(ctx, &models.LessonCompletionRecord{
			UserID:      c.UserID,
			LessonID:    c.LessonID,
			Score:       c.Score,
			Status:      status,
			CompletedAt: c.CompletedAt,
		}); err != nil {
			return err
		}
		keys[key] = true
	}

	if skipped > 0 {
		s.logger.WithField("skipped", skipped).Info("Completions already present were skipped")
	}
	return nil
}

// completionKey identifies a completion across databases. Drivers keep
// different sub-second precision, so times compare to the second in UTC.
func completionKey(lessonID string, completedAt time.Time) string {
	return lessonID + "|" + completedAt.UTC().Truncate(time.Second).Format(time.RFC3339)
}
