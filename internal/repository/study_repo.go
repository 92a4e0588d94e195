package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"linguapath/internal/database"
	"linguapath/internal/models"
)

// StudyRepository persists daily study minutes and lesson completions
type StudyRepository struct {
	db *database.DB
}

// NewStudyRepository creates a new study repository
func NewStudyRepository(db *database.DB) *StudyRepository {
	return &StudyRepository{db: db}
}

// AccumulateMinutes adds delta minutes to the (userID, date) record, creating
// it when absent, and returns the record as it is after the addition. The
// addition happens in a single upsert statement so concurrent calls for the
// same key never lose an increment.
func (r *StudyRepository) AccumulateMinutes(ctx context.Context, userID string, date time.Time, delta int) (*models.DailyStudyRecord, error) {
	if delta <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrNonPositiveDelta, delta)
	}

	day := date.Format(models.DateLayout)
	now := time.Now().UTC()
	var record *models.DailyStudyRecord

	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.GetDialect().AccumulateMinutesQuery(), userID, day, delta, now, now); err != nil {
			return err
		}
		var err error
		record, err = getDailyRecord(ctx, tx, userID, day)
		return err
	})
	if err != nil {
		return nil, storageError("accumulate minutes", err)
	}
	return record, nil
}

// RecordCompletion stores a completed lesson with its score
func (r *StudyRepository) RecordCompletion(ctx context.Context, userID, lessonID string, score int) (*models.LessonCompletionRecord, error) {
	return r.InsertCompletion(ctx, &models.LessonCompletionRecord{
		UserID:      userID,
		LessonID:    lessonID,
		Score:       score,
		Status:      models.StatusCompleted,
		CompletedAt: time.Now().UTC(),
	})
}

// InsertCompletion stores a completion record as given, assigning its ID
func (r *StudyRepository) InsertCompletion(ctx context.Context, rec *models.LessonCompletionRecord) (*models.LessonCompletionRecord, error) {
	if rec.Score < 0 {
		return nil, fmt.Errorf("completion score must not be negative, got %d", rec.Score)
	}
	query := `
		INSERT INTO lesson_completions (user_id, lesson_id, score, status, completed_at)
		VALUES (?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query, rec.UserID, rec.LessonID, rec.Score, string(rec.Status), rec.CompletedAt)
	if err != nil {
		return nil, storageError("record completion", err)
	}

	stored := *rec
	stored.ID = id
	return &stored, nil
}

// QueryDailyRecords returns the user's records with from <= date <= to,
// ordered by date. A zero from or to leaves that side of the range open.
func (r *StudyRepository) QueryDailyRecords(ctx context.Context, userID string, from, to time.Time) ([]models.DailyStudyRecord, error) {
	query := `
		SELECT user_id, study_date, minutes_spent, created_at, updated_at
		FROM daily_study_records
		WHERE user_id = ?
	`
	args := []interface{}{userID}
	if !from.IsZero() {
		query += " AND study_date >= ?"
		args = append(args, from.Format(models.DateLayout))
	}
	if !to.IsZero() {
		query += " AND study_date <= ?"
		args = append(args, to.Format(models.DateLayout))
	}
	query += " ORDER BY study_date"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageError("query daily records", err)
	}
	defer rows.Close()

	records, err := scanDailyRecords(rows)
	if err != nil {
		return nil, storageError("query daily records", err)
	}
	return records, nil
}

// QueryCompletions returns every completion record of the user, oldest first
func (r *StudyRepository) QueryCompletions(ctx context.Context, userID string) ([]models.LessonCompletionRecord, error) {
	query := `
		SELECT id, user_id, lesson_id, score, status, completed_at
		FROM lesson_completions
		WHERE user_id = ?
		ORDER BY completed_at, id
	`
	return r.queryCompletions(ctx, query, userID)
}

// AllDailyRecords returns every daily record, for backups
func (r *StudyRepository) AllDailyRecords(ctx context.Context) ([]models.DailyStudyRecord, error) {
	query := `
		SELECT user_id, study_date, minutes_spent, created_at, updated_at
		FROM daily_study_records
		ORDER BY user_id, study_date
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, storageError("list daily records", err)
	}
	defer rows.Close()

	records, err := scanDailyRecords(rows)
	if err != nil {
		return nil, storageError("list daily records", err)
	}
	return records, nil
}

// AllCompletions returns every completion record, for backups
func (r *StudyRepository) AllCompletions(ctx context.Context) ([]models.LessonCompletionRecord, error) {
	query := `
		SELECT id, user_id, lesson_id, score, status, completed_at
		FROM lesson_completions
		ORDER BY id
	`
	return r.queryCompletions(ctx, query)
}

// Clear deletes all study data
func (r *StudyRepository) Clear(ctx context.Context) error {
	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM lesson_completions"); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "DELETE FROM daily_study_records")
		return err
	})
	if err != nil {
		return storageError("clear study data", err)
	}
	return nil
}

func (r *StudyRepository) queryCompletions(ctx context.Context, query string, args ...interface{}) ([]models.LessonCompletionRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageError("query completions", err)
	}
	defer rows.Close()

	var completions []models.LessonCompletionRecord
	for rows.Next() {
		var c models.LessonCompletionRecord
		var status string
		if err := rows.Scan(&c.ID, &c.UserID, &c.LessonID, &c.Score, &status, &c.CompletedAt); err != nil {
			return nil, storageError("scan completion", err)
		}
		c.Status = models.CompletionStatus(status)
		completions = append(completions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("query completions", err)
	}
	return completions, nil
}

func getDailyRecord(ctx context.Context, q database.DBTX, userID, day string) (*models.DailyStudyRecord, error) {
	query := `
		SELECT user_id, study_date, minutes_spent, created_at, updated_at
		FROM daily_study_records
		WHERE user_id = ? AND study_date = ?
	`
	var rec models.DailyStudyRecord
	var date string
	err := q.QueryRowContext(ctx, query, userID, day).Scan(&rec.UserID, &date, &rec.MinutesSpent, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if rec.Date, err = time.Parse(models.DateLayout, date); err != nil {
		return nil, fmt.Errorf("bad study_date %q: %w", date, err)
	}
	return &rec, nil
}

func scanDailyRecords(rows *sql.Rows) ([]models.DailyStudyRecord, error) {
	var records []models.DailyStudyRecord
	for rows.Next() {
		var rec models.DailyStudyRecord
		var date string
		if err := rows.Scan(&rec.UserID, &date, &rec.MinutesSpent, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(models.DateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("bad study_date %q: %w", date, err)
		}
		rec.Date = parsed
		records = append(records, rec)
	}
	return records, rows.Err()
}
