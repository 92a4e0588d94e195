package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"linguapath/internal/database"
	"linguapath/internal/models"
)

// UserRepository handles database operations for learner profiles
type UserRepository struct {
	db *database.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, auth_subject, name, email, native_language, learning_goal, daily_goal, created_at, updated_at`

// GetBySubject retrieves a user by identity provider subject.
// Returns nil, nil when no such user exists.
func (r *UserRepository) GetBySubject(ctx context.Context, subject string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE auth_subject = ?`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, subject))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageError("get user", err)
	}
	return user, nil
}

// GetOrCreate returns the user for subject, creating a profile with default
// settings the first time the subject is seen
func (r *UserRepository) GetOrCreate(ctx context.Context, subject, name, email string) (*models.User, error) {
	user, err := r.GetBySubject(ctx, subject)
	if err != nil || user != nil {
		return user, err
	}

	now := time.Now().UTC()
	user = &models.User{
		AuthSubject:    subject,
		Name:           name,
		Email:          email,
		NativeLanguage: models.DefaultNativeLanguage,
		LearningGoal:   models.DefaultLearningGoal,
		DailyGoal:      models.DefaultDailyGoal,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := r.Insert(ctx, user); err != nil {
		// Two first requests for the same subject can race; the loser reads
		// the winner's row.
		if existing, getErr := r.GetBySubject(ctx, subject); getErr == nil && existing != nil {
			return existing, nil
		}
		return nil, err
	}
	return user, nil
}

// Insert stores a user as given and sets its ID
func (r *UserRepository) Insert(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (auth_subject, name, email, native_language, learning_goal, daily_goal, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		user.AuthSubject, user.Name, user.Email, user.NativeLanguage,
		user.LearningGoal, user.DailyGoal, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return storageError("create user", err)
	}
	user.ID = id
	return nil
}

// UpdateProfile applies the editable fields and returns the updated user.
// Returns nil, nil when the subject is unknown.
func (r *UserRepository) UpdateProfile(ctx context.Context, subject string, update models.ProfileUpdate) (*models.User, error) {
	query := `
		UPDATE users
		SET name = ?, native_language = ?, learning_goal = ?, daily_goal = ?, updated_at = ?
		WHERE auth_subject = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		update.Name, update.NativeLanguage, update.LearningGoal, update.DailyGoal, time.Now().UTC(), subject)
	if err != nil {
		return nil, storageError("update user", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return nil, nil
	}
	return r.GetBySubject(ctx, subject)
}

// List returns every user ordered by ID
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	return r.list(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
}

// ListWithEmail returns the users that have an email address on file
func (r *UserRepository) ListWithEmail(ctx context.Context) ([]models.User, error) {
	return r.list(ctx, `SELECT `+userColumns+` FROM users WHERE email <> '' ORDER BY id`)
}

// Clear deletes all users
func (r *UserRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM users"); err != nil {
		return storageError("clear users", err)
	}
	return nil
}

func (r *UserRepository) list(ctx context.Context, query string) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, storageError("list users", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, storageError("scan user", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("list users", err)
	}
	return users, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.AuthSubject,
		&user.Name,
		&user.Email,
		&user.NativeLanguage,
		&user.LearningGoal,
		&user.DailyGoal,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}
