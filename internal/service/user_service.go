package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"linguapath/internal/models"
	"linguapath/internal/validation"
)

// UserStore is the profile storage used by UserService.
// *repository.UserRepository implements it.
type UserStore interface {
	GetOrCreate(ctx context.Context, subject, name, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, subject string, update models.ProfileUpdate) (*models.User, error)
}

// UserService manages learner profiles
type UserService struct {
	users  UserStore
	logger logrus.FieldLogger
}

// NewUserService creates a new user service
func NewUserService(users UserStore, logger logrus.FieldLogger) *UserService {
	return &UserService{users: users, logger: logger}
}

// Profile returns the profile of subject, creating it with defaults on the
// first visit
func (s *UserService) Profile(ctx context.Context, subject, name, email string) (*models.User, error) {
	return s.users.GetOrCreate(ctx, subject, name, email)
}

// UpdateProfile validates and stores the editable profile fields
func (s *UserService) UpdateProfile(ctx context.Context, subject, name, email string, update models.ProfileUpdate) (*models.User, error) {
	update.Name = strings.TrimSpace(update.Name)
	update.NativeLanguage = strings.TrimSpace(update.NativeLanguage)
	update.LearningGoal = strings.TrimSpace(update.LearningGoal)
	if err := validateProfile(update); err != nil {
		return nil, err
	}

	// make sure the row exists before updating it
	if _, err := s.users.GetOrCreate(ctx, subject, name, email); err != nil {
		return nil, err
	}

	user, err := s.users.UpdateProfile(ctx, subject, update)
	if err != nil {
		return nil, err
	}

	s.logger.WithField("user", subject).Info("Profile updated")
	return user, nil
}

func validateProfile(u models.ProfileUpdate) error {
	checks := []error{
		validation.ValidateName(u.Name),
		validation.ValidateLabel("nativeLanguage", u.NativeLanguage, validation.MaxLabelLength),
		validation.ValidateLabel("learningGoal", u.LearningGoal, validation.MaxLabelLength),
		validation.ValidateDailyGoal(u.DailyGoal),
	}
	for _, err := range checks {
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidProfile, err)
		}
	}
	return nil
}
