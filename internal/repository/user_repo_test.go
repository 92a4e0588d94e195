package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linguapath/internal/models"
)

func TestGetOrCreateAppliesDefaults(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()

	user, err := repo.GetOrCreate(ctx, "auth0|42", "Meera", "meera@example.com")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "English", user.NativeLanguage)
	assert.Equal(t, "Intermediate", user.LearningGoal)
	assert.Equal(t, 30, user.DailyGoal)

	again, err := repo.GetOrCreate(ctx, "auth0|42", "Other Name", "")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)
	assert.Equal(t, "Meera", again.Name)
}

func TestGetBySubjectMissing(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))

	user, err := repo.GetBySubject(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestUpdateProfile(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()

	_, err := repo.GetOrCreate(ctx, "auth0|7", "Sam", "sam@example.com")
	require.NoError(t, err)

	updated, err := repo.UpdateProfile(ctx, "auth0|7", models.ProfileUpdate{
		Name: "Sam K", NativeLanguage: "Tamil", LearningGoal: "Fluent", DailyGoal: 45,
	})
	require.NoError(t, err)
	assert.Equal(t, "Sam K", updated.Name)
	assert.Equal(t, "Tamil", updated.NativeLanguage)
	assert.Equal(t, "Fluent", updated.LearningGoal)
	assert.Equal(t, 45, updated.DailyGoal)
	assert.Equal(t, "sam@example.com", updated.Email)

	missing, err := repo.UpdateProfile(ctx, "ghost", models.ProfileUpdate{Name: "x", DailyGoal: 10})
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListWithEmail(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()

	_, err := repo.GetOrCreate(ctx, "a", "A", "a@example.com")
	require.NoError(t, err)
	_, err = repo.GetOrCreate(ctx, "b", "B", "")
	require.NoError(t, err)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	withEmail, err := repo.ListWithEmail(ctx)
	require.NoError(t, err)
	require.Len(t, withEmail, 1)
	assert.Equal(t, "a", withEmail[0].AuthSubject)
}
