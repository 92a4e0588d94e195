package service

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linguapath/internal/database"
	"linguapath/internal/logging"
	"linguapath/internal/repository"
	"linguapath/migrations"
)

func newSQLiteBackup(t *testing.T) (*BackupService, *repository.UserRepository, *repository.StudyRepository) {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "backup.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations(context.Background(), migrations.FS, logging.Discard()))

	users := repository.NewUserRepository(db)
	study := repository.NewStudyRepository(db)
	return NewBackupService(users, study, logging.Discard()), users, study
}

func TestBackupExportImportMergesWithLiveData(t *testing.T) {
	ctx := context.Background()

	source, srcUsers, srcStudy := newSQLiteBackup(t)
	_, err := srcUsers.GetOrCreate(ctx, "asha", "Asha", "asha@example.com")
	require.NoError(t, err)
	_, err = srcStudy.AccumulateMinutes(ctx, "asha", testToday, 25)
	require.NoError(t, err)
	_, err = srcStudy.AccumulateMinutes(ctx, "asha", testToday.AddDate(0, 0, -2), 40)
	require.NoError(t, err)
	_, err = srcStudy.RecordCompletion(ctx, "asha", "hindi-greetings", 18)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, source.Export(ctx, &buf))

	target, dstUsers, dstStudy := newSQLiteBackup(t)
	_, err = dstUsers.GetOrCreate(ctx, "asha", "Asha (live)", "")
	require.NoError(t, err)
	_, err = dstStudy.AccumulateMinutes(ctx, "asha", testToday, 10)
	require.NoError(t, err)
	_, err = dstStudy.AccumulateMinutes(ctx, "asha", testToday.AddDate(0, 0, -1), 5)
	require.NoError(t, err)

	require.NoError(t, target.Import(ctx, bytes.NewReader(buf.Bytes()), false))

	user, err := dstUsers.GetBySubject(ctx, "asha")
	require.NoError(t, err)
	assert.Equal(t, "Asha (live)", user.Name, "existing users are kept")

	records, err := dstStudy.QueryDailyRecords(ctx, "asha", time.Time{}, time.Time{})
	require.NoError(t, err)
	minutes := map[string]int{}
	for _, r := range records {
		minutes[r.DateString()] = r.MinutesSpent
	}
	assert.Equal(t, map[string]int{
		"2026-10-14": 40, // only in the backup
		"2026-10-15": 5,  // only live
		"2026-10-16": 10, // live day wins
	}, minutes)

	completions, err := dstStudy.QueryCompletions(ctx, "asha")
	require.NoError(t, err)
	require.Len(t, completions, 1)
	assert.Equal(t, 18, completions[0].Score)
}

func TestBackupImportTwiceCountsNothingTwice(t *testing.T) {
	ctx := context.Background()
	svc, users, study := newSQLiteBackup(t)

	_, err := users.GetOrCreate(ctx, "asha", "Asha", "asha@example.com")
	require.NoError(t, err)
	_, err = study.AccumulateMinutes(ctx, "asha", testToday, 25)
	require.NoError(t, err)
	_, err = study.RecordCompletion(ctx, "asha", "hindi-greetings", 18)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.Export(ctx, &buf))

	for i := 0; i < 2; i++ {
		require.NoError(t, svc.Import(ctx, bytes.NewReader(buf.Bytes()), false))
	}

	records, err := study.QueryDailyRecords(ctx, "asha", time.Time{}, time.Time{})
	require.NoError(t, err)
	completions, err := study.QueryCompletions(ctx, "asha")
	require.NoError(t, err)

	snapshot := ComputeSnapshot(records, completions, testToday)
	assert.Equal(t, 25, snapshot.TotalMinutes)
	assert.Equal(t, 1, snapshot.LessonsCompleted)
	assert.Equal(t, 18, snapshot.TotalXP)

	all, err := users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestBackupImportResumesPartialImport(t *testing.T) {
	ctx := context.Background()
	svc, _, study := newSQLiteBackup(t)

	// the first day made it in before an earlier run stopped
	_, err := study.AccumulateMinutes(ctx, "ravi", testToday.AddDate(0, 0, -1), 12)
	require.NoError(t, err)

	doc := `{"version":"2.0","users":[],
"daily_records":[{"user_id":"ravi","date":"2026-10-15","minutes":12},{"user_id":"ravi","date":"2026-10-16","minutes":8}],
"completions":[{"user_id":"ravi","lesson_id":"spanish-basics","score":20,"status":"completed","completed_at":"2026-10-16T08:00:00.123456Z"}]}`
	require.NoError(t, svc.Import(ctx, strings.NewReader(doc), false))
	require.NoError(t, svc.Import(ctx, strings.NewReader(doc), false))

	records, err := study.QueryDailyRecords(ctx, "ravi", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 12, records[0].MinutesSpent)
	assert.Equal(t, 8, records[1].MinutesSpent)

	completions, err := study.QueryCompletions(ctx, "ravi")
	require.NoError(t, err)
	assert.Len(t, completions, 1)
}

func TestBackupImportWithClear(t *testing.T) {
	ctx := context.Background()
	svc, users, study := newSQLiteBackup(t)

	_, err := users.GetOrCreate(ctx, "old", "Old", "")
	require.NoError(t, err)
	_, err = study.AccumulateMinutes(ctx, "old", testToday, 40)
	require.NoError(t, err)

	doc := `{"version":"2.0","users":[{"authSubject":"new","name":"New","nativeLanguage":"English","learningGoal":"Intermediate","dailyGoal":30}],
"daily_records":[{"user_id":"new","date":"2026-10-15","minutes":12}],"completions":[]}`
	require.NoError(t, svc.Import(ctx, strings.NewReader(doc), true))

	all, err := users.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "new", all[0].AuthSubject)

	records, err := study.AllDailyRecords(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "2026-10-15", records[0].DateString())
}

func TestBackupImportRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newSQLiteBackup(t)

	assert.Error(t, svc.Import(ctx, strings.NewReader("not json"), false))
	assert.Error(t, svc.Import(ctx, strings.NewReader(`{"daily_records":[{"user_id":"u","date":"16/10/2026","minutes":5}]}`), false))
	assert.Error(t, svc.Import(ctx, strings.NewReader(`{"completions":[{"user_id":"u","lesson_id":"l","score":1,"status":"skipped"}]}`), false))
}
