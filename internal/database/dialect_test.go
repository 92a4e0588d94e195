package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDialectSQLite(t *testing.T) {
	dialect := NewSQLiteDialect()

	t.Run("DriverName", func(t *testing.T) {
		assert.Equal(t, "sqlite3", dialect.DriverName())
	})

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		assert.True(t, dialect.SupportsLastInsertId())
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		assert.Equal(t, "sqlite", dialect.MigrationsSubdir())
	})

	t.Run("DSN adds connection options", func(t *testing.T) {
		dsn := dialect.DSN(DialectConfig{Path: "/tmp/study.db"})
		assert.True(t, strings.HasPrefix(dsn, "file:/tmp/study.db?"))
		assert.Contains(t, dsn, "_txlock=immediate")
		assert.Contains(t, dsn, "_busy_timeout=5000")
	})

	t.Run("DSN keeps explicit options", func(t *testing.T) {
		assert.Equal(t, "file:x.db?mode=ro", dialect.DSN(DialectConfig{Path: "file:x.db?mode=ro"}))
	})
}

func TestDialectPostgreSQL(t *testing.T) {
	dialect := NewPostgresDialect()

	t.Run("DriverName", func(t *testing.T) {
		assert.Equal(t, "postgres", dialect.DriverName())
	})

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		assert.False(t, dialect.SupportsLastInsertId())
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		assert.Equal(t, "postgres", dialect.MigrationsSubdir())
	})

	t.Run("DSN", func(t *testing.T) {
		url := "postgres://u:p@localhost/linguapath?sslmode=disable"
		assert.Equal(t, url, dialect.DSN(DialectConfig{URL: url}))
	})
}

func TestDialectMySQL(t *testing.T) {
	dialect := NewMySQLDialect()

	t.Run("DriverName", func(t *testing.T) {
		assert.Equal(t, "mysql", dialect.DriverName())
	})

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		assert.True(t, dialect.SupportsLastInsertId())
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		assert.Equal(t, "mysql", dialect.MigrationsSubdir())
	})
}

func TestRewriteQuery(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		query    string
		expected string
	}{
		{
			name:     "SQLite no change",
			dialect:  NewSQLiteDialect(),
			query:    "SELECT * FROM users WHERE id = ?",
			expected: "SELECT * FROM users WHERE id = ?",
		},
		{
			name:     "PostgreSQL single placeholder",
			dialect:  NewPostgresDialect(),
			query:    "SELECT * FROM users WHERE id = ?",
			expected: "SELECT * FROM users WHERE id = $1",
		},
		{
			name:     "PostgreSQL multiple placeholders",
			dialect:  NewPostgresDialect(),
			query:    "INSERT INTO users (name, email) VALUES (?, ?)",
			expected: "INSERT INTO users (name, email) VALUES ($1, $2)",
		},
		{
			name:     "MySQL no change",
			dialect:  NewMySQLDialect(),
			query:    "UPDATE users SET name = ?, email = ? WHERE id = ?",
			expected: "UPDATE users SET name = ?, email = ? WHERE id = ?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.dialect.RewriteQuery(tt.query))
		})
	}
}

func TestAccumulateMinutesQueryAddsOnConflict(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		want    []string
	}{
		{"sqlite", NewSQLiteDialect(), []string{"ON CONFLICT (user_id, study_date)", "daily_study_records.minutes_spent + excluded.minutes_spent"}},
		{"postgres", NewPostgresDialect(), []string{"ON CONFLICT (user_id, study_date)", "daily_study_records.minutes_spent + excluded.minutes_spent"}},
		{"mysql", NewMySQLDialect(), []string{"ON DUPLICATE KEY UPDATE", "minutes_spent = minutes_spent + VALUES(minutes_spent)"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query := tt.dialect.AccumulateMinutesQuery()
			for _, fragment := range tt.want {
				assert.Contains(t, query, fragment)
			}
			assert.NotContains(t, strings.ToUpper(query), "REPLACE")
			assert.Equal(t, 5, strings.Count(query, "?"))
		})
	}

	rewritten := NewPostgresDialect().RewriteQuery(NewPostgresDialect().AccumulateMinutesQuery())
	assert.Contains(t, rewritten, "VALUES ($1, $2, $3, $4, $5)")
}

func TestSplitStatements(t *testing.T) {
	content := `
-- comment line
CREATE TABLE a (id INTEGER);

CREATE INDEX idx ON a (id);
;
`
	stmts := splitStatements(content)
	assert.Equal(t, []string{"CREATE TABLE a (id INTEGER)", "CREATE INDEX idx ON a (id)"}, stmts)
}
