package database

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minh-le0205/tour-rest-api/internal/database/migrations"
	"github.com/minh-le0205/tour-rest-api/internal/logging"
)

func newMigrator(t *testing.T) (*Migrator, *bytes.Buffer) {
	t.Helper()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	var buf bytes.Buffer
	m, err := NewMigrator(db, logging.NewLoggerWithWriter(&buf, true))
	require.NoError(t, err)
	return m, &buf
}

func TestMigrator_Up(t *testing.T) {
	m, _ := newMigrator(t)

	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	var gotDir string
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}
	require.NoError(t, m.Up(context.Background()))
	assert.Equal(t, ".", gotDir)

	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	err := m.Up(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestMigrator_DownAndStatus(t *testing.T) {
	m, _ := newMigrator(t)

	origDown, origStatus := gooseDownContext, gooseStatusContext
	t.Cleanup(func() {
		gooseDownContext = origDown
		gooseStatusContext = origStatus
	})

	calls := 0
	gooseDownContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		calls++
		return nil
	}
	gooseStatusContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		calls++
		return errors.New("no table")
	}

	require.NoError(t, m.Down(context.Background()))
	assert.Error(t, m.Status(context.Background()))
	assert.Equal(t, 2, calls)
}

func TestGooseLogger(t *testing.T) {
	_, buf := newMigrator(t)
	l := &gooseLogger{logger: logging.NewLoggerWithWriter(buf, true)}

	l.Printf("OK   %s", "00001_create_users.sql")
	l.Fatalf("failed %d", 2)

	assert.Contains(t, buf.String(), "00001_create_users.sql")
	assert.Contains(t, buf.String(), "level=ERROR")
}

func TestEmbeddedMigrations(t *testing.T) {
	files, err := fs.Glob(migrations.FS, "*.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"00001_create_users.sql",
		"00002_create_tours.sql",
		"00003_create_reviews.sql",
	}, files)

	for _, name := range files {
		body, err := fs.ReadFile(migrations.FS, name)
		require.NoError(t, err)
		assert.Contains(t, string(body), "-- +goose Up", name)
		assert.Contains(t, string(body), "-- +goose Down", name)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pq.Error{Code: "23505"}))
	assert.True(t, IsUniqueViolation(errors.Join(errors.New("insert"), &pq.Error{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("duplicate key value")))

	assert.True(t, IsForeignKeyViolation(&pq.Error{Code: "23503"}))
	assert.False(t, IsForeignKeyViolation(&pq.Error{Code: "23505"}))
}
