package services

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"wellness-backend-go/internal/db"
	"wellness-backend-go/internal/migrations"
	"wellness-backend-go/internal/models"
)

var (
	testToday = models.Date{Year: 2026, Month: time.March, Day: 15}
	testNow   = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
)

func setupDB(t *testing.T) *sqlx.DB {
	t.Helper()
	conn, err := db.Open("sqlite", filepath.Join(t.TempDir(), "wellness.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	_, err = migrations.Apply(conn, "sqlite")
	require.NoError(t, err)
	return conn
}

// createUser inserts a user row directly; hashing is not needed here.
func createUser(t *testing.T, conn *sqlx.DB, email string) string {
	t.Helper()
	id := uuid.NewString()
	_, err := conn.Exec(`
INSERT INTO users (id, name, email, password_hash, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$5)
`, id, "Test "+email, email, "x", testNow)
	require.NoError(t, err)
	return id
}

func createHabit(t *testing.T, conn *sqlx.DB, userID, name, category string) models.Habit {
	t.Helper()
	habit, err := CreateHabit(conn, userID, testNow, HabitInput{Name: name, Category: category})
	require.NoError(t, err)
	return habit
}

func toggle(t *testing.T, conn *sqlx.DB, userID, habitID string, date models.Date, completed bool) models.HabitLog {
	t.Helper()
	log, err := ToggleHabit(conn, userID, habitID, testToday, testNow, ToggleInput{Completed: &completed, Date: date.String()})
	require.NoError(t, err)
	return log
}

func countRows(t *testing.T, conn *sqlx.DB, query string, args ...interface{}) int {
	t.Helper()
	var n int
	require.NoError(t, conn.Get(&n, query, args...))
	return n
}

func requireStatus(t *testing.T, err error, status int) ServiceError {
	t.Helper()
	require.Error(t, err)
	svcErr, ok := err.(ServiceError)
	require.True(t, ok, "expected ServiceError, got %T: %v", err, err)
	require.Equal(t, status, svcErr.Status)
	return svcErr
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }
