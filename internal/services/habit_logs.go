package services

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"wellness-backend-go/internal/models"
)

type ToggleInput struct {
	Completed *bool  `json:"completed"`
	Date      string `json:"date"`
}

type HabitToday struct {
	Habit     models.Habit `json:"habit"`
	Completed bool         `json:"completed"`
	LogID     *string      `json:"log_id"`
}

const habitLogColumns = `id, user_id, habit_id, date, completed, created_at, updated_at`

// ToggleHabit sets the completion flag of habitID for one day, creating the
// log row on first use. An empty date means today; future dates are rejected.
func ToggleHabit(db *sqlx.DB, userID, habitID string, today models.Date, now time.Time, in ToggleInput) (models.HabitLog, error) {
	habit, err := GetOwnedHabit(db, userID, habitID)
	if err != nil {
		return models.HabitLog{}, err
	}
	errs := FieldErrors{}
	if in.Completed == nil {
		errs.Add("completed", "The completed field is required.")
	}
	date := today
	if in.Date != "" {
		parsed, err := models.ParseDate(in.Date)
		switch {
		case err != nil:
			errs.Add("date", "The date must be a valid date (YYYY-MM-DD).")
		case parsed.After(today):
			errs.Add("date", "The date may not be in the future.")
		default:
			date = parsed
		}
	}
	if err := errs.Err(); err != nil {
		return models.HabitLog{}, err
	}

	_, err = db.Exec(`
INSERT INTO habit_logs (id, user_id, habit_id, date, completed, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$6)
ON CONFLICT (habit_id, date) DO UPDATE
SET completed = EXCLUDED.completed, updated_at = EXCLUDED.updated_at
`, uuid.NewString(), userID, habit.ID, date, *in.Completed, now.UTC())
	if err != nil {
		return models.HabitLog{}, WrapError(err, "upsert habit log")
	}
	var log models.HabitLog
	if err := db.Get(&log, `SELECT `+habitLogColumns+` FROM habit_logs WHERE habit_id = $1 AND date = $2`, habit.ID, date); err != nil {
		return models.HabitLog{}, WrapError(err, "reload habit log")
	}
	return log, nil
}

// TodayHabits lists the user's active habits with their completion for today.
// A habit without a log for today counts as not completed.
func TodayHabits(ctx context.Context, db *sqlx.DB, userID string, today models.Date) ([]HabitToday, error) {
	type row struct {
		models.Habit
		LogID     sql.NullString `db:"log_id"`
		Completed bool           `db:"completed"`
	}
	rows := []row{}
	if err := db.SelectContext(ctx, &rows, `
SELECT h.id, h.user_id, h.name, h.category, h.is_active, h.created_at, h.updated_at,
       l.id AS log_id, COALESCE(l.completed, FALSE) AS completed
FROM habits h
LEFT JOIN habit_logs l ON l.habit_id = h.id AND l.date = $2
WHERE h.user_id = $1 AND h.is_active = TRUE
ORDER BY h.created_at DESC, h.id DESC
`, userID, today); err != nil {
		return nil, WrapError(err, "today habits")
	}
	items := make([]HabitToday, 0, len(rows))
	for _, r := range rows {
		item := HabitToday{Habit: r.Habit, Completed: r.Completed}
		if r.LogID.Valid {
			id := r.LogID.String
			item.LogID = &id
		}
		items = append(items, item)
	}
	return items, nil
}

// ListHabitLogs returns the logs of one habit ordered by date. Zero bounds are
// open.
func ListHabitLogs(db *sqlx.DB, userID, habitID string, from, to models.Date) ([]models.HabitLog, error) {
	if _, err := GetOwnedHabit(db, userID, habitID); err != nil {
		return nil, err
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return nil, ErrValidation(map[string]string{"from": "The from date must be before or equal to to."})
	}
	query := `SELECT ` + habitLogColumns + ` FROM habit_logs WHERE habit_id = $1`
	args := []interface{}{habitID}
	if !from.IsZero() {
		args = append(args, from)
		query += ` AND date >= $` + strconv.Itoa(len(args))
	}
	if !to.IsZero() {
		args = append(args, to)
		query += ` AND date <= $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY date ASC`
	logs := []models.HabitLog{}
	if err := db.Select(&logs, query, args...); err != nil {
		return nil, WrapError(err, "list habit logs")
	}
	return logs, nil
}
