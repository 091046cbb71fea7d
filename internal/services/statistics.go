package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"wellness-backend-go/internal/models"
)

const (
	DefaultWindowDays = 30
	MaxWindowDays     = 365
)

type MoodPoint struct {
	Date      models.Date `db:"date" json:"date"`
	MoodLevel int         `db:"mood_level" json:"mood_level"`
}

type HabitStat struct {
	ID            string `db:"id" json:"id"`
	Name          string `db:"name" json:"name"`
	Category      string `db:"category" json:"category"`
	TotalLogs     int    `db:"total_logs" json:"total_logs"`
	CompletedLogs int    `db:"completed_logs" json:"completed_logs"`
	SuccessRate   int    `db:"-" json:"success_rate"`
}

type TopHabit struct {
	ID             string `db:"id" json:"id"`
	Name           string `db:"name" json:"name"`
	CompletedCount int    `db:"completed_count" json:"completed_count"`
}

type MonthlySummary struct {
	Month                string    `json:"month"`
	AverageMood          float64   `json:"average_mood"`
	TotalMoods           int       `json:"total_moods"`
	TotalJournalEntries  int       `json:"total_journal_entries"`
	TotalHabitsCompleted int       `json:"total_habits_completed"`
	TopHabit             *TopHabit `json:"top_habit"`
}

// ClampWindow maps a requested window to [1, MaxWindowDays]; zero or negative
// means the default.
func ClampWindow(days int) int {
	switch {
	case days <= 0:
		return DefaultWindowDays
	case days > MaxWindowDays:
		return MaxWindowDays
	}
	return days
}

func MoodChart(db *sqlx.DB, userID string, today models.Date, days int) ([]MoodPoint, error) {
	from := today.AddDays(-ClampWindow(days))
	points := []MoodPoint{}
	if err := db.Select(&points, `
SELECT date, mood_level
FROM moods
WHERE user_id = $1 AND date >= $2
ORDER BY date ASC
`, userID, from); err != nil {
		return nil, WrapError(err, "mood chart")
	}
	return points, nil
}

// HabitStats reports completion per active habit for logs dated in
// [windowStart, today].
func HabitStats(db *sqlx.DB, userID string, windowStart, today models.Date) ([]HabitStat, error) {
	stats := []HabitStat{}
	if err := db.Select(&stats, `
SELECT h.id, h.name, h.category,
       COUNT(l.id) AS total_logs,
       COALESCE(SUM(CASE WHEN l.completed = TRUE THEN 1 ELSE 0 END), 0) AS completed_logs
FROM habits h
LEFT JOIN habit_logs l ON l.habit_id = h.id AND l.date >= $2 AND l.date <= $3
WHERE h.user_id = $1 AND h.is_active = TRUE
GROUP BY h.id, h.name, h.category, h.created_at
ORDER BY h.created_at DESC, h.id DESC
`, userID, windowStart, today); err != nil {
		return nil, WrapError(err, "habit stats")
	}
	for i := range stats {
		stats[i].SuccessRate = successRate(stats[i].CompletedLogs, stats[i].TotalLogs)
	}
	return stats, nil
}

func successRate(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

// BuildMonthlySummary aggregates the calendar month containing today. Journal
// entries are bucketed by their creation instant in loc.
func BuildMonthlySummary(ctx context.Context, db *sqlx.DB, userID string, today models.Date, loc *time.Location) (MonthlySummary, error) {
	start := today.StartOfMonth()
	next := models.DateOf(start.In(time.UTC).AddDate(0, 1, 0))
	summary := MonthlySummary{Month: fmt.Sprintf("%04d-%02d", start.Year, start.Month)}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var row struct {
			Total   int             `db:"total"`
			Average sql.NullFloat64 `db:"average"`
		}
		if err := db.GetContext(ctx, &row, `
SELECT COUNT(*) AS total, AVG(mood_level) AS average
FROM moods
WHERE user_id = $1 AND date >= $2 AND date < $3
`, userID, start, next); err != nil {
			return WrapError(err, "summary moods")
		}
		summary.TotalMoods = row.Total
		if row.Average.Valid {
			summary.AverageMood = math.Round(row.Average.Float64*10) / 10
		}
		return nil
	})
	g.Go(func() error {
		err := db.GetContext(ctx, &summary.TotalJournalEntries, `
SELECT COUNT(*)
FROM journal_entries
WHERE user_id = $1 AND created_at >= $2 AND created_at < $3
`, userID, start.In(loc).UTC(), next.In(loc).UTC())
		return WrapError(err, "summary journal")
	})
	g.Go(func() error {
		err := db.GetContext(ctx, &summary.TotalHabitsCompleted, `
SELECT COUNT(*)
FROM habit_logs
WHERE user_id = $1 AND completed = TRUE AND date >= $2 AND date < $3
`, userID, start, next)
		return WrapError(err, "summary habit logs")
	})
	g.Go(func() error {
		var top TopHabit
		err := db.GetContext(ctx, &top, `
SELECT h.id, h.name, COUNT(*) AS completed_count
FROM habit_logs l
JOIN habits h ON h.id = l.habit_id
WHERE l.user_id = $1 AND l.completed = TRUE AND l.date >= $2 AND l.date < $3
GROUP BY h.id, h.name
ORDER BY completed_count DESC, h.name ASC, h.id ASC
LIMIT 1
`, userID, start, next)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return WrapError(err, "summary top habit")
		}
		summary.TopHabit = &top
		return nil
	})
	if err := g.Wait(); err != nil {
		return MonthlySummary{}, err
	}
	return summary, nil
}
