package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"wellness-backend-go/internal/models"
)

const (
	MoodsPerPage     = 30
	maxMoodNoteChars = 500
)

// MoodInput is the body of a mood recording. An absent note keeps the note
// already stored for the day; null or blank clears it.
type MoodInput struct {
	MoodLevel *int             `json:"mood_level"`
	Note      Optional[string] `json:"note"`
}

type MoodResult struct {
	Mood        models.Mood `json:"mood"`
	Suggestions []string    `json:"suggestions"`
}

const moodColumns = `id, user_id, date, mood_level, note, created_at, updated_at`

// RecordMood stores today's mood. If the user already rated this day the
// level is replaced, and the note only when one was sent.
func RecordMood(db *sqlx.DB, userID string, today models.Date, now time.Time, in MoodInput) (MoodResult, error) {
	errs := FieldErrors{}
	level := validateMoodLevel(errs, "mood_level", in.MoodLevel, true)
	var note *string
	if in.Note.Set && !in.Note.Null {
		trimmed := strings.TrimSpace(in.Note.Value)
		if len([]rune(trimmed)) > maxMoodNoteChars {
			errs.Add("note", "The note may not be greater than 500 characters.")
		}
		if trimmed != "" {
			note = &trimmed
		}
	}
	if err := errs.Err(); err != nil {
		return MoodResult{}, err
	}

	_, err := db.Exec(`
INSERT INTO moods (id, user_id, date, mood_level, note, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$6)
ON CONFLICT (user_id, date) DO UPDATE
SET mood_level = EXCLUDED.mood_level,
    note = CASE WHEN $7 THEN EXCLUDED.note ELSE moods.note END,
    updated_at = EXCLUDED.updated_at
`, uuid.NewString(), userID, today, *level, note, now.UTC(), in.Note.Set)
	if err != nil {
		return MoodResult{}, WrapError(err, "upsert mood")
	}
	mood, err := TodayMood(context.Background(), db, userID, today)
	if err != nil {
		return MoodResult{}, err
	}
	if mood == nil {
		return MoodResult{}, errors.New("mood missing after upsert")
	}
	return MoodResult{Mood: *mood, Suggestions: Suggestions(mood.MoodLevel)}, nil
}

// TodayMood returns nil without error when the user has not rated today.
func TodayMood(ctx context.Context, db *sqlx.DB, userID string, today models.Date) (*models.Mood, error) {
	var mood models.Mood
	err := db.GetContext(ctx, &mood, `SELECT `+moodColumns+` FROM moods WHERE user_id = $1 AND date = $2`, userID, today)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, WrapError(err, "today mood")
	}
	return &mood, nil
}

func ListMoods(db *sqlx.DB, userID string, page int) (Page[models.Mood], error) {
	page, offset := pageOffset(page, MoodsPerPage)
	var total int
	if err := db.Get(&total, `SELECT COUNT(*) FROM moods WHERE user_id = $1`, userID); err != nil {
		return Page[models.Mood]{}, WrapError(err, "count moods")
	}
	moods := []models.Mood{}
	if err := db.Select(&moods, `
SELECT `+moodColumns+`
FROM moods
WHERE user_id = $1
ORDER BY date DESC, id DESC
LIMIT $2 OFFSET $3
`, userID, MoodsPerPage, offset); err != nil {
		return Page[models.Mood]{}, WrapError(err, "list moods")
	}
	return newPage(moods, page, MoodsPerPage, total), nil
}

func validateMoodLevel(errs FieldErrors, field string, level *int, required bool) *int {
	if level == nil {
		if required {
			errs.Add(field, "The "+field+" field is required.")
		}
		return nil
	}
	if *level < MinMoodLevel || *level > MaxMoodLevel {
		errs.Add(field, "The "+field+" must be between 1 and 5.")
	}
	return level
}
