package services

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"wellness-backend-go/internal/models"
)

const JournalPerPage = 10

type JournalInput struct {
	Title     *string `json:"title"`
	Content   string  `json:"content"`
	MoodLevel *int    `json:"mood_level"`
}

// JournalPatch is a partial update. A null title or mood_level clears it;
// content can be replaced but never cleared.
type JournalPatch struct {
	Title     Optional[string] `json:"title"`
	Content   Optional[string] `json:"content"`
	MoodLevel Optional[int]    `json:"mood_level"`
}

const journalColumns = `id, user_id, title, content, mood_level, created_at, updated_at`

func ListJournal(db *sqlx.DB, userID string, page int) (Page[models.JournalEntry], error) {
	page, offset := pageOffset(page, JournalPerPage)
	var total int
	if err := db.Get(&total, `SELECT COUNT(*) FROM journal_entries WHERE user_id = $1`, userID); err != nil {
		return Page[models.JournalEntry]{}, WrapError(err, "count journal")
	}
	entries := []models.JournalEntry{}
	if err := db.Select(&entries, `
SELECT `+journalColumns+`
FROM journal_entries
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3
`, userID, JournalPerPage, offset); err != nil {
		return Page[models.JournalEntry]{}, WrapError(err, "list journal")
	}
	return newPage(entries, page, JournalPerPage, total), nil
}

func CreateJournalEntry(db *sqlx.DB, userID string, now time.Time, in JournalInput) (models.JournalEntry, error) {
	errs := FieldErrors{}
	content := validateContent(errs, in.Content)
	var title *string
	if in.Title != nil {
		title = validateTitle(errs, *in.Title)
	}
	level := validateMoodLevel(errs, "mood_level", in.MoodLevel, false)
	if err := errs.Err(); err != nil {
		return models.JournalEntry{}, err
	}
	entry := models.JournalEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		Content:   content,
		MoodLevel: level,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
	_, err := db.Exec(`
INSERT INTO journal_entries (id, user_id, title, content, mood_level, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$6)
`, entry.ID, entry.UserID, entry.Title, entry.Content, entry.MoodLevel, entry.CreatedAt)
	if err != nil {
		return models.JournalEntry{}, WrapError(err, "insert journal entry")
	}
	return entry, nil
}

func GetJournalEntry(db *sqlx.DB, userID, entryID string) (models.JournalEntry, error) {
	if !validID(entryID) {
		return models.JournalEntry{}, ErrNotFound("Journal entry not found")
	}
	var entry models.JournalEntry
	err := db.Get(&entry, `SELECT `+journalColumns+` FROM journal_entries WHERE id = $1`, entryID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.JournalEntry{}, ErrNotFound("Journal entry not found")
	}
	if err != nil {
		return models.JournalEntry{}, WrapError(err, "get journal entry")
	}
	if entry.UserID != userID {
		return models.JournalEntry{}, ErrForbidden("This action is unauthorized.")
	}
	return entry, nil
}

func UpdateJournalEntry(db *sqlx.DB, userID, entryID string, now time.Time, patch JournalPatch) (models.JournalEntry, error) {
	entry, err := GetJournalEntry(db, userID, entryID)
	if err != nil {
		return models.JournalEntry{}, err
	}
	errs := FieldErrors{}
	if patch.Content.Set {
		if patch.Content.Null {
			errs.Add("content", "The content field is required.")
		} else {
			entry.Content = validateContent(errs, patch.Content.Value)
		}
	}
	if patch.Title.Set {
		if patch.Title.Null {
			entry.Title = nil
		} else {
			entry.Title = validateTitle(errs, patch.Title.Value)
		}
	}
	if patch.MoodLevel.Set {
		if patch.MoodLevel.Null {
			entry.MoodLevel = nil
		} else {
			level := patch.MoodLevel.Value
			entry.MoodLevel = validateMoodLevel(errs, "mood_level", &level, false)
		}
	}
	if err := errs.Err(); err != nil {
		return models.JournalEntry{}, err
	}
	entry.UpdatedAt = now.UTC()
	_, err = db.Exec(`
UPDATE journal_entries
SET title = $2, content = $3, mood_level = $4, updated_at = $5
WHERE id = $1
`, entry.ID, entry.Title, entry.Content, entry.MoodLevel, entry.UpdatedAt)
	if err != nil {
		return models.JournalEntry{}, WrapError(err, "update journal entry")
	}
	return entry, nil
}

func DeleteJournalEntry(db *sqlx.DB, userID, entryID string) error {
	if _, err := GetJournalEntry(db, userID, entryID); err != nil {
		return err
	}
	_, err := db.Exec(`DELETE FROM journal_entries WHERE id = $1`, entryID)
	return WrapError(err, "delete journal entry")
}

func validateContent(errs FieldErrors, raw string) string {
	if strings.TrimSpace(raw) == "" {
		errs.Add("content", "The content field is required.")
	}
	return raw
}

// validateTitle trims the title; a blank title is stored as NULL.
func validateTitle(errs FieldErrors, raw string) *string {
	title := strings.TrimSpace(raw)
	if title == "" {
		return nil
	}
	if len([]rune(title)) > maxNameLength {
		errs.Add("title", "The title may not be greater than 255 characters.")
	}
	return &title
}
