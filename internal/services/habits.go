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

const maxNameLength = 255

var HabitCategories = []string{"sleep", "sport", "nutrition", "mental", "other"}

type HabitInput struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

type HabitPatch struct {
	Name     Optional[string] `json:"name"`
	Category Optional[string] `json:"category"`
	IsActive Optional[bool]   `json:"is_active"`
}

const habitColumns = `id, user_id, name, category, is_active, created_at, updated_at`

func ListHabits(db *sqlx.DB, userID string, activeOnly bool) ([]models.Habit, error) {
	query := `SELECT ` + habitColumns + ` FROM habits WHERE user_id = $1`
	if activeOnly {
		query += ` AND is_active = TRUE`
	}
	query += ` ORDER BY created_at DESC, id DESC`
	habits := []models.Habit{}
	if err := db.Select(&habits, query, userID); err != nil {
		return nil, WrapError(err, "list habits")
	}
	return habits, nil
}

func CreateHabit(db *sqlx.DB, userID string, now time.Time, in HabitInput) (models.Habit, error) {
	errs := FieldErrors{}
	name := validateHabitName(errs, in.Name)
	category := validateCategory(errs, in.Category)
	if err := errs.Err(); err != nil {
		return models.Habit{}, err
	}
	habit := models.Habit{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		Category:  category,
		IsActive:  true,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
	_, err := db.Exec(`
INSERT INTO habits (id, user_id, name, category, is_active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$6)
`, habit.ID, habit.UserID, habit.Name, habit.Category, habit.IsActive, habit.CreatedAt)
	if err != nil {
		return models.Habit{}, WrapError(err, "insert habit")
	}
	return habit, nil
}

// GetOwnedHabit loads a habit and checks it belongs to userID.
func GetOwnedHabit(db sqlx.Queryer, userID, habitID string) (models.Habit, error) {
	if !validID(habitID) {
		return models.Habit{}, ErrNotFound("Habit not found")
	}
	var habit models.Habit
	err := sqlx.Get(db, &habit, `SELECT `+habitColumns+` FROM habits WHERE id = $1`, habitID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Habit{}, ErrNotFound("Habit not found")
	}
	if err != nil {
		return models.Habit{}, WrapError(err, "get habit")
	}
	if habit.UserID != userID {
		return models.Habit{}, ErrForbidden("This action is unauthorized.")
	}
	return habit, nil
}

func UpdateHabit(db *sqlx.DB, userID, habitID string, now time.Time, patch HabitPatch) (models.Habit, error) {
	habit, err := GetOwnedHabit(db, userID, habitID)
	if err != nil {
		return models.Habit{}, err
	}
	errs := FieldErrors{}
	if patch.Name.Set {
		if patch.Name.Null {
			errs.Add("name", "The name field is required.")
		} else {
			habit.Name = validateHabitName(errs, patch.Name.Value)
		}
	}
	if patch.Category.Set {
		if patch.Category.Null {
			errs.Add("category", "The category field is required.")
		} else {
			habit.Category = validateCategory(errs, patch.Category.Value)
		}
	}
	if patch.IsActive.Set {
		if patch.IsActive.Null {
			errs.Add("is_active", "The is_active field must be true or false.")
		} else {
			habit.IsActive = patch.IsActive.Value
		}
	}
	if err := errs.Err(); err != nil {
		return models.Habit{}, err
	}
	habit.UpdatedAt = now.UTC()
	_, err = db.Exec(`
UPDATE habits
SET name = $2, category = $3, is_active = $4, updated_at = $5
WHERE id = $1
`, habit.ID, habit.Name, habit.Category, habit.IsActive, habit.UpdatedAt)
	if err != nil {
		return models.Habit{}, WrapError(err, "update habit")
	}
	return habit, nil
}

// DeleteHabit removes the habit and its logs in one transaction.
func DeleteHabit(db *sqlx.DB, userID, habitID string) error {
	tx, err := db.Beginx()
	if err != nil {
		return WrapError(err, "begin delete habit")
	}
	defer tx.Rollback()
	if _, err := GetOwnedHabit(tx, userID, habitID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM habit_logs WHERE habit_id = $1`, habitID); err != nil {
		return WrapError(err, "delete habit logs")
	}
	if _, err := tx.Exec(`DELETE FROM habits WHERE id = $1`, habitID); err != nil {
		return WrapError(err, "delete habit")
	}
	return WrapError(tx.Commit(), "commit delete habit")
}

func validateHabitName(errs FieldErrors, raw string) string {
	name := strings.TrimSpace(raw)
	switch {
	case name == "":
		errs.Add("name", "The name field is required.")
	case len([]rune(name)) > maxNameLength:
		errs.Add("name", "The name may not be greater than 255 characters.")
	}
	return name
}

func validateCategory(errs FieldErrors, raw string) string {
	category := strings.ToLower(strings.TrimSpace(raw))
	if category == "" {
		errs.Add("category", "The category field is required.")
		return category
	}
	for _, allowed := range HabitCategories {
		if category == allowed {
			return category
		}
	}
	errs.Add("category", "The selected category is invalid.")
	return category
}
