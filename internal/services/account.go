package services

import (
	"net/mail"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"wellness-backend-go/internal/models"
)

type ProfileInput struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

type ChangePasswordInput struct {
	CurrentPassword         string `json:"current_password"`
	NewPassword             string `json:"password"`
	NewPasswordConfirmation string `json:"password_confirmation"`
}

// UpdateProfile changes the name and/or email of a user. Absent fields are
// left alone.
func UpdateProfile(db *sqlx.DB, userID string, now time.Time, in ProfileInput) (models.User, error) {
	user, err := GetUser(db, userID)
	if err != nil {
		return models.User{}, err
	}
	errs := FieldErrors{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		switch {
		case name == "":
			errs.Add("name", "The name field is required.")
		case len([]rune(name)) > maxNameLength:
			errs.Add("name", "The name may not be greater than 255 characters.")
		}
		user.Name = name
	}
	if in.Email != nil {
		email := NormalizeEmail(*in.Email)
		if _, err := mail.ParseAddress(email); err != nil || len(email) > maxNameLength {
			errs.Add("email", "The email must be a valid email address.")
		}
		user.Email = email
	}
	if err := errs.Err(); err != nil {
		return models.User{}, err
	}
	if in.Email != nil {
		var taken bool
		err := db.Get(&taken, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 AND id <> $2)`, user.Email, userID)
		if err != nil {
			return models.User{}, WrapError(err, "check email")
		}
		if taken {
			return models.User{}, ErrValidation(map[string]string{"email": "The email has already been taken."})
		}
	}
	user.UpdatedAt = now.UTC()
	_, err = db.Exec(`UPDATE users SET name = $1, email = $2, updated_at = $3 WHERE id = $4`,
		user.Name, user.Email, user.UpdatedAt, userID)
	if err != nil {
		return models.User{}, emailWriteError(err, "update user")
	}
	return user, nil
}

func ChangePassword(db *sqlx.DB, tokens TokenService, userID string, now time.Time, in ChangePasswordInput) error {
	user, err := GetUser(db, userID)
	if err != nil {
		return err
	}
	errs := FieldErrors{}
	if !tokens.VerifyPassword(in.CurrentPassword, user.PasswordHash) {
		errs.Add("current_password", "The current password is incorrect.")
	}
	switch {
	case len(in.NewPassword) < minPasswordLength:
		errs.Add("password", "The password must be at least 8 characters.")
	case in.NewPassword != in.NewPasswordConfirmation:
		errs.Add("password", "The password confirmation does not match.")
	}
	if err := errs.Err(); err != nil {
		return err
	}
	hash, err := tokens.HashPassword(in.NewPassword)
	if err != nil {
		return WrapError(err, "hash password")
	}
	_, err = db.Exec(`UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`, hash, now.UTC(), userID)
	if err != nil {
		return WrapError(err, "update password")
	}
	return nil
}

// DeleteAccount removes a user and everything they own.
func DeleteAccount(db *sqlx.DB, userID string) error {
	if _, err := GetUser(db, userID); err != nil {
		return err
	}
	tx, err := db.Beginx()
	if err != nil {
		return WrapError(err, "begin delete account")
	}
	defer tx.Rollback()
	statements := []string{
		`DELETE FROM habit_logs WHERE habit_id IN (SELECT id FROM habits WHERE user_id = $1)`,
		`DELETE FROM habits WHERE user_id = $1`,
		`DELETE FROM moods WHERE user_id = $1`,
		`DELETE FROM journal_entries WHERE user_id = $1`,
		`DELETE FROM users WHERE id = $1`,
	}
	for _, stmt := range statements {
		if _, err := tx.Exec(stmt, userID); err != nil {
			return WrapError(err, "delete account")
		}
	}
	return WrapError(tx.Commit(), "commit delete account")
}
