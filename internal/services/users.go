package services

import (
	"database/sql"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"wellness-backend-go/internal/models"
)

const minPasswordLength = 8

type RegisterInput struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func RegisterUser(db *sqlx.DB, tokens TokenService, now time.Time, in RegisterInput) (models.User, error) {
	name := strings.TrimSpace(in.Name)
	email := NormalizeEmail(in.Email)
	errs := FieldErrors{}
	switch {
	case name == "":
		errs.Add("name", "The name field is required.")
	case len([]rune(name)) > maxNameLength:
		errs.Add("name", "The name may not be greater than 255 characters.")
	}
	if email == "" {
		errs.Add("email", "The email field is required.")
	} else if _, err := mail.ParseAddress(email); err != nil || len(email) > maxNameLength {
		errs.Add("email", "The email must be a valid email address.")
	}
	switch {
	case in.Password == "":
		errs.Add("password", "The password field is required.")
	case len(in.Password) < minPasswordLength:
		errs.Add("password", "The password must be at least 8 characters.")
	case in.Password != in.PasswordConfirmation:
		errs.Add("password", "The password confirmation does not match.")
	}
	if err := errs.Err(); err != nil {
		return models.User{}, err
	}

	var taken bool
	if err := db.Get(&taken, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email); err != nil {
		return models.User{}, WrapError(err, "check email")
	}
	if taken {
		return models.User{}, ErrValidation(map[string]string{"email": "The email has already been taken."})
	}

	hash, err := tokens.HashPassword(in.Password)
	if err != nil {
		return models.User{}, WrapError(err, "hash password")
	}
	user := models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now.UTC(),
		UpdatedAt:    now.UTC(),
	}
	_, err = db.Exec(`
INSERT INTO users (id, name, email, password_hash, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$5)
`, user.ID, user.Name, user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		return models.User{}, emailWriteError(err, "insert user")
	}
	return user, nil
}

// Authenticate checks credentials. Unknown email and wrong password produce
// the same error.
func Authenticate(db *sqlx.DB, tokens TokenService, email, password string) (models.User, error) {
	user, err := FindUserByEmail(db, email)
	if err != nil {
		var svcErr ServiceError
		if errors.As(err, &svcErr) && svcErr.Status == 404 {
			return models.User{}, ErrUnauthorized("Invalid credentials")
		}
		return models.User{}, err
	}
	if !tokens.VerifyPassword(password, user.PasswordHash) {
		return models.User{}, ErrUnauthorized("Invalid credentials")
	}
	return user, nil
}

func FindUserByEmail(db *sqlx.DB, email string) (models.User, error) {
	var user models.User
	err := db.Get(&user, `
SELECT id, name, email, password_hash, created_at, updated_at
FROM users
WHERE email = $1
`, NormalizeEmail(email))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound("User not found")
	}
	if err != nil {
		return models.User{}, WrapError(err, "find user")
	}
	return user, nil
}

func GetUser(db *sqlx.DB, userID string) (models.User, error) {
	if !validID(userID) {
		return models.User{}, ErrNotFound("User not found")
	}
	var user models.User
	err := db.Get(&user, `
SELECT id, name, email, password_hash, created_at, updated_at
FROM users
WHERE id = $1
`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound("User not found")
	}
	if err != nil {
		return models.User{}, WrapError(err, "get user")
	}
	return user, nil
}

// validID reports whether raw is a UUID; anything else can never match a row.
func validID(raw string) bool {
	_, err := uuid.Parse(raw)
	return err == nil
}
