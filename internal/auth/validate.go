// internal/auth/validate.go
package auth

import (
	"regexp"
	"strings"
	"time"

	"github.com/jason-s-yu/oracle/internal/apperrors"
	"github.com/jason-s-yu/oracle/internal/models"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,50}$`)
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	timePattern     = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d(:[0-5]\d)?$`)
)

const minPasswordLength = 6

var genders = map[string]bool{"male": true, "female": true, "other": true}

func validateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return apperrors.Invalid("username", "Username may contain letters, numbers, and underscores (3-50 chars)")
	}
	return nil
}

func validateEmail(email string) error {
	if len(email) > 255 || !emailPattern.MatchString(email) {
		return apperrors.Invalid("email", "Invalid email format")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.Invalid("password", "Password must be at least 6 characters")
	}
	return nil
}

// ValidateProfile checks the optional birth profile. Empty fields are allowed.
func ValidateProfile(p models.Profile) error {
	if p.BirthDate != "" {
		d, err := time.Parse(time.DateOnly, p.BirthDate)
		if err != nil {
			return apperrors.Invalid("birth_date", "Birth date must be formatted as YYYY-MM-DD")
		}
		if d.After(time.Now()) {
			return apperrors.Invalid("birth_date", "Birth date cannot be in the future")
		}
	}
	if p.BirthTime != "" && !timePattern.MatchString(p.BirthTime) {
		return apperrors.Invalid("birth_time", "Birth time must be formatted as HH:MM")
	}
	if p.Gender != "" && !genders[p.Gender] {
		return apperrors.Invalid("gender", "Gender must be male, female or other")
	}
	return nil
}

func normalizeProfile(p models.Profile) models.Profile {
	return models.Profile{
		BirthDate: strings.TrimSpace(p.BirthDate),
		BirthTime: strings.TrimSpace(p.BirthTime),
		Gender:    strings.ToLower(strings.TrimSpace(p.Gender)),
	}
}
