// internal/models/user.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Password string    `json:"-"`

	// Optional birth profile, forwarded to the oracle for personalised chat readings.
	BirthDate string `json:"birth_date,omitempty"` // YYYY-MM-DD
	BirthTime string `json:"birth_time,omitempty"`
	Gender    string `json:"gender,omitempty"` // 'male', 'female', 'other'

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Profile is the subset of a user that personalises an oracle chat.
type Profile struct {
	BirthDate string `json:"birth_date,omitempty"`
	BirthTime string `json:"birth_time,omitempty"`
	Gender    string `json:"gender,omitempty"`
}

// Profile extracts the birth profile of u, or nil when none of it is set.
func (u *User) Profile() *Profile {
	if u.BirthDate == "" && u.BirthTime == "" && u.Gender == "" {
		return nil
	}
	return &Profile{BirthDate: u.BirthDate, BirthTime: u.BirthTime, Gender: u.Gender}
}

// IsEmpty reports whether p carries no information.
func (p *Profile) IsEmpty() bool {
	return p == nil || (p.BirthDate == "" && p.BirthTime == "" && p.Gender == "")
}
