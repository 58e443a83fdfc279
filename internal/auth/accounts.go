// internal/auth/accounts.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/oracle/internal/apperrors"
	"github.com/jason-s-yu/oracle/internal/models"
	"github.com/sirupsen/logrus"
)

// ErrInvalidCredentials does not say which of email or password was wrong.
var ErrInvalidCredentials = apperrors.New(apperrors.ErrUnauthorized, "Incorrect email or password")

// UserStore is the persistence Accounts needs.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateUserProfile(ctx context.Context, id uuid.UUID, p models.Profile) (*models.User, error)
}

// Registration is a sign-up request.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	models.Profile
}

// Accounts registers and logs in users and manages their birth profile.
type Accounts struct {
	users  UserStore
	tokens *TokenManager
	hash   *HashParams
	logger *logrus.Logger
}

func NewAccounts(users UserStore, tokens *TokenManager, logger *logrus.Logger) *Accounts {
	return &Accounts{users: users, tokens: tokens, hash: DefaultHashParams, logger: logger}
}

// Register validates reg, stores the new user and returns it with a session token.
func (a *Accounts) Register(ctx context.Context, reg Registration) (*models.User, string, error) {
	reg.Username = strings.TrimSpace(reg.Username)
	reg.Email = strings.ToLower(strings.TrimSpace(reg.Email))
	reg.Profile = normalizeProfile(reg.Profile)

	if reg.Username == "" || reg.Email == "" || reg.Password == "" {
		return nil, "", apperrors.Invalid("", "Username, email, and password are required")
	}
	for _, err := range []error{
		validateUsername(reg.Username),
		validateEmail(reg.Email),
		validatePassword(reg.Password),
		ValidateProfile(reg.Profile),
	} {
		if err != nil {
			return nil, "", err
		}
	}

	hash, err := HashPassword(reg.Password, a.hash)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	u := &models.User{
		Username:  reg.Username,
		Email:     reg.Email,
		Password:  hash,
		BirthDate: reg.BirthDate,
		BirthTime: reg.BirthTime,
		Gender:    reg.Gender,
	}
	if err := a.users.CreateUser(ctx, u); err != nil {
		return nil, "", err
	}

	token, err := a.tokens.Issue(u.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create jwt: %w", err)
	}

	a.logger.WithFields(logrus.Fields{"user_id": u.ID, "username": u.Username}).Info("user registered")
	return u, token, nil
}

// Login checks the credentials and issues a session token.
func (a *Accounts) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, "", apperrors.Invalid("", "Email and password are required")
	}

	u, err := a.users.GetUserByEmail(ctx, email)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to look up user: %w", err)
	}

	match, err := VerifyPassword(password, u.Password)
	if err != nil {
		a.logger.WithError(err).WithField("user_id", u.ID).Error("stored password hash is unreadable")
		return nil, "", ErrInvalidCredentials
	}
	if !match {
		return nil, "", ErrInvalidCredentials
	}

	token, err := a.tokens.Issue(u.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create jwt: %w", err)
	}
	return u, token, nil
}

// Identify resolves a session token to a user id. An empty or invalid token is
// reported as apperrors.ErrUnauthorized.
func (a *Accounts) Identify(token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, apperrors.ErrUnauthorized
	}
	id, err := a.tokens.Verify(token)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", apperrors.ErrUnauthorized, err)
	}
	return id, nil
}

func (a *Accounts) User(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return a.users.GetUserByID(ctx, id)
}

// Profile returns the stored birth profile of the user, or nil when none is set.
func (a *Accounts) Profile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	u, err := a.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.Profile(), nil
}

// UpdateProfile replaces the user's birth profile.
func (a *Accounts) UpdateProfile(ctx context.Context, id uuid.UUID, p models.Profile) (*models.User, error) {
	p = normalizeProfile(p)
	if err := ValidateProfile(p); err != nil {
		return nil, err
	}
	return a.users.UpdateUserProfile(ctx, id, p)
}

// TokenTTL is the lifetime of issued tokens; zero means they never expire.
func (a *Accounts) TokenTTL() time.Duration {
	return a.tokens.TTL()
}
