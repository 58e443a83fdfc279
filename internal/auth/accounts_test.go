// internal/auth/accounts_test.go
package auth

import (
	"context"
	"testing"
	"time"

	"github.com/jason-s-yu/oracle/internal/apperrors"
	"github.com/jason-s-yu/oracle/internal/database"
	"github.com/jason-s-yu/oracle/internal/models"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAccounts(t *testing.T) *Accounts {
	t.Helper()
	tokens, err := NewTokenManager(time.Hour)
	require.NoError(t, err)
	logger, _ := test.NewNullLogger()
	a := NewAccounts(database.NewMemStore(), tokens, logger)
	a.hash = fastHash
	return a
}

func TestRegisterAndLogin(t *testing.T) {
	a := newTestAccounts(t)
	ctx := context.Background()

	u, token, err := a.Register(ctx, Registration{
		Username: "star_gazer",
		Email:    " Star@Example.com ",
		Password: "secret1",
		Profile:  models.Profile{BirthDate: "1990-05-17", BirthTime: "08:30", Gender: "Female"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "star@example.com", u.Email)
	assert.Equal(t, "female", u.Gender)
	assert.NotEqual(t, "secret1", u.Password)

	id, err := a.Identify(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)

	logged, token, err := a.Login(ctx, "star@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, logged.ID)
	assert.NotEmpty(t, token)

	profile, err := a.Profile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, &models.Profile{BirthDate: "1990-05-17", BirthTime: "08:30", Gender: "female"}, profile)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	a := newTestAccounts(t)
	ctx := context.Background()
	_, _, err := a.Register(ctx, Registration{Username: "seer", Email: "seer@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, _, wrongPassword := a.Login(ctx, "seer@example.com", "nope")
	_, _, unknownEmail := a.Login(ctx, "nobody@example.com", "secret1")

	assert.ErrorIs(t, wrongPassword, apperrors.ErrUnauthorized)
	assert.ErrorIs(t, unknownEmail, apperrors.ErrUnauthorized)
	assert.Equal(t, apperrors.Message(wrongPassword), apperrors.Message(unknownEmail))
	assert.Equal(t, "Incorrect email or password", apperrors.Message(wrongPassword))
}

func TestRegisterValidation(t *testing.T) {
	a := newTestAccounts(t)
	ctx := context.Background()

	cases := map[string]Registration{
		"missing fields":   {Username: "abc"},
		"short username":   {Username: "ab", Email: "a@b.co", Password: "secret1"},
		"bad username":     {Username: "no spaces", Email: "a@b.co", Password: "secret1"},
		"bad email":        {Username: "abc", Email: "not-an-email", Password: "secret1"},
		"short password":   {Username: "abc", Email: "a@b.co", Password: "12345"},
		"bad birth date":   {Username: "abc", Email: "a@b.co", Password: "secret1", Profile: models.Profile{BirthDate: "17/05/1990"}},
		"future birthdate": {Username: "abc", Email: "a@b.co", Password: "secret1", Profile: models.Profile{BirthDate: "2999-01-01"}},
		"bad birth time":   {Username: "abc", Email: "a@b.co", Password: "secret1", Profile: models.Profile{BirthTime: "25:00"}},
		"bad gender":       {Username: "abc", Email: "a@b.co", Password: "secret1", Profile: models.Profile{Gender: "unknown"}},
	}
	for name, reg := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := a.Register(ctx, reg)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	a := newTestAccounts(t)
	ctx := context.Background()
	_, _, err := a.Register(ctx, Registration{Username: "seer", Email: "seer@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, _, err = a.Register(ctx, Registration{Username: "seer", Email: "other@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestIdentifyRejectsBadTokens(t *testing.T) {
	a := newTestAccounts(t)

	_, err := a.Identify("")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	_, err = a.Identify("garbage")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestUpdateProfile(t *testing.T) {
	a := newTestAccounts(t)
	ctx := context.Background()
	u, _, err := a.Register(ctx, Registration{Username: "seer", Email: "seer@example.com", Password: "secret1"})
	require.NoError(t, err)

	profile, err := a.Profile(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, profile)

	updated, err := a.UpdateProfile(ctx, u.ID, models.Profile{BirthDate: "2000-02-29", Gender: "other"})
	require.NoError(t, err)
	assert.Equal(t, "2000-02-29", updated.BirthDate)

	_, err = a.UpdateProfile(ctx, u.ID, models.Profile{Gender: "wizard"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
