package services

import (
	"context"
	"testing"

	"github.com/arenahq/arena/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestRegisterZeroInitializedProfile(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewAuthService(users)

	user, err := svc.Register(context.Background(), RegisterInput{
		FullName: "New Player",
		Email:    "New.Player@Example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)

	assert.Equal(t, "new.player@example.com", user.Email)
	assert.Equal(t, models.RolePlayer, user.Role)
	assert.Zero(t, user.WalletBalance)
	assert.Zero(t, user.TotalKills)
	assert.Zero(t, user.TotalWins)
	assert.Zero(t, user.TotalTournaments)
	assert.Zero(t, user.TotalWinnings)

	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct horse")))
}

func TestRegisterValidation(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewAuthService(users)

	_, err := svc.Register(context.Background(), RegisterInput{Email: "not-an-email", Password: "long enough"})
	require.ErrorIs(t, err, ErrAuthInvalidCredentials)

	_, err = svc.Register(context.Background(), RegisterInput{Email: "a@b.com", Password: "short"})
	require.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewAuthService(users)

	input := RegisterInput{FullName: "P", Email: "p@example.com", Password: "password1"}
	_, err := svc.Register(context.Background(), input)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), input)
	require.ErrorIs(t, err, ErrAuthEmailTaken)
}

func TestLogin(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewAuthService(users)

	_, err := svc.Register(context.Background(), RegisterInput{
		FullName: "P", Email: "p@example.com", Password: "password1",
	})
	require.NoError(t, err)

	user, err := svc.Login(context.Background(), LoginInput{Email: "P@Example.com", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, "p@example.com", user.Email)

	_, err = svc.Login(context.Background(), LoginInput{Email: "p@example.com", Password: "wrong"})
	require.ErrorIs(t, err, ErrAuthInvalidCredentials)

	_, err = svc.Login(context.Background(), LoginInput{Email: "ghost@example.com", Password: "password1"})
	require.ErrorIs(t, err, ErrAuthInvalidCredentials)
}
