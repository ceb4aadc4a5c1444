package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/relay-chat-api/internal/dto"
)

func newAuthService(accounts *accountRepoStub) AuthService {
	validate := validator.New(validator.WithRequiredStructEnabled())
	return NewAuthService(accounts, validate, "test-secret", time.Hour, testLogger())
}

func TestSignupRejectsDuplicateUsername(t *testing.T) {
	accounts := newAccountRepoStub()
	svc := newAuthService(accounts)

	_, err := svc.Signup(context.Background(), dto.SignupRequest{Username: "alice", Password: "secret"})
	require.NoError(t, err)

	_, err = svc.Signup(context.Background(), dto.SignupRequest{Username: "alice", Password: "other"})
	require.ErrorIs(t, err, ErrUsernameTaken)
}

func TestSignupNeverStoresPlaintextPassword(t *testing.T) {
	accounts := newAccountRepoStub()
	svc := newAuthService(accounts)

	_, err := svc.Signup(context.Background(), dto.SignupRequest{Username: "alice", Password: "secret"})
	require.NoError(t, err)

	account, err := accounts.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.NotEmpty(t, account.PasswordHash)
	require.NotEqual(t, "secret", account.PasswordHash)
}

func TestLoginVerifiesPasswordAndIssuesToken(t *testing.T) {
	accounts := newAccountRepoStub()
	svc := newAuthService(accounts)

	_, err := svc.Signup(context.Background(), dto.SignupRequest{Username: "alice", Password: "secret"})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), dto.LoginRequest{Username: "alice", Password: "wrong"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	resp, err := svc.Login(context.Background(), dto.LoginRequest{Username: "alice", Password: "secret"})
	require.NoError(t, err)
	require.Equal(t, "alice", resp.Username)

	token, err := jwt.Parse(resp.Token, func(t *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	require.Equal(t, "alice", claims["sub"])
	require.Equal(t, false, claims["moderator"])

	account, err := accounts.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.True(t, account.Online)
}

func TestLoginUnknownUserFails(t *testing.T) {
	svc := newAuthService(newAccountRepoStub())

	_, err := svc.Login(context.Background(), dto.LoginRequest{Username: "ghost", Password: "x"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestResumeFailsForDeletedAccount(t *testing.T) {
	accounts := newAccountRepoStub()
	svc := newAuthService(accounts)

	_, err := svc.Signup(context.Background(), dto.SignupRequest{Username: "alice", Password: "secret"})
	require.NoError(t, err)

	_, err = svc.Resume(context.Background(), "alice")
	require.NoError(t, err)

	require.NoError(t, accounts.Delete(context.Background(), "alice"))

	_, err = svc.Resume(context.Background(), "alice")
	require.ErrorIs(t, err, ErrAccountGone)
}

func TestLogoutMarksAccountOffline(t *testing.T) {
	accounts := newAccountRepoStub()
	svc := newAuthService(accounts)

	_, err := svc.Signup(context.Background(), dto.SignupRequest{Username: "alice", Password: "secret"})
	require.NoError(t, err)
	_, err = svc.Login(context.Background(), dto.LoginRequest{Username: "alice", Password: "secret"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), "alice"))

	account, err := accounts.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.False(t, account.Online)
}
