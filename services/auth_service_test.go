package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthService(t *testing.T, password string) *AdminAuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return NewAdminAuthService(string(hash), "test-secret")
}

func TestAdminLoginIssuesVerifiableToken(t *testing.T) {
	svc := newAuthService(t, "hunter2")

	token, err := svc.Login("hunter2")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims["role"])
}

func TestAdminLoginRejectsWrongPassword(t *testing.T) {
	svc := newAuthService(t, "hunter2")

	_, err := svc.Login("letmein")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	svc := newAuthService(t, "hunter2")

	_, err := svc.VerifyToken("not.a.token")
	require.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestVerifyTokenRejectsForeignSignature(t *testing.T) {
	issuer := newAuthService(t, "hunter2")
	verifier := NewAdminAuthService("", "different-secret")

	token, err := issuer.Login("hunter2")
	require.NoError(t, err)

	_, err = verifier.VerifyToken(token)
	require.ErrorIs(t, err, ErrAuthenticationFailed)
}
