package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"afripay/pkg/errors"
	"afripay/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRevoker struct {
	mock.Mock
}

func (m *mockRevoker) Blacklist(ctx context.Context, token string, expiration time.Duration) error {
	args := m.Called(ctx, token, expiration)
	return args.Error(0)
}

func signedToken(t *testing.T, ttl time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "8c2f0a3e-1a61-4a1b-9f5e-0d1c2b3a4f5e",
		"exp":     time.Now().Add(ttl).Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestLogout_RevokesForRemainingLifetime(t *testing.T) {
	tokenString := signedToken(t, time.Hour)

	revoker := new(mockRevoker)
	revoker.On("Blacklist", mock.Anything, tokenString, mock.MatchedBy(func(ttl time.Duration) bool {
		return ttl > 55*time.Minute && ttl <= time.Hour
	})).Return(nil)

	h := NewAuthHandler(revoker, logger.NewNop())
	req := httptest.NewRequest("POST", "/api/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()

	h.Logout(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	revoker.AssertExpectations(t)
}

func TestLogout_MissingBearer(t *testing.T) {
	revoker := new(mockRevoker)
	h := NewAuthHandler(revoker, logger.NewNop())

	req := httptest.NewRequest("POST", "/api/v1/auth/logout", nil)
	w := httptest.NewRecorder()

	h.Logout(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	revoker.AssertNotCalled(t, "Blacklist", mock.Anything, mock.Anything, mock.Anything)
}

func TestLogout_RevocationStoreDown(t *testing.T) {
	tokenString := signedToken(t, time.Hour)

	revoker := new(mockRevoker)
	revoker.On("Blacklist", mock.Anything, tokenString, mock.Anything).
		Return(errors.New("redis unreachable"))

	h := NewAuthHandler(revoker, logger.NewNop())
	req := httptest.NewRequest("POST", "/api/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()

	h.Logout(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
