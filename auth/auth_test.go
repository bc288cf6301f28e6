package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dialysisfind/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func TestParseToken(t *testing.T) {
	token, err := NewToken(secret, "u1", models.RoleOwner, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleOwner, claims.Role)

	_, err = ParseToken([]byte("other"), token)
	assert.ErrorIs(t, err, ErrUnauthorized)

	expired, err := NewToken(secret, "u1", models.RoleOwner, -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(secret, expired)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthenticateAndAuthorize(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, found := FromContext(r.Context())
		require.True(t, found)
		w.Write([]byte(claims.UserID))
	})
	h := Authenticate(secret)(Authorize(models.RoleAdmin)(ok))

	adminToken, err := NewToken(secret, "admin-1", models.RoleAdmin, time.Hour)
	require.NoError(t, err)
	ownerToken, err := NewToken(secret, "owner-1", models.RoleOwner, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"not bearer", "Token abc", http.StatusUnauthorized},
		{"bad token", "Bearer abc", http.StatusUnauthorized},
		{"wrong role", "Bearer " + ownerToken, http.StatusForbidden},
		{"admin", "Bearer " + adminToken, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestAuthorizeWithoutAuthenticate(t *testing.T) {
	h := Authorize(models.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCanManageCenter(t *testing.T) {
	owner := "owner-1"
	other := "owner-2"

	assert.NoError(t, CanManageCenter(&Claims{UserID: "a", Role: models.RoleAdmin}, nil))
	assert.NoError(t, CanManageCenter(&Claims{UserID: owner, Role: models.RoleOwner}, &owner))
	assert.ErrorIs(t, CanManageCenter(&Claims{UserID: owner, Role: models.RoleOwner}, &other), ErrForbidden)
	assert.ErrorIs(t, CanManageCenter(&Claims{UserID: owner, Role: models.RoleOwner}, nil), ErrForbidden)
	assert.ErrorIs(t, CanManageCenter(&Claims{UserID: owner, Role: models.RoleUser}, &owner), ErrForbidden)
	assert.ErrorIs(t, CanManageCenter(nil, &owner), ErrUnauthorized)
}

func TestParseToken_EmptySecretRejects(t *testing.T) {
	token, err := NewToken(secret, "u1", models.RoleAdmin, time.Hour)
	require.NoError(t, err)
	_, err = ParseToken(nil, token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
