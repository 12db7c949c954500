package auth

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	j := NewJWT("secret")
	tok, err := j.Sign(42)
	require.NoError(t, err)

	uid, err := j.Verify(tok)
	require.NoError(t, err)
	require.Equal(t, uint64(42), uid)

	_, err = NewJWT("other").Verify(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTExpiry(t *testing.T) {
	j := NewJWTWithTTL("secret", time.Hour)
	start := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	j.now = func() time.Time { return start }

	tok, exp, err := j.Issue(7)
	require.NoError(t, err)
	require.Equal(t, start.Add(time.Hour), exp)

	j.now = func() time.Time { return start.Add(59 * time.Minute) }
	_, err = j.Verify(tok)
	require.NoError(t, err)

	j.now = func() time.Time { return start.Add(2 * time.Hour) }
	_, err = j.Verify(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTRejectsForeignClaims(t *testing.T) {
	sign := func(c jwt.Claims, m jwt.SigningMethod) string {
		s, err := jwt.NewWithClaims(m, c).SignedString([]byte("secret"))
		require.NoError(t, err)
		return s
	}
	exp := jwt.NewNumericDate(time.Now().Add(time.Hour))

	tests := map[string]string{
		"other issuer": sign(jwt.RegisteredClaims{Issuer: "someone-else", Subject: "7", ExpiresAt: exp}, jwt.SigningMethodHS256),
		"no expiry":    sign(jwt.RegisteredClaims{Issuer: issuer, Subject: "7"}, jwt.SigningMethodHS256),
		"bad subject":  sign(jwt.RegisteredClaims{Issuer: issuer, Subject: "alice", ExpiresAt: exp}, jwt.SigningMethodHS256),
		"zero subject": sign(jwt.RegisteredClaims{Issuer: issuer, Subject: "0", ExpiresAt: exp}, jwt.SigningMethodHS256),
		"hs512":        sign(jwt.RegisteredClaims{Issuer: issuer, Subject: "7", ExpiresAt: exp}, jwt.SigningMethodHS512),
	}
	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewJWT("secret").Verify(tok)
			require.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	require.True(t, ComparePassword(hash, "correct horse"))
	require.False(t, ComparePassword(hash, "wrong"))
}

func TestRequireAuth(t *testing.T) {
	j := NewJWT("secret")
	h := RequireAuth(j)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserIDFromContext(r.Context())
		require.True(t, ok)
		_, _ = w.Write([]byte(strconv.FormatUint(uid, 10)))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	tok, err := j.Sign(9)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer "+tok)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "9", rec.Body.String())
}
