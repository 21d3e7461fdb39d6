package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

// mintToken builds arbitrary (possibly invalid) claims for the negative
// paths that IssueToken refuses to produce.
func mintToken(t *testing.T, secret, subject, tokenType string, expiresIn time.Duration) string {
	t.Helper()
	now := time.Now()
	claims := Claims{
		Username:  "jihun",
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestIssueAndValidateToken(t *testing.T) {
	v := NewVerifier(testSecret)

	token, err := v.IssueToken(42, "jihun", time.Hour)
	require.NoError(t, err)

	identity, err := v.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), identity.UserID)
	assert.Equal(t, "jihun", identity.Username)
}

func TestIssueTokenRejectsNonPositiveUsers(t *testing.T) {
	v := NewVerifier(testSecret)

	_, err := v.IssueToken(0, "nobody", time.Hour)
	assert.Error(t, err)
	_, err = v.IssueToken(-1, "ai-seat", time.Hour)
	assert.Error(t, err, "AI seats never hold tokens")
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	token, err := NewVerifier("other-secret").IssueToken(42, "jihun", time.Hour)
	require.NoError(t, err)

	_, err = NewVerifier(testSecret).ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	v := NewVerifier(testSecret)
	token := mintToken(t, testSecret, "42", "access", -time.Minute)

	_, err := v.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsWrongType(t *testing.T) {
	v := NewVerifier(testSecret)
	token := mintToken(t, testSecret, "42", "refresh", time.Hour)

	_, err := v.ValidateToken(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token type")
}

func TestValidateTokenRejectsBadSubjects(t *testing.T) {
	v := NewVerifier(testSecret)

	for _, subject := range []string{"", "abc", "0", "-5"} {
		token := mintToken(t, testSecret, subject, "access", time.Hour)
		_, err := v.ValidateToken(token)
		assert.Errorf(t, err, "subject %q must not resolve to an identity", subject)
	}
}

func TestValidateTokenRejectsUnsignedToken(t *testing.T) {
	v := NewVerifier(testSecret)

	claims := Claims{
		Username:  "jihun",
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = v.ValidateToken(unsigned)
	assert.Error(t, err, "only HMAC signatures are trusted")
}

func TestTokenFromRequest(t *testing.T) {
	newRequest := func(header, query string) *http.Request {
		target := "/api/games"
		if query != "" {
			target += "?token=" + query
		}
		r := httptest.NewRequest(http.MethodGet, target, nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		return r
	}

	assert.Equal(t, "abc", TokenFromRequest(newRequest("Bearer abc", "")))
	assert.Equal(t, "", TokenFromRequest(newRequest("abc", "")),
		"a header without the Bearer prefix is rejected, not reinterpreted")
	assert.Equal(t, "", TokenFromRequest(newRequest("Basic abc", "")))
	assert.Equal(t, "xyz", TokenFromRequest(newRequest("", "xyz")),
		"websocket connects carry the token as a query parameter")
	assert.Equal(t, "abc", TokenFromRequest(newRequest("Bearer abc", "xyz")),
		"the header wins over the query parameter")
	assert.Equal(t, "", TokenFromRequest(newRequest("", "")))
}

func TestMiddleware(t *testing.T) {
	v := NewVerifier(testSecret)
	handler := v.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := FromContext(r.Context())
		require.True(t, ok)
		w.Write([]byte(strconv.FormatInt(identity.UserID, 10)))
	}))

	token, err := v.IssueToken(42, "jihun", time.Hour)
	require.NoError(t, err)

	t.Run("missing credentials", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Authorization required")
	})

	t.Run("garbage token", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer not.a.token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid token")
	})

	t.Run("bearer header", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "42", rec.Body.String())
	})

	t.Run("query parameter", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?token="+token, nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "42", rec.Body.String())
	})
}

func TestFromContextWithoutIdentity(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)
}
