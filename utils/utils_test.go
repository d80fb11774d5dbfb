package utils

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_SaltedAndVerifiable(t *testing.T) {
	t.Parallel()

	h1, err := HashPassword("password1")
	require.NoError(t, err)
	h2, err := HashPassword("password1")
	require.NoError(t, err)

	// per-call salt: same input, different stored output
	require.NotEqual(t, h1, h2)

	require.NoError(t, CheckPassword(h1, "password1"))
	require.NoError(t, CheckPassword(h2, "password1"))
	require.Error(t, CheckPassword(h1, "password2"))
}

func TestGenerateResetToken_HighEntropy(t *testing.T) {
	t.Parallel()

	t1, err := GenerateResetToken()
	require.NoError(t, err)
	t2, err := GenerateResetToken()
	require.NoError(t, err)

	require.Len(t, t1, 64) // 32 bytes hex encoded
	require.NotEqual(t, t1, t2)
}

func TestSessionToken_RoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	tok, err := GenerateSessionToken("u1", "a@x.com", "A", "SUPERADMIN", "")
	require.NoError(t, err)

	claims, err := ValidateSessionToken(tok, "test-secret")
	require.NoError(t, err)
	require.Equal(t, "u1", claims.UserID)
	require.Equal(t, "a@x.com", claims.Email)
	require.Equal(t, "A", claims.Name)
	require.Equal(t, "SUPERADMIN", claims.Role)
	require.WithinDuration(t, time.Now().Add(SessionTTL), claims.ExpiresAt.Time, time.Minute)
}

func TestSessionToken_WrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "right-secret")

	tok, err := GenerateSessionToken("u1", "a@x.com", "", "USER", "")
	require.NoError(t, err)

	_, err = ValidateSessionToken(tok, "wrong-secret")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionToken_TamperedPayloadFailsSignature(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	tok, err := GenerateSessionToken("u1", "a@x.com", "", "USER", "")
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)

	// flip the claimed role while replaying the original signature bytes
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	tampered := strings.Replace(string(payload), `"role":"USER"`, `"role":"SUPERADMIN"`, 1)
	require.NotEqual(t, string(payload), tampered)
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(tampered))

	_, err = ValidateSessionToken(strings.Join(parts, "."), "test-secret")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func expiredToken(t *testing.T, secret string) string {
	t.Helper()
	claims := Claims{
		UserID: "u1",
		Email:  "a@x.com",
		Role:   "USER",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-48 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-24 * time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func TestSessionToken_Expired(t *testing.T) {
	t.Parallel()

	_, err := ValidateSessionToken(expiredToken(t, "s"), "s")
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestSessionToken_ExpiredWithTampering_IsInvalidNotExpired(t *testing.T) {
	t.Parallel()

	tok := expiredToken(t, "s")
	parts := strings.Split(tok, ".")

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	// push the expiry a year into the future; the signature no longer matches
	tampered := strings.Replace(string(payload), `"exp":`, `"exp":9`, 1)
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(tampered))

	_, err = ValidateSessionToken(strings.Join(parts, "."), "s")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionToken_Malformed(t *testing.T) {
	t.Parallel()

	_, err := ValidateSessionToken("not.a.jwt", "s")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRedirectTarget(t *testing.T) {
	t.Parallel()

	require.Equal(t, "https://example.com", RedirectTarget("example.com"))
	require.Equal(t, "https://example.com/path", RedirectTarget("example.com/path"))
	require.Equal(t, "http://example.com", RedirectTarget("http://example.com"))
	require.Equal(t, "https://example.com", RedirectTarget("https://example.com"))
}

func TestPublicRedirectURL(t *testing.T) {
	t.Setenv("APP_URL", "https://qr.example.com/")

	require.Equal(t, "https://qr.example.com/api/redirect/abc123", PublicRedirectURL("abc123"))
}

func TestGenerateSlug(t *testing.T) {
	t.Parallel()

	require.Equal(t, "jose-perez", GenerateSlug("José Pérez"))
	require.Equal(t, "a-b-c", GenerateSlug("  A/B/C  "))
	require.Equal(t, "", GenerateSlug("!!!"))
}

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()

	require.Equal(t, "a@x.com", NormalizeEmail("  A@X.COM "))
}
