package token

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	domaintoken "github.com/NordCoder/Authgate/internal/domain/token"
)

var testSecret = []byte("test-secret-key")

func newTestCodec(t *testing.T, now func() time.Time) *Codec {
	t.Helper()
	c, err := NewCodec(testSecret, "HS256", now)
	require.NoError(t, err)
	return c
}

func testClaims(kind domaintoken.Kind, exp time.Time) Claims {
	jti, _ := NewJTI()
	return Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice",
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	t.Parallel()
	c := newTestCodec(t, nil)

	in := testClaims(domaintoken.KindAccess, time.Now().Add(time.Hour))
	raw, err := c.Encode(in)
	require.NoError(t, err)

	out, err := c.Decode(raw)
	require.NoError(t, err)
	require.Equal(t, "alice", out.Subject)
	require.Equal(t, domaintoken.KindAccess, out.Kind)
	require.Equal(t, in.ID, out.ID)
	require.WithinDuration(t, in.ExpiresAt.Time, out.ExpiresAt.Time, time.Second)
}

func TestCodec_Expired(t *testing.T) {
	t.Parallel()
	c := newTestCodec(t, nil)

	raw, err := c.Encode(testClaims(domaintoken.KindAccess, time.Now().Add(-time.Minute)))
	require.NoError(t, err)

	_, err = c.Decode(raw)
	require.ErrorIs(t, err, ErrExpired)
}

func TestCodec_TamperedSignature(t *testing.T) {
	t.Parallel()
	c := newTestCodec(t, nil)

	raw, err := c.Encode(testClaims(domaintoken.KindAccess, time.Now().Add(time.Hour)))
	require.NoError(t, err)

	last := raw[len(raw)-1]
	flipped := byte('A')
	if last == 'A' {
		flipped = 'B'
	}
	tampered := raw[:len(raw)-1] + string(flipped)

	_, err = c.Decode(tampered)
	require.ErrorIs(t, err, ErrSignature)
}

func TestCodec_ForgedAndExpiredFailsOnSignature(t *testing.T) {
	t.Parallel()
	forger, err := NewCodec([]byte("attacker-secret"), "HS256", nil)
	require.NoError(t, err)

	raw, err := forger.Encode(testClaims(domaintoken.KindAccess, time.Now().Add(-time.Hour)))
	require.NoError(t, err)

	c := newTestCodec(t, nil)
	_, err = c.Decode(raw)
	require.ErrorIs(t, err, ErrSignature)
}

func TestCodec_Malformed(t *testing.T) {
	t.Parallel()
	c := newTestCodec(t, nil)

	for _, raw := range []string{"", "garbage", "not.a.jwt", strings.Repeat("x", 512)} {
		_, err := c.Decode(raw)
		require.ErrorIs(t, err, ErrMalformed, "input %q", raw)
	}
}

func TestCodec_RejectsAsymmetricAlgorithms(t *testing.T) {
	t.Parallel()
	_, err := NewCodec(testSecret, "RS256", nil)
	require.Error(t, err)
	_, err = NewCodec(testSecret, "nope", nil)
	require.Error(t, err)
}

func TestNewJTI_UniqueAndLong(t *testing.T) {
	t.Parallel()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		jti, err := NewJTI()
		require.NoError(t, err)
		// 32 random bytes, base64url without padding
		require.Len(t, jti, 43)
		require.False(t, seen[jti], "duplicate jti")
		seen[jti] = true
	}
}
