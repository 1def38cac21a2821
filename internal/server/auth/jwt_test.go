package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophcrud/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newCodec(secret string) (*TokenCodec, *clock) {
	clk := &clock{now: t0}
	return NewTokenCodec([]byte(secret)).WithClock(clk.Now), clk
}

func TestIssueDecode_Success(t *testing.T) {
	t.Parallel()
	c, _ := newCodec("super-secret")

	tok, err := c.IssueAccess("user-123", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(tok, "."))

	claims, err := c.Decode(tok, PurposeAccess)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, PurposeAccess, claims.Purpose)
	assert.True(t, t0.Equal(claims.IssuedAt), "issued at %v", claims.IssuedAt)
	assert.True(t, t0.Add(time.Hour).Equal(claims.ExpiresAt), "expires at %v", claims.ExpiresAt)
}

func TestDecode_ExpiresWithClock(t *testing.T) {
	t.Parallel()
	c, clk := newCodec("secret")

	tok, err := c.IssueAccess("u1", time.Hour)
	require.NoError(t, err)

	clk.now = t0.Add(59 * time.Minute)
	_, err = c.Decode(tok, PurposeAccess)
	require.NoError(t, err)

	clk.now = t0.Add(time.Hour)
	_, err = c.Decode(tok, PurposeAccess)
	assert.ErrorIs(t, err, common.ErrTokenExpired)

	clk.now = t0.Add(2 * time.Hour)
	_, err = c.Decode(tok, PurposeAccess)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestDecode_NonPositiveTTLIsExpired(t *testing.T) {
	t.Parallel()
	c, _ := newCodec("secret")

	for _, ttl := range []time.Duration{-time.Hour, -time.Second, -1, 0} {
		tok, err := c.IssueReset("a@x.com", ttl)
		require.NoError(t, err)

		_, err = c.Decode(tok, PurposePasswordReset)
		assert.ErrorIs(t, err, common.ErrTokenExpired, "ttl %v", ttl)
	}
}

func TestDecode_ResetToken(t *testing.T) {
	t.Parallel()
	c, _ := newCodec("secret")

	tok, err := c.IssueReset("a@x.com", 48*time.Hour)
	require.NoError(t, err)

	claims, err := c.Decode(tok, PurposePasswordReset)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Subject)
}

func TestDecode_WrongPurpose(t *testing.T) {
	t.Parallel()
	c, _ := newCodec("secret")

	reset, err := c.IssueReset("a@x.com", time.Hour)
	require.NoError(t, err)
	_, err = c.Decode(reset, PurposeAccess)
	assert.ErrorIs(t, err, common.ErrTokenMalformed)

	access, err := c.IssueAccess("id", time.Hour)
	require.NoError(t, err)
	_, err = c.Decode(access, PurposePasswordReset)
	assert.ErrorIs(t, err, common.ErrTokenMalformed)
}

func TestDecode_WrongSecret(t *testing.T) {
	t.Parallel()
	right, _ := newCodec("right-secret")
	wrong, _ := newCodec("wrong-secret")

	tok, err := right.IssueAccess("u2", time.Hour)
	require.NoError(t, err)

	_, err = wrong.Decode(tok, PurposeAccess)
	assert.ErrorIs(t, err, common.ErrTokenSignature)
}

func TestDecode_TamperAnyPosition(t *testing.T) {
	t.Parallel()
	c, _ := newCodec("secret")

	tok, err := c.IssueAccess("0b8f2c5e-4a53-4f0e-9d63-1f0f5b0f2c11", time.Hour)
	require.NoError(t, err)

	const b64url = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

	for i := range len(tok) {
		for _, repl := range []byte{b64url[(strings.IndexByte(b64url, tok[i])+1)%len(b64url)], '.', '!'} {
			if repl == tok[i] {
				continue
			}
			b := []byte(tok)
			b[i] = repl

			claims, err := c.Decode(string(b), PurposeAccess)
			assert.Nil(t, claims, "position %d", i)
			assert.ErrorIs(t, err, common.ErrTokenSignature, "position %d replaced by %q", i, repl)
		}
	}
}

func TestDecode_Malformed(t *testing.T) {
	t.Parallel()
	c, _ := newCodec("secret")

	_, err := c.Decode("", PurposeAccess)
	assert.ErrorIs(t, err, common.ErrTokenMalformed)

	_, err = c.Decode("not-a-token", PurposeAccess)
	assert.ErrorIs(t, err, common.ErrTokenMalformed)
}

func TestDecode_RequiresExpAndSubject(t *testing.T) {
	t.Parallel()
	c, _ := newCodec("secret")

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:  "u",
		Audience: jwt.ClaimStrings{string(PurposeAccess)},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = c.Decode(noExp, PurposeAccess)
	assert.ErrorIs(t, err, common.ErrTokenMalformed)

	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Audience:  jwt.ClaimStrings{string(PurposeAccess)},
		ExpiresAt: jwt.NewNumericDate(t0.Add(time.Hour)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = c.Decode(noSub, PurposeAccess)
	assert.ErrorIs(t, err, common.ErrTokenMalformed)
}

func TestDecode_OtherAlgorithmRejected(t *testing.T) {
	t.Parallel()
	c, _ := newCodec("secret")

	hs384, err := jwt.NewWithClaims(jwt.SigningMethodHS384, jwt.RegisteredClaims{
		Subject:   "u",
		Audience:  jwt.ClaimStrings{string(PurposeAccess)},
		ExpiresAt: jwt.NewNumericDate(t0.Add(time.Hour)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = c.Decode(hs384, PurposeAccess)
	assert.ErrorIs(t, err, common.ErrTokenSignature)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "u"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = c.Decode(none, PurposeAccess)
	assert.ErrorIs(t, err, common.ErrTokenSignature)
}
