package auth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophcrud/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Purpose is carried in the audience claim so a token minted for one use
// is rejected by every other.
type Purpose string

const (
	PurposeAccess        Purpose = "access"
	PurposePasswordReset Purpose = "password-reset"
)

// Claims is the decoded, validated content of a token.
type Claims struct {
	Subject   string
	Purpose   Purpose
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenCodec issues and decodes HS256 tokens. Tokens always expire: a
// non-positive ttl yields a token that is already expired.
type TokenCodec struct {
	secret []byte
	now    func() time.Time
}

func NewTokenCodec(secret []byte) *TokenCodec {
	return &TokenCodec{secret: secret, now: time.Now}
}

// WithClock returns a copy of c reading time from now.
func (c *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	cp := *c
	cp.now = now
	return &cp
}

// Issue signs a token for subject valid for ttl from now.
func (c *TokenCodec) Issue(subject string, purpose Purpose, ttl time.Duration) (string, error) {
	now := c.now()

	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Audience:  jwt.ClaimStrings{string(purpose)},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	if purpose == PurposePasswordReset {
		claims.NotBefore = jwt.NewNumericDate(now)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(c.secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// IssueAccess signs a bearer token whose subject is the user id.
func (c *TokenCodec) IssueAccess(userID string, ttl time.Duration) (string, error) {
	return c.Issue(userID, PurposeAccess, ttl)
}

// IssueReset signs a password reset token whose subject is the email.
func (c *TokenCodec) IssueReset(email string, ttl time.Duration) (string, error) {
	return c.Issue(email, PurposePasswordReset, ttl)
}

var sigEncoding = base64.RawURLEncoding.Strict()

// Decode verifies token and returns its claims. Errors are one of
// common.ErrTokenSignature, common.ErrTokenExpired or common.ErrTokenMalformed.
//
// The signature is checked over everything before the last '.', before any
// parsing, so altering any byte of a token reports a bad signature.
func (c *TokenCodec) Decode(token string, purpose Purpose) (*Claims, error) {
	dot := strings.LastIndexByte(token, '.')
	if dot < 0 {
		return nil, common.ErrTokenMalformed
	}

	sig, err := sigEncoding.DecodeString(token[dot+1:])
	if err != nil {
		return nil, common.ErrTokenSignature
	}
	if err := jwt.SigningMethodHS256.Verify(token[:dot], sig, c.secret); err != nil {
		return nil, common.ErrTokenSignature
	}

	claims := &jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithStrictDecoding(),
		jwt.WithExpirationRequired(),
		jwt.WithAudience(string(purpose)),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", common.ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrTokenMalformed, err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", common.ErrTokenMalformed)
	}

	out := &Claims{
		Subject:   claims.Subject,
		Purpose:   purpose,
		ExpiresAt: claims.ExpiresAt.UTC(),
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.UTC()
	}
	return out, nil
}
