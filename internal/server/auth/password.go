package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/gophcrud/internal/cryptox"
	"github.com/dmitrijs2005/gophcrud/internal/logging"
	"golang.org/x/crypto/bcrypt"
)

// Supported hashing schemes.
const (
	SchemeBcrypt   = "bcrypt"
	SchemeArgon2id = "argon2id"
)

// MaxPasswordBytes is the longest input bcrypt takes into account.
const MaxPasswordBytes = 72

var ErrPasswordTooLong = errors.New("password longer than 72 bytes")

var bcryptPrefixes = []string{"$2a$", "$2b$", "$2y$"}

// HasherOptions selects and tunes the primary scheme.
type HasherOptions struct {
	Scheme     string
	BcryptCost int
	Argon2     cryptox.Argon2Params
}

// PasswordHasher hashes new passwords with one scheme and verifies stored
// hashes of any supported scheme, picked by the hash's tag.
type PasswordHasher struct {
	scheme string
	cost   int
	argon2 cryptox.Argon2Params
	log    logging.Logger
}

// NewPasswordHasher builds a hasher and runs a hash/verify round trip with
// the requested scheme. If that fails the hasher falls back to argon2id, so a
// broken bcrypt setting never leaves the server unable to store passwords.
func NewPasswordHasher(opts HasherOptions, log logging.Logger) *PasswordHasher {
	h := &PasswordHasher{
		scheme: opts.Scheme,
		cost:   opts.BcryptCost,
		argon2: opts.Argon2,
		log:    log,
	}
	if h.argon2 == (cryptox.Argon2Params{}) {
		h.argon2 = cryptox.DefaultArgon2Params
	}
	if h.scheme != SchemeArgon2id {
		h.scheme = SchemeBcrypt
	}

	if err := h.selfTest(); err != nil {
		log.Warn(context.Background(), "password scheme self test failed, falling back to argon2id",
			"scheme", h.scheme, "error", err)
		h.scheme = SchemeArgon2id
	}

	return h
}

var errSelfTest = errors.New("hash does not verify")

func (h *PasswordHasher) selfTest() error {
	const probe = "self-test-password"
	hashed, err := h.Hash(probe)
	if err != nil {
		return err
	}
	if !h.Verify(probe, hashed) || h.Verify(probe+"!", hashed) {
		return errSelfTest
	}
	return nil
}

// Scheme reports the scheme used for new hashes.
func (h *PasswordHasher) Scheme() string {
	return h.scheme
}

// Hash returns a salted hash of plain in the primary scheme.
func (h *PasswordHasher) Hash(plain string) (string, error) {
	if h.scheme == SchemeArgon2id {
		return cryptox.HashArgon2id([]byte(plain), h.argon2), nil
	}

	if len(plain) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether plain matches hashed. Unknown or malformed hashes
// are logged and never match.
func (h *PasswordHasher) Verify(plain, hashed string) bool {
	switch {
	case hasAnyPrefix(hashed, bcryptPrefixes):
		err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
		if err == nil {
			return true
		}
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			h.log.Warn(context.Background(), "malformed bcrypt hash", "error", err)
		}
		return false

	case strings.HasPrefix(hashed, cryptox.Argon2Prefix):
		ok, err := cryptox.VerifyArgon2id([]byte(plain), hashed)
		if err != nil {
			h.log.Warn(context.Background(), "malformed argon2id hash", "error", err)
		}
		return ok

	default:
		h.log.Warn(context.Background(), "unrecognized password hash scheme")
		return false
	}
}

// NeedsRehash reports whether hashed was produced by another scheme than
// the current primary one.
func (h *PasswordHasher) NeedsRehash(hashed string) bool {
	if h.scheme == SchemeArgon2id {
		return !strings.HasPrefix(hashed, cryptox.Argon2Prefix)
	}
	return !hasAnyPrefix(hashed, bcryptPrefixes)
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
