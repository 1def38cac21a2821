package auth

import (
	"crypto/rand"
	"math/big"
	"strings"
	"testing"

	"github.com/dmitrijs2005/gophcrud/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*()-_ "

func randomPlaintext(t *testing.T, maxLen int) string {
	t.Helper()
	n, err := rand.Int(rand.Reader, big.NewInt(int64(maxLen)))
	require.NoError(t, err)

	var sb strings.Builder
	for range int(n.Int64()) + 1 {
		i, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		require.NoError(t, err)
		sb.WriteByte(alphabet[i.Int64()])
	}
	return sb.String()
}

// mutate flips one character so the result differs within the first 72 bytes.
func mutate(s string) string {
	b := []byte(s)
	i := len(b) / 2
	if b[i] == 'a' {
		b[i] = 'b'
	} else {
		b[i] = 'a'
	}
	return string(b)
}

func TestHashVerify_RandomPlaintexts(t *testing.T) {
	for _, scheme := range []string{SchemeBcrypt, SchemeArgon2id} {
		t.Run(scheme, func(t *testing.T) {
			t.Parallel()
			h := fastHasher(t, scheme)
			require.Equal(t, scheme, h.Scheme())

			for range 100 {
				plain := randomPlaintext(t, MaxPasswordBytes)

				hashed, err := h.Hash(plain)
				require.NoError(t, err)
				assert.NotEqual(t, plain, hashed)

				assert.True(t, h.Verify(plain, hashed), "same plaintext must verify")
				assert.False(t, h.Verify(mutate(plain), hashed), "different plaintext must not verify")
			}
		})
	}
}

func TestHash_Salted(t *testing.T) {
	t.Parallel()
	h := fastHasher(t, SchemeBcrypt)

	a, err := h.Hash("password1")
	require.NoError(t, err)
	b, err := h.Hash("password1")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHash_BcryptTooLong(t *testing.T) {
	t.Parallel()
	h := fastHasher(t, SchemeBcrypt)

	_, err := h.Hash(strings.Repeat("x", MaxPasswordBytes+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	_, err = h.Hash(strings.Repeat("x", MaxPasswordBytes))
	assert.NoError(t, err)
}

func TestVerify_CrossScheme(t *testing.T) {
	t.Parallel()
	bc := fastHasher(t, SchemeBcrypt)
	ar := fastHasher(t, SchemeArgon2id)

	fromBcrypt, err := bc.Hash("secret-pass")
	require.NoError(t, err)
	fromArgon, err := ar.Hash("secret-pass")
	require.NoError(t, err)

	assert.True(t, ar.Verify("secret-pass", fromBcrypt), "argon2id hasher still verifies bcrypt hashes")
	assert.True(t, bc.Verify("secret-pass", fromArgon), "bcrypt hasher still verifies argon2id hashes")

	assert.True(t, bc.NeedsRehash(fromArgon))
	assert.False(t, bc.NeedsRehash(fromBcrypt))
	assert.True(t, ar.NeedsRehash(fromBcrypt))
}

func TestVerify_MalformedHashes(t *testing.T) {
	t.Parallel()
	h := fastHasher(t, SchemeBcrypt)

	for _, bad := range []string{
		"",
		"plaintext",
		"$2b$04$tooshort",
		"$argon2id$v=19$m=64,t=1,p=1$###$###",
		"$1$md5crypt$xyz",
	} {
		assert.False(t, h.Verify("anything", bad), bad)
	}
}

func TestNewPasswordHasher_FallsBackToArgon2id(t *testing.T) {
	t.Parallel()

	h := NewPasswordHasher(HasherOptions{Scheme: SchemeBcrypt, BcryptCost: bcrypt.MaxCost + 1, Argon2: fastArgon2}, logging.Nop{})
	assert.Equal(t, SchemeArgon2id, h.Scheme())

	hashed, err := h.Hash("password1")
	require.NoError(t, err)
	assert.True(t, h.Verify("password1", hashed))
}

func TestNewPasswordHasher_UnknownSchemeMeansBcrypt(t *testing.T) {
	t.Parallel()
	h := NewPasswordHasher(HasherOptions{Scheme: "sha256_crypt", BcryptCost: bcrypt.MinCost}, logging.Nop{})
	assert.Equal(t, SchemeBcrypt, h.Scheme())
}
