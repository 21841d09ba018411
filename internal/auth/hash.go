package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
)

var ErrEmptyInput = errors.New("nothing to hash")

// Hasher derives the stored password hash: HMAC-SHA256 keyed with the
// configured hashing secret, hex encoded.
type Hasher struct {
	secret []byte
}

func NewHasher(secret string) Hasher {
	return Hasher{secret: []byte(secret)}
}

func (h Hasher) Hash(s string) (string, error) {
	if s == "" {
		return "", ErrEmptyInput
	}
	mac := hmac.New(sha256.New, h.secret)
	mac.Write([]byte(s))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Matches compares a plaintext password with a stored hash in constant time.
func (h Hasher) Matches(password, hashed string) bool {
	got, err := h.Hash(password)
	if err != nil {
		return false
	}
	return hmac.Equal([]byte(got), []byte(hashed))
}

const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// RandomString returns n characters drawn uniformly from [a-z0-9].
func RandomString(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("invalid length %d", n)
	}
	out := make([]byte, n)
	max := big.NewInt(int64(len(alphabet)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out), nil
}
