package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HMACSHA256 implements Hash with a keyed SHA-256 MAC. Session ids are stored
// under this digest so the raw id never reaches Redis or the audit trail.
type HMACSHA256 struct {
	key []byte
}

// NewHMACSHA256 returns a keyed hasher. The secret is copied.
func NewHMACSHA256(secret string) *HMACSHA256 {
	return &HMACSHA256{key: []byte(secret)}
}

// Hash returns the hex-encoded MAC of str (64 bytes).
func (s *HMACSHA256) Hash(str string) ([]byte, error) {
	return hexBytes(s.sum(str)), nil
}

// Verify decodes hashed and compares it to the MAC of str in constant time.
func (s *HMACSHA256) Verify(hashed, str string) bool {
	got, err := hex.DecodeString(hashed)
	if err != nil || len(got) != sha256.Size {
		return false
	}
	return hmac.Equal(got, s.sum(str))
}

func (s *HMACSHA256) sum(str string) []byte {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(str))
	return mac.Sum(nil)
}

func hexBytes(b []byte) []byte {
	out := make([]byte, hex.EncodedLen(len(b)))
	hex.Encode(out, b)
	return out
}
