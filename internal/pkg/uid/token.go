package uid

import (
	"crypto/rand"
	"encoding/base64"
)

// DefaultTokenBytes is the entropy used by NewToken when size is not positive.
const DefaultTokenBytes = 32

// Token generates random, URL-safe opaque identifiers.
type Token struct {
	size int
}

// NewToken returns a Token generator producing size random bytes per id.
func NewToken(size int) *Token {
	if size <= 0 {
		size = DefaultTokenBytes
	}
	return &Token{size: size}
}

// Generate returns a base64url (unpadded) encoded random id.
//
// crypto/rand.Read never returns an error on supported platforms; a failure
// would leave the process without a usable CSPRNG, so it panics.
func (t *Token) Generate() string {
	b := make([]byte, t.size)
	if _, err := rand.Read(b); err != nil {
		panic("uid: crypto/rand unavailable: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
