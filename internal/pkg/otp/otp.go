package otp

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"strconv"

	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
)

const (
	// MinCode is the smallest code Generate returns.
	MinCode = 100000
	// MaxCode is the largest code Generate returns.
	MaxCode = 999999
)

// Code is a freshly generated passcode together with its digest.
type Code struct {
	Value  int
	Digest string
}

// String returns the decimal form of the code, as it appears in the email.
func (c Code) String() string {
	return strconv.Itoa(c.Value)
}

// OTP defines the contract for one-time passcode operations.
type OTP interface {
	// Generate returns a random code in [MinCode, MaxCode] and its digest.
	Generate() (Code, error)
	// Digest hashes a submitted code the same way Generate does.
	Digest(code string) string
	// Match reports whether code hashes to digest, in constant time.
	Match(digest, code string) bool
}

// Generator implements OTP on top of a random source and a digest function.
type Generator struct {
	random io.Reader
	hasher hash.Hash
	span   *big.Int
}

// NewGenerator returns a Generator reading from crypto/rand and hashing with SHA-256.
func NewGenerator() *Generator {
	return NewGeneratorWithSource(rand.Reader, hash.NewSHA256())
}

// NewGeneratorWithSource returns a Generator with an explicit random source and hasher.
func NewGeneratorWithSource(random io.Reader, hasher hash.Hash) *Generator {
	return &Generator{
		random: random,
		hasher: hasher,
		span:   big.NewInt(MaxCode - MinCode + 1),
	}
}

// Generate returns a uniformly distributed six-digit code and its digest.
//
// An error means the random source is unusable; callers must treat it as a
// system failure.
func (g *Generator) Generate() (Code, error) {
	n, err := rand.Int(g.random, g.span)
	if err != nil {
		return Code{}, fmt.Errorf("otp: read random source: %w", err)
	}

	value := MinCode + int(n.Int64())

	return Code{
		Value:  value,
		Digest: g.Digest(strconv.Itoa(value)),
	}, nil
}

// Digest returns the hex digest of code.
func (g *Generator) Digest(code string) string {
	//nolint:errcheck // hasher is deterministic and never fails
	sum, _ := g.hasher.Hash(code)
	return string(sum)
}

// Match reports whether code hashes to digest.
func (g *Generator) Match(digest, code string) bool {
	if digest == "" {
		return false
	}
	return g.hasher.Verify(digest, code)
}
