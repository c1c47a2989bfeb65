package otp

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"testing"

	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("entropy exhausted")
}

func TestGenerator_Generate(t *testing.T) {
	g := NewGenerator()

	t.Run("RangeAndDigest", func(t *testing.T) {
		for i := 0; i < 2000; i++ {
			// Act
			code, err := g.Generate()

			// Assert
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if code.Value < MinCode || code.Value > MaxCode {
				t.Fatalf("code %d out of range", code.Value)
			}
			sum := sha256.Sum256([]byte(strconv.Itoa(code.Value)))
			if code.Digest != hex.EncodeToString(sum[:]) {
				t.Fatalf("digest mismatch for %d", code.Value)
			}
			if len(code.String()) != 6 {
				t.Fatalf("expected 6 digits, got %q", code.String())
			}
		}
	})

	t.Run("RandomSourceFailure", func(t *testing.T) {
		// Arrange
		broken := NewGeneratorWithSource(failingReader{}, hash.NewSHA256())

		// Act
		_, err := broken.Generate()

		// Assert
		if err == nil {
			t.Fatal("expected error from broken random source")
		}
	})
}

func TestGenerator_Match(t *testing.T) {
	g := NewGenerator()
	code, err := g.Generate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !g.Match(code.Digest, code.String()) {
		t.Fatal("expected generated code to match its digest")
	}
	if g.Match(code.Digest, "000000") {
		t.Fatal("expected other code not to match")
	}
	if g.Match("", code.String()) {
		t.Fatal("expected empty digest not to match")
	}
	if g.Digest(code.String()) != code.Digest {
		t.Fatal("expected Digest to be deterministic")
	}
}
