package uid

import "github.com/google/uuid"

// UUID generates time-ordered UUIDv7 strings. Audit rows keyed by these ids
// sort by creation time.
type UUID struct{}

// NewUUID returns a UUID generator.
func NewUUID() *UUID {
	return &UUID{}
}

// Generate returns a new UUIDv7, or a random v4 when the v7 clock source fails.
func (*UUID) Generate() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

// IsUUID reports whether s is a UUID in canonical or braced/urn form.
func IsUUID(s string) bool {
	return s != "" && uuid.Validate(s) == nil
}
