package entity

import (
	"errors"
	"time"
)

// ErrChallengeChanged is returned by a regeneration commit when the
// outstanding challenge is no longer the one that was verified.
var ErrChallengeChanged = errors.New("auth: challenge changed")

// Session is the server-side state bound to one client session id.
type Session struct {
	// Identity is the claimed email address.
	Identity string `json:"identity,omitempty"`
	// OTPDigest is the hex SHA-256 digest of the outstanding code.
	OTPDigest string `json:"otp_digest,omitempty"`
	// OTPExpiry is when the outstanding code stops being accepted.
	OTPExpiry time.Time `json:"otp_expiry,omitzero"`
	// OTPAttempts counts verification attempts since the last issuance.
	OTPAttempts int `json:"otp_attempts"`
	// IsAuthenticated is set once a code has been verified.
	IsAuthenticated bool      `json:"is_authenticated"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// HasChallenge reports whether a complete challenge is outstanding. A
// session holding only one of digest or expiry has no challenge.
func (s *Session) HasChallenge() bool {
	return s.OTPDigest != "" && !s.OTPExpiry.IsZero()
}

// IssueChallenge starts a fresh challenge for identity.
func (s *Session) IssueChallenge(identity, digest string, expiry, now time.Time) {
	s.Identity = identity
	s.OTPDigest = digest
	s.OTPExpiry = expiry
	s.OTPAttempts = 0
	s.IsAuthenticated = false
	s.UpdatedAt = now
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
}

// ClearChallenge drops the outstanding challenge fields together.
func (s *Session) ClearChallenge() {
	s.OTPDigest = ""
	s.OTPExpiry = time.Time{}
}

// SameChallenge reports whether s still holds the challenge seen in other.
func (s *Session) SameChallenge(other *Session) bool {
	return s.HasChallenge() && other.HasChallenge() &&
		s.OTPDigest == other.OTPDigest && s.OTPExpiry.Equal(other.OTPExpiry)
}

// Authenticated returns the successor of s after a successful verification:
// identity kept, challenge cleared, attempts reset.
func (s *Session) Authenticated(now time.Time) *Session {
	return &Session{
		Identity:        s.Identity,
		IsAuthenticated: true,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       now,
	}
}

// Mutation tells a session store what to do with a session after an update.
type Mutation int

const (
	// MutationNone leaves the stored session untouched.
	MutationNone Mutation = iota
	// MutationSave persists the mutated session.
	MutationSave
	// MutationDestroy deletes the session.
	MutationDestroy
)
