package entity

import "time"

// EventKind names an auditable authentication event.
type EventKind string

const (
	EventOTPIssued        EventKind = "otp_issued"
	EventOTPIssueFailed   EventKind = "otp_issue_failed"
	EventOTPVerified      EventKind = "otp_verified"
	EventOTPRejected      EventKind = "otp_rejected"
	EventSessionDestroyed EventKind = "session_destroyed"
	EventSessionLoggedOut EventKind = "session_logged_out"
)

// AuthEvent is one row of the authentication audit trail.
type AuthEvent struct {
	ID string
	// SessionHash is the HMAC of the session id; raw ids are never stored.
	SessionHash string
	Email       string
	Kind        EventKind
	// Detail carries the verification status for rejected attempts.
	Detail    string
	CreatedAt time.Time
}
