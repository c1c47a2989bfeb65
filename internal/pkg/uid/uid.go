// Package uid generates identifiers.
//
// UUID is used for correlation ids and audit records, Token for session
// identifiers that must be unguessable.
package uid

// StringID generates string identifiers.
type StringID interface {
	Generate() string
}
