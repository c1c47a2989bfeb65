// Package mail defines the contracts for sending email messages.
//
// Use cases work with the Mail interface and Message payload. Two drivers are
// provided: SMTP, built on github.com/wneessen/go-mail, and Log, which writes
// messages to slog for local development.
package mail
