package mail

import (
	"context"
	"errors"
	"io"
	"slices"
)

var (
	// ErrNoRecipients is returned when To, Cc and Bcc are all empty.
	ErrNoRecipients = errors.New("no recipients provided")
	// ErrEmptyBody is returned when neither TextBody nor HTMLBody is set.
	ErrEmptyBody = errors.New("message body is empty")
)

// Message is a provider-agnostic email. OTP mails only use To, Subject and
// TextBody.
type Message struct {
	From     string
	To       []string
	Cc       []string
	Bcc      []string
	Subject  string
	TextBody string
	HTMLBody string
}

// Recipients returns To, Cc and Bcc in that order.
func (m Message) Recipients() []string {
	return slices.Concat(m.To, m.Cc, m.Bcc)
}

// Validate checks the fields every driver needs before delivery.
func (m Message) Validate() error {
	if len(m.Recipients()) == 0 {
		return ErrNoRecipients
	}
	if m.TextBody == "" && m.HTMLBody == "" {
		return ErrEmptyBody
	}
	return nil
}

// Mail delivers messages. Implementations must honour ctx cancellation.
type Mail interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}
