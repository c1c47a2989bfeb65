package email

import (
	"context"
	"errors"

	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/mail"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ErrNoRecipient is returned when the recipient address is empty.
var ErrNoRecipient = errors.New("email: recipient is required")

// Email adapts a mail driver to the single-recipient plain-text messages the
// auth flows send.
type Email struct {
	mail mail.Mail
	ins  instrument.Instrumentation
}

func NewEmail(m mail.Mail, ins instrument.Instrumentation) *Email {
	return &Email{mail: m, ins: ins}
}

func (e *Email) Send(ctx context.Context, to, subject, body string) (err error) {
	ctx, span := e.ins.Tracer("auth.outbound.email").Start(ctx, "Send")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if to == "" {
		return ErrNoRecipient
	}
	span.SetAttributes(attribute.String("mail.subject", subject))

	return e.mail.Send(ctx, mail.Message{
		To:       []string{to},
		Subject:  subject,
		TextBody: body,
	})
}
