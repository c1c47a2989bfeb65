package mail

import (
	"context"
	"log/slog"
	"strings"
)

// Log is a Mail implementation that writes messages to the structured logger
// instead of delivering them. It is meant for local development only: message
// bodies, including one-time codes, end up in the logs.
type Log struct{}

// NewLog returns a logging mail driver.
func NewLog() *Log {
	return &Log{}
}

// Send logs the message.
func (l *Log) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := msg.Validate(); err != nil {
		return err
	}

	slog.InfoContext(ctx, "mail delivered to log driver",
		"to", strings.Join(msg.Recipients(), ","),
		"subject", msg.Subject,
		"text_body", msg.TextBody,
	)

	return nil
}

// Close implements io.Closer.
func (l *Log) Close() error {
	return nil
}
