package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

type HistoryInput struct {
	Identity string `validate:"required,email"`
	Limit    int    `validate:"gte=0,lte=100"`
}

type HistoryEvent struct {
	Kind      string
	Detail    string
	CreatedAt time.Time
}

type HistoryOutput struct {
	Events []HistoryEvent
}

// History lists the most recent audit events for an authenticated identity.
func (s *Usecase) History(ctx context.Context, in HistoryInput) (*HistoryOutput, error) {
	ctx, span := s.startSpan(ctx, "History")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	limit := in.Limit
	if limit == 0 {
		limit = defaultHistoryLimit
	}
	limit = min(limit, maxHistoryLimit)

	out := &HistoryOutput{Events: []HistoryEvent{}}
	if s.audit == nil {
		return out, nil
	}

	events, err := s.audit.ListByEmail(ctx, in.Identity, limit)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list auth events", "email", in.Identity, "error", err)
		return nil, goerror.NewServer(err)
	}

	for _, ev := range events {
		out.Events = append(out.Events, HistoryEvent{
			Kind:      string(ev.Kind),
			Detail:    ev.Detail,
			CreatedAt: ev.CreatedAt,
		})
	}

	return out, nil
}
