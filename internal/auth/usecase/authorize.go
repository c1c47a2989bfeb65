package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/auth/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

type AuthorizeOutput struct {
	Decision entity.Decision
	Identity string
}

// Authorize decides whether the session may access protected resources. It
// allows only sessions flagged authenticated and never mutates the session.
func (s *Usecase) Authorize(ctx context.Context, sessionID string) (*AuthorizeOutput, error) {
	ctx, span := s.startSpan(ctx, "Authorize")
	defer span.End()

	deny := &AuthorizeOutput{Decision: entity.DecisionDeny}
	if sessionID == "" {
		return deny, nil
	}

	sess, err := s.store.Get(ctx, sessionID)
	if errors.Is(err, goerror.ErrNotFound) {
		return deny, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to get session for authorization", "error", err)
		return nil, goerror.NewTransient(err, msgStoreUnavailable)
	}

	if !sess.IsAuthenticated {
		return deny, nil
	}

	return &AuthorizeOutput{
		Decision: entity.DecisionAllow,
		Identity: sess.Identity,
	}, nil
}
