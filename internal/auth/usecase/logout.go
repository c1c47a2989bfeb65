package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/auth/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

type LogoutInput struct {
	SessionID string
}

// Logout destroys the session. Unknown ids are accepted silently.
func (s *Usecase) Logout(ctx context.Context, in LogoutInput) error {
	ctx, span := s.startSpan(ctx, "Logout")
	defer span.End()

	if in.SessionID == "" {
		return nil
	}

	identity := ""
	sess, err := s.store.Get(ctx, in.SessionID)
	switch {
	case errors.Is(err, goerror.ErrNotFound):
		return nil
	case err != nil:
		slog.ErrorContext(ctx, "failed to get session on logout", "error", err)
		return goerror.NewTransient(err, msgStoreUnavailable)
	default:
		identity = sess.Identity
	}

	if err := s.store.Destroy(ctx, in.SessionID); err != nil {
		slog.ErrorContext(ctx, "failed to destroy session on logout", "error", err)
		return goerror.NewTransient(err, msgStoreUnavailable)
	}

	s.record(ctx, in.SessionID, identity, entity.EventSessionLoggedOut, "")

	return nil
}
