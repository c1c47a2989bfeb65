package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/auth/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

type VerifyOTPInput struct {
	SessionID string
	Code      string
}

type VerifyOTPOutput struct {
	Status   entity.VerifyStatus
	Identity string
	// SessionID is the regenerated id when Status is Verified.
	SessionID string
	Message   string
}

// VerifyOTP checks a submitted code against the session's challenge.
//
// Every submission counts as an attempt, including malformed codes and
// submissions with no outstanding challenge. On success the session moves to a
// new id in a second step that re-checks the challenge, so the old session
// stays usable if that step fails.
func (s *Usecase) VerifyOTP(ctx context.Context, in VerifyOTPInput) (*VerifyOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyOTP")
	defer span.End()

	if in.SessionID == "" {
		return s.verifyOutcome(ctx, in.SessionID, "", entity.VerifyStatusNoChallenge), nil
	}

	var (
		status   entity.VerifyStatus
		verified entity.Session
	)

	err := s.store.Update(ctx, in.SessionID, func(sess *entity.Session) (entity.Mutation, error) {
		now := s.clock.Now()
		sess.OTPAttempts++
		sess.UpdatedAt = now

		if sess.OTPAttempts > s.maxAttempts {
			status = entity.VerifyStatusAttemptsExceeded
			verified.Identity = sess.Identity
			return entity.MutationDestroy, nil
		}

		switch {
		case !sess.HasChallenge():
			status = entity.VerifyStatusNoChallenge
		case now.After(sess.OTPExpiry):
			status = entity.VerifyStatusExpired
		case !s.otp.Match(sess.OTPDigest, in.Code):
			status = entity.VerifyStatusMismatch
		default:
			status = entity.VerifyStatusVerified
		}

		verified = *sess
		return entity.MutationSave, nil
	})
	if errors.Is(err, goerror.ErrNotFound) {
		return s.verifyOutcome(ctx, in.SessionID, "", entity.VerifyStatusNoChallenge), nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to update session on otp verification", "error", err)
		s.countVerify(ctx, entity.VerifyStatusSystemError)
		return nil, goerror.NewTransient(err, msgStoreUnavailable)
	}

	if status != entity.VerifyStatusVerified {
		return s.verifyOutcome(ctx, in.SessionID, verified.Identity, status), nil
	}

	newID, err := s.store.Regenerate(ctx, in.SessionID, func(cur *entity.Session) (*entity.Session, error) {
		if !cur.SameChallenge(&verified) {
			return nil, entity.ErrChallengeChanged
		}
		return cur.Authenticated(s.clock.Now()), nil
	})
	if errors.Is(err, entity.ErrChallengeChanged) || errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "otp challenge consumed concurrently", "email", verified.Identity)
		return s.verifyOutcome(ctx, in.SessionID, verified.Identity, entity.VerifyStatusNoChallenge), nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to regenerate session after otp verification", "email", verified.Identity, "error", err)
		return s.verifyOutcome(ctx, in.SessionID, verified.Identity, entity.VerifyStatusSystemError), nil
	}

	out := s.verifyOutcome(ctx, newID, verified.Identity, entity.VerifyStatusVerified)
	out.SessionID = newID

	return out, nil
}

func (s *Usecase) verifyOutcome(ctx context.Context, sessionID, identity string, status entity.VerifyStatus) *VerifyOTPOutput {
	s.countVerify(ctx, status)

	switch status {
	case entity.VerifyStatusVerified:
		s.record(ctx, sessionID, identity, entity.EventOTPVerified, "")
	case entity.VerifyStatusAttemptsExceeded:
		slog.WarnContext(ctx, "otp attempts exceeded, session destroyed", "email", identity)
		s.record(ctx, sessionID, identity, entity.EventSessionDestroyed, status.String())
	case entity.VerifyStatusSystemError:
		s.record(ctx, sessionID, identity, entity.EventOTPRejected, status.String())
	default:
		if sessionID != "" {
			s.record(ctx, sessionID, identity, entity.EventOTPRejected, status.String())
		}
	}

	return &VerifyOTPOutput{
		Status:   status,
		Identity: identity,
		Message:  status.Message(),
	}
}
