package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shandysiswandi/otpgate/internal/auth/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

const otpMailSubject = "your OTP for login"

type SendOTPInput struct {
	// SessionID is the caller's current session id, empty when it has none.
	SessionID string
	Email     string `validate:"required,email"`
}

type SendOTPOutput struct {
	Status    entity.IssueStatus
	Identity  string
	SessionID string
	ExpiresAt time.Time
}

// SendOTP starts a challenge for the claimed email and mails the code to it.
//
// The challenge is written before the mail is sent. When sending fails the
// challenge is withdrawn again, unless a newer issuance has replaced it.
func (s *Usecase) SendOTP(ctx context.Context, in SendOTPInput) (*SendOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "SendOTP")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	code, err := s.otp.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate otp", "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	expiry := now.Add(s.otpTTL)

	sessionID, err := s.writeChallenge(ctx, in.SessionID, in.Email, code.Digest, expiry, now)
	if err != nil {
		slog.ErrorContext(ctx, "failed to store otp challenge", "email", in.Email, "error", err)
		return nil, goerror.NewTransient(err, msgStoreUnavailable)
	}

	body := fmt.Sprintf("your OTP is %s, this will expire after %d minutes!", code.String(), int(s.otpTTL/time.Minute))
	if err := s.sender.Send(ctx, in.Email, otpMailSubject, body); err != nil {
		slog.ErrorContext(ctx, "failed to send otp email", "email", in.Email, "error", err)
		s.withdrawChallenge(ctx, sessionID, code.Digest)
		s.countSend(ctx, entity.IssueStatusError)
		s.record(ctx, sessionID, in.Email, entity.EventOTPIssueFailed, err.Error())

		return &SendOTPOutput{
			Status:    entity.IssueStatusError,
			Identity:  in.Email,
			SessionID: sessionID,
		}, nil
	}

	s.countSend(ctx, entity.IssueStatusIssued)
	s.record(ctx, sessionID, in.Email, entity.EventOTPIssued, "")

	return &SendOTPOutput{
		Status:    entity.IssueStatusIssued,
		Identity:  in.Email,
		SessionID: sessionID,
		ExpiresAt: expiry,
	}, nil
}

func (s *Usecase) writeChallenge(ctx context.Context, sessionID, email, digest string, expiry, now time.Time) (string, error) {
	if sessionID != "" {
		err := s.store.Update(ctx, sessionID, func(sess *entity.Session) (entity.Mutation, error) {
			sess.IssueChallenge(email, digest, expiry, now)
			return entity.MutationSave, nil
		})
		if err == nil {
			return sessionID, nil
		}
		if !errors.Is(err, goerror.ErrNotFound) {
			return "", err
		}
	}

	var sess entity.Session
	sess.IssueChallenge(email, digest, expiry, now)

	return s.store.Create(ctx, sess)
}

// withdrawChallenge clears the challenge only while it is still the one with
// digest, so a concurrent re-issuance is never undone.
func (s *Usecase) withdrawChallenge(ctx context.Context, sessionID, digest string) {
	err := s.store.Update(ctx, sessionID, func(sess *entity.Session) (entity.Mutation, error) {
		if sess.OTPDigest != digest {
			return entity.MutationNone, nil
		}
		sess.ClearChallenge()
		sess.UpdatedAt = s.clock.Now()
		return entity.MutationSave, nil
	})
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to withdraw otp challenge after send failure", "error", err)
	}
}
