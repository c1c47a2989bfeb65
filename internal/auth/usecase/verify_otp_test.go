package usecase

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/shandysiswandi/otpgate/internal/auth/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

func TestUsecase_VerifyOTP(t *testing.T) {
	ctx := context.Background()

	t.Run("CorrectCodeVerifiesAndRegenerates", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.issued("sid-old")
		f.clock.Advance(time.Minute)

		// Act
		out, err := f.uc.VerifyOTP(ctx, VerifyOTPInput{SessionID: "sid-old", Code: "123456"})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		if out.Status != entity.VerifyStatusVerified || out.Identity != "user@example.com" {
			t.Fatalf("unexpected output %+v", out)
		}
		if out.SessionID == "" || out.SessionID == "sid-old" {
			t.Fatalf("expected a new session id, got %q", out.SessionID)
		}
		if _, ok := f.store.peek("sid-old"); ok {
			t.Fatal("expected old session id removed")
		}
		sess, ok := f.store.peek(out.SessionID)
		if !ok {
			t.Fatal("expected regenerated session stored")
		}
		if !sess.IsAuthenticated || sess.Identity != "user@example.com" {
			t.Fatalf("unexpected regenerated session %+v", sess)
		}
		if sess.HasChallenge() || sess.OTPDigest != "" || !sess.OTPExpiry.IsZero() || sess.OTPAttempts != 0 {
			t.Fatalf("expected challenge cleared, got %+v", sess)
		}

		f.flush(t)
		if kinds := f.audit.kinds(); len(kinds) != 1 || kinds[0] != entity.EventOTPVerified {
			t.Fatalf("unexpected audit events %v", kinds)
		}
	})

	t.Run("ThreeWrongThenCorrect", func(t *testing.T) {
		f := newFixture(t)
		f.issued("sid-1")

		for i := 0; i < 3; i++ {
			out, err := f.uc.VerifyOTP(ctx, VerifyOTPInput{SessionID: "sid-1", Code: "000000"})
			if err != nil || out.Status != entity.VerifyStatusMismatch {
				t.Fatalf("attempt %d: expected mismatch, got %+v, %v", i+1, out, err)
			}
		}

		out, err := f.uc.VerifyOTP(ctx, VerifyOTPInput{SessionID: "sid-1", Code: "123456"})
		if err != nil || out.Status != entity.VerifyStatusVerified {
			t.Fatalf("expected verified, got %+v, %v", out, err)
		}
	})

	t.Run("SixthSubmissionExceedsEvenIfCorrect", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.issued("sid-1")

		for i := 0; i < 5; i++ {
			out, _ := f.uc.VerifyOTP(ctx, VerifyOTPInput{SessionID: "sid-1", Code: "999999"})
			if out.Status != entity.VerifyStatusMismatch {
				t.Fatalf("attempt %d: expected mismatch, got %s", i+1, out.Status)
			}
		}

		// Act
		out, err := f.uc.VerifyOTP(ctx, VerifyOTPInput{SessionID: "sid-1", Code: "123456"})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		if out.Status != entity.VerifyStatusAttemptsExceeded {
			t.Fatalf("expected attempts exceeded, got %s", out.Status)
		}
		if out.Message != "too many attempts, try again later" {
			t.Fatalf("unexpected message %q", out.Message)
		}
		if _, ok := f.store.peek("sid-1"); ok {
			t.Fatal("expected session destroyed")
		}
	})

	t.Run("ExpiredAfterSixMinutes", func(t *testing.T) {
		f := newFixture(t)
		f.issued("sid-1")
		f.clock.Advance(6 * time.Minute)

		out, err := f.uc.VerifyOTP(ctx, VerifyOTPInput{SessionID: "sid-1", Code: "123456"})

		if err != nil || out.Status != entity.VerifyStatusExpired {
			t.Fatalf("expected expired, got %+v, %v", out, err)
		}
		sess, ok := f.store.peek("sid-1")
		if !ok || sess.OTPAttempts != 1 || !sess.HasChallenge() {
			t.Fatalf("expected session kept with one attempt, got %+v (ok=%v)", sess, ok)
		}
	})

	t.Run("AcceptedAtExactExpiry", func(t *testing.T) {
		f := newFixture(t)
		f.issued("sid-1")
		f.clock.Advance(5 * time.Minute)

		out, err := f.uc.VerifyOTP(ctx, VerifyOTPInput{SessionID: "sid-1", Code: "123456"})

		if err != nil || out.Status != entity.VerifyStatusVerified {
			t.Fatalf("expected verified at the expiry instant, got %+v, %v", out, err)
		}
	})

	t.Run("NeverIssued", func(t *testing.T) {
		f := newFixture(t)
		f.store.put("sid-1", entity.Session{CreatedAt: testNow})

		out, err := f.uc.VerifyOTP(ctx, VerifyOTPInput{SessionID: "sid-1", Code: "123456"})

		if err != nil || out.Status != entity.VerifyStatusNoChallenge {
			t.Fatalf("expected no challenge, got %+v, %v", out, err)
		}
		sess, _ := f.store.peek("sid-1")
		if sess.OTPAttempts != 1 {
			t.Fatalf("expected the attempt to be counted, got %d", sess.OTPAttempts)
		}
	})

	t.Run("PartialChallengeIsNoChallenge", func(t *testing.T) {
		f := newFixture(t)
		f.store.put("sid-1", entity.Session{OTPDigest: sha256Hex("123456")})

		out, _ := f.uc.VerifyOTP(ctx, VerifyOTPInput{SessionID: "sid-1", Code: "123456"})

		if out.Status != entity.VerifyStatusNoChallenge {
			t.Fatalf("expected no challenge, got %s", out.Status)
		}
	})

	t.Run("UnknownOrMissingSession", func(t *testing.T) {
		f := newFixture(t)

		for _, id := range []string{"", "sid-unknown"} {
			out, err := f.uc.VerifyOTP(ctx, VerifyOTPInput{SessionID: id, Code: "123456"})
			if err != nil || out.Status != entity.VerifyStatusNoChallenge {
				t.Fatalf("id %q: expected no challenge, got %+v, %v", id, out, err)
			}
		}
		if f.store.creates != 0 {
			t.Fatal("expected nothing persisted")
		}
	})

	t.Run("StoreFailure", func(t *testing.T) {
		f := newFixture(t)
		f.issued("sid-1")
		f.store.updateErr = errStore

		_, err := f.uc.VerifyOTP(ctx, VerifyOTPInput{SessionID: "sid-1", Code: "123456"})

		var gerr *goerror.Error
		if !errors.As(err, &gerr) || gerr.Type() != goerror.TypeTransient || !gerr.Retryable() {
			t.Fatalf("expected retryable transient error, got %v", err)
		}
		if gerr.StatusCode() != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", gerr.StatusCode())
		}
		if !errors.Is(err, errStore) {
			t.Fatalf("expected wrapped store error, got %v", err)
		}
	})

	t.Run("RegenerationFailureKeepsChallenge", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.issued("sid-1")
		f.store.regenErr = errStore

		// Act
		out, err := f.uc.VerifyOTP(ctx, VerifyOTPInput{SessionID: "sid-1", Code: "123456"})

		// Assert
		if err != nil || out.Status != entity.VerifyStatusSystemError {
			t.Fatalf("expected system error outcome, got %+v, %v", out, err)
		}
		sess, ok := f.store.peek("sid-1")
		if !ok || !sess.HasChallenge() || sess.IsAuthenticated {
			t.Fatalf("expected old challenge still outstanding, got %+v", sess)
		}

		f.store.regenErr = nil
		out, err = f.uc.VerifyOTP(ctx, VerifyOTPInput{SessionID: "sid-1", Code: "123456"})
		if err != nil || out.Status != entity.VerifyStatusVerified {
			t.Fatalf("expected retry to verify, got %+v, %v", out, err)
		}
	})

	t.Run("ChallengeReplacedBetweenPhases", func(t *testing.T) {
		f := newFixture(t)
		f.issued("sid-1")
		f.store.beforeRegenerate = func(s *fakeStore) {
			_ = s.Update(ctx, "sid-1", func(sess *entity.Session) (entity.Mutation, error) {
				sess.IssueChallenge("user@example.com", sha256Hex("654321"), testNow.Add(5*time.Minute), testNow)
				return entity.MutationSave, nil
			})
		}

		out, err := f.uc.VerifyOTP(ctx, VerifyOTPInput{SessionID: "sid-1", Code: "123456"})

		if err != nil || out.Status != entity.VerifyStatusNoChallenge {
			t.Fatalf("expected no challenge, got %+v, %v", out, err)
		}
		sess, _ := f.store.peek("sid-1")
		if sess.IsAuthenticated || sess.OTPDigest != sha256Hex("654321") {
			t.Fatalf("expected newer challenge untouched, got %+v", sess)
		}
	})

	t.Run("DoubleSubmitHasOneWinner", func(t *testing.T) {
		f := newFixture(t)
		f.issued("sid-1")
		var second *VerifyOTPOutput
		f.store.beforeRegenerate = func(s *fakeStore) {
			s.beforeRegenerate = nil
			second, _ = f.uc.VerifyOTP(ctx, VerifyOTPInput{SessionID: "sid-1", Code: "123456"})
		}

		first, err := f.uc.VerifyOTP(ctx, VerifyOTPInput{SessionID: "sid-1", Code: "123456"})

		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		if second == nil || second.Status != entity.VerifyStatusVerified {
			t.Fatalf("expected the inner submission to win, got %+v", second)
		}
		if first.Status != entity.VerifyStatusNoChallenge {
			t.Fatalf("expected the outer submission to lose, got %s", first.Status)
		}
	})

	t.Run("IdentityPreservedThroughFailures", func(t *testing.T) {
		f := newFixture(t)
		f.issued("sid-1")

		out, _ := f.uc.VerifyOTP(ctx, VerifyOTPInput{SessionID: "sid-1", Code: "12"})

		if out.Status != entity.VerifyStatusMismatch || out.Identity != "user@example.com" {
			t.Fatalf("unexpected output %+v", out)
		}
	})
}
