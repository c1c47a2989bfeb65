package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/otpgate/internal/auth/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/otp"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultOTPTTL      = 5 * time.Minute
	defaultMaxAttempts = 5

	msgStoreUnavailable = "session store unavailable, please try again"
)

// sessionStore holds session state keyed by an opaque, server-minted id.
// Every method that mutates a session runs as one critical section per id.
type sessionStore interface {
	// Get returns goerror.ErrNotFound for unknown or expired ids.
	Get(ctx context.Context, id string) (*entity.Session, error)
	// Create stores sess under a new id and returns it.
	Create(ctx context.Context, sess entity.Session) (string, error)
	// Update loads the session, lets fn mutate it and applies the returned
	// Mutation atomically. Unknown ids return goerror.ErrNotFound without
	// calling fn. An error from fn aborts the update and is returned as is.
	Update(ctx context.Context, id string, fn func(sess *entity.Session) (entity.Mutation, error)) error
	// Regenerate moves the session at oldID to a new id. fn receives the
	// current session and returns its successor; an error from fn aborts the
	// move with both ids unchanged. On success the old id no longer exists.
	Regenerate(ctx context.Context, oldID string, fn func(cur *entity.Session) (*entity.Session, error)) (string, error)
	// Destroy deletes the session; unknown ids are not an error.
	Destroy(ctx context.Context, id string) error
}

type sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type auditRecorder interface {
	Record(ctx context.Context, ev entity.AuthEvent) error
	ListByEmail(ctx context.Context, email string, limit int) ([]entity.AuthEvent, error)
}

type Usecase struct {
	store     sessionStore
	sender    sender
	audit     auditRecorder
	validator validator.Validator
	otp       otp.OTP
	hmac      hash.Hash
	uuid      uid.StringID
	clock     clock.Clocker
	ins       instrument.Instrumentation
	goroutine *goroutine.Manager

	otpTTL      time.Duration
	maxAttempts int

	sendCounter   metric.Int64Counter
	verifyCounter metric.Int64Counter
}

type Dependency struct {
	Store      sessionStore
	Sender     sender
	Audit      auditRecorder
	Validator  validator.Validator
	Config     config.Config
	OTP        otp.OTP
	HMAC       hash.Hash
	UUID       uid.StringID
	Clock      clock.Clocker
	Instrument instrument.Instrumentation
	Goroutine  *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	uc := &Usecase{
		store:       dep.Store,
		sender:      dep.Sender,
		audit:       dep.Audit,
		validator:   dep.Validator,
		otp:         dep.OTP,
		hmac:        dep.HMAC,
		uuid:        dep.UUID,
		clock:       dep.Clock,
		ins:         dep.Instrument,
		goroutine:   dep.Goroutine,
		otpTTL:      defaultOTPTTL,
		maxAttempts: defaultMaxAttempts,
	}

	if dep.Config != nil {
		if ttl := dep.Config.GetMinute("modules.auth.otp_ttl_minutes"); ttl > 0 {
			uc.otpTTL = ttl
		}
		if n := dep.Config.GetInt("modules.auth.max_attempts"); n > 0 {
			uc.maxAttempts = n
		}
	}

	meter := dep.Instrument.Meter("auth.usecase")

	var err error
	uc.sendCounter, err = meter.Int64Counter("auth.otp.send.outcomes", metric.WithDescription("OTP issuance outcomes"))
	if err != nil {
		slog.Error("failed to create otp send counter", "error", err)
	}

	uc.verifyCounter, err = meter.Int64Counter("auth.otp.verify.outcomes", metric.WithDescription("OTP verification outcomes"))
	if err != nil {
		slog.Error("failed to create otp verify counter", "error", err)
	}

	return uc
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("auth.usecase").Start(ctx, name)
}

func (s *Usecase) countSend(ctx context.Context, status entity.IssueStatus) {
	if s.sendCounter != nil {
		s.sendCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status.String())))
	}
}

func (s *Usecase) countVerify(ctx context.Context, status entity.VerifyStatus) {
	if s.verifyCounter != nil {
		s.verifyCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status.String())))
	}
}

// record writes an audit event in the background. The request context is
// detached so the write survives the response.
func (s *Usecase) record(ctx context.Context, sessionID, email string, kind entity.EventKind, detail string) {
	if s.audit == nil {
		return
	}

	sessionHash := ""
	if sessionID != "" {
		h, err := s.hmac.Hash(sessionID)
		if err != nil {
			slog.ErrorContext(ctx, "failed to hash session id for audit", "error", err)
			return
		}
		sessionHash = string(h)
	}

	ev := entity.AuthEvent{
		ID:          s.uuid.Generate(),
		SessionHash: sessionHash,
		Email:       email,
		Kind:        kind,
		Detail:      detail,
		CreatedAt:   s.clock.Now(),
	}

	s.goroutine.Go(context.WithoutCancel(ctx), "auth.audit."+string(kind), func(ctx context.Context) error {
		return s.audit.Record(ctx, ev)
	})
}
