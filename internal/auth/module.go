package auth

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otpgate/internal/auth/inbound"
	"github.com/shandysiswandi/otpgate/internal/auth/outbound/db"
	"github.com/shandysiswandi/otpgate/internal/auth/outbound/email"
	"github.com/shandysiswandi/otpgate/internal/auth/outbound/session"
	"github.com/shandysiswandi/otpgate/internal/auth/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/mail"
	"github.com/shandysiswandi/otpgate/internal/pkg/otp"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
)

type Dependency struct {
	Ctx context.Context `validate:"required"`
	// DBConn enables the audit trail when set.
	DBConn *pgxpool.Pool
	// CacheConn is required by the redis session driver only.
	CacheConn  *redis.Client
	Goroutine  *goroutine.Manager         `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Mail       mail.Mail                  `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	SessionID  uid.StringID               `validate:"required"`
	HMAC       hash.Hash                  `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	OTP        otp.OTP                    `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	sessionTTL := dep.Config.GetHour("modules.auth.session_ttl_hours")
	if sessionTTL <= 0 {
		sessionTTL = session.DefaultTTL
	}

	store, err := session.New(session.Config{
		Driver: dep.Config.GetString("session.driver"),
		TTL:    sessionTTL,
		Prefix: dep.Config.GetString("session.redis.prefix"),
	}, session.Dependency{
		Redis:      dep.CacheConn,
		IDs:        dep.SessionID,
		HMAC:       dep.HMAC,
		Clock:      dep.Clock,
		Instrument: dep.Instrument,
	})
	if err != nil {
		return err
	}

	if dep.DBConn != nil {
		if err := db.NewDB(dep.DBConn, dep.Instrument).EnsureSchema(dep.Ctx); err != nil {
			return err
		}
	}

	uc := usecase.New(usecase.Dependency{
		Store:      store,
		Sender:     email.NewEmail(dep.Mail, dep.Instrument),
		Audit:      db.NewRecorder(dep.DBConn, dep.Instrument),
		Validator:  dep.Validator,
		Config:     dep.Config,
		OTP:        dep.OTP,
		HMAC:       dep.HMAC,
		UUID:       dep.UUID,
		Clock:      dep.Clock,
		Instrument: dep.Instrument,
		Goroutine:  dep.Goroutine,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc, inbound.CookieConfig{
		Name:   dep.Config.GetString("modules.auth.cookie.name"),
		Secure: dep.Config.GetBool("modules.auth.cookie.secure"),
		MaxAge: sessionTTL,
	})

	return nil
}
