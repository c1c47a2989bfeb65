package inbound

import (
	"context"
	"net/http"
	"time"

	"github.com/shandysiswandi/otpgate/internal/auth/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
)

// DefaultCookieName is the session cookie name used when none is configured.
const DefaultCookieName = "otpgate_session"

type uc interface {
	SendOTP(ctx context.Context, in usecase.SendOTPInput) (*usecase.SendOTPOutput, error)
	VerifyOTP(ctx context.Context, in usecase.VerifyOTPInput) (*usecase.VerifyOTPOutput, error)
	Authorize(ctx context.Context, sessionID string) (*usecase.AuthorizeOutput, error)
	Logout(ctx context.Context, in usecase.LogoutInput) error
	History(ctx context.Context, in usecase.HistoryInput) (*usecase.HistoryOutput, error)
}

// CookieConfig describes the session cookie handed to browsers.
type CookieConfig struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

func (c CookieConfig) withDefaults() CookieConfig {
	if c.Name == "" {
		c.Name = DefaultCookieName
	}
	return c
}

func RegisterHTTPEndpoint(r *router.Router, uc uc, cc CookieConfig) {
	cc = cc.withDefaults()
	end := &HTTPEndpoint{uc: uc, cookie: cc}
	guard := RequireSession(uc, cc.Name)

	r.POST("/api/v1/auth/otp/send", end.SendOTP)
	r.POST("/api/v1/auth/otp/verify", end.VerifyOTP)
	r.POST("/api/v1/auth/logout", end.Logout)

	// need authenticated
	r.GET("/api/v1/auth/session", end.Session, guard)
	r.GET("/api/v1/auth/session/events", end.SessionEvents, guard)
}

func (c CookieConfig) session(id string) *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    id,
		Path:     "/",
		MaxAge:   int(c.MaxAge / time.Second),
		Secure:   c.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func (c CookieConfig) expired() *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   c.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
