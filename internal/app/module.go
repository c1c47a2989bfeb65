package app

import "github.com/shandysiswandi/otpgate/internal/auth"

func (a *App) initModules() {
	if err := auth.New(auth.Dependency{
		Ctx:        a.ctx,
		DBConn:     a.dbConn,
		CacheConn:  a.cacheConn,
		Goroutine:  a.goroutine,
		Router:     a.router,
		Mail:       a.mail,
		Config:     a.config,
		Instrument: a.ins,
		UUID:       a.uuid,
		SessionID:  a.sessionID,
		HMAC:       a.hmac,
		Clock:      a.clock,
		OTP:        a.otp,
		Validator:  a.validator,
	}); err != nil {
		fatal("failed to init module auth", "error", err)
	}
}
