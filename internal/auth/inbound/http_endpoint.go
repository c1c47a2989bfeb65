package inbound

import (
	"net/http"

	"github.com/shandysiswandi/otpgate/internal/auth/entity"
	"github.com/shandysiswandi/otpgate/internal/auth/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
)

// HTTPEndpoint exposes the OTP login flow over HTTP.
type HTTPEndpoint struct {
	uc     uc
	cookie CookieConfig
}

// SendOTP issues a challenge for the posted email. The session cookie is set
// whether or not the mail went out, since the session itself was created.
func (h *HTTPEndpoint) SendOTP(r *router.Request) (any, error) {
	var req SendOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.SendOTP(r.Context(), usecase.SendOTPInput{
		SessionID: r.GetCookie(h.cookie.Name),
		Email:     req.Email,
	})
	if err != nil {
		return nil, err
	}

	resp := SendOTPResponse{
		Status:  out.Status.String(),
		Email:   out.Identity,
		cookies: []*http.Cookie{h.cookie.session(out.SessionID)},
	}

	if out.Status != entity.IssueStatusIssued {
		resp.code = http.StatusBadGateway
		resp.msg = "failed to send otp, please try again"
		return resp, nil
	}

	resp.code = http.StatusOK
	resp.msg = "otp has been sent to your email"
	resp.ExpiresAt = &out.ExpiresAt

	return resp, nil
}

// VerifyOTP checks the posted code against the caller's session.
func (h *HTTPEndpoint) VerifyOTP(r *router.Request) (any, error) {
	var req VerifyOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.VerifyOTP(r.Context(), usecase.VerifyOTPInput{
		SessionID: r.GetCookie(h.cookie.Name),
		Code:      string(req.Code),
	})
	if err != nil {
		return nil, err
	}

	resp := VerifyOTPResponse{
		Status: out.Status.String(),
		Email:  out.Identity,
		code:   verifyStatusCode(out.Status),
		msg:    out.Message,
	}

	switch out.Status {
	case entity.VerifyStatusVerified:
		resp.cookies = []*http.Cookie{h.cookie.session(out.SessionID)}
	case entity.VerifyStatusAttemptsExceeded:
		resp.cookies = []*http.Cookie{h.cookie.expired()}
	}

	return resp, nil
}

func verifyStatusCode(s entity.VerifyStatus) int {
	switch s {
	case entity.VerifyStatusVerified:
		return http.StatusOK
	case entity.VerifyStatusMismatch:
		return http.StatusUnauthorized
	case entity.VerifyStatusExpired:
		return http.StatusGone
	case entity.VerifyStatusNoChallenge:
		return http.StatusConflict
	case entity.VerifyStatusAttemptsExceeded:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func (h *HTTPEndpoint) Logout(r *router.Request) (any, error) {
	if err := h.uc.Logout(r.Context(), usecase.LogoutInput{
		SessionID: r.GetCookie(h.cookie.Name),
	}); err != nil {
		return nil, err
	}

	return LogoutResponse{cookies: []*http.Cookie{h.cookie.expired()}}, nil
}

// Session reports who is logged in. It sits behind RequireSession.
func (h *HTTPEndpoint) Session(r *router.Request) (any, error) {
	email, ok := IdentityFrom(r.Context())
	if !ok {
		return nil, goerror.NewBusiness("login required", goerror.CodeUnauthorized)
	}

	return SessionResponse{Email: email, Authenticated: true}, nil
}

// SessionEvents lists the caller's recent login activity.
func (h *HTTPEndpoint) SessionEvents(r *router.Request) (any, error) {
	email, ok := IdentityFrom(r.Context())
	if !ok {
		return nil, goerror.NewBusiness("login required", goerror.CodeUnauthorized)
	}

	limit, err := r.GetQueryInt("limit")
	if err != nil {
		return nil, err
	}

	out, err := h.uc.History(r.Context(), usecase.HistoryInput{Identity: email, Limit: limit})
	if err != nil {
		return nil, err
	}

	events := make([]SessionEvent, 0, len(out.Events))
	for _, ev := range out.Events {
		events = append(events, SessionEvent{
			Kind:      ev.Kind,
			Detail:    ev.Detail,
			CreatedAt: ev.CreatedAt,
		})
	}

	return SessionEventsResponse{Events: events}, nil
}
