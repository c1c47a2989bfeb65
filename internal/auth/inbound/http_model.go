package inbound

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"
)

type SendOTPRequest struct {
	Email string `json:"email"`
}

type SendOTPResponse struct {
	Status    string     `json:"status"`
	Email     string     `json:"email"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	code    int
	msg     string
	cookies []*http.Cookie
}

func (r SendOTPResponse) StatusCode() int         { return r.code }
func (r SendOTPResponse) Message() string         { return r.msg }
func (r SendOTPResponse) Cookies() []*http.Cookie { return r.cookies }

type VerifyOTPRequest struct {
	Code OTPCode `json:"code"`
}

// OTPCode accepts the code as a JSON string or number. Any other JSON value is
// kept as its raw text so it still reaches VerifyOTP and counts as an attempt.
type OTPCode string

func (c *OTPCode) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*c = OTPCode(s)
		return nil
	}
	*c = OTPCode(bytes.TrimSpace(b))
	return nil
}

type VerifyOTPResponse struct {
	Status string `json:"status"`
	Email  string `json:"email,omitempty"`

	code    int
	msg     string
	cookies []*http.Cookie
}

func (r VerifyOTPResponse) StatusCode() int         { return r.code }
func (r VerifyOTPResponse) Message() string         { return r.msg }
func (r VerifyOTPResponse) Cookies() []*http.Cookie { return r.cookies }

type LogoutResponse struct {
	cookies []*http.Cookie
}

func (LogoutResponse) Message() string           { return "logged out" }
func (r LogoutResponse) Cookies() []*http.Cookie { return r.cookies }

type SessionResponse struct {
	Email         string `json:"email"`
	Authenticated bool   `json:"authenticated"`
}

type SessionEvent struct {
	Kind      string    `json:"kind"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type SessionEventsResponse struct {
	Events []SessionEvent `json:"events"`
}

func (r SessionEventsResponse) Meta() map[string]any {
	return map[string]any{"count": len(r.Events)}
}
