package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

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

var codePattern = regexp.MustCompile(`your OTP is (\d{6})`)

type inbox struct {
	mu   sync.Mutex
	msgs []mail.Message
}

func (b *inbox) Send(_ context.Context, msg mail.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, msg)
	return nil
}

func (b *inbox) Close() error { return nil }

func (b *inbox) lastCode(t *testing.T) string {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.msgs) == 0 {
		t.Fatal("no mail sent")
	}
	m := codePattern.FindStringSubmatch(b.msgs[len(b.msgs)-1].TextBody)
	if m == nil {
		t.Fatalf("no code in mail body %q", b.msgs[len(b.msgs)-1].TextBody)
	}
	return m[1]
}

type harness struct {
	srv   *httptest.Server
	inbox *inbox
	clock *clock.Fake
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(`
modules:
  auth:
    otp_ttl_minutes: 5
    max_attempts: 5
    cookie:
      name: sid
`))
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}

	ins := instrument.NewNoop()
	r := router.NewRouter(router.Config{Config: cfg, UUID: uid.NewUUID(), Instrument: ins})
	h := &harness{
		inbox: &inbox{},
		clock: clock.NewFake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)),
	}

	gm := goroutine.NewManager(8)
	t.Cleanup(func() { _ = gm.Wait() })

	if err := New(Dependency{
		Ctx:        context.Background(),
		Goroutine:  gm,
		Router:     r,
		Mail:       h.inbox,
		Config:     cfg,
		Instrument: ins,
		UUID:       uid.NewUUID(),
		SessionID:  uid.NewToken(uid.DefaultTokenBytes),
		HMAC:       hash.NewHMACSHA256("test-secret"),
		Clock:      h.clock,
		OTP:        otp.NewGenerator(),
		Validator:  v,
	}); err != nil {
		t.Fatalf("auth.New: %v", err)
	}

	h.srv = httptest.NewServer(r)
	t.Cleanup(h.srv.Close)

	return h
}

func (h *harness) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &http.Client{Jar: jar, Timeout: 5 * time.Second}
}

func (h *harness) do(t *testing.T, c *http.Client, method, path, body string) (int, map[string]any) {
	t.Helper()

	req, err := http.NewRequest(method, h.srv.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	var env map[string]any
	if resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			t.Fatalf("decode body: %v", err)
		}
	}

	return resp.StatusCode, env
}

func (h *harness) sid(c *http.Client) string {
	u, _ := http.NewRequest(http.MethodGet, h.srv.URL, nil)
	for _, ck := range c.Jar.Cookies(u.URL) {
		if ck.Name == "sid" {
			return ck.Value
		}
	}
	return ""
}

func wrongCode(code string) string {
	if code == "111111" {
		return "222222"
	}
	return "111111"
}

func TestLoginFlow(t *testing.T) {
	t.Run("LoginSessionLogout", func(t *testing.T) {
		// Arrange
		h := newHarness(t)
		c := h.client(t)

		// Act & Assert
		if status, _ := h.do(t, c, http.MethodGet, "/api/v1/auth/session", ""); status != http.StatusUnauthorized {
			t.Fatalf("expected 401 before login, got %d", status)
		}

		if status, _ := h.do(t, c, http.MethodPost, "/api/v1/auth/otp/send", `{"email":"user@example.com"}`); status != http.StatusOK {
			t.Fatalf("expected 200 on send, got %d", status)
		}
		pendingSID := h.sid(c)
		if pendingSID == "" {
			t.Fatal("expected a session cookie after send")
		}

		code := h.inbox.lastCode(t)
		if status, _ := h.do(t, c, http.MethodPost, "/api/v1/auth/otp/verify", `{"code":"`+wrongCode(code)+`"}`); status != http.StatusUnauthorized {
			t.Fatalf("expected 401 on mismatch, got %d", status)
		}

		if status, _ := h.do(t, c, http.MethodPost, "/api/v1/auth/otp/verify", `{"code":"`+code+`"}`); status != http.StatusOK {
			t.Fatalf("expected 200 on verify, got %d", status)
		}
		if sid := h.sid(c); sid == "" || sid == pendingSID {
			t.Fatalf("expected regenerated session id, got %q (was %q)", sid, pendingSID)
		}

		status, env := h.do(t, c, http.MethodGet, "/api/v1/auth/session", "")
		if status != http.StatusOK {
			t.Fatalf("expected 200 after login, got %d", status)
		}
		data, _ := env["data"].(map[string]any)
		if data["email"] != "user@example.com" {
			t.Fatalf("unexpected session data %v", data)
		}

		if status, _ := h.do(t, c, http.MethodPost, "/api/v1/auth/logout", ""); status != http.StatusOK {
			t.Fatalf("expected 200 on logout, got %d", status)
		}
		if status, _ := h.do(t, c, http.MethodGet, "/api/v1/auth/session", ""); status != http.StatusUnauthorized {
			t.Fatalf("expected 401 after logout, got %d", status)
		}
	})

	t.Run("OldSessionIDIsRejectedAfterLogin", func(t *testing.T) {
		h := newHarness(t)
		c := h.client(t)

		h.do(t, c, http.MethodPost, "/api/v1/auth/otp/send", `{"email":"user@example.com"}`)
		oldSID := h.sid(c)
		h.do(t, c, http.MethodPost, "/api/v1/auth/otp/verify", `{"code":"`+h.inbox.lastCode(t)+`"}`)

		req, _ := http.NewRequest(http.MethodGet, h.srv.URL+"/api/v1/auth/session", nil)
		req.AddCookie(&http.Cookie{Name: "sid", Value: oldSID})
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("do request: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401 for the pre-login session id, got %d", resp.StatusCode)
		}
	})

	t.Run("ExpiredCode", func(t *testing.T) {
		h := newHarness(t)
		c := h.client(t)

		h.do(t, c, http.MethodPost, "/api/v1/auth/otp/send", `{"email":"user@example.com"}`)
		code := h.inbox.lastCode(t)
		h.clock.Advance(6 * time.Minute)

		if status, _ := h.do(t, c, http.MethodPost, "/api/v1/auth/otp/verify", `{"code":"`+code+`"}`); status != http.StatusGone {
			t.Fatalf("expected 410 for expired code, got %d", status)
		}
	})

	t.Run("AttemptsExceededDestroysSession", func(t *testing.T) {
		h := newHarness(t)
		c := h.client(t)

		h.do(t, c, http.MethodPost, "/api/v1/auth/otp/send", `{"email":"user@example.com"}`)
		code := h.inbox.lastCode(t)

		for i := range 5 {
			if status, _ := h.do(t, c, http.MethodPost, "/api/v1/auth/otp/verify", `{"code":"`+wrongCode(code)+`"}`); status != http.StatusUnauthorized {
				t.Fatalf("attempt %d: expected 401, got %d", i+1, status)
			}
		}

		if status, _ := h.do(t, c, http.MethodPost, "/api/v1/auth/otp/verify", `{"code":"`+code+`"}`); status != http.StatusTooManyRequests {
			t.Fatalf("expected 429 on the sixth attempt, got %d", status)
		}
		if sid := h.sid(c); sid != "" {
			t.Fatalf("expected cookie cleared, still have %q", sid)
		}
		if status, _ := h.do(t, c, http.MethodPost, "/api/v1/auth/otp/verify", `{"code":"`+code+`"}`); status != http.StatusConflict {
			t.Fatalf("expected 409 once the session is gone, got %d", status)
		}
	})

	t.Run("NumericCodesCountAsAttempts", func(t *testing.T) {
		h := newHarness(t)
		c := h.client(t)

		h.do(t, c, http.MethodPost, "/api/v1/auth/otp/send", `{"email":"user@example.com"}`)
		code := h.inbox.lastCode(t)

		for i := range 5 {
			if status, _ := h.do(t, c, http.MethodPost, "/api/v1/auth/otp/verify", `{"code":`+wrongCode(code)+`}`); status != http.StatusUnauthorized {
				t.Fatalf("attempt %d: expected 401 for a numeric code, got %d", i+1, status)
			}
		}

		if status, _ := h.do(t, c, http.MethodPost, "/api/v1/auth/otp/verify", `{"code":"`+code+`"}`); status != http.StatusTooManyRequests {
			t.Fatalf("expected 429 on the sixth attempt, got %d", status)
		}
	})

	t.Run("NumericCorrectCodeVerifies", func(t *testing.T) {
		h := newHarness(t)
		c := h.client(t)

		h.do(t, c, http.MethodPost, "/api/v1/auth/otp/send", `{"email":"user@example.com"}`)
		code := h.inbox.lastCode(t)
		if strings.HasPrefix(code, "0") {
			t.Skip("a code with a leading zero has no JSON number form")
		}

		if status, _ := h.do(t, c, http.MethodPost, "/api/v1/auth/otp/verify", `{"code":`+code+`}`); status != http.StatusOK {
			t.Fatalf("expected 200 for the numeric code, got %d", status)
		}
	})

	t.Run("MalformedCodeCountsAsAttempt", func(t *testing.T) {
		h := newHarness(t)
		c := h.client(t)

		h.do(t, c, http.MethodPost, "/api/v1/auth/otp/send", `{"email":"user@example.com"}`)
		code := h.inbox.lastCode(t)

		for i, body := range []string{`{"code":null}`, `{"code":true}`, `{"code":[1]}`, `{"code":{"v":1}}`, `{}`} {
			if status, _ := h.do(t, c, http.MethodPost, "/api/v1/auth/otp/verify", body); status != http.StatusUnauthorized {
				t.Fatalf("attempt %d %s: expected 401, got %d", i+1, body, status)
			}
		}

		if status, _ := h.do(t, c, http.MethodPost, "/api/v1/auth/otp/verify", `{"code":"`+code+`"}`); status != http.StatusTooManyRequests {
			t.Fatalf("expected 429 on the sixth attempt, got %d", status)
		}
	})

	t.Run("VerifyWithoutChallenge", func(t *testing.T) {
		h := newHarness(t)
		c := h.client(t)

		if status, _ := h.do(t, c, http.MethodPost, "/api/v1/auth/otp/verify", `{"code":"123456"}`); status != http.StatusConflict {
			t.Fatalf("expected 409, got %d", status)
		}
	})
}

func TestNew_InvalidDependency(t *testing.T) {
	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}

	if err := New(Dependency{Validator: v}); err == nil {
		t.Fatal("expected validation error for missing dependencies")
	}
}
