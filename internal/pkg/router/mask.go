package router

import (
	"encoding/json"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/shandysiswandi/otpgate/internal/pkg/config"
)

const (
	maskedValue        = "***"
	maxLoggedBodyBytes = 32 * 1024
)

// alwaysMasked keys carry session ids or one-time codes and are masked
// regardless of config.
var alwaysMasked = []string{"cookie", "set-cookie", "authorization", "code", "otp"}

// maskSet holds lower-cased header and JSON keys whose values never reach the
// access log.
type maskSet map[string]struct{}

func newMaskSet(cfg config.Config) maskSet {
	m := make(maskSet, len(alwaysMasked))
	for _, key := range alwaysMasked {
		m[key] = struct{}{}
	}
	if cfg == nil {
		return m
	}
	for _, field := range cfg.GetArray("instrument.log_mask_fields") {
		if field = strings.ToLower(strings.TrimSpace(field)); field != "" {
			m[field] = struct{}{}
		}
	}
	return m
}

func (m maskSet) has(key string) bool {
	_, ok := m[strings.ToLower(key)]
	return ok
}

// headers returns a copy of h with masked values replaced.
func (m maskSet) headers(h http.Header) http.Header {
	out := h.Clone()
	for key := range out {
		if m.has(key) {
			out[key] = []string{maskedValue}
		}
	}
	return out
}

// json walks a decoded JSON value and replaces masked object members.
func (m maskSet) json(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			if m.has(k) {
				out[k] = maskedValue
				continue
			}
			out[k] = m.json(child)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = m.json(child)
		}
		return out
	default:
		return v
	}
}

// body renders a captured request or response body for the access log. Every
// otpgate endpoint speaks JSON, so anything else is logged as bounded text.
func (m maskSet) body(b []byte, truncated bool) any {
	if len(b) == 0 {
		return nil
	}

	var out any
	var decoded any
	switch {
	case json.Unmarshal(b, &decoded) == nil:
		out = m.json(decoded)
	case utf8.Valid(b):
		out = string(b)
	default:
		out = "<binary body omitted>"
	}

	if truncated {
		return map[string]any{"body": out, "truncated": true}
	}
	return out
}
