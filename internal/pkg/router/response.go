package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
)

const defaultSuccessMessage = "request has been successfully"

type errorResponse struct {
	Message string            `json:"message"`
	Error   map[string]string `json:"error,omitempty"`
}

type successResponse struct {
	Message string         `json:"message"`
	Data    any            `json:"data"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// Optional interfaces a handler payload may implement to shape its response.
type (
	statusCoder interface{ StatusCode() int }
	messenger   interface{ Message() string }
	metaer      interface{ Meta() map[string]any }
	cookieBaker interface{ Cookies() []*http.Cookie }
)

// writeError renders err. Only *goerror.Error messages reach the client;
// anything else becomes a generic 500.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		slog.ErrorContext(ctx, "unhandled error type", "error", err)
		WriteJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
		return
	}

	status := gerr.StatusCode()
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(ctx, "request failed", "type", gerr.Type(), "code", gerr.Code(), "error", err)
	}

	resp := errorResponse{Message: gerr.Msg(), Error: gerr.Fields()}
	var verr validator.V10ValidationError
	if errors.As(err, &verr) {
		resp.Error = verr.Values()
	}
	WriteJSON(w, resp, status)
}

// writeSuccess wraps resp in the standard envelope. A nil payload or a 204
// status writes no body.
func writeSuccess(w http.ResponseWriter, resp any) {
	if c, ok := resp.(cookieBaker); ok {
		for _, cookie := range c.Cookies() {
			http.SetCookie(w, cookie)
		}
	}

	status := http.StatusOK
	if sc, ok := resp.(statusCoder); ok {
		status = sc.StatusCode()
	}
	if resp == nil || status == http.StatusNoContent {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	body := successResponse{Message: defaultSuccessMessage, Data: resp}
	if m, ok := resp.(messenger); ok {
		body.Message = m.Message()
	}
	if m, ok := resp.(metaer); ok {
		body.Meta = m.Meta()
	}
	WriteJSON(w, body, status)
}

// WriteJSON encodes data before touching w, so an encoding failure still
// yields a clean 500.
func WriteJSON(w http.ResponseWriter, data any, code int) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		slog.Error("failed to encode response to json", "error", err)
		code = http.StatusInternalServerError
		buf.Reset()
		buf.WriteString(`{"message":"Internal server error"}` + "\n")
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	//nolint:errcheck // client went away
	w.Write(buf.Bytes())
}
