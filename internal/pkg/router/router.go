package router

import (
	"net/http"
	"slices"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
)

// Handler serves one endpoint. The returned payload is wrapped in the JSON
// success envelope and may implement StatusCode() int, Message() string,
// Meta() map[string]any or Cookies() []*http.Cookie. A returned error is
// rendered from its goerror classification.
type Handler func(r *Request) (any, error)

// Config holds what NewRouter needs.
type Config struct {
	Config     config.Config
	UUID       uid.StringID // correlation ids
	Instrument instrument.Instrumentation
}

// Router wraps httprouter with a global middleware chain.
type Router struct {
	hr  *httprouter.Router
	mws []Middleware
}

func jsonStatus(msg string, code int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, map[string]string{"message": msg}, code)
	})
}

// NewRouter returns a router with the liveness routes registered and the
// global chain: recover, client ip, correlation id, observability and
// maintenance, outermost first.
func NewRouter(cfg Config) *Router {
	hr := httprouter.New()
	hr.SaveMatchedRoutePath = true
	hr.NotFound = jsonStatus("endpoint not found", http.StatusNotFound)
	hr.MethodNotAllowed = jsonStatus("method not allowed", http.StatusMethodNotAllowed)

	hr.Handler(http.MethodGet, "/", jsonStatus("Welcome to API OTPGate", http.StatusOK))
	hr.Handler(http.MethodGet, "/health", jsonStatus("ok", http.StatusOK))

	return &Router{
		hr: hr,
		mws: []Middleware{
			middlewareRecoverer,
			middlewareIP(cfg.Config),
			middlewareCorrelationID(cfg.UUID),
			middlewareObservability(cfg.Config, cfg.Instrument),
			middlewareMaintenance(cfg.Config),
		},
	}
}

// GET registers h for GET path behind the global chain and then mws.
func (r *Router) GET(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodGet, path, h, mws)
}

// POST registers h for POST path behind the global chain and then mws.
func (r *Router) POST(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodPost, path, h, mws)
}

func (r *Router) endpoint(method, path string, h Handler, mws []Middleware) {
	final := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		resp, err := h(&Request{Request: req})
		if err != nil {
			if rec, ok := w.(interface{ SetError(error) }); ok {
				rec.SetError(err)
			}
			writeError(req.Context(), w, err)
			return
		}
		writeSuccess(w, resp)
	})

	r.hr.Handler(method, path, Chain(final, slices.Concat(r.mws, mws)...))
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.hr.ServeHTTP(w, req)
}
