// Package router adapts httprouter to handlers that return a payload or an
// error, and renders both into the JSON envelopes the API promises.
package router

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/gosignup/internal/pkg/config"
	"github.com/shandysiswandi/gosignup/internal/pkg/goerror"
	"github.com/shandysiswandi/gosignup/internal/pkg/instrument"
	"github.com/shandysiswandi/gosignup/internal/pkg/jwt"
	"github.com/shandysiswandi/gosignup/internal/pkg/session"
	"github.com/shandysiswandi/gosignup/internal/pkg/uid"
	"github.com/shandysiswandi/gosignup/internal/pkg/validator"
)

type errorResponse struct {
	Message string            `json:"message" example:"Validation error"`
	Error   map[string]string `json:"error,omitempty"`
}

type successResponse struct {
	Message string         `json:"message" example:"Verification codes sent"`
	Data    any            `json:"data" swaggertype:"object"`
	Meta    map[string]any `json:"meta,omitempty" swaggertype:"object"`
}

// Handler returns a payload rendered as the "data" of a success envelope,
// or an error rendered as an error envelope. A nil payload is a 204.
type Handler func(r *Request) (any, error)

// Config holds dependencies required to build a Router.
type Config struct {
	Config     config.Config
	UUID       uid.StringID
	JWT        jwt.JWT
	Instrument instrument.Instrumentation
	// Session attaches the session carrier to every request. Optional.
	Session *session.Manager
	// PublicEndpoints lists method -> route patterns served without authentication.
	PublicEndpoints map[string][]string
}

// Router is an http.Handler that wraps httprouter and a middleware chain.
type Router struct {
	hr  *httprouter.Router
	mws []Middleware
}

// NewRouter builds the application router with the standard middleware chain.
func NewRouter(cfg Config) *Router {
	hr := &httprouter.Router{
		RedirectTrailingSlash:  true,
		RedirectFixedPath:      true,
		HandleMethodNotAllowed: true,
		HandleOPTIONS:          true,
		SaveMatchedRoutePath:   true,
		NotFound:               staticJSON("endpoint not found", http.StatusNotFound),
		MethodNotAllowed:       staticJSON("method not allowed", http.StatusMethodNotAllowed),
	}
	hr.Handler(http.MethodGet, "/", staticJSON("Welcome to API GoSignup", http.StatusOK))
	hr.Handler(http.MethodGet, "/health", staticJSON("ok", http.StatusOK))

	var sessionMW Middleware
	if cfg.Session != nil {
		sessionMW = cfg.Session.Middleware
	}

	return &Router{
		hr: hr,
		mws: []Middleware{
			middlewareRecoverer,
			middlewareIP,
			middlewareCorrelationID(cfg.UUID),
			middlewareObservability(cfg.Config, cfg.Instrument),
			middlewareMaintenance(cfg.Config),
			sessionMW,
			middlewareAuthentication(cfg.JWT, cfg.Session, publicSet(cfg.PublicEndpoints)),
		},
	}
}

// publicSet indexes the public routes by method. The root and health
// routes are always public.
func publicSet(extra map[string][]string) map[string]map[string]struct{} {
	set := map[string]map[string]struct{}{
		http.MethodGet: {"/": {}, "/health": {}},
	}
	for method, paths := range extra {
		if set[method] == nil {
			set[method] = make(map[string]struct{}, len(paths))
		}
		for _, p := range paths {
			set[method][p] = struct{}{}
		}
	}
	return set
}

func staticJSON(msg string, code int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]string{"message": msg}, code)
	})
}

// GET registers a GET endpoint using the application Handler signature.
func (r *Router) GET(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodGet, path, h, mws...)
}

// POST registers a POST endpoint using the application Handler signature.
func (r *Router) POST(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodPost, path, h, mws...)
}

func (r *Router) endpoint(method, path string, h Handler, mws ...Middleware) {
	final := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		resp, err := h(&Request{Request: req})
		if err != nil {
			if rec, ok := w.(*responseRecorder); ok {
				rec.err = err
			}
			writeError(w, err)
			return
		}
		writeSuccess(w, resp)
	})

	chain := make([]Middleware, 0, len(r.mws)+len(mws))
	chain = append(chain, r.mws...)
	r.hr.Handler(method, path, Chain(final, append(chain, mws...)...))
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.hr.ServeHTTP(w, req)
}

// writeError renders err. Only *goerror.Error values reach the client with
// their own message; anything else is a bare 500.
func writeError(w http.ResponseWriter, err error) {
	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
		return
	}

	resp := errorResponse{Message: gerr.Msg(), Error: gerr.Fields()}

	var verr validator.V10ValidationError
	if errors.As(err, &verr) {
		resp.Error = verr.Values()
	}

	writeJSON(w, resp, gerr.StatusCode())
}

func writeSuccess(w http.ResponseWriter, resp any) {
	if resp == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	code := http.StatusOK
	if sc, ok := resp.(interface{ StatusCode() int }); ok {
		code = sc.StatusCode()
	}
	if code == http.StatusNoContent {
		w.WriteHeader(code)
		return
	}

	env := successResponse{Message: "request has been successfully", Data: resp}
	if m, ok := resp.(interface{ Message() string }); ok {
		env.Message = m.Message()
	}
	if m, ok := resp.(interface{ Meta() map[string]any }); ok {
		env.Meta = m.Meta()
	}

	writeJSON(w, env, code)
}

func writeJSON(w http.ResponseWriter, data any, code int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("router: failed to encode response", "error", err)
	}
}
