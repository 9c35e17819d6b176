// Package server exposes the extraction pipeline and the remote inference
// contract over HTTP.
package server

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/zombor/receipt-extract/internal/pipeline"
	"github.com/zombor/receipt-extract/internal/receipt"
	"github.com/zombor/receipt-extract/internal/scanning"
)

// Extractor runs the extraction pipeline for one image
type Extractor interface {
	Extract(ctx context.Context, img receipt.Image) pipeline.Result
}

// Server handles HTTP requests for receipt extraction
type Server struct {
	extractor  Extractor
	backend    scanning.Scanner
	basicAuth  BasicAuth
	gatewayKey string
	mux        *http.ServeMux
	logger     *slog.Logger
}

// BasicAuth holds basic authentication credentials
type BasicAuth struct {
	Username string
	Password string
}

// Options configures the optional parts of a Server
type Options struct {
	// Backend serves /v1/receipt-extract. Without one the route answers 500.
	Backend scanning.Scanner
	// BasicAuth protects /api/extract when set
	BasicAuth BasicAuth
	// GatewayKey is the bearer token required on /v1/receipt-extract when set
	GatewayKey string
	Logger     *slog.Logger
}

// NewServer creates a new Server with default mux
func NewServer(extractor Extractor, opts Options) *Server {
	return NewServerWithMux(extractor, opts, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(extractor Extractor, opts Options, mux *http.ServeMux) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		extractor:  extractor,
		backend:    opts.Backend,
		basicAuth:  opts.BasicAuth,
		gatewayKey: opts.GatewayKey,
		mux:        mux,
		logger:     logger,
	}
	s.registerRoutes()
	return s
}

// authenticate checks basic auth credentials. No credentials configured
// means the route is open.
func (s *Server) authenticate(r *http.Request) bool {
	if s.basicAuth.Username == "" && s.basicAuth.Password == "" {
		return true
	}
	user, pass, ok := r.BasicAuth()
	if !ok {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(s.basicAuth.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(s.basicAuth.Password)) == 1
	return userOK && passOK
}

// authorizeGateway checks the bearer token on the inference contract
func (s *Server) authorizeGateway(r *http.Request) bool {
	if s.gatewayKey == "" {
		return true
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.gatewayKey)) == 1
}

// corsMiddleware adds CORS headers to responses
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)

		// Handle preflight OPTIONS requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requireAuth middleware
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authenticate(r) {
			w.Header().Set("WWW-Authenticate", `Basic realm="Receipt Extract"`)
			writeError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// requireGatewayKey middleware
func (s *Server) requireGatewayKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authorizeGateway(r) {
			writeError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// registerRoutes registers all routes on the server's mux
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /api/extract", s.requireAuth(s.handleExtract))
	s.mux.HandleFunc("POST /v1/receipt-extract", s.requireGatewayKey(s.handleReceiptExtract))
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting server", "address", addr)
	return http.ListenAndServe(addr, s)
}

// ServeHTTP implements http.Handler. CORS wraps the mux so preflight requests
// are answered for every route.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.corsMiddleware(s.mux).ServeHTTP(w, r)
}
