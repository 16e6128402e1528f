package server

import (
	"net"
	"net/http"

	"casaya/internal/app"
	"casaya/internal/ratelimit"
	"casaya/internal/util"
)

// Config wires required dependencies for the HTTP server. AuthLimiter is
// optional; when nil the credential endpoints are not throttled.
type Config struct {
	App            *app.App
	AuthLimiter    *ratelimit.FixedWindowLimiter
	MaxUploadBytes int64
}

// Server exposes the HTTP endpoints of the listing API.
type Server struct {
	app            *app.App
	authLimiter    *ratelimit.FixedWindowLimiter
	mux            *http.ServeMux
	maxUploadBytes int64
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	maxUploadBytes := cfg.MaxUploadBytes
	if maxUploadBytes <= 0 {
		maxUploadBytes = 50 * 1024 * 1024
	}
	s := &Server{
		app:            cfg.App,
		authLimiter:    cfg.AuthLimiter,
		mux:            http.NewServeMux(),
		maxUploadBytes: maxUploadBytes,
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog("casaya", util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	s.mux.HandleFunc("/auth/registro", s.withAuthLimit(s.handleRegister))
	s.mux.HandleFunc("/auth/login", s.withAuthLimit(s.handleLogin))
	s.mux.HandleFunc("/auth/logout", s.handleLogout)

	s.mux.HandleFunc("/propiedades", s.handleProperties)
	s.mux.HandleFunc("/propiedades/", s.handlePropertyByID)

	s.mux.HandleFunc("/solicitudes", s.handleInquiries)
	s.mux.HandleFunc("/solicitudes/", s.handleInquiryByID)

	s.mux.HandleFunc("/usuarios/", s.handleProfile)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// POST publishes a listing (authenticated); GET returns active listings, or
// one publisher's listings when ?usuario= is present.
func (s *Server) handleProperties(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.withUser(w, r, s.handlePublish)
	case http.MethodGet:
		s.handleListProperties(w, r)
	default:
		methodNotAllowed(w)
	}
}

// withAuthLimit throttles credential attempts per client address so a
// single origin cannot brute-force logins or flood registrations.
func (s *Server) withAuthLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authLimiter.Allow(r.Context(), clientAddr(r)) {
			writeError(w, http.StatusTooManyRequests, "Demasiados intentos. Intenta de nuevo más tarde.")
			return
		}
		next(w, r)
	}
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type userHandler func(http.ResponseWriter, *http.Request, uint)

// withUser rejects requests without a valid, unrevoked session token.
// Ownership of a publication is never inferred from form fields.
func (s *Server) withUser(w http.ResponseWriter, r *http.Request, next userHandler) {
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Se requiere autenticación.")
		return
	}
	userID, err := s.app.Authenticate(r.Context(), token)
	if err != nil {
		if app.IsClientFault(err) || isAuthError(err) {
			writeError(w, http.StatusUnauthorized, "Sesión inválida o expirada.")
			return
		}
		s.serverError(w, r, err)
		return
	}
	next(w, r, userID)
}
