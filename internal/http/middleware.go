package http

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/rivalry/internal/failure"
	"github.com/mauv0809/rivalry/internal/notifier"
	"github.com/mauv0809/rivalry/internal/session"
)

// Middleware defines the standard signature for an HTTP middleware.
type Middleware func(http.Handler) http.Handler

// Chain combines multiple middlewares into a single handler.
// The middlewares are applied in the order they are passed.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// paramsMiddleware handles common query parameters like 'verbose' and 'dry_run'.
func paramsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Info("incoming request", "method", r.Method, "url", r.URL.Path)
		// Handle 'verbose' for request-scoped verbose logging.
		if r.URL.Query().Get("verbose") == "true" {
			originalLevel := log.GetLevel()
			log.SetLevel(log.DebugLevel)
			// Background notifications spawned by the request keep whatever
			// level is current when they run.
			defer log.SetLevel(originalLevel)
		}

		// 'dry_run' suppresses outbound notifications for this request.
		ctx := notifier.WithDryRun(r.Context(), r.URL.Query().Get("dry_run") == "true")
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authMiddleware resolves the bearer token into the acting user. Browsers
// cannot set headers on websocket upgrades, so a token query parameter is
// also accepted.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		if token == "" {
			writeError(w, session.ErrNoSession)
			return
		}
		userID, err := s.Sessions.Parse(token)
		if err != nil {
			log.Debug("Rejected session token", "error", err)
			writeError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(session.WithUserID(r.Context(), userID)))
	})
}

var errInternalOnly = failure.Permission("this endpoint is reserved for internal callers")

// internalMiddleware admits callers presenting the shared internal token,
// either as the X-Internal-Token header or as a token query parameter
// (Pub/Sub push endpoints carry it in the URL).
func (s *Server) internalMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("X-Internal-Token")
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		if s.InternalToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(s.InternalToken)) != 1 {
			log.Warn("Rejected internal request", "url", r.URL.Path)
			writeError(w, errInternalOnly)
			return
		}
		next.ServeHTTP(w, r)
	})
}
