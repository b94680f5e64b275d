package webd

import (
	"io"
	"net/http"
	"os"

	ghandlers "github.com/gorilla/handlers"
)

// TokenHeader carries the token for mutating routes.
// Clients that cannot set headers may use the api_token query parameter instead.
const TokenHeader = "X-Fixd-Token"

// tokenAuthenticationMiddleware checks for a valid token in the TokenHeader.
// If the token is not valid, it returns a 403 Forbidden.
// If no token is configured, it allows all requests.
func (s *WebDaemon) tokenAuthenticationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		validToken := os.Getenv(s.Config.TokenEnvVar)
		if validToken == "" {
			s.logger.Debug("No token set, allowing request", "env", s.Config.TokenEnvVar)
			next.ServeHTTP(w, r)
			return
		}

		token := r.Header.Get(TokenHeader)
		if token == "" {
			token = r.URL.Query().Get("api_token")
		}

		if token != validToken {
			s.logger.Warn("Invalid token",
				"method", r.Method, "url", r.URL.Path,
				"remote-addr", r.RemoteAddr, "user-agent", r.UserAgent())
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func permissiveCorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Add("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept, "+TokenHeader)
		next.ServeHTTP(w, r)
	})
}

func contentTypeMiddlewareFunc(contentType string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", contentType)
			next.ServeHTTP(w, r)
		})
	}
}

// loggingMiddleware writes one access log record per request.
func (s *WebDaemon) loggingMiddleware(next http.Handler) http.Handler {
	return ghandlers.CustomLoggingHandler(io.Discard, next, func(_ io.Writer, p ghandlers.LogFormatterParams) {
		host := p.Request.RemoteAddr
		for _, v := range p.Request.Header.Values("X-Forwarded-For") {
			host += "->" + v
		}
		s.logger.Info("HTTP",
			"host", host,
			"method", p.Request.Method,
			"uri", p.URL.RequestURI(),
			"proto", p.Request.Proto,
			"status", p.StatusCode,
			"size", p.Size,
		)
	})
}
