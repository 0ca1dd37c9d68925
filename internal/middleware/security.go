package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"golang.org/x/crypto/bcrypt"

	apierrors "ptanalysis/internal/errors"
)

type userContextKey struct{}

// BasicAuth gates every request behind HTTP basic auth. users maps a user
// name to a bcrypt hash. An empty map disables the gate.
func BasicAuth(logger *slog.Logger, realm string, users map[string]string) func(next http.Handler) http.Handler {
	if realm == "" {
		realm = "dashboard"
	}
	challenge := fmt.Sprintf(`Basic realm=%q, charset="UTF-8"`, realm)

	return func(next http.Handler) http.Handler {
		if len(users) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			name, password, ok := r.BasicAuth()
			if !ok {
				w.Header().Set("WWW-Authenticate", challenge)
				_ = render.Render(w, r, apierrors.ErrUnauthorized)
				return
			}

			hash, known := users[name]
			if !known {
				// burn comparable time on unknown users
				_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
			}
			if !known || bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
				logger.WarnContext(ctx, "authentication failed",
					"user", name,
					"method", r.Method,
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
				)
				w.Header().Set("WWW-Authenticate", challenge)
				_ = render.Render(w, r, apierrors.ErrUnauthorized)
				return
			}

			ctx = context.WithValue(ctx, userContextKey{}, name)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// dummyHash is the bcrypt hash of an unguessable string.
const dummyHash = "$2a$10$7EqJtq98hPqEX7fNZaFWoO5zYQdJ1n4p6Jw8lG8bY3J9bJ2vQ5uC6"

// UserFromContext returns the authenticated user name, if any.
func UserFromContext(ctx context.Context) string {
	if name, ok := ctx.Value(userContextKey{}).(string); ok {
		return name
	}
	return ""
}

// HashPassword returns a bcrypt hash suitable for the access.users config.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// SecureHeaders provides configurable security headers
type SecureHeaders struct {
	ContentSecurityPolicy string
	XFrameOptions         string
	XContentTypeOptions   string
	ReferrerPolicy        string
	PermissionsPolicy     string
}

// DefaultSecureHeaders returns the header set used by the dashboard. Charts
// are inline SVG and the page script only talks to its own host.
func DefaultSecureHeaders() *SecureHeaders {
	return &SecureHeaders{
		ContentSecurityPolicy: strings.Join([]string{
			"default-src 'self'",
			"script-src 'self'",
			"style-src 'self' 'unsafe-inline'",
			"img-src 'self' data:",
			"connect-src 'self' ws: wss:",
			"frame-ancestors 'none'",
			"base-uri 'self'",
			"form-action 'self'",
		}, "; "),
		XFrameOptions:       "DENY",
		XContentTypeOptions: "nosniff",
		ReferrerPolicy:      "strict-origin-when-cross-origin",
		PermissionsPolicy:   "camera=(), microphone=(), geolocation=(), payment=()",
	}
}

// Handler returns the middleware handler
func (sh *SecureHeaders) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		if sh.ContentSecurityPolicy != "" {
			h.Set("Content-Security-Policy", sh.ContentSecurityPolicy)
		}
		if sh.XFrameOptions != "" {
			h.Set("X-Frame-Options", sh.XFrameOptions)
		}
		if sh.XContentTypeOptions != "" {
			h.Set("X-Content-Type-Options", sh.XContentTypeOptions)
		}
		if sh.ReferrerPolicy != "" {
			h.Set("Referrer-Policy", sh.ReferrerPolicy)
		}
		if sh.PermissionsPolicy != "" {
			h.Set("Permissions-Policy", sh.PermissionsPolicy)
		}
		next.ServeHTTP(w, r)
	})
}
