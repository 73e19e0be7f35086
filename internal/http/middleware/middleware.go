package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iyhunko/gas-app/internal/auth"
	"github.com/iyhunko/gas-app/internal/authz"
	"github.com/iyhunko/gas-app/internal/http/render"
)

const (
	// SessionCookie carries the session token for browser clients.
	SessionCookie = "gas_session"

	accessDenied = "Access denied"
	loginPath    = "/login"
)

// TokenVerifier resolves a session token to an identity.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*auth.Identity, error)
}

// ResourceFunc resolves the authorization target of a request.
// A non-nil error aborts the request with 404.
type ResourceFunc func(c *gin.Context) (authz.Resource, error)

// Middleware holds the collaborators of the request pipeline.
type Middleware struct {
	sessions TokenVerifier
}

// New initializes the middleware with the session verifier.
// We don't need ctx here because it always has Gin context.
func New(sessions TokenVerifier) *Middleware {
	return &Middleware{
		sessions: sessions,
	}
}

// Recovery is a middleware that recovers from panics and returns a 500 Internal Server Error
// instead of crashing the server.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				slog.Error("Panic recovered",
					slog.Any("error", err),
					slog.String("path", c.Request.URL.Path),
					slog.String("method", c.Request.Method),
				)
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "Internal Server Error",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// Logger writes one access log record per request.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		slog.Info("http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
		)
	}
}

// CORS adds cross-origin headers. With no origins, or "*", any origin is allowed
// without credentials; otherwise only the listed origins are echoed back.
func CORS(allowedOrigins ...string) gin.HandlerFunc {
	allowAll := len(allowedOrigins) == 0
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
			break
		}
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		origin := c.GetHeader("Origin")
		switch {
		case allowAll:
			h.Set("Access-Control-Allow-Origin", "*")
		case origin != "" && originAllowed(allowedOrigins, origin):
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
		}
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		h.Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func originAllowed(allowed []string, origin string) bool {
	for _, a := range allowed {
		if a == origin {
			return true
		}
	}
	return false
}

// MethodOverride lets HTML forms reach PATCH, PUT and DELETE routes through a
// "_method" field. It wraps the router because gin matches routes before any
// middleware runs.
func MethodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			ct := r.Header.Get("Content-Type")
			if strings.HasPrefix(ct, "application/x-www-form-urlencoded") || strings.HasPrefix(ct, "multipart/form-data") {
				switch m := strings.ToUpper(r.PostFormValue("_method")); m {
				case http.MethodPatch, http.MethodPut, http.MethodDelete:
					r.Method = m
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

// SessionToken returns the token sent as session cookie or bearer credential.
func SessionToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if token, err := c.Cookie(SessionCookie); err == nil {
		return token
	}
	return ""
}

// Authenticate resolves the session token, if any, and stores the identity in
// the request context. Invalid tokens leave the request anonymous.
func (m *Middleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := SessionToken(c)
		if token == "" {
			c.Next()
			return
		}

		identity, err := m.sessions.Verify(c.Request.Context(), token)
		if err != nil {
			slog.Debug("session rejected", slog.Any("err", err))
			c.Next()
			return
		}
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), identity))
		c.Next()
	}
}

// Authorize checks that the current identity may perform action on the resource
// resolved by resource. It runs before any login-state check.
func Authorize(action authz.Action, resource ResourceFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		target, err := resource(c)
		if err != nil {
			render.NotFound(c)
			return
		}

		identity, _ := auth.FromContext(c.Request.Context())
		if !authz.CanPerform(identity, action, target) {
			deny(c)
			return
		}
		c.Next()
	}
}

// RequireLogin rejects anonymous requests.
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := auth.FromContext(c.Request.Context()); ok {
			c.Next()
			return
		}
		if render.WantsJSON(c) {
			render.Error(c, http.StatusUnauthorized, "login required")
			return
		}
		render.RedirectWithFlash(c, loginPath, render.Alert, "Please login first")
		c.Abort()
	}
}

// RequireGuest rejects requests that already carry an identity.
func RequireGuest() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := auth.FromContext(c.Request.Context()); !ok {
			c.Next()
			return
		}
		deny(c)
	}
}

func deny(c *gin.Context) {
	if render.WantsJSON(c) {
		render.Error(c, http.StatusForbidden, accessDenied)
		return
	}
	render.RedirectWithFlash(c, "/", render.Alert, accessDenied)
	c.Abort()
}
