package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iyhunko/gas-app/internal/auth"
	"github.com/iyhunko/gas-app/internal/http/middleware"
	"github.com/iyhunko/gas-app/internal/http/render"
)

// SessionManager opens and closes login sessions.
type SessionManager interface {
	Begin(ctx context.Context, email, password string) (*auth.Session, error)
	End(ctx context.Context, token string)
}

// SessionController handles login and logout.
type SessionController struct {
	sessions SessionManager
}

// NewSessionController creates a new SessionController.
func NewSessionController(sessions SessionManager) *SessionController {
	return &SessionController{sessions: sessions}
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// SessionResponse is returned to API clients after login.
type SessionResponse struct {
	Token      string `json:"token"`
	ExpiresAt  string `json:"expires_at"`
	ProducerID string `json:"producer_id"`
}

// NewSession handles GET /login.
func (sc *SessionController) NewSession(c *gin.Context) {
	render.Page(c, http.StatusOK, "sessions/new", gin.H{"Email": ""})
}

// CreateSession handles POST /login.
func (sc *SessionController) CreateSession(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}

	session, err := sc.sessions.Begin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			fail(c, err, nil)
			return
		}
		if render.WantsJSON(c) {
			render.Error(c, http.StatusUnauthorized, "Login failed")
			return
		}
		render.FlashNow(c, render.Alert, "Login failed")
		render.Page(c, http.StatusUnprocessableEntity, "sessions/new", gin.H{"Email": req.Email})
		return
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   c.Request.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	if render.WantsJSON(c) {
		c.JSON(http.StatusOK, SessionResponse{
			Token:      session.Token,
			ExpiresAt:  session.ExpiresAt.Format(time.RFC3339),
			ProducerID: session.Identity.ProducerID.String(),
		})
		return
	}
	render.RedirectWithFlash(c, producerPath(session.Identity.ProducerID), render.Notice, "Logged in successfully")
}

// DestroySession handles DELETE /login. It always succeeds.
func (sc *SessionController) DestroySession(c *gin.Context) {
	if token := middleware.SessionToken(c); token != "" {
		sc.sessions.End(c.Request.Context(), token)
	}
	http.SetCookie(c.Writer, &http.Cookie{Name: middleware.SessionCookie, Path: "/", MaxAge: -1, HttpOnly: true})

	if render.WantsJSON(c) {
		c.Status(http.StatusNoContent)
		return
	}
	render.RedirectWithFlash(c, "/", render.Notice, "Logged out!")
}
