// Package render negotiates between HTML and JSON responses and carries flash messages across redirects.
package render

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	flashCookie = "gas_flash"

	// Notice is a success flash.
	Notice = "notice"
	// Alert is a failure flash.
	Alert = "error"

	flashKey = "flash"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Kind    string
	Message string
}

// WantsJSON reports whether the client asked for a JSON response, through the
// Accept header, a JSON request body or a .json path suffix.
func WantsJSON(c *gin.Context) bool {
	if strings.HasSuffix(c.Request.URL.Path, ".json") {
		return true
	}
	if c.ContentType() == gin.MIMEJSON {
		return true
	}
	accept := c.GetHeader("Accept")
	if accept == "" || accept == "*/*" {
		return false
	}
	return c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON
}

// SetFlash stores a flash for the next request.
func SetFlash(c *gin.Context, kind, message string) {
	value := url.QueryEscape(kind + ":" + message)
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     flashCookie,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// FlashNow attaches a flash to the page rendered by this request only.
func FlashNow(c *gin.Context, kind, message string) {
	c.Set(flashKey, &Flash{Kind: kind, Message: message})
}

// PopFlash returns the pending flash, if any, and clears it.
func PopFlash(c *gin.Context) *Flash {
	if v, ok := c.Get(flashKey); ok {
		if f, ok := v.(*Flash); ok {
			return f
		}
	}
	raw, err := c.Cookie(flashCookie)
	if err != nil || raw == "" {
		return nil
	}
	http.SetCookie(c.Writer, &http.Cookie{Name: flashCookie, Path: "/", MaxAge: -1})

	kind, message, ok := strings.Cut(raw, ":")
	if !ok {
		return nil
	}
	return &Flash{Kind: kind, Message: message}
}

// Redirect sends a 303 so browsers follow up with GET whatever the original verb was.
func Redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusSeeOther, location)
}

// RedirectWithFlash sets a flash and redirects.
func RedirectWithFlash(c *gin.Context, location, kind, message string) {
	SetFlash(c, kind, message)
	Redirect(c, location)
}

// Page renders the named HTML template with data and the pending flash.
func Page(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["Flash"] = PopFlash(c)
	c.HTML(status, name, data)
}

// NotFound answers 404 as JSON or as the not found page, whichever the client wants.
func NotFound(c *gin.Context) {
	if WantsJSON(c) {
		Error(c, http.StatusNotFound, "not found")
		return
	}
	Page(c, http.StatusNotFound, "errors/not_found", nil)
	c.Abort()
}

// Error writes a JSON error body.
func Error(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
