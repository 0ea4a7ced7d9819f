package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

// FlashCookieName carries a one-shot notice across an interactive redirect.
const FlashCookieName = "crop_flash"

const flashMaxAge = 60

// Flash categories.
const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashWarning = "warning"
	FlashDanger  = "danger"
)

// Flash is a notice shown once after a redirect.
type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// SetFlash stores a notice for the next interactive page view.
func SetFlash(c *gin.Context, category, message string) {
	value := url.QueryEscape(category + "|" + message)
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     FlashCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   flashMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// PopFlash returns the pending notice, if any, and clears it.
func PopFlash(c *gin.Context) (Flash, bool) {
	raw, err := c.Cookie(FlashCookieName)
	if err != nil || raw == "" {
		return Flash{}, false
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     FlashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	category, message, found := strings.Cut(raw, "|")
	if !found {
		return Flash{}, false
	}
	return Flash{Category: category, Message: message}, true
}

// RedirectWithFlash sets a notice and redirects an interactive caller.
func RedirectWithFlash(c *gin.Context, location, category, message string) {
	SetFlash(c, category, message)
	c.Redirect(http.StatusSeeOther, location)
	c.Abort()
}
