package auth

import (
	"net/http"
	"time"

	"subscription-app/internal/domain/users"
	"subscription-app/internal/session"

	"github.com/gin-gonic/gin"
)

type CookieSettings struct {
	Secure bool
	TTL    time.Duration
}

func (h *Handler) startSession(c *gin.Context, user *users.User) error {
	token, err := h.sessions.Issue(user.ID, user.Email)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(session.CookieName, token, int(h.cookies.TTL.Seconds()), "/", "", h.cookies.Secure, true)
	return nil
}

// Logout clears the session cookie. It does not need a configured sign-in provider.
func Logout(cookies CookieSettings) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(session.CookieName, "", -1, "/", "", cookies.Secure, true)
		c.Redirect(http.StatusSeeOther, "/")
	}
}
