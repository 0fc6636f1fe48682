package middleware

import (
	"context"
	"errors"
	"net/http"

	"subscription-app/internal/domain/access"
	"subscription-app/internal/domain/users"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const ctxUser = "user"

type UserFinder interface {
	FindByID(ctx context.Context, id uint) (*users.User, error)
}

// RequirePremium lets a request through only when the session user's stored plan is
// entitled. Everyone else is redirected to the site root.
func RequirePremium(finder UserFinder, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := access.Anonymous()

		if id, ok := UserID(c); ok {
			user, err := finder.FindByID(c.Request.Context(), id)
			switch {
			case errors.Is(err, users.ErrNotFound):
				user = nil
			case err != nil:
				logger.Error("premium guard user lookup failed", zap.Error(err), zap.Uint("user_id", id))
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			decision = access.Evaluate(user)
			if decision.Allowed() {
				c.Set(ctxUser, user)
			}
		}

		if !decision.Allowed() {
			logger.Debug("premium access denied", zap.String("reason", string(decision.Reason)))
			c.Redirect(http.StatusTemporaryRedirect, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user loaded by RequirePremium.
func CurrentUser(c *gin.Context) (*users.User, bool) {
	v, ok := c.Get(ctxUser)
	if !ok {
		return nil, false
	}
	u, ok := v.(*users.User)
	return u, ok
}
