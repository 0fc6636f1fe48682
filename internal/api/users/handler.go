package users

import (
	"context"
	"errors"
	"net/http"

	"subscription-app/internal/app/http/middleware"
	"subscription-app/internal/domain/subscriptions"
	"subscription-app/internal/domain/users"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserFinder interface {
	FindByID(ctx context.Context, id uint) (*users.User, error)
}

type SubscriptionFinder interface {
	FindByUserID(ctx context.Context, userID uint) (*subscriptions.Subscription, error)
}

type Handler struct {
	users         UserFinder
	subscriptions SubscriptionFinder
	logger        *zap.Logger
}

func NewHandler(u UserFinder, s SubscriptionFinder, logger *zap.Logger) *Handler {
	return &Handler{users: u, subscriptions: s, logger: logger}
}

// GET /api/me
func (h *Handler) GetCurrentUser(c *gin.Context) {
	id, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.FindByID(ctx, id)
	if errors.Is(err, users.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		h.logger.Error("load current user", zap.Error(err), zap.Uint("user_id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	sub, err := h.subscriptions.FindByUserID(ctx, id)
	if err != nil && !errors.Is(err, subscriptions.ErrNotFound) {
		h.logger.Error("load subscription", zap.Error(err), zap.Uint("user_id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	c.JSON(http.StatusOK, BuildMeResponse(user, sub))
}
