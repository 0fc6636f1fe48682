package routes

import (
	"context"
	"fmt"
	"net/http"

	authapi "subscription-app/internal/api/auth"
	"subscription-app/internal/api/premium"
	stripewebhooks "subscription-app/internal/api/stripewebhook"
	usersapi "subscription-app/internal/api/users"
	"subscription-app/internal/app/http/middleware"
	"subscription-app/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Deps are the handlers and collaborators the routes are built from. Auth and
// SignInLimiter are nil when Google sign-in is not configured.
type Deps struct {
	Webhook       *stripewebhooks.Handler
	Pages         *premium.Handler
	Users         *usersapi.Handler
	Auth          *authapi.Handler
	SignInLimiter *middleware.RateLimiter
	Sessions      *session.Manager
	UserFinder    middleware.UserFinder
	Cookies       authapi.CookieSettings
	Ping          func(ctx context.Context) error
	Logger        *zap.Logger
}

// NewEngine returns a bare engine that only honours forwarding headers from the
// given proxies. With none, ClientIP is the socket peer.
func NewEngine(trustedProxies []string) (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(trustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	return r, nil
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.POST("/api/webhooks/stripe", d.Webhook.StripeWebhook)
	r.GET("/health", health(d.Ping, d.Logger))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	pages := r.Group("/")
	pages.Use(middleware.Session(d.Sessions))

	pages.GET("/", d.Pages.Home)
	pages.GET("/premium", middleware.RequirePremium(d.UserFinder, d.Logger), d.Pages.Premium)
	pages.POST("/logout", authapi.Logout(d.Cookies))
	pages.GET("/api/me", d.Users.GetCurrentUser)

	if d.Auth != nil {
		signIn := r.Group("/auth")
		if d.SignInLimiter != nil {
			signIn.Use(d.SignInLimiter.Middleware())
		}
		signIn.GET("/google", d.Auth.GoogleStart)
		signIn.GET("/google/callback", d.Auth.GoogleCallback)
	}
}

func health(ping func(ctx context.Context) error, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := ping(c.Request.Context()); err != nil {
			logger.Warn("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
