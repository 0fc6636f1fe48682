package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"subscription-app/config"
	"subscription-app/database"
	authapi "subscription-app/internal/api/auth"
	"subscription-app/internal/api/premium"
	stripewebhooks "subscription-app/internal/api/stripewebhook"
	usersapi "subscription-app/internal/api/users"
	routes "subscription-app/internal/app/http"
	"subscription-app/internal/app/http/middleware"
	"subscription-app/internal/billing"
	"subscription-app/internal/domain/plans"
	"subscription-app/internal/domain/subscriptions"
	"subscription-app/internal/domain/users"
	"subscription-app/internal/infra/kafka"
	"subscription-app/internal/infra/logger"
	"subscription-app/internal/infra/stripe"
	"subscription-app/internal/session"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const serviceName = "subscription-app"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(cfg.AppEnv, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	db, err := database.Connect(cfg.DBURL, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}

	if cfg.IsDevelopment() {
		if err := database.AutoMigrate(db); err != nil {
			zapLogger.Fatal("failed to auto-migrate", zap.Error(err))
		}
		zapLogger.Info("database migration completed (dev auto-migrate)")
	} else if err := database.RunMigrations(cfg.DBURL, zapLogger); err != nil {
		zapLogger.Fatal("failed to run migrations", zap.Error(err))
	}

	var notifier billing.Notifier = billing.NopNotifier()
	if len(cfg.Kafka.Brokers) > 0 {
		publisher := kafka.NewPlanChangePublisher(cfg.Kafka.Brokers, cfg.Kafka.PlanTopic, zapLogger)
		defer publisher.Close()
		notifier = publisher
		zapLogger.Info("publishing plan changes", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.PlanTopic))
	}

	reconciler := billing.NewReconciler(
		billing.NewGormRepository(db),
		stripe.NewClient(cfg.Stripe.SecretKey),
		plans.PriceCatalog{YearlyPriceID: cfg.Stripe.YearlyPriceID, MonthlyPriceID: cfg.Stripe.MonthlyPriceID},
		zapLogger,
		billing.WithNotifier(notifier),
	)

	userStore := users.NewStore(db)
	sessions := session.NewManager(cfg.JWTSecret, session.DefaultTTL)
	cookies := authapi.CookieSettings{Secure: cfg.CookieSecure, TTL: sessions.TTL()}

	pages, err := premium.NewHandler(userStore, cfg.PremiumContentHTML, cfg.GoogleSignInEnabled(), zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to parse page templates", zap.Error(err))
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	deps := routes.Deps{
		Webhook:    stripewebhooks.NewHandler(stripe.NewWebhookVerifier(cfg.Stripe.WebhookSecret), reconciler, zapLogger),
		Pages:      pages,
		Users:      usersapi.NewHandler(userStore, subscriptions.NewStore(db), zapLogger),
		Sessions:   sessions,
		UserFinder: userStore,
		Cookies:    cookies,
		Ping:       func(ctx context.Context) error { return database.Ping(ctx, db) },
		Logger:     zapLogger,
	}
	if cfg.GoogleSignInEnabled() {
		limiter := middleware.NewRateLimiter(rate.Limit(1), 10, 3*time.Minute)
		go limiter.Janitor(ctx, time.Minute)
		deps.Auth = authapi.NewHandler(cfg.Google, userStore, sessions, cookies, zapLogger)
		deps.SignInLimiter = limiter
	} else {
		zapLogger.Warn("google sign-in disabled: GOOGLE_CLIENT_ID/SECRET not set")
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r, err := routes.NewEngine(cfg.TrustedProxies)
	if err != nil {
		zapLogger.Fatal("failed to build router", zap.Error(err))
	}
	r.Use(middleware.Recovery(zapLogger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(zapLogger))
	r.Use(middleware.Metrics())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, deps)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zapLogger.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("stopped")
}
