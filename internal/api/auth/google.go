package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"subscription-app/config"
	"subscription-app/internal/domain/plans"
	"subscription-app/internal/domain/users"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	googleIssuer    = "https://accounts.google.com"
	stateCookieName = "oauth_state"
)

type UserStore interface {
	FindByGoogleSub(ctx context.Context, sub string) (*users.User, error)
	FindByEmail(ctx context.Context, email string) (*users.User, error)
	Create(ctx context.Context, u *users.User) error
	LinkGoogleSub(ctx context.Context, id uint, sub string) error
}

type SessionIssuer interface {
	Issue(userID uint, email string) (string, error)
}

type googleIDClaims struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
}

// exchanger turns an authorization code into verified ID token claims.
type exchanger func(ctx context.Context, code string) (*googleIDClaims, error)

type Handler struct {
	oauth    *oauth2.Config
	exchange exchanger
	users    UserStore
	sessions SessionIssuer
	cookies  CookieSettings
	logger   *zap.Logger

	verifierOnce sync.Once
	verifier     *oidc.IDTokenVerifier
	verifierErr  error
}

func NewHandler(cfg config.GoogleConfig, store UserStore, sessions SessionIssuer, cookies CookieSettings, logger *zap.Logger) *Handler {
	h := &Handler{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		users:    store,
		sessions: sessions,
		cookies:  cookies,
		logger:   logger,
	}
	h.exchange = h.exchangeCode
	return h
}

func randomState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GET /auth/google
func (h *Handler) GoogleStart(c *gin.Context) {
	state, err := randomState()
	if err != nil {
		h.logger.Error("generate oauth state", zap.Error(err))
		c.String(http.StatusInternalServerError, "failed to start sign-in")
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookieName, state, 300, "/", "", h.cookies.Secure, true)
	c.Redirect(http.StatusFound, h.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline))
}

// GET /auth/google/callback
func (h *Handler) GoogleCallback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")
	if code == "" || state == "" {
		c.String(http.StatusBadRequest, "missing code or state")
		return
	}

	cookieState, err := c.Cookie(stateCookieName)
	if err != nil || cookieState != state {
		c.String(http.StatusBadRequest, "invalid oauth state")
		return
	}
	c.SetCookie(stateCookieName, "", -1, "/", "", h.cookies.Secure, true)

	claims, err := h.exchange(c.Request.Context(), code)
	if err != nil {
		h.logger.Warn("google sign-in rejected", zap.Error(err))
		c.String(http.StatusUnauthorized, "sign-in failed")
		return
	}

	user, err := h.findOrCreateGoogleUser(c.Request.Context(), claims)
	if err != nil {
		h.logger.Error("provision google user", zap.Error(err), zap.String("email", claims.Email))
		c.String(http.StatusInternalServerError, "failed to create user")
		return
	}

	if err := h.startSession(c, user); err != nil {
		h.logger.Error("issue session", zap.Error(err), zap.Uint("user_id", user.ID))
		c.String(http.StatusInternalServerError, "could not create session")
		return
	}

	h.logger.Info("user signed in", zap.Uint("user_id", user.ID))
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) exchangeCode(ctx context.Context, code string) (*googleIDClaims, error) {
	tok, err := h.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, errors.New("missing id_token")
	}

	verifier, err := h.idTokenVerifier(ctx)
	if err != nil {
		return nil, err
	}
	idToken, err := verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("verify id_token: %w", err)
	}

	var claims googleIDClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("decode id_token claims: %w", err)
	}
	if claims.Sub == "" || claims.Email == "" {
		return nil, errors.New("id_token missing sub or email")
	}
	if !claims.EmailVerified {
		return nil, errors.New("google email not verified")
	}
	return &claims, nil
}

// idTokenVerifier discovers Google's signing keys once per process.
func (h *Handler) idTokenVerifier(ctx context.Context) (*oidc.IDTokenVerifier, error) {
	h.verifierOnce.Do(func() {
		provider, err := oidc.NewProvider(context.WithoutCancel(ctx), googleIssuer)
		if err != nil {
			h.verifierErr = fmt.Errorf("init google oidc provider: %w", err)
			return
		}
		h.verifier = provider.Verifier(&oidc.Config{ClientID: h.oauth.ClientID})
	})
	return h.verifier, h.verifierErr
}

func (h *Handler) findOrCreateGoogleUser(ctx context.Context, gc *googleIDClaims) (*users.User, error) {
	user, err := h.users.FindByGoogleSub(ctx, gc.Sub)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, users.ErrNotFound) {
		return nil, err
	}

	user, err = h.users.FindByEmail(ctx, gc.Email)
	if err == nil {
		if user.GoogleSub == nil {
			if err := h.users.LinkGoogleSub(ctx, user.ID, gc.Sub); err != nil {
				return nil, err
			}
			sub := gc.Sub
			user.GoogleSub = &sub
		}
		return user, nil
	}
	if !errors.Is(err, users.ErrNotFound) {
		return nil, err
	}

	sub := gc.Sub
	user = &users.User{
		Name:      firstNonEmpty(gc.Name, gc.GivenName),
		Email:     gc.Email,
		GoogleSub: &sub,
		Plan:      plans.Free,
	}
	if err := h.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func firstNonEmpty(s ...string) string {
	for _, v := range s {
		if v != "" {
			return v
		}
	}
	return ""
}
