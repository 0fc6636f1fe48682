package premium

import (
	"context"
	"embed"
	"html/template"
	"net/http"

	"subscription-app/internal/app/http/middleware"
	"subscription-app/internal/domain/access"
	"subscription-app/internal/domain/plans"
	"subscription-app/internal/domain/users"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templatesFS embed.FS

const defaultContent = "<p>Members-only content lives here.</p>"

type UserFinder interface {
	FindByID(ctx context.Context, id uint) (*users.User, error)
}

type Handler struct {
	users         UserFinder
	tmpl          *template.Template
	content       template.HTML
	signInEnabled bool
	logger        *zap.Logger
}

// NewHandler parses the page templates and sanitises the configured premium body.
func NewHandler(finder UserFinder, contentHTML string, signInEnabled bool, logger *zap.Logger) (*Handler, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	if contentHTML == "" {
		contentHTML = defaultContent
	}
	return &Handler{
		users:         finder,
		tmpl:          tmpl,
		content:       template.HTML(bluemonday.UGCPolicy().Sanitize(contentHTML)),
		signInEnabled: signInEnabled,
		logger:        logger,
	}, nil
}

type homeView struct {
	User          *users.User
	Plan          plans.Plan
	Premium       bool
	SignInEnabled bool
}

// GET /
func (h *Handler) Home(c *gin.Context) {
	view := homeView{SignInEnabled: h.signInEnabled}

	if id, ok := middleware.UserID(c); ok {
		user, err := h.users.FindByID(c.Request.Context(), id)
		if err != nil {
			h.logger.Debug("home page user lookup", zap.Error(err), zap.Uint("user_id", id))
		} else {
			view.User = user
			view.Plan = user.Plan
			view.Premium = access.Evaluate(user).Allowed()
		}
	}

	c.Render(http.StatusOK, render.HTML{Template: h.tmpl, Name: "home.html", Data: view})
}

type premiumView struct {
	Name    string
	Content template.HTML
}

// GET /premium, behind middleware.RequirePremium.
func (h *Handler) Premium(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.Redirect(http.StatusTemporaryRedirect, "/")
		return
	}

	name := user.Name
	if name == "" {
		name = user.Email
	}
	c.Render(http.StatusOK, render.HTML{Template: h.tmpl, Name: "premium.html", Data: premiumView{
		Name:    name,
		Content: h.content,
	}})
}
