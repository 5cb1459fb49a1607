package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"blogverse/internal/blogapi"
	"blogverse/internal/domain"
	"blogverse/internal/service"
)

const landingPostCount = 5

// AuthHandler atiende las paginas publicas: landing, login, registro y logout.
type AuthHandler struct {
	views
	limiter service.LoginLimiter
}

// NewAuthHandler crea una instancia de AuthHandler con dependencias necesarias.
// limiter puede ser nil: sin limite de intentos.
func NewAuthHandler(logger *zap.Logger, api blogapi.API, tracker *FetchTracker, render *Renderer, limiter service.LoginLimiter, opts Options) *AuthHandler {
	return &AuthHandler{views: newViews(logger, api, tracker, render, opts), limiter: limiter}
}

type landingView struct {
	Next  string
	Posts ViewState[domain.PostList]
}

type loginView struct {
	Email   string
	Next    string
	Notice  string
	Message string
	Errors  service.ValidationErrors
}

type registerView struct {
	Name    string
	Email   string
	Message string
	Errors  service.ValidationErrors
}

// Landing maneja GET /landing.
func (h *AuthHandler) Landing(c *gin.Context) {
	st, ok := fetchView(&h.views, c, "landing", func(ctx context.Context) (domain.PostList, error) {
		posts, err := h.api.ListPosts(ctx)
		return posts.Recent(landingPostCount), err
	})
	if !ok {
		return
	}
	h.render.page(c, http.StatusOK, "landing.html", "Welcome", landingView{
		Next:  service.SafeNext(c.Query("next")),
		Posts: st,
	})
}

// LoginForm maneja GET /login.
func (h *AuthHandler) LoginForm(c *gin.Context) {
	if authenticated(c) {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	v := loginView{Next: service.SafeNext(c.Query("next"))}
	if c.Query("registered") != "" {
		v.Notice = "Registration successful. Please log in."
	}
	h.render.page(c, http.StatusOK, "login.html", "Login", v)
}

// Login maneja POST /login. Un rechazo muestra el mensaje del servicio y no toca la sesion.
func (h *AuthHandler) Login(c *gin.Context) {
	creds := domain.Credentials{
		Email:    strings.TrimSpace(c.PostForm("email")),
		Password: c.PostForm("password"),
	}
	v := loginView{Email: creds.Email, Next: service.SafeNext(c.PostForm("next"))}

	if err := service.ValidateCredentials(creds); err != nil {
		v.Errors = fieldErrors(err)
		h.render.page(c, http.StatusUnprocessableEntity, "login.html", "Login", v)
		return
	}
	if h.limiter != nil && !h.limiter.Allow(c.Request.Context(), creds.Email) {
		h.logger.Warn("login rate limited", zap.String("client_ip", c.ClientIP()))
		c.Header("Retry-After", "60")
		v.Message = "Too many login attempts. Please try again later."
		h.render.page(c, http.StatusTooManyRequests, "login.html", "Login", v)
		return
	}

	res, err := h.api.Login(c.Request.Context(), creds)
	if err != nil {
		h.logger.Info("login rejected", zap.Error(err))
		v.Message = blogapi.Message(err, "Failed to login")
		h.render.page(c, failureStatus(err), "login.html", "Login", v)
		return
	}
	if !res.Complete() {
		h.logger.Warn("login response without token or user")
		v.Message = "Failed to login"
		h.render.page(c, http.StatusBadGateway, "login.html", "Login", v)
		return
	}
	if err := h.startSession(c, res); err != nil {
		v.Message = "Could not start your session. Please try again."
		h.render.page(c, http.StatusInternalServerError, "login.html", "Login", v)
		return
	}
	if h.limiter != nil {
		h.limiter.Reset(c.Request.Context(), creds.Email)
	}

	next := v.Next
	if next == "" {
		next = "/"
	}
	c.Redirect(http.StatusSeeOther, next)
}

// RegisterForm maneja GET /register.
func (h *AuthHandler) RegisterForm(c *gin.Context) {
	if authenticated(c) {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	h.render.page(c, http.StatusOK, "register.html", "Register", registerView{})
}

// Register maneja POST /register. Si el servicio devuelve token y usuario, la sesion
// queda abierta; si no, se pide login.
func (h *AuthHandler) Register(c *gin.Context) {
	reg := domain.Registration{
		Name:     strings.TrimSpace(c.PostForm("name")),
		Email:    strings.TrimSpace(c.PostForm("email")),
		Password: c.PostForm("password"),
	}
	v := registerView{Name: reg.Name, Email: reg.Email}

	if err := service.ValidateRegistration(reg); err != nil {
		v.Errors = fieldErrors(err)
		h.render.page(c, http.StatusUnprocessableEntity, "register.html", "Register", v)
		return
	}

	res, err := h.api.Register(c.Request.Context(), reg)
	if err != nil {
		h.logger.Info("registration rejected", zap.Error(err))
		v.Message = blogapi.Message(err, "Failed to register")
		h.render.page(c, failureStatus(err), "register.html", "Register", v)
		return
	}
	if !res.Complete() {
		c.Redirect(http.StatusSeeOther, "/login?registered=1")
		return
	}
	if err := h.startSession(c, res); err != nil {
		c.Redirect(http.StatusSeeOther, "/login?registered=1")
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// Logout maneja POST /logout. Es idempotente.
func (h *AuthHandler) Logout(c *gin.Context) {
	if s, ok := GetSession(c); ok {
		if err := s.Logout(c.Request.Context()); err != nil {
			h.logger.Error("logout failed", zap.Error(err))
		}
	}
	clearSessionCookie(c, h.opts.CookieSecure)
	c.Redirect(http.StatusSeeOther, service.LandingPath)
}

func (h *AuthHandler) startSession(c *gin.Context, res domain.AuthResult) error {
	s, ok := GetSession(c)
	if !ok {
		return service.ErrManagerClosed
	}
	if err := s.Login(c.Request.Context(), res.Token, *res.User); err != nil {
		h.logger.Error("session login failed", zap.Error(err))
		return err
	}
	setSessionCookie(c, s.ID(), int(h.opts.SessionTTL.Seconds()), h.opts.CookieSecure)
	return nil
}

func authenticated(c *gin.Context) bool {
	s, ok := GetSession(c)
	return ok && s.State().Authenticated()
}
