package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"blogverse/internal/blogapi"
	"blogverse/internal/domain"
	"blogverse/internal/service"
)

// Options son los parametros de las vistas que vienen de la configuracion.
type Options struct {
	CookieSecure  bool
	SessionTTL    time.Duration
	MaxImageBytes int64
}

// views agrupa las dependencias comunes de todos los handlers de paginas.
type views struct {
	logger  *zap.Logger
	api     blogapi.API
	tracker *FetchTracker
	render  *Renderer
	opts    Options
}

func newViews(logger *zap.Logger, api blogapi.API, tracker *FetchTracker, render *Renderer, opts Options) views {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	if opts.MaxImageBytes <= 0 {
		opts.MaxImageBytes = 10 << 20
	}
	return views{logger: logger, api: api, tracker: tracker, render: render, opts: opts}
}

// sessionUser devuelve el usuario autenticado; las rutas protegidas siempre lo tienen.
func sessionUser(c *gin.Context) domain.User {
	s, ok := GetSession(c)
	if !ok {
		return domain.User{}
	}
	u, _ := s.User()
	return u
}

// fetchView corre fetch bajo el FetchTracker. Devuelve false si ya respondio:
// carga reemplazada (409), sesion terminada o token rechazado (redireccion).
func fetchView[T any](v *views, c *gin.Context, view string, fetch func(context.Context) (T, error)) (ViewState[T], bool) {
	sid := ""
	if s, ok := GetSession(c); ok {
		sid = s.ID()
	}
	ctx, done := v.tracker.Begin(c.Request.Context(), sid, view)
	defer done()

	st := Load(ctx, fetch)
	if !st.Failed() {
		return st, true
	}
	switch cause := context.Cause(ctx); {
	case errors.Is(cause, ErrFetchSuperseded):
		v.logger.Debug("fetch superseded", zap.String("view", view))
		c.String(http.StatusConflict, "superseded by a newer request")
		return st, false
	case errors.Is(cause, ErrSessionEnded):
		c.Redirect(http.StatusSeeOther, service.LandingPath)
		return st, false
	}
	if v.tokenRejected(c, st.Err) {
		return st, false
	}
	return st, true
}

// tokenRejected cierra la sesion y redirige cuando el servicio rechazo el token.
func (v *views) tokenRejected(c *gin.Context, err error) bool {
	if !errors.Is(err, blogapi.ErrTokenRejected) {
		return false
	}
	if s, ok := GetSession(c); ok {
		if logoutErr := s.Logout(c.Request.Context()); logoutErr != nil {
			v.logger.Error("logout after token rejection failed", zap.Error(logoutErr))
		}
	}
	clearSessionCookie(c, v.opts.CookieSecure)
	c.Redirect(http.StatusSeeOther, service.LoginRedirect(service.LandingPath, c.Request.URL.RequestURI()))
	return true
}

// failureStatus conserva los 4xx del servicio remoto; el resto es 502.
func failureStatus(err error) int {
	var rf *blogapi.RequestFailedError
	if errors.As(err, &rf) && rf.Status >= 400 && rf.Status < 500 {
		return rf.Status
	}
	return http.StatusBadGateway
}

func viewStatus[T any](st ViewState[T]) int {
	if st.Failed() {
		return failureStatus(st.Err)
	}
	return http.StatusOK
}

// fieldErrors separa los errores de validacion por campo de cualquier otro error.
func fieldErrors(err error) service.ValidationErrors {
	if err == nil {
		return nil
	}
	var ve service.ValidationErrors
	if errors.As(err, &ve) {
		return ve
	}
	return service.ValidationErrors{"form": err.Error()}
}

// Healthz maneja GET /healthz.
func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
