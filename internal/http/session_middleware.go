package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"blogverse/internal/blogapi"
	"blogverse/internal/service"
)

const (
	sessionCookieName = "blogverse_session"
	sessionKey        = "session"
)

// LoadSession lee la cookie, carga la sesion y la deja en el contexto de gin y en el
// contexto de la request como fuente de token para el cliente.
func LoadSession(sessions *service.SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := c.Cookie(sessionCookieName)
		if _, err := uuid.Parse(id); err != nil {
			id = ""
		}
		s := sessions.Load(c.Request.Context(), id)
		c.Set(sessionKey, s)
		c.Request = c.Request.WithContext(blogapi.WithTokenSource(c.Request.Context(), s))
		c.Next()
	}
}

// GetSession obtiene la sesion cargada por LoadSession.
func GetSession(c *gin.Context) (*service.Session, bool) {
	val, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	s, ok := val.(*service.Session)
	return s, ok && s != nil
}

// RequireSession corta las vistas protegidas. Undetermined muestra el placeholder,
// Unauthenticated redirige a la entrada publica con next.
func (r *Renderer) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := GetSession(c)
		var st service.SessionState
		if ok {
			st = s.State()
		}

		d := service.DecideGuard(st, c.Request.URL.RequestURI())
		switch d.Action {
		case service.GuardPlaceholder:
			c.Header("Retry-After", "1")
			c.Header("Cache-Control", "no-store")
			r.page(c, http.StatusServiceUnavailable, "loading.html", "Loading", nil)
			c.Abort()
		case service.GuardRedirect:
			c.Redirect(http.StatusSeeOther, d.Location)
			c.Abort()
		default:
			c.Next()
		}
	}
}

func setSessionCookie(c *gin.Context, id string, maxAge int, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, id, maxAge, "/", "", secure, true)
}

func clearSessionCookie(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, "", -1, "/", "", secure, true)
}
