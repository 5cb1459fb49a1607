package http

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	csrfCookieName = "blogverse_csrf"
	csrfFieldName  = "csrf_token"
	csrfKey        = "csrf_token"
)

func generateCSRFToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// CSRFMiddleware aplica double-submit cookie: todo POST debe traer en el formulario
// el mismo token que la cookie.
func CSRFMiddleware(logger *zap.Logger, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(csrfCookieName)
		if err != nil || token == "" {
			token, err = generateCSRFToken()
			if err != nil {
				logger.Error("csrf token generation failed", zap.Error(err))
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			c.SetSameSite(http.SameSiteStrictMode)
			c.SetCookie(csrfCookieName, token, 0, "/", "", secure, false)
		}
		c.Set(csrfKey, token)

		if c.Request.Method == http.MethodPost {
			formToken := c.PostForm(csrfFieldName)
			if formToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(formToken)) != 1 {
				logger.Warn("csrf validation failed", zap.String("path", c.Request.URL.Path))
				c.String(http.StatusForbidden, "Invalid CSRF token")
				c.Abort()
				return
			}
		}
		c.Next()
	}
}

func csrfToken(c *gin.Context) string {
	return c.GetString(csrfKey)
}
