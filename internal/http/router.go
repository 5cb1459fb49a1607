package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"blogverse/internal/observability"
	"blogverse/internal/service"
)

// formOverhead es el margen del cuerpo multipart por encima de la imagen.
const formOverhead = 1 << 20

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	renderer *Renderer,
	metrics *observability.Metrics,
	sessions *service.SessionManager,
	authH *AuthHandler,
	blogH *BlogHandler,
	opts Options,
) *gin.Engine {
	r := gin.New()
	r.HTMLRender = renderer
	r.MaxMultipartMemory = opts.MaxImageBytes + formOverhead

	// Middlewares basicos: logging, recovery y metricas. /metrics no se publica aqui:
	// vive en su propio listener (ver observability.NewServer).
	r.Use(zapLoggerMiddleware(logger), gin.Recovery())
	if metrics != nil {
		r.Use(metrics.Middleware())
	}
	r.GET("/healthz", Healthz)

	web := r.Group("", bodyLimitMiddleware(opts.MaxImageBytes+formOverhead), CSRFMiddleware(logger, opts.CookieSecure), LoadSession(sessions))

	// Rutas publicas.
	web.GET("/landing", authH.Landing)
	web.GET("/login", authH.LoginForm)
	web.POST("/login", authH.Login)
	web.GET("/register", authH.RegisterForm)
	web.POST("/register", authH.Register)
	web.POST("/logout", authH.Logout)

	// Rutas protegidas por sesion.
	app := web.Group("", renderer.RequireSession())
	app.GET("/", blogH.Home)
	app.GET("/create-blog", blogH.CreateForm)
	app.POST("/create-blog", blogH.Create)
	app.GET("/my-blogs", blogH.MyBlogs)
	app.GET("/edit-blog/:id", blogH.EditForm)
	app.POST("/edit-blog/:id", blogH.Edit)
	app.GET("/singleBlog/:id", blogH.Single)
	app.GET("/delete-blog/:id", blogH.DeleteConfirm)
	app.POST("/delete-blog/:id", blogH.Delete)
	app.GET("/profile", blogH.Profile)

	r.NoRoute(func(c *gin.Context) {
		c.Redirect(http.StatusSeeOther, service.LandingPath)
	})

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// bodyLimitMiddleware rechaza cuerpos mayores a limit antes de parsear el formulario.
func bodyLimitMiddleware(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > limit {
			c.String(http.StatusRequestEntityTooLarge, "Request too large")
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
