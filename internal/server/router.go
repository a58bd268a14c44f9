package server

import (
	"net/http"
	"time"

	"github.com/danchikt/my-messenger/internal/auth"
	"github.com/danchikt/my-messenger/internal/config"
	"github.com/danchikt/my-messenger/internal/metrics"
	"github.com/danchikt/my-messenger/internal/mw"
	"github.com/danchikt/my-messenger/internal/service"
	"github.com/danchikt/my-messenger/internal/store"
	"github.com/danchikt/my-messenger/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// SetupRouter wires the gin middleware, the REST surface and the websocket
// endpoint.
func SetupRouter(cfg config.Config, db *gorm.DB, stores *store.Stores, router *ws.Router) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(metrics.GinMiddleware())
	r.Use(mw.CORS(cfg.Env))
	r.Use(mw.RateLimit(rate.Every(time.Second/20), 40))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Identity is bound by the auth event on the socket, not at upgrade.
	r.GET("/ws", ws.Serve(router))

	h := NewHandler(service.NewUserService(db, stores, cfg))

	api := r.Group("/api/v1")
	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)
	api.POST("/auth/refresh", h.RefreshToken)

	authed := api.Group("")
	authed.Use(auth.Middleware(cfg, db))
	authed.GET("/me", h.Me)
	authed.GET("/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"online": router.Registry().Count()})
	})

	return r
}
