package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus-taskhub/internal/core/auth"
	"campus-taskhub/internal/core/cache"
	"campus-taskhub/internal/core/config"
	"campus-taskhub/internal/relay"
	"campus-taskhub/internal/service"
	mdw "campus-taskhub/internal/transport/http/middleware"
)

// Deps 用户端路由依赖
type Deps struct {
	DB     *gorm.DB
	JWT    *auth.JWTer
	Log    *zap.Logger
	Cache  *cache.Cache
	Cfg    *config.Config
	Tasks  *service.TaskService
	Msgs   *service.MessageService
	Rates  *service.RatingService
	Ledger *service.Ledger
	Boards *service.LeaderboardService
	Hub    *relay.Hub
}

func NewAPIEngine(d Deps) *gin.Engine {
	r := gin.New()

	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(200, 400),
		mdw.ConcurrencyLimit(300),
		mdw.MaxBodyBytes(4<<20),
		mdw.Timeout(10*time.Second),
		mdw.SimpleRecovery(),
		mdw.Metrics(),
		mdw.AccessLog(d.Log),
	)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")

	// 鉴权分组
	authed := api.Group("")
	authed.Use(mdw.AuthJWT(d.JWT, ""))

	mountAuthActions(api, authed, d)
	mountTaskActions(authed, d)
	mountMessageActions(authed, d)
	mountRatingActions(authed, d)
	mountMiscActions(api, authed, d)
	mountWS(api, d)

	return r
}
