package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"

	"campus-taskhub/internal/domain"
	mdw "campus-taskhub/internal/transport/http/middleware"
)

// NewAdminEngine 后台端：统一要求 ADMIN 角色
func NewAdminEngine(d Deps) *gin.Engine {
	r := gin.New()

	r.Use(
		ginzap.Ginzap(d.Log, time.RFC3339, true),
		ginzap.RecoveryWithZap(d.Log, true),
		cors.Default(),
		mdw.RequestID(),
		mdw.RateLimitPerIP(50, 100),
		mdw.MaxBodyBytes(4<<20),
		mdw.Metrics(),
	)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })

	admin := r.Group("/admin/v1")
	admin.Use(mdw.AuthJWT(d.JWT, domain.RoleAdmin))

	mountAdminActions(admin, d)

	return r
}
