package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	resp "campus-taskhub/internal/transport/http/response"
)

// mountWS 实时通道。浏览器 WebSocket 不能带自定义 Header，
// token 从 query 取；升级前完成身份校验。
func mountWS(api *gin.RouterGroup, d Deps) {
	api.GET("/ws", func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "missing token"))
			return
		}
		claims, err := d.JWT.Parse(token)
		if err != nil {
			c.JSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "invalid token"))
			return
		}
		if err := d.Hub.Serve(c.Writer, c.Request, claims.UID, d.Cfg.Relay); err != nil {
			d.Log.Warn("ws upgrade failed", zap.Error(err))
		}
	})
}
