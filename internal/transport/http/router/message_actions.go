package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"campus-taskhub/internal/domain"
	httpez "campus-taskhub/internal/transport/http/ez"
	mdw "campus-taskhub/internal/transport/http/middleware"
)

func mountMessageActions(authed *gin.RouterGroup, d Deps) {
	ez := httpez.New(authed)

	// GET /messages?taskId=xxx 历史消息，断线重连后对账用
	type listQ struct {
		TaskID string `form:"taskId" binding:"required"`
	}
	httpez.RegisterAction[listQ, []domain.Message](ez, d.DB, httpez.Action[listQ, []domain.Message]{
		Method: http.MethodGet,
		Path:   "/messages",
		Binder: httpez.BindQuery,
		Auth:   true,
		Handler: func(c *gin.Context, _ *gorm.DB, in *listQ) ([]domain.Message, error) {
			return d.Msgs.List(c, c.GetString(mdw.KeyUserID), in.TaskID)
		},
	})

	// POST /messages 接收方服务端计算，不收客户端的 receiverId
	type sendIn struct {
		TaskID  string `json:"taskId"  binding:"required"`
		Content string `json:"content" binding:"required,max=1000"`
	}
	httpez.RegisterAction[sendIn, *domain.Message](ez, d.DB, httpez.Action[sendIn, *domain.Message]{
		Method: http.MethodPost,
		Path:   "/messages",
		Binder: httpez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, _ *gorm.DB, in *sendIn) (*domain.Message, error) {
			return d.Msgs.Send(c, c.GetString(mdw.KeyUserID), in.TaskID, in.Content)
		},
	})

	// POST /messages/:id/read
	httpez.RegisterAction[struct{}, gin.H](ez, d.DB, httpez.Action[struct{}, gin.H]{
		Method: http.MethodPost,
		Path:   "/messages/:id/read",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) (gin.H, error) {
			if err := d.Msgs.MarkRead(c, c.GetString(mdw.KeyUserID), c.Param("id")); err != nil {
				return nil, err
			}
			return gin.H{"ok": true}, nil
		},
	})
}
