package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"campus-taskhub/internal/domain"
	httpez "campus-taskhub/internal/transport/http/ez"
	mdw "campus-taskhub/internal/transport/http/middleware"
)

func mountRatingActions(authed *gin.RouterGroup, d Deps) {
	ez := httpez.New(authed)

	// POST /ratings 只能评已完成任务的对端，每任务每人一次
	type rateIn struct {
		TaskID  string `json:"taskId"  binding:"required"`
		Score   int    `json:"score"   binding:"required,min=1,max=5"`
		Comment string `json:"comment" binding:"omitempty,max=500"`
	}
	httpez.RegisterAction[rateIn, *domain.Rating](ez, d.DB, httpez.Action[rateIn, *domain.Rating]{
		Method: http.MethodPost,
		Path:   "/ratings",
		Binder: httpez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, _ *gorm.DB, in *rateIn) (*domain.Rating, error) {
			return d.Rates.Submit(c, c.GetString(mdw.KeyUserID), in.TaskID, in.Score, in.Comment)
		},
	})
}
