package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"campus-taskhub/internal/domain"
	"campus-taskhub/internal/service"
	httpez "campus-taskhub/internal/transport/http/ez"
	mdw "campus-taskhub/internal/transport/http/middleware"
)

func mountTaskActions(authed *gin.RouterGroup, d Deps) {
	ez := httpez.New(authed)

	// GET /tasks 列表，默认只看 OPEN/ACCEPTED
	type listQ struct {
		DepartmentID string `form:"departmentId"`
		Category     string `form:"category"`
		Status       string `form:"status"`
		MyTasks      bool   `form:"myTasks"`
		AcceptedByMe bool   `form:"acceptedByMe"`
	}
	httpez.RegisterAction[listQ, []domain.Task](ez, d.DB, httpez.Action[listQ, []domain.Task]{
		Method: http.MethodGet,
		Path:   "/tasks",
		Binder: httpez.BindQuery,
		Auth:   true,
		Handler: func(c *gin.Context, _ *gorm.DB, in *listQ) ([]domain.Task, error) {
			return d.Tasks.List(c, c.GetString(mdw.KeyUserID), service.ListTasksInput{
				DepartmentID: in.DepartmentID,
				Category:     in.Category,
				Status:       in.Status,
				MyTasks:      in.MyTasks,
				AcceptedByMe: in.AcceptedByMe,
			})
		},
	})

	// POST /tasks 发布
	type createIn struct {
		Title        string     `json:"title"        binding:"required,max=200"`
		Description  string     `json:"description"  binding:"required,max=2000"`
		Category     string     `json:"category"     binding:"required"`
		DepartmentID string     `json:"departmentId" binding:"required"`
		Urgency      string     `json:"urgency"      binding:"omitempty"`
		RewardPoints int        `json:"rewardPoints" binding:"required,min=1,max=100"`
		Latitude     *float64   `json:"latitude"`
		Longitude    *float64   `json:"longitude"`
		LocationText string     `json:"locationText" binding:"omitempty,max=255"`
		ImageURL     string     `json:"imageUrl"     binding:"omitempty,url,max=512"`
		ExpiresAt    *time.Time `json:"expiresAt"`
	}
	httpez.RegisterAction[createIn, *domain.Task](ez, d.DB, httpez.Action[createIn, *domain.Task]{
		Method: http.MethodPost,
		Path:   "/tasks",
		Binder: httpez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, _ *gorm.DB, in *createIn) (*domain.Task, error) {
			return d.Tasks.Create(c, c.GetString(mdw.KeyUserID), service.CreateTaskInput{
				Title:        in.Title,
				Description:  in.Description,
				Category:     in.Category,
				DepartmentID: in.DepartmentID,
				Urgency:      in.Urgency,
				RewardPoints: in.RewardPoints,
				Latitude:     in.Latitude,
				Longitude:    in.Longitude,
				LocationText: in.LocationText,
				ImageURL:     in.ImageURL,
				ExpiresAt:    in.ExpiresAt,
			})
		},
	})

	// GET /tasks/:id 详情（带评分）
	type detailOut struct {
		*domain.Task
		Ratings []domain.Rating `json:"ratings"`
	}
	httpez.RegisterAction[struct{}, detailOut](ez, d.DB, httpez.Action[struct{}, detailOut]{
		Method: http.MethodGet,
		Path:   "/tasks/:id",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) (detailOut, error) {
			t, err := d.Tasks.Get(c, c.Param("id"))
			if err != nil {
				return detailOut{}, err
			}
			rs, err := d.Rates.ListForTask(c, t.ID)
			if err != nil {
				return detailOut{}, err
			}
			return detailOut{Task: t, Ratings: rs}, nil
		},
	})

	// POST /tasks/:id/accept
	httpez.RegisterAction[struct{}, *domain.Task](ez, d.DB, httpez.Action[struct{}, *domain.Task]{
		Method: http.MethodPost,
		Path:   "/tasks/:id/accept",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) (*domain.Task, error) {
			return d.Tasks.Accept(c, c.GetString(mdw.KeyUserID), c.Param("id"))
		},
	})

	// POST /tasks/:id/complete
	httpez.RegisterAction[struct{}, *domain.Task](ez, d.DB, httpez.Action[struct{}, *domain.Task]{
		Method: http.MethodPost,
		Path:   "/tasks/:id/complete",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) (*domain.Task, error) {
			return d.Tasks.Complete(c, c.GetString(mdw.KeyUserID), c.Param("id"))
		},
	})

	// POST /tasks/:id/cancel 发布费不退
	httpez.RegisterAction[struct{}, *domain.Task](ez, d.DB, httpez.Action[struct{}, *domain.Task]{
		Method: http.MethodPost,
		Path:   "/tasks/:id/cancel",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) (*domain.Task, error) {
			return d.Tasks.Cancel(c, c.GetString(mdw.KeyUserID), c.Param("id"))
		},
	})

	// DELETE /tasks/:id 软删（未被接单时）
	httpez.RegisterAction[struct{}, gin.H](ez, d.DB, httpez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/tasks/:id",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) (gin.H, error) {
			err := d.Tasks.Delete(c, c.GetString(mdw.KeyUserID), c.GetString(mdw.KeyRole), c.Param("id"))
			if err != nil {
				return nil, err
			}
			return gin.H{"id": c.Param("id")}, nil
		},
	})
}
