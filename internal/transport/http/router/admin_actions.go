package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"campus-taskhub/internal/domain"
	"campus-taskhub/internal/service"
	httpez "campus-taskhub/internal/transport/http/ez"
	"campus-taskhub/pkg/utils"
)

// 管理端接口集中在这里注册
func mountAdminActions(admin *gin.RouterGroup, d Deps) {
	ez := httpez.New(admin)

	// GET /admin/v1/users 用户列表
	type listQ struct {
		Offset      int    `form:"offset,default=0"`
		Limit       int    `form:"limit,default=20"`
		Q           string `form:"q"` // 按 email/姓名 模糊搜
		WithDeleted bool   `form:"with_deleted"`
	}
	type listOut struct {
		Total int64         `json:"total"`
		Items []domain.User `json:"items"`
	}
	httpez.RegisterAction[listQ, listOut](ez, d.DB, httpez.Action[listQ, listOut]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: httpez.BindQuery,
		Handler: func(c *gin.Context, tx *gorm.DB, in *listQ) (listOut, error) {
			if in.Limit <= 0 || in.Limit > 100 {
				in.Limit = 20
			}
			q := tx.Model(&domain.User{})
			if in.WithDeleted {
				q = q.Unscoped()
			}
			if s := strings.TrimSpace(in.Q); s != "" {
				like := "%" + s + "%"
				q = q.Where("email LIKE ? OR first_name LIKE ? OR last_name LIKE ?", like, like, like)
			}
			var total int64
			if err := q.Count(&total).Error; err != nil {
				return listOut{}, httpez.Internal("count users failed", err)
			}
			var us []domain.User
			if err := q.Order("created_at DESC").Limit(in.Limit).Offset(in.Offset).Find(&us).Error; err != nil {
				return listOut{}, httpez.Internal("list users failed", err)
			}
			return listOut{Total: total, Items: us}, nil
		},
	})

	// POST /admin/v1/users/:id/ban 封禁（软删）
	httpez.RegisterAction[struct{}, gin.H](ez, d.DB, httpez.Action[struct{}, gin.H]{
		Method: http.MethodPost,
		Path:   "/users/:id/ban",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (gin.H, error) {
			id := c.Param("id")
			res := tx.Where("id = ?", id).Delete(&domain.User{})
			if res.Error != nil {
				return nil, httpez.Internal("ban user failed", res.Error)
			}
			if res.RowsAffected == 0 {
				return nil, httpez.NotFound("user not found")
			}
			return gin.H{"id": id}, nil
		},
	})

	// POST /admin/v1/users/:id/adjust 手工调账，一律走台账
	type adjustIn struct {
		Points     int    `json:"points"`     // 带符号，可为 0
		Reputation int    `json:"reputation"` // 带符号，可为 0
		Reason     string `json:"reason" binding:"required,max=255"`
	}
	httpez.RegisterAction[adjustIn, gin.H](ez, d.DB, httpez.Action[adjustIn, gin.H]{
		Method: http.MethodPost,
		Path:   "/users/:id/adjust",
		Binder: httpez.BindJSON,
		UseTx:  true,
		Handler: func(c *gin.Context, tx *gorm.DB, in *adjustIn) (gin.H, error) {
			id := c.Param("id")
			switch {
			case in.Points > 0:
				if err := d.Ledger.Credit(tx, id, in.Points, domain.TxAdminAdjust, in.Reason, nil); err != nil {
					return nil, err
				}
			case in.Points < 0:
				if err := d.Ledger.Debit(tx, id, -in.Points, domain.TxAdminAdjust, in.Reason, nil); err != nil {
					return nil, err
				}
			}
			if in.Reputation != 0 {
				if err := d.Ledger.AdjustReputation(tx, id, in.Reputation, domain.RepAdminAdjust, in.Reason, nil, nil); err != nil {
					return nil, err
				}
			}
			return gin.H{"id": id}, nil
		},
	})

	// POST /admin/v1/tasks/expire 手动触发过期扫描（cron 兜底）
	httpez.RegisterAction[struct{}, gin.H](ez, d.DB, httpez.Action[struct{}, gin.H]{
		Method: http.MethodPost,
		Path:   "/tasks/expire",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *gorm.DB, _ *struct{}) (gin.H, error) {
			n, err := d.Tasks.ExpireDue(c)
			if err != nil {
				return nil, err
			}
			return gin.H{"expired": n}, nil
		},
	})

	// POST /admin/v1/departments 建院系
	type deptIn struct {
		Name string `json:"name" binding:"required,max=128"`
		Code string `json:"code" binding:"required,max=16"`
	}
	httpez.RegisterAction[deptIn, *domain.Department](ez, d.DB, httpez.Action[deptIn, *domain.Department]{
		Method: http.MethodPost,
		Path:   "/departments",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, tx *gorm.DB, in *deptIn) (*domain.Department, error) {
			dept := &domain.Department{
				ID:   utils.NewID(),
				Name: in.Name,
				Code: strings.ToUpper(in.Code),
			}
			if err := tx.Create(dept).Error; err != nil {
				if service.IsDupKey(err) {
					return nil, httpez.BadRequest("department already exists")
				}
				return nil, httpez.Internal("create department failed", err)
			}
			if d.Cache != nil {
				d.Cache.Invalidate(c, "departments")
			}
			return dept, nil
		},
	})
}
