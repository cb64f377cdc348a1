package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"campus-taskhub/internal/core/cache"
	"campus-taskhub/internal/domain"
	"campus-taskhub/internal/service"
	httpez "campus-taskhub/internal/transport/http/ez"
	mdw "campus-taskhub/internal/transport/http/middleware"
)

func mountMiscActions(api, authed *gin.RouterGroup, d Deps) {
	ezPublic := httpez.New(api)
	ezAuth := httpez.New(authed)

	// GET /departments 公共，变化极少，走缓存
	httpez.RegisterAction[struct{}, []domain.Department](ezPublic, d.DB, httpez.Action[struct{}, []domain.Department]{
		Method: http.MethodGet,
		Path:   "/departments",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) ([]domain.Department, error) {
			load := func(ctx context.Context) (*[]domain.Department, error) {
				var deps []domain.Department
				if e := tx.WithContext(ctx).Order("name ASC").Find(&deps).Error; e != nil {
					return nil, e
				}
				return &deps, nil
			}
			if d.Cache == nil {
				out, err := load(c)
				if err != nil {
					return nil, err
				}
				return *out, nil
			}
			out, err := cache.GetOrLoadJSON[[]domain.Department](d.Cache, c, "departments", 10*time.Minute, load)
			if err != nil {
				return nil, err
			}
			if out == nil {
				return []domain.Department{}, nil
			}
			return *out, nil
		},
	})

	// GET /leaderboard?type=all-time|weekly|department
	type boardQ struct {
		Type         string `form:"type,default=all-time"`
		DepartmentID string `form:"departmentId"`
	}
	httpez.RegisterAction[boardQ, *service.Leaderboard](ezAuth, d.DB, httpez.Action[boardQ, *service.Leaderboard]{
		Method: http.MethodGet,
		Path:   "/leaderboard",
		Binder: httpez.BindQuery,
		Auth:   true,
		Handler: func(c *gin.Context, _ *gorm.DB, in *boardQ) (*service.Leaderboard, error) {
			return d.Boards.Get(c, in.Type, in.DepartmentID)
		},
	})

	// GET /wallet 我的积分流水 + 信誉流水
	type walletOut struct {
		Points       int                        `json:"points"`
		Reputation   int                        `json:"reputation"`
		Level        string                     `json:"level"`
		Transactions []domain.PointTransaction  `json:"transactions"`
		Reputations  []domain.ReputationHistory `json:"reputationHistory"`
	}
	httpez.RegisterAction[struct{}, walletOut](ezAuth, d.DB, httpez.Action[struct{}, walletOut]{
		Method: http.MethodGet,
		Path:   "/wallet",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (walletOut, error) {
			uid := c.GetString(mdw.KeyUserID)
			var u domain.User
			if e := tx.First(&u, "id = ?", uid).Error; e != nil {
				return walletOut{}, httpez.NotFound("user not found")
			}
			var txs []domain.PointTransaction
			if e := tx.Where("user_id = ?", uid).Order("created_at DESC").Limit(100).Find(&txs).Error; e != nil {
				return walletOut{}, e
			}
			var reps []domain.ReputationHistory
			if e := tx.Where("user_id = ?", uid).Order("created_at DESC").Limit(100).Find(&reps).Error; e != nil {
				return walletOut{}, e
			}
			return walletOut{
				Points: u.Points, Reputation: u.Reputation, Level: u.Level,
				Transactions: txs, Reputations: reps,
			}, nil
		},
	})
}
