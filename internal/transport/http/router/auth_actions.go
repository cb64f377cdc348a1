package router

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"campus-taskhub/internal/domain"
	"campus-taskhub/internal/service"
	httpez "campus-taskhub/internal/transport/http/ez"
	mdw "campus-taskhub/internal/transport/http/middleware"
	"campus-taskhub/pkg/utils"
)

func mountAuthActions(api, authed *gin.RouterGroup, d Deps) {
	ezPublic := httpez.New(api)
	ezAuth := httpez.New(authed)

	// POST /auth/register 注册即发 token；注册赠分走台账，
	// 保证「余额 = 流水之和」从第一天起成立
	type registerIn struct {
		Email        string `json:"email"        binding:"required,email"`
		Password     string `json:"password"     binding:"required,min=8"`
		FirstName    string `json:"firstName"    binding:"required,max=64"`
		LastName     string `json:"lastName"     binding:"required,max=64"`
		StudentID    string `json:"studentId"    binding:"omitempty,max=32"`
		Phone        string `json:"phone"        binding:"omitempty,max=32"`
		DepartmentID string `json:"departmentId" binding:"required"`
	}
	type authOut struct {
		Token string       `json:"token"`
		User  *domain.User `json:"user"`
	}
	httpez.RegisterAction[registerIn, authOut](ezPublic, d.DB, httpez.Action[registerIn, authOut]{
		Method: http.MethodPost,
		Path:   "/auth/register",
		Binder: httpez.BindJSON,
		UseTx:  true,
		Handler: func(c *gin.Context, tx *gorm.DB, in *registerIn) (authOut, error) {
			email := strings.ToLower(strings.TrimSpace(in.Email))

			var dept domain.Department
			if e := tx.First(&dept, "id = ?", in.DepartmentID).Error; e != nil {
				if errors.Is(e, gorm.ErrRecordNotFound) {
					return authOut{}, httpez.BadRequest("invalid department")
				}
				return authOut{}, httpez.Internal("db error", e)
			}

			u := &domain.User{
				ID:           utils.NewID(),
				Email:        email,
				PasswordHash: utils.HashPassword(in.Password),
				FirstName:    in.FirstName,
				LastName:     in.LastName,
				Phone:        in.Phone,
				Role:         domain.RoleUser,
				Level:        domain.LevelNew,
				DepartmentID: in.DepartmentID,
			}
			if in.StudentID != "" {
				u.StudentID = &in.StudentID
			}
			if e := tx.Create(u).Error; e != nil {
				if service.IsDupKey(e) {
					return authOut{}, httpez.BadRequest("email or student id already registered")
				}
				return authOut{}, httpez.Internal("create user failed", e)
			}
			if e := d.Ledger.Credit(tx, u.ID, d.Cfg.Economy.SignupPoints,
				domain.TxAdminAdjust, "Signup bonus", nil); e != nil {
				return authOut{}, httpez.Internal("signup bonus failed", e)
			}
			u.Points = d.Cfg.Economy.SignupPoints

			tok, e := d.JWT.Issue(u.ID, u.Role)
			if e != nil || tok == "" {
				return authOut{}, httpez.Internal("issue token failed", e)
			}
			return authOut{Token: tok, User: u}, nil
		},
	})

	// POST /auth/login
	type loginIn struct {
		Email    string `json:"email"    binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	httpez.RegisterAction[loginIn, authOut](ezPublic, d.DB, httpez.Action[loginIn, authOut]{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, tx *gorm.DB, in *loginIn) (authOut, error) {
			email := strings.ToLower(strings.TrimSpace(in.Email))
			var u domain.User
			if e := tx.First(&u, "email = ?", email).Error; e != nil {
				if errors.Is(e, gorm.ErrRecordNotFound) {
					return authOut{}, httpez.Unauthorized("invalid credentials")
				}
				return authOut{}, httpez.Internal("db error", e)
			}
			if !utils.CheckPassword(in.Password, u.PasswordHash) {
				return authOut{}, httpez.Unauthorized("invalid credentials")
			}
			tok, e := d.JWT.Issue(u.ID, u.Role)
			if e != nil || tok == "" {
				return authOut{}, httpez.Internal("issue token failed", e)
			}
			return authOut{Token: tok, User: &u}, nil
		},
	})

	// GET /me
	httpez.RegisterAction[struct{}, *domain.User](ezAuth, d.DB, httpez.Action[struct{}, *domain.User]{
		Method: http.MethodGet,
		Path:   "/me",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (*domain.User, error) {
			var u domain.User
			if e := tx.First(&u, "id = ?", c.GetString(mdw.KeyUserID)).Error; e != nil {
				if errors.Is(e, gorm.ErrRecordNotFound) {
					return nil, httpez.NotFound("user not found")
				}
				return nil, httpez.Internal("db error", e)
			}
			return &u, nil
		},
	})
}
