package ez

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"campus-taskhub/internal/service"
	mdw "campus-taskhub/internal/transport/http/middleware"
	resp "campus-taskhub/internal/transport/http/response"
)

type EZ struct{ g *gin.RouterGroup }

func New(g *gin.RouterGroup) EZ { return EZ{g: g} }

// AErr 统一错误对象，code 直接进响应体
type AErr struct {
	Code int
	Msg  string
	Err  error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func BadRequest(msg string) error   { return &AErr{Code: resp.CodeBadRequest, Msg: msg} }
func Unauthorized(msg string) error { return &AErr{Code: resp.CodeUnauthorized, Msg: msg} }
func Forbidden(msg string) error    { return &AErr{Code: resp.CodeForbidden, Msg: msg} }
func NotFound(msg string) error     { return &AErr{Code: resp.CodeNotFound, Msg: msg} }
func Conflict(msg string) error     { return &AErr{Code: resp.CodeWrongState, Msg: msg} }
func RateLimited(msg string) error  { return &AErr{Code: resp.CodeRateLimited, Msg: msg} }
func Internal(msg string, err error) error {
	return &AErr{Code: resp.CodeServerError, Msg: msg, Err: err}
}

// FromErr 业务哨兵 → 响应码。没认出来的按 500 处理，细节不出网。
func FromErr(err error) *AErr {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return &AErr{Code: resp.CodeNotFound, Msg: err.Error()}
	case errors.Is(err, service.ErrUnauthorized):
		return &AErr{Code: resp.CodeForbidden, Msg: err.Error()}
	case errors.Is(err, service.ErrRateLimited):
		return &AErr{Code: resp.CodeRateLimited, Msg: err.Error()}
	case errors.Is(err, service.ErrWrongState),
		errors.Is(err, service.ErrNotOpen),
		errors.Is(err, service.ErrExpired),
		errors.Is(err, service.ErrConflict),
		errors.Is(err, service.ErrAlreadyRated),
		errors.Is(err, service.ErrAlreadyTerminal):
		return &AErr{Code: resp.CodeWrongState, Msg: err.Error()}
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrSelfAccept),
		errors.Is(err, service.ErrInsufficientPoints),
		errors.Is(err, service.ErrInvalidReceiver):
		return &AErr{Code: resp.CodeBadRequest, Msg: err.Error()}
	case errors.Is(err, service.ErrLevelTooLow):
		return &AErr{Code: resp.CodeForbidden, Msg: err.Error()}
	}
	return &AErr{Code: resp.CodeServerError, Msg: "internal error", Err: err}
}

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"
	BindQuery Binder = "query"
	BindNone  Binder = "none" // 自己从 c.Param / c.Query 取
)

// Action 非 CRUD 一行注册：I 入参，O 出参
type Action[I any, O any] struct {
	Method  string
	Path    string
	Binder  Binder
	Auth    bool     // 是否要求登录（检查 userId）
	Roles   []string // 限定角色（可选）
	UseTx   bool     // 包一层 gorm 事务
	Handler func(c *gin.Context, db *gorm.DB, in *I) (O, error)
}

func RegisterAction[I any, O any](e EZ, db *gorm.DB, a Action[I, O]) {
	h := func(c *gin.Context) {
		// 1) 鉴权/角色
		if a.Auth {
			uid := c.GetString(mdw.KeyUserID)
			if uid == "" {
				c.JSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "unauthorized"))
				return
			}
			if len(a.Roles) > 0 {
				role := c.GetString(mdw.KeyRole)
				ok := false
				for _, r := range a.Roles {
					if role == r {
						ok = true
						break
					}
				}
				if !ok {
					c.JSON(http.StatusOK, resp.Error(resp.CodeForbidden, "forbidden"))
					return
				}
			}
		}

		// 2) 绑定入参
		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		}
		if bindErr != nil {
			c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, bindErr.Error()))
			return
		}

		// 3) 执行（可选事务）
		var out O
		var err error
		if a.UseTx {
			err = db.WithContext(c).Transaction(func(tx *gorm.DB) error {
				o, e := a.Handler(c, tx, &in)
				out = o
				return e
			})
		} else {
			out, err = a.Handler(c, db.WithContext(c), &in)
		}

		// 4) 统一错误映射
		if err != nil {
			var ae *AErr
			if !errors.As(err, &ae) {
				ae = FromErr(err)
			}
			c.JSON(http.StatusOK, resp.Error(ae.Code, ae.Error()))
			return
		}
		c.JSON(http.StatusOK, resp.OK(out))
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default:
		e.g.POST(a.Path, h)
	}
}
