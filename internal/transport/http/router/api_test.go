package router_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"campus-taskhub/internal/core/auth"
	"campus-taskhub/internal/core/config"
	"campus-taskhub/internal/domain"
	"campus-taskhub/internal/relay"
	"campus-taskhub/internal/service"
	resp "campus-taskhub/internal/transport/http/response"
	"campus-taskhub/internal/transport/http/router"
	"campus-taskhub/pkg/utils"
)

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func newTestEngine(t *testing.T) (*gin.Engine, *gorm.DB, *auth.JWTer) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&domain.User{}, &domain.Department{}, &domain.Task{},
		&domain.PointTransaction{}, &domain.ReputationHistory{},
		&domain.Rating{}, &domain.Message{},
	))

	cfg := &config.Config{}
	cfg.Economy = config.Economy{
		SignupPoints: 50, PostingFee: 10, CompletionAward: 15, CompletionRepBonus: 5,
		PositiveRatingRep: 3, NegativeRatingRep: 2,
		RepBronze: 50, RepSilver: 150, RepGold: 300, RepElite: 600,
		TaskTTLHours: 24, FarmingMaxPerDay: 5, FarmingWindowHours: 24,
	}

	jwter := &auth.JWTer{Secret: []byte("test-secret"), Issuer: "taskhub-test", TTL: time.Hour}
	hub := relay.NewHub(zap.NewNop())
	ledger := service.NewLedger(cfg.Economy)
	policy := service.NewPolicy(cfg.Economy)
	tasks := service.NewTaskService(db, ledger, policy, cfg.Economy, hub)
	msgs := service.NewMessageService(db, hub)
	hub.Bind(msgs)

	r := router.NewAPIEngine(router.Deps{
		DB: db, JWT: jwter, Log: zap.NewNop(), Cfg: cfg,
		Tasks: tasks, Msgs: msgs,
		Rates:  service.NewRatingService(db, ledger, cfg.Economy),
		Ledger: ledger,
		Boards: service.NewLeaderboardService(db, nil),
		Hub:    hub,
	})
	return r, db, jwter
}

func do(t *testing.T, r *gin.Engine, method, path, token string, body any) *envelope {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return &env
}

func TestHealth(t *testing.T) {
	r, _, _ := newTestEngine(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthRequired(t *testing.T) {
	r, _, _ := newTestEngine(t)
	env := do(t, r, http.MethodGet, "/api/v1/me", "", nil)
	assert.Equal(t, resp.CodeUnauthorized, env.Code)
}

func TestRegisterLoginMe(t *testing.T) {
	r, db, _ := newTestEngine(t)
	dept := &domain.Department{ID: utils.NewID(), Name: "CS", Code: "CS"}
	require.NoError(t, db.Create(dept).Error)

	reg := map[string]any{
		"email": "alice@campus.test", "password": "s3cret-pw",
		"firstName": "Alice", "lastName": "Zhang", "departmentId": dept.ID,
	}
	env := do(t, r, http.MethodPost, "/api/v1/auth/register", "", reg)
	require.Equal(t, resp.CodeOK, env.Code, env.Msg)

	var out struct {
		Token string      `json:"token"`
		User  domain.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.NotEmpty(t, out.Token)
	// 注册赠分走台账
	assert.Equal(t, 50, out.User.Points)
	assert.Equal(t, domain.LevelNew, out.User.Level)

	// 重复注册
	env = do(t, r, http.MethodPost, "/api/v1/auth/register", "", reg)
	assert.Equal(t, resp.CodeBadRequest, env.Code)

	// 登录 + me
	env = do(t, r, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email": "alice@campus.test", "password": "s3cret-pw",
	})
	require.Equal(t, resp.CodeOK, env.Code)
	require.NoError(t, json.Unmarshal(env.Data, &out))

	env = do(t, r, http.MethodGet, "/api/v1/me", out.Token, nil)
	require.Equal(t, resp.CodeOK, env.Code)
	var me domain.User
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "alice@campus.test", me.Email)

	// 密码错
	env = do(t, r, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email": "alice@campus.test", "password": "wrong",
	})
	assert.Equal(t, resp.CodeUnauthorized, env.Code)
}

func TestCreateTaskOverHTTP(t *testing.T) {
	r, db, jwter := newTestEngine(t)
	dept := &domain.Department{ID: utils.NewID(), Name: "CS", Code: "CS"}
	require.NoError(t, db.Create(dept).Error)

	newbie := &domain.User{
		ID: utils.NewID(), Email: "new@campus.test", PasswordHash: "x",
		Role: domain.RoleUser, Level: domain.LevelNew, Points: 100, DepartmentID: dept.ID,
	}
	veteran := &domain.User{
		ID: utils.NewID(), Email: "vet@campus.test", PasswordHash: "x",
		Role: domain.RoleUser, Level: domain.LevelBronze, Points: 100, Reputation: 60,
		DepartmentID: dept.ID,
	}
	require.NoError(t, db.Create(newbie).Error)
	require.NoError(t, db.Create(veteran).Error)

	body := map[string]any{
		"title": "帮取快递", "description": "菜鸟驿站取个件",
		"category": domain.CategoryErrand, "departmentId": dept.ID, "rewardPoints": 20,
	}

	// NEW 等级不能发
	tok, err := jwter.Issue(newbie.ID, newbie.Role)
	require.NoError(t, err)
	env := do(t, r, http.MethodPost, "/api/v1/tasks", tok, body)
	assert.Equal(t, resp.CodeForbidden, env.Code)

	tok, err = jwter.Issue(veteran.ID, veteran.Role)
	require.NoError(t, err)
	env = do(t, r, http.MethodPost, "/api/v1/tasks", tok, body)
	require.Equal(t, resp.CodeOK, env.Code, env.Msg)

	var task domain.Task
	require.NoError(t, json.Unmarshal(env.Data, &task))
	assert.Equal(t, domain.TaskOpen, task.Status)

	// 列表能看到
	env = do(t, r, http.MethodGet, "/api/v1/tasks", tok, nil)
	require.Equal(t, resp.CodeOK, env.Code)
	var tasks []domain.Task
	require.NoError(t, json.Unmarshal(env.Data, &tasks))
	assert.Len(t, tasks, 1)
}
