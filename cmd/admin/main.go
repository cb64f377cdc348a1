package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus-taskhub/internal/core/auth"
	"campus-taskhub/internal/core/cache"
	"campus-taskhub/internal/core/config"
	"campus-taskhub/internal/core/database"
	"campus-taskhub/internal/core/logger"
	"campus-taskhub/internal/core/server"
	"campus-taskhub/internal/domain"
	"campus-taskhub/internal/service"
	"campus-taskhub/internal/transport/http/router"
	"campus-taskhub/pkg/utils"
)

// 后台管理进程：独立端口，仅挂 admin 路由，不跑 websocket 和过期扫描。
func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.New(cfg.Log.Level, cfg.Log.JSON)
	defer cleanup()

	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	})
	if err != nil {
		log.Fatal("db open", zap.Error(err))
	}

	seedDepartments(db, log)

	jwter := &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
	}

	var c *cache.Cache
	if cfg.Redis.Addr != "" {
		c = cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	}

	ledger := service.NewLedger(cfg.Economy)
	policy := service.NewPolicy(cfg.Economy)
	tasks := service.NewTaskService(db, ledger, policy, cfg.Economy, nil)

	r := router.NewAdminEngine(router.Deps{
		DB: db, JWT: jwter, Log: log, Cache: c, Cfg: cfg,
		Tasks: tasks, Ledger: ledger,
	})

	addr := server.Addr(cfg.App.Admin.Host, cfg.App.Admin.Port)
	srv := server.BuildServer(addr, r, 15*time.Second, 15*time.Second, 60*time.Second)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("admin start FAILED", zap.Error(err))
		}
	}()
	log.Info("admin started", zap.String("addr", addr))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	log.Info("admin stopped gracefully")
}

// 初始院系数据，存在则跳过
func seedDepartments(db *gorm.DB, log *zap.Logger) {
	var n int64
	if err := db.Model(&domain.Department{}).Count(&n).Error; err != nil || n > 0 {
		return
	}
	seeds := []domain.Department{
		{ID: utils.NewID(), Name: "计算机科学与技术学院", Code: "CS"},
		{ID: utils.NewID(), Name: "电子信息工程学院", Code: "EE"},
		{ID: utils.NewID(), Name: "经济管理学院", Code: "EM"},
		{ID: utils.NewID(), Name: "外国语学院", Code: "FL"},
		{ID: utils.NewID(), Name: "数学与统计学院", Code: "MATH"},
	}
	if err := db.Create(&seeds).Error; err != nil {
		log.Warn("seed departments failed", zap.Error(err))
		return
	}
	log.Info("seeded departments", zap.Int("count", len(seeds)))
}
