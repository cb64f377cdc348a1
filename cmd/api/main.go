package main

import (
	"context"
	"errors"
	"fmt"
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
	"campus-taskhub/internal/relay"
	"campus-taskhub/internal/service"
	"campus-taskhub/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.New(cfg.Log.Level, cfg.Log.JSON)
	defer cleanup()

	db := mustOpenDB(cfg, log)
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	if cfg.DB.AutoMigrate {
		if err := db.AutoMigrate(
			&domain.User{}, &domain.Department{}, &domain.Task{},
			&domain.PointTransaction{}, &domain.ReputationHistory{},
			&domain.Rating{}, &domain.Message{},
		); err != nil {
			log.Fatal("automigrate failed", zap.Error(err))
		}
		log.Info("automigrate done")
	}

	jwter := &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
	}

	var c *cache.Cache
	if cfg.Redis.Addr != "" {
		c = cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	}

	// 组装：hub 和 message service 互相依赖，先建 hub 再绑
	hub := relay.NewHub(log)
	ledger := service.NewLedger(cfg.Economy)
	policy := service.NewPolicy(cfg.Economy)
	tasks := service.NewTaskService(db, ledger, policy, cfg.Economy, hub)
	msgs := service.NewMessageService(db, hub)
	hub.Bind(msgs)
	rates := service.NewRatingService(db, ledger, cfg.Economy)
	boards := service.NewLeaderboardService(db, c)

	r := router.NewAPIEngine(router.Deps{
		DB: db, JWT: jwter, Log: log, Cache: c, Cfg: cfg,
		Tasks: tasks, Msgs: msgs, Rates: rates, Ledger: ledger,
		Boards: boards, Hub: hub,
	})

	// 过期扫描：定时兜底，accept 路径上还有懒过期
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go sweepExpired(sweepCtx, tasks, log, time.Duration(cfg.Economy.ExpireSweepSec)*time.Second)

	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)

	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.HTTP.Port)
	log.Info("api starting",
		zap.String("addr", addr),
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/health"),
		zap.String("api_v1", baseURL+"/api/v1"),
	)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("api start FAILED", zap.Error(err))
		}
	}()
	log.Info("api started SUCCESS")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	stopSweep()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	log.Info("api stopped gracefully")
}

func sweepExpired(ctx context.Context, tasks *service.TaskService, log *zap.Logger, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := tasks.ExpireDue(ctx)
			if err != nil {
				log.Warn("expire sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Info("expired tasks", zap.Int64("count", n))
			}
		}
	}
}

func mustOpenDB(cfg *config.Config, l *zap.Logger) *gorm.DB {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	})
	if err != nil {
		l.Fatal("db open", zap.Error(err))
	}
	return db
}
