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

	"go-library-server/internal/account"
	"go-library-server/internal/audit"
	"go-library-server/internal/core/auth"
	"go-library-server/internal/core/cache"
	"go-library-server/internal/core/config"
	"go-library-server/internal/core/logger"
	"go-library-server/internal/core/server"
	"go-library-server/internal/ledger"
	"go-library-server/internal/store"
	"go-library-server/internal/transport/http/handler"
	"go-library-server/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.New(cfg.Log.Level, cfg.Log.JSON)
	defer cleanup()

	// 文档库（失败直接 Fatal）
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		log.Fatal("store open", zap.Error(err))
	}
	log.Info("store opened", zap.String("path", cfg.Store.Path))

	// JWT
	jwter := &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
	}

	// 书目缓存（可选）
	var bookCache *cache.Cache
	if cfg.Redis.Addr != "" {
		bookCache = cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		st.AfterCommit(func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			bookCache.Invalidate(ctx, cache.KeyBooks)
		})
		log.Info("book cache enabled", zap.String("redis", cfg.Redis.Addr))
	}

	// 业务装配：审计和借还共用同一个串行写入器
	auditLog := audit.New(st, log)
	h := &handler.Handler{
		Log:     log,
		Store:   st,
		Account: account.New(st, auditLog),
		Ledger:  ledger.New(st, cfg.Library.LoanDays),
		Audit:   auditLog,
		JWTer:   jwter,
		Cache:   bookCache,
		BookTTL: time.Duration(max(1, cfg.Redis.BookTTLSec)) * time.Second,
	}

	r := router.NewAPIEngine(log, st, jwter, h)

	// HTTP Server
	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)

	// 启动日志
	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.HTTP.Port)
	log.Info("library api starting",
		zap.String("addr", addr),
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/health"),
	)

	// 异步启动
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("library api start FAILED", zap.Error(err))
		}
	}()
	log.Info("library api started SUCCESS")

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	log.Info("library api stopped gracefully")
}
