package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/ideahub/config"
	"github.com/d60-Lab/ideahub/internal/api/handler"
	"github.com/d60-Lab/ideahub/internal/api/router"
	"github.com/d60-Lab/ideahub/internal/devserver"
	"github.com/d60-Lab/ideahub/internal/repository"
	"github.com/d60-Lab/ideahub/pkg/database"
	"github.com/d60-Lab/ideahub/pkg/logger"
	"github.com/d60-Lab/ideahub/pkg/telemetry"
)

// @title IdeaHub 开发服务器
// @version 1.0
// @description 本地开发用的 IdeaHub REST API：创意、评分、评论、账号
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Mode); err != nil {
		panic(err)
	}
	defer logger.Sync()
	if cfg.Log.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	shutdownTelemetry, err := telemetry.Init(ctx, cfg)
	if err != nil {
		logger.L().Fatal("telemetry init failed", zap.Error(err))
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.L().Fatal("database connection failed", zap.Error(err))
	}
	if err := repository.InitServerSchema(db); err != nil {
		logger.L().Fatal("migrations failed", zap.Error(err))
	}

	auth := devserver.NewAuth(cfg.Server.JWTSecret, cfg.Server.TokenTTL)
	svc := devserver.NewServiceFromDB(db, auth)

	worker := devserver.NewTrendWorker(db,
		repository.NewIdeaRepository(db),
		repository.NewRatingRepository(db),
		cfg.Server.TrendWindow,
		cfg.Server.TrendInterval,
	)
	stopWorker := worker.Start()

	engine := router.New(router.Config{
		ServiceName: cfg.Telemetry.ServiceName,
		CORSOrigins: cfg.Server.CORSOrigins,
		Handler:     handler.NewHandler(svc),
		Auth:        auth,
	})
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("dev server listening", zap.String("addr", cfg.Server.Addr), zap.String("db", cfg.Database.Type))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal("server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", zap.Error(err))
	}
	if err := stopWorker(shutdownCtx); err != nil {
		logger.Warn("trend worker stop error", zap.Error(err))
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.Warn("telemetry shutdown error", zap.Error(err))
	}
}
