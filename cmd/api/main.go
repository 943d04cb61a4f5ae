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

	"github.com/mandacaru/erp-api/internal/audit"
	"github.com/mandacaru/erp-api/internal/config"
	dbpkg "github.com/mandacaru/erp-api/internal/db"
	"github.com/mandacaru/erp-api/internal/infra/cache"
	"github.com/mandacaru/erp-api/internal/infra/payment"
	"github.com/mandacaru/erp-api/internal/infra/storage"
	"github.com/mandacaru/erp-api/internal/logger"
	"github.com/mandacaru/erp-api/internal/metrics"
	"github.com/mandacaru/erp-api/internal/middleware"
	"github.com/mandacaru/erp-api/internal/routes"
)

func main() {
	cfg, err := config.LoadAndValidate()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := dbpkg.NewDB(cfg, log)
	if err != nil {
		log.Fatal("failed to connect database", zap.Error(err))
	}

	dispatcher := audit.NewDispatcher(audit.New(db), log)

	deps := routes.Deps{
		DB:      db,
		Config:  cfg,
		Log:     log,
		Audit:   dispatcher,
		Metrics: metrics.New(),
	}

	// clientes externos são opcionais
	if cfg.RedisURL != "" {
		rdb, err := cache.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Fatal("invalid REDIS_URL", zap.Error(err))
		}
		defer rdb.Close()
		deps.Idempotency = cache.NewRedisIdempotencyStore(rdb)
	} else {
		log.Warn("REDIS_URL not set, idempotency disabled")
	}

	if cfg.S3Bucket != "" {
		deps.Uploader = storage.NewS3Uploader(cfg)
	} else {
		log.Warn("S3_BUCKET not set, uploads disabled")
	}

	if cfg.MercadoPagoToken != "" {
		mp, err := payment.NewMercadoPago(cfg.MercadoPagoToken)
		if err != nil {
			log.Fatal("invalid MP_ACCESS_TOKEN", zap.Error(err))
		}
		deps.Payments = mp
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(log),
		middleware.CORSMiddleware(cfg.CORSOrigins),
		deps.Metrics.Middleware(),
	)

	routes.RegisterRoutes(r, deps)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server running", zap.String("addr", cfg.Addr()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	// drena os eventos de auditoria pendentes antes de fechar o banco
	dispatcher.Close()

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("server stopped")
}
