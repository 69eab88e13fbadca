package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	authapp "github.com/cfm/backend/internal/application/auth"
	paymentsapp "github.com/cfm/backend/internal/application/payments"
	reportsapp "github.com/cfm/backend/internal/application/reports"
	stateapp "github.com/cfm/backend/internal/application/state"
	studentsapp "github.com/cfm/backend/internal/application/students"
	"github.com/cfm/backend/internal/infrastructure/config"
	"github.com/cfm/backend/internal/infrastructure/logger"
	"github.com/cfm/backend/internal/infrastructure/persistence"
	"github.com/cfm/backend/internal/infrastructure/session"
	"github.com/cfm/backend/internal/interfaces/http/handler"
	"github.com/cfm/backend/internal/interfaces/http/middleware"
	"github.com/cfm/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// version is set at build time via -ldflags
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting college fee management backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	gormLog := logger.NewGormLogger(log, gormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	sessionStore, err := session.NewStore(cfg, db.DB)
	if err != nil {
		log.Fatal("Failed to initialize session store", zap.Error(err))
	}
	log.Info("Session store ready", zap.String("store", cfg.Session.Store))

	stateRepo := persistence.NewGormStateRepository(db.DB)

	// Application services
	authService := authapp.NewService(stateRepo, sessionStore, log)
	stateService := stateapp.NewService(stateRepo, log)
	paymentService := paymentsapp.NewService(stateRepo, log)
	importService := studentsapp.NewImportService(stateRepo, log)
	reportService := reportsapp.NewService(stateRepo, log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Failed to set trusted proxies", zap.Error(err))
		}
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders

	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log, cfg.Cookie.Name),
		logger.Recovery(log),
		middleware.CORSWithConfig(corsCfg),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	sessionAuth := middleware.NewSessionAuth(cfg.Cookie.Name, authService)

	router.NewRouter(engine).
		Register(handler.NewSystemHandler(cfg.App.Name, version)).
		Register(handler.NewAuthHandler(authService, cfg.Cookie)).
		Register(handler.NewStateHandler(stateService, sessionAuth)).
		Register(handler.NewPaymentHandler(paymentService, sessionAuth)).
		Register(handler.NewStudentHandler(importService, sessionAuth)).
		Register(handler.NewReportHandler(reportService, sessionAuth)).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
	log.Info("Server stopped")
}

func gormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "debug":
		return gormlogger.Info
	case "warn", "error":
		return gormlogger.Error
	default:
		return gormlogger.Warn
	}
}
