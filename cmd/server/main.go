package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coderag/index_go_server/config"
	"github.com/coderag/index_go_server/internal/api"
	"github.com/coderag/index_go_server/internal/api/handler"
	"github.com/coderag/index_go_server/internal/database"
	"github.com/coderag/index_go_server/internal/indexer"
	"github.com/coderag/index_go_server/internal/notify"
	"github.com/coderag/index_go_server/internal/pkg/cron"
	"github.com/coderag/index_go_server/internal/pkg/email"
	"github.com/coderag/index_go_server/internal/pkg/oss"
	"github.com/coderag/index_go_server/internal/pkg/pubsub"
	"github.com/coderag/index_go_server/internal/pkg/ws"
	"github.com/coderag/index_go_server/internal/repository"
	"github.com/coderag/index_go_server/internal/worker"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	log.Println("Database connected")

	jobRepo := repository.NewJobRepository(db)
	unitRepo := repository.NewUnitRepository(db)

	wsHub := ws.NewHub()
	log.Println("WebSocket hub started")

	// Notification backends: log always, the rest when configured.
	throttle := time.Duration(cfg.Notify.ThrottleSeconds) * time.Second
	dispatcher := notify.NewDispatcher(throttle, notify.NewLogBackend())
	dispatcher.AddBackend(notify.NewWSBackend(wsHub))

	if cfg.Redis.Host != "" {
		rdb, err := database.NewRedis(&cfg.Redis)
		if err != nil {
			log.Fatalf("Failed to connect redis: %v", err)
		}
		log.Println("Redis connected")
		dispatcher.AddBackend(notify.NewRedisBackend(pubsub.NewPublisher(rdb)))
	}

	if cfg.Notify.EmailEnabled && cfg.Notify.EmailTo != "" {
		emailSvc := email.NewService(&cfg.Email)
		dispatcher.AddBackend(notify.NewEmailBackend(emailSvc, cfg.Notify.EmailTo))
		log.Println("Email notifications enabled")
	}

	// Completion reports go to OSS when configured, otherwise local disk.
	var archiver worker.ReportArchiver
	if cfg.OSS.Endpoint != "" {
		ossClient, err := oss.NewClient(&cfg.OSS)
		if err != nil {
			log.Fatalf("Failed to create OSS client: %v", err)
		}
		archiver = ossClient
		log.Println("OSS report archival enabled")
	}
	reporter := worker.NewReporter(jobRepo, archiver, cfg.Jobs.ReportDir)

	factory := func(projectName string) indexer.Worker {
		return indexer.NewCodeWorker(projectName, unitRepo)
	}
	pauseTimeout := time.Duration(cfg.Jobs.PauseTimeoutSeconds) * time.Second
	controller := worker.NewController(jobRepo, dispatcher, factory, reporter, pauseTimeout)

	if cfg.Jobs.ReconcileOnStart {
		demoted, err := controller.ReconcileStale()
		if err != nil {
			log.Fatalf("Failed to reconcile stale jobs: %v", err)
		}
		if demoted > 0 {
			log.Printf("Reconciled %d stale running jobs to paused", demoted)
		}
	}

	cronSvc := cron.NewService(jobRepo, cfg.Jobs.ReportDir, cfg.Jobs.CleanAgeDays)
	cronSvc.Start()
	defer cronSvc.Stop()

	authHandler := handler.NewAuthHandler(&cfg.JWT)
	jobHandler := handler.NewJobHandler(controller)
	websocketHandler := handler.NewWebSocketHandler(wsHub, cfg.JWT.Secret)

	router := api.NewRouter(authHandler, jobHandler, websocketHandler, cfg)
	engine := router.Setup()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: engine,
	}

	go func() {
		log.Printf("Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
