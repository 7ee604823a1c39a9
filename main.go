package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/KRIPAVERMA/mediabotbackend/auth"
	"github.com/KRIPAVERMA/mediabotbackend/backend"
	"github.com/KRIPAVERMA/mediabotbackend/config"
	"github.com/KRIPAVERMA/mediabotbackend/handler"
	"github.com/KRIPAVERMA/mediabotbackend/history"
	"github.com/KRIPAVERMA/mediabotbackend/model"
	"github.com/KRIPAVERMA/mediabotbackend/service"
	"github.com/KRIPAVERMA/mediabotbackend/store"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}
	if err := os.MkdirAll(cfg.DownloadDir, 0o755); err != nil {
		logger.Fatal("create download dir", zap.Error(err))
	}

	jobs := store.NewJobStore(logger, func(job model.Job) {
		backend.CleanupJobFiles(cfg.DownloadDir, job.ID)
	})

	transcoder := backend.NewTranscoder(cfg.FfmpegPath)
	ytdlp := backend.NewYtDlpBackend(cfg.YtDlpPath, cfg.DownloadDir, transcoder, logger)
	backends := backend.Registry{
		model.PlatformYouTube:   backend.NewInnertubeBackend(cfg.DownloadDir, transcoder, logger),
		model.PlatformInstagram: ytdlp,
		model.PlatformFacebook:  ytdlp,
	}

	recorder := &history.LogRecorder{Logger: logger}
	orchestrator := service.NewOrchestrator(jobs, backends, recorder,
		cfg.ExtractTimeout, cfg.MaxConcurrent, logger)

	h := handler.NewDownloadHandler(orchestrator, jobs, auth.Anonymous{},
		ytdlp, cfg.DownloadDir, logger)

	router := gin.Default()
	h.Register(router)

	reapCtx, stopReaper := context.WithCancel(context.Background())
	jobs.StartReaper(reapCtx, cfg.ReapInterval, cfg.JobTTL)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: router,
	}

	go func() {
		logger.Info("server started", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutdown signal received")

	// Stop accepting new requests; in-flight extractions keep their own
	// deadlines and the process exits once the listener drains.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	stopReaper()
	logger.Info("server exited properly")
}
