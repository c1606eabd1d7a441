package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/go-co-op/gocron/v2"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"venuebook/internal/app"
	"venuebook/internal/calendarsync"
	"venuebook/internal/config"
	"venuebook/internal/jobs"
	"venuebook/internal/pkg/logger"
)

// The worker drains the calendar sync queue (when SYNC_BACKEND=asynq) and
// runs the periodic finalizer.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	lg, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	a, err := app.New(cfg, lg)
	if err != nil {
		lg.Fatal("startup failed", zap.Error(err))
	}
	defer func() {
		if err := a.Close(); err != nil {
			lg.Error("close backends", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched, err := gocron.NewScheduler()
	if err != nil {
		lg.Fatal("scheduler", zap.Error(err))
	}
	job := jobs.NewFinalizeJob(a.Service, cfg.FinalizeGrace, 0, lg.Named("finalizer"))
	if _, err := jobs.Schedule(ctx, sched, cfg.FinalizeInterval, job); err != nil {
		lg.Fatal("schedule finalizer", zap.Error(err))
	}
	sched.Start()
	lg.Info("finalizer scheduled", zap.Duration("every", cfg.FinalizeInterval), zap.Duration("grace", cfg.FinalizeGrace))

	var srv *asynq.Server
	if cfg.SyncBackend == config.SyncAsynq {
		srv = asynq.NewServer(a.RedisOpt(), asynq.Config{
			Concurrency: 10,
			Queues:      map[string]int{calendarsync.QueueName: 1},
			Logger:      lg.Named("asynq").Sugar(),
		})
		mux := asynq.NewServeMux()
		mux.HandleFunc(calendarsync.TypeCalendarSync, a.Processor.HandleTask)
		if err := srv.Start(mux); err != nil {
			lg.Fatal("asynq server", zap.Error(err))
		}
		lg.Info("calendar sync worker started", zap.String("queue", calendarsync.QueueName))
	}

	<-ctx.Done()
	lg.Info("shutting down worker")
	if srv != nil {
		srv.Shutdown()
	}
	if err := sched.Shutdown(); err != nil {
		lg.Error("scheduler shutdown", zap.Error(err))
	}
}
