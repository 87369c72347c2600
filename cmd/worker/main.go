package main

import (
	"context"
	"os/signal"
	"syscall"

	"fxconvert-service/internal/bootstrap"
	"fxconvert-service/internal/infrastructure/logx"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func init() { _ = godotenv.Load() }

func main() {
	log := logx.L()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w, cleanup, err := bootstrap.InitWorker(ctx)
	if err != nil {
		log.Fatal("worker.init_failed", zap.Error(err))
	}
	defer cleanup()
	w.Start(ctx)
}
