package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"fxconvert-service/internal/bootstrap"
	infraconfig "fxconvert-service/internal/infrastructure/config"
	httpserver "fxconvert-service/internal/infrastructure/http"
	"fxconvert-service/internal/infrastructure/logx"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func init() { _ = godotenv.Load() }

func main() {
	logger := logx.L()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api, cleanup, err := bootstrap.InitAPI(ctx)
	if err != nil {
		logger.Fatal("api.init_failed", zap.Error(err))
	}
	defer cleanup()

	go api.Serial.Start(ctx)
	if api.Sync != nil {
		go api.Sync.Start(ctx)
	}

	addr := ":" + api.Config.Port
	server := &http.Server{
		Addr:    addr,
		Handler: httpserver.NewRouter(api.Server),
	}

	go func() {
		logger.Info("api.started", zap.String("addr", addr), zap.String("storage", api.Config.Storage))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("api.listen_failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), infraconfig.DefaultShutdownTimeout)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	logger.Info("api.stopped")
}
