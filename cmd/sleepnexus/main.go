// Package main запускает HTTP-сервер сервиса sleepnexus.
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

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nexussleep/sleepnexus-system/internal/config"
	"github.com/nexussleep/sleepnexus-system/internal/handler"
	"github.com/nexussleep/sleepnexus-system/internal/migrate"
	"github.com/nexussleep/sleepnexus-system/internal/points"
	"github.com/nexussleep/sleepnexus-system/internal/service"
	"github.com/nexussleep/sleepnexus-system/internal/storage"
	"github.com/nexussleep/sleepnexus-system/internal/store"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	// База может подниматься параллельно с сервисом, поэтому инициализация
	// хранилища повторяется с нарастающей задержкой.
	var blob storage.Blob
	backoff := retry.WithMaxRetries(3, retry.NewFibonacci(1*time.Second))
	err = retry.Do(context.Background(), backoff, func(ctx context.Context) error {
		var initErr error
		blob, initErr = storage.New(cfg)
		if initErr != nil {
			sugar.Warnw("storage initialization failed, retrying", "error", initErr.Error())
			return retry.RetryableError(initErr)
		}
		return nil
	})
	if err != nil {
		sugar.Fatalw("storage initialization error", "error", err.Error())
	}
	defer blob.Close()

	raw, err := blob.Load(context.Background())
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		// Недоступное при старте хранилище фатально: запуск со свежим
		// состоянием затёр бы существующий документ первой же записью.
		sugar.Fatalw("load state error", "error", err.Error())
	}

	state := migrate.Normalize(raw, logger)

	var calc points.Calculator
	if cfg.PointsSystemAddress != "" {
		calc = points.NewClient(cfg.PointsSystemAddress)
	} else {
		calc = points.NewLocalCalculator()
	}

	st := store.New(state, blob, logger)
	svc := service.NewService(st, calc)
	h := handler.NewHandler(svc, logger)

	r := h.SetupRouter()

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting sleepnexus server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
