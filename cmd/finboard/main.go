// finboard serves the personal finance dashboard.
package main

import (
	"context"
	"errors"
	nethttp "net/http"
	"os"
	"time"

	"finboard/internal/auth"
	"finboard/internal/cli"
	"finboard/internal/http"
	"finboard/internal/log"
	"finboard/internal/store"
)

func main() {
	logger := cli.SetupLogger()
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(logger)

	records := store.New(cfg.DataDir, logger)
	creds := cli.InitAuth(logger, cfg.SQLiteDBPath, records)
	defer creds.Close()

	sessions := auth.NewSessionManager(cfg.SessionTTL)

	srv := http.NewServer(":"+cfg.Port, records, creds, sessions, logger)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 120 * time.Second
	srv.MaxHeaderBytes = 1 << 20

	ctx, done := cli.GracefulShutdown(logger, 15*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown failed", log.FieldError, err.Error(), log.FieldOperation, log.OpShutdown)
		}
	})

	logger.Info("Server starting",
		"addr", srv.Addr,
		"data_dir", cfg.DataDir,
		log.FieldOperation, log.OpStartup,
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		logger.Error("Server failed", log.FieldError, err.Error())
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
}
