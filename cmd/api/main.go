package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/sngm3741/delicious/api/internal/config"
	"github.com/sngm3741/delicious/api/internal/logging"
	"github.com/sngm3741/delicious/api/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("設定の読み込みに失敗しました", "error", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	app, err := server.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("server setup failed", "error", err)
		os.Exit(1)
	}
	if err := app.Run(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
