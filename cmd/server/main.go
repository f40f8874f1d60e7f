package main

import (
	"context"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/hardhat-labs/scenecontract/internal/server"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	opts := server.HandlerOptions{Logger: logger}
	if os.Getenv("DATABASE_URL") != "" || os.Getenv("DB_HOST") != "" {
		pool, err := server.Pool(context.Background())
		if err != nil {
			logger.Fatal("database dial failed", zap.Error(err))
		}
		defer pool.Close()
		opts.Pool = pool
	}

	handler, err := server.NewHandler(opts)
	if err != nil {
		logger.Fatal("handler init failed", zap.Error(err))
	}

	logger.Info("listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("serve failed", zap.Error(err))
	}
}
