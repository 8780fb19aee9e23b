package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hamed0406/statusboard/internal/config"
	"github.com/hamed0406/statusboard/internal/dispatch"
	"github.com/hamed0406/statusboard/internal/history"
	"github.com/hamed0406/statusboard/internal/httpapi"
	"github.com/hamed0406/statusboard/internal/logging"
	"github.com/hamed0406/statusboard/internal/registry"
)

func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	logger, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	reg, err := registry.Load(cfg.RegistryPath)
	if err != nil {
		logger.Fatal("registry_load_failed", zap.String("path", cfg.RegistryPath), zap.Error(err))
	}
	if cfg.HaltThresholdSec > 0 {
		reg.HaltThresholdSec = cfg.HaltThresholdSec
	}

	var backend history.Backend = history.NewFileBackend(cfg.HistoryPath)
	if cfg.HistoryRedisURL != "" {
		rb, err := history.NewRedisBackend(cfg.HistoryRedisURL, "statusboard:history")
		if err != nil {
			logger.Warn("redis_backend_unavailable", zap.Error(err))
		} else {
			backend = rb
		}
	}
	store := history.NewStore(cfg.HistoryCapacity, backend, logger)

	d := dispatch.New(logger, reg)
	api := httpapi.NewServer(logger, reg, d, store)

	logger.Info("api_listen",
		zap.String("addr", cfg.Addr),
		zap.Int("endpoints", len(reg.Endpoints)),
	)
	if err := http.ListenAndServe(cfg.Addr, api.Router()); err != nil {
		log.Fatal(err)
	}
}
