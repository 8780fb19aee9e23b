package config

import (
	"os"
	"strconv"
)

type Config struct {
	Addr             string // API bind address, e.g., "127.0.0.1:8080" or ":8080"
	LogDir           string // logs directory
	RegistryPath     string // endpoint registry YAML
	HistoryPath      string // history JSON file (file backend)
	HistoryCapacity  int    // retained snapshots
	HistoryRedisURL  string // non-empty switches the history backend to redis
	HaltThresholdSec int    // overrides the registry's halt threshold when > 0
}

func FromEnv() Config {
	addr := os.Getenv("API_ADDR")
	if addr == "" {
		addr = "127.0.0.1:8080"
	}

	logDir := os.Getenv("LOG_DIR")
	if logDir == "" {
		logDir = "logs"
	}

	registryPath := os.Getenv("REGISTRY_PATH")
	if registryPath == "" {
		registryPath = "registry.yaml"
	}

	historyPath := os.Getenv("HISTORY_PATH")
	if historyPath == "" {
		historyPath = "data/history.json"
	}

	capacity := 0
	if v := os.Getenv("HISTORY_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			capacity = n
		}
	}

	halt := 0
	if v := os.Getenv("HALT_THRESHOLD_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			halt = n
		}
	}

	return Config{
		Addr:             addr,
		LogDir:           logDir,
		RegistryPath:     registryPath,
		HistoryPath:      historyPath,
		HistoryCapacity:  capacity,
		HistoryRedisURL:  os.Getenv("HISTORY_REDIS_URL"),
		HaltThresholdSec: halt,
	}
}
