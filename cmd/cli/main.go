package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/hamed0406/statusboard/internal/config"
	"github.com/hamed0406/statusboard/internal/dispatch"
	"github.com/hamed0406/statusboard/internal/registry"
)

// Runs one check cycle against the configured registry and prints the
// results as JSON. Handy for cron jobs and quick ops checks.
func main() {
	cfg := config.FromEnv()

	reg, err := registry.Load(cfg.RegistryPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "registry error:", err)
		os.Exit(1)
	}

	d := dispatch.New(zap.NewNop(), reg)
	results := d.Run(context.Background(), registry.FilterOptions{
		Category:    os.Getenv("FILTER_CATEGORY"),
		Environment: os.Getenv("FILTER_ENVIRONMENT"),
	})

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		fmt.Fprintln(os.Stderr, "encode error:", err)
		os.Exit(1)
	}
}
