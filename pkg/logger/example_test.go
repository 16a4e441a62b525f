package logger_test

import (
	"errors"

	"github.com/wonny/twitstock/pkg/config"
	"github.com/wonny/twitstock/pkg/logger"
)

// Example_withFields demonstrates structured logging the way pipeline tasks do it
func Example_withFields() {
	cfg := &config.Config{
		Env:       "production",
		LogLevel:  "info",
		LogFormat: "json",
	}

	log := logger.New(cfg)

	taskLog := log.Module("ingest").WithFields(map[string]interface{}{
		"task":   "PriceHistory",
		"ticker": "AAL",
	})
	taskLog.Info("price history stored")

	taskLog.WithError(errors.New("empty series")).Error("price history fetch failed")
}
