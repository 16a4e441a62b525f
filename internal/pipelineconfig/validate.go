package pipelineconfig

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.PipelineID == "" {
		return ValidationError{"meta.pipeline_id", "required"}
	}

	// === Dates ===
	dates := []struct {
		field string
		value string
	}{
		{"prices.start", cfg.Prices.Start},
		{"prices.end", cfg.Prices.End},
		{"sentiment.start", cfg.Sentiment.Start},
		{"sentiment.end", cfg.Sentiment.End},
		{"model.train_cutoff", cfg.Model.TrainCutoff},
		{"model.predict_after", cfg.Model.PredictAfter},
		{"model.predict_before", cfg.Model.PredictBefore},
	}
	for _, d := range dates {
		if _, err := time.Parse("2006-01-02", d.value); err != nil {
			return ValidationError{d.field, fmt.Sprintf("invalid date %q (want YYYY-MM-DD)", d.value)}
		}
	}

	if cfg.Prices.EndTime().Before(cfg.Prices.StartTime()) {
		return ValidationError{"prices", "end must not be before start"}
	}
	if cfg.Sentiment.EndTime().Before(cfg.Sentiment.StartTime()) {
		return ValidationError{"sentiment", "end must not be before start"}
	}
	if !cfg.Model.PredictAfterTime().Before(cfg.Model.PredictBeforeTime()) {
		return ValidationError{"model.predict_after", "must be before predict_before"}
	}

	// === Twitter ===
	if cfg.Twitter.FilePrefix == "" {
		return ValidationError{"twitter.file_prefix", "required"}
	}
	if cfg.Twitter.Sheet == "" {
		return ValidationError{"twitter.sheet", "required"}
	}

	// === Model ===
	if cfg.Model.TestSize <= 0 || cfg.Model.TestSize >= 1 {
		return ValidationError{"model.test_size", "must be in (0, 1)"}
	}
	if cfg.Model.Trees < 1 {
		return ValidationError{"model.trees", "must be >= 1"}
	}
	if cfg.Model.MaxDepth < 0 {
		return ValidationError{"model.max_depth", "must be >= 0"}
	}
	if cfg.Model.MinLeaf < 1 {
		return ValidationError{"model.min_leaf", "must be >= 1"}
	}

	// === Refresh ===
	if cfg.Refresh.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Refresh.Schedule); err != nil {
			return ValidationError{"refresh.schedule", err.Error()}
		}
	}

	return nil
}
