package contracts

import (
	"context"
	"time"
)

// PriceSource provides daily adjusted closes (S0)
// ⭐ SSOT: 가격 이력 수집 인터페이스
type PriceSource interface {
	// History returns the series for [start, end], both inclusive, sorted by date.
	History(ctx context.Context, ticker string, start, end time.Time) ([]PricePoint, error)
}

// SentimentScorer scores one tweet (S1)
// ⭐ SSOT: 감성 점수 인터페이스
type SentimentScorer interface {
	// Compound returns a normalized score in [-1, 1]; 0 means neutral.
	Compound(text string) float64
}
