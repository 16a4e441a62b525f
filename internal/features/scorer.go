package features

import (
	"strings"

	"github.com/jonreiter/govader"
)

// VaderScorer scores tweets with the VADER lexicon and rules.
// One scorer is shared by every extract task.
type VaderScorer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewVaderScorer loads the bundled VADER lexicon
func NewVaderScorer() *VaderScorer {
	return &VaderScorer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Compound implements contracts.SentimentScorer
func (s *VaderScorer) Compound(text string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	return s.analyzer.PolarityScores(text).Compound
}
