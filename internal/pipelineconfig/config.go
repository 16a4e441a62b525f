package pipelineconfig

import "time"

// Config는 수집 → 정제 → 학습 → 예측 파이프라인의 전체 설정
// 날짜는 모두 YYYY-MM-DD 문자열 (Validate에서 형식 검증)
type Config struct {
	Meta      Meta            `yaml:"meta" json:"meta"`
	Prices    PriceWindow     `yaml:"prices" json:"prices"`
	Sentiment SentimentWindow `yaml:"sentiment" json:"sentiment"`
	Twitter   Twitter         `yaml:"twitter" json:"twitter"`
	Model     Model           `yaml:"model" json:"model"`
	Refresh   Refresh         `yaml:"refresh" json:"refresh"`
}

// Meta 메타 정보
type Meta struct {
	PipelineID string `yaml:"pipeline_id" json:"pipeline_id"`
	Version    string `yaml:"version" json:"version"`
}

// PriceWindow S0: 가격 이력 수집 구간 (양끝 포함)
type PriceWindow struct {
	Start string `yaml:"start" json:"start"`
	End   string `yaml:"end" json:"end"`
}

// SentimentWindow S1: 트윗 필터 구간 (양끝 포함)
type SentimentWindow struct {
	Start string `yaml:"start" json:"start"`
	End   string `yaml:"end" json:"end"`
}

// Twitter export 파일 규칙
type Twitter struct {
	FilePrefix string `yaml:"file_prefix" json:"file_prefix"` // export_dashboard_
	Sheet      string `yaml:"sheet" json:"sheet"`             // Stream
}

// Model S2: 학습 설정
type Model struct {
	TrainCutoff   string  `yaml:"train_cutoff" json:"train_cutoff"`     // Date <= cutoff
	PredictAfter  string  `yaml:"predict_after" json:"predict_after"`   // after < Date
	PredictBefore string  `yaml:"predict_before" json:"predict_before"` // Date < before
	TestSize      float64 `yaml:"test_size" json:"test_size"`
	Seed          int64   `yaml:"seed" json:"seed"`
	Trees         int     `yaml:"trees" json:"trees"`
	MaxDepth      int     `yaml:"max_depth" json:"max_depth"` // 0 = unlimited
	MinLeaf       int     `yaml:"min_leaf" json:"min_leaf"`
}

// Refresh 정기 갱신 (scheduler)
type Refresh struct {
	Schedule string   `yaml:"schedule" json:"schedule"` // cron, 5 fields
	Tickers  []string `yaml:"tickers" json:"tickers"`   // empty = all
}

// Default returns the reference configuration
func Default() *Config {
	return &Config{
		Meta: Meta{
			PipelineID: "nasdaq100_twitter_sentiment",
			Version:    "1",
		},
		Prices: PriceWindow{
			Start: "2016-04-01",
			End:   "2016-06-17",
		},
		Sentiment: SentimentWindow{
			Start: "2016-03-31",
			End:   "2016-06-15",
		},
		Twitter: Twitter{
			FilePrefix: "export_dashboard_",
			Sheet:      "Stream",
		},
		Model: Model{
			TrainCutoff:   "2016-05-31",
			PredictAfter:  "2016-05-25",
			PredictBefore: "2016-06-16",
			TestSize:      0.2,
			Seed:          40,
			Trees:         100,
			MinLeaf:       1,
		},
		Refresh: Refresh{
			Schedule: "0 6 * * 1-5",
		},
	}
}

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func (w PriceWindow) StartTime() time.Time     { return day(w.Start) }
func (w PriceWindow) EndTime() time.Time       { return day(w.End) }
func (w SentimentWindow) StartTime() time.Time { return day(w.Start) }
func (w SentimentWindow) EndTime() time.Time   { return day(w.End) }

func (m Model) CutoffTime() time.Time        { return day(m.TrainCutoff) }
func (m Model) PredictAfterTime() time.Time  { return day(m.PredictAfter) }
func (m Model) PredictBeforeTime() time.Time { return day(m.PredictBefore) }
