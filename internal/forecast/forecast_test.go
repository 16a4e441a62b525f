package forecast

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/twitstock/internal/contracts"
	"github.com/wonny/twitstock/internal/features"
	"github.com/wonny/twitstock/internal/ingest"
	"github.com/wonny/twitstock/internal/pipelineconfig"
	"github.com/wonny/twitstock/internal/task"
	"github.com/wonny/twitstock/pkg/database"
	"github.com/wonny/twitstock/pkg/logger"
	"github.com/wonny/twitstock/pkg/objstore"
)

func day(s string) time.Time {
	t, _ := time.Parse(contracts.DateLayout, s)
	return t
}

// featureRows builds the reference calendar where tomorrow rises iff today's sentiment is positive
func featureRows() []contracts.FeatureRow {
	var rows []contracts.FeatureRow
	i := 0
	for d := day("2016-04-01"); !d.After(day("2016-06-17")); d = d.AddDate(0, 0, 1) {
		s := 0.5
		if i%3 == 0 {
			s = -0.5
		}
		rows = append(rows, contracts.FeatureRow{Date: d, Sentiment: s, PctChange: 0.01})
		i++
	}
	for k := 1; k < len(rows); k++ {
		rows[k].Signal = rows[k-1].Sentiment > 0
	}
	rows[len(rows)-1].Sentiment = math.NaN()
	return rows
}

func TestRandomForest_Separable(t *testing.T) {
	var x [][]float64
	var y []bool
	for i := -20; i <= 20; i++ {
		if i == 0 {
			continue
		}
		x = append(x, []float64{float64(i) / 10})
		y = append(y, i > 0)
	}

	f := NewRandomForest(ForestConfig{Trees: 25, MinLeaf: 1, Seed: 40})
	require.NoError(t, f.Fit(x, y))

	assert.Equal(t, 1.0, Accuracy(f, x, y))
	assert.True(t, f.Predict([]float64{1.5}))
	assert.False(t, f.Predict([]float64{-1.5}))
}

func TestRandomForest_Deterministic(t *testing.T) {
	x := [][]float64{{0.1}, {0.4}, {-0.2}, {0.3}, {-0.5}, {0.05}, {-0.1}, {0.2}}
	y := []bool{true, false, false, true, false, true, true, false}

	a := NewRandomForest(ForestConfig{Trees: 10, Seed: 7})
	b := NewRandomForest(ForestConfig{Trees: 10, Seed: 7})
	require.NoError(t, a.Fit(x, y))
	require.NoError(t, b.Fit(x, y))

	for v := -0.6; v <= 0.6; v += 0.05 {
		assert.Equal(t, a.Probability([]float64{v}), b.Probability([]float64{v}))
	}
}

func TestRandomForest_Errors(t *testing.T) {
	f := NewRandomForest(ForestConfig{})
	assert.Error(t, f.Fit(nil, nil))
	assert.Error(t, f.Fit([][]float64{{1}}, []bool{true, false}))
	assert.Equal(t, 0.0, f.Probability([]float64{1}), "unfitted forest")
}

func TestTrainTestSplit(t *testing.T) {
	train, test := TrainTestSplit(61, 0.2, 40)
	assert.Len(t, test, 13)
	assert.Len(t, train, 48)

	seen := make(map[int]bool)
	for _, i := range append(append([]int{}, train...), test...) {
		assert.False(t, seen[i])
		seen[i] = true
	}
	assert.Len(t, seen, 61)

	train2, test2 := TrainTestSplit(61, 0.2, 40)
	assert.Equal(t, train, train2)
	assert.Equal(t, test, test2)

	train, test = TrainTestSplit(0, 0.2, 40)
	assert.Empty(t, train)
	assert.Empty(t, test)
}

func TestAnalyze(t *testing.T) {
	cfg := pipelineconfig.Default().Model
	rows := featureRows()

	result, err := Analyze(rows, cfg, NewRandomForest(ForestConfig{Trees: 20, MinLeaf: 1, Seed: cfg.Seed}))
	require.NoError(t, err)

	// 2016-04-01..2016-05-31 = 61 rows
	assert.Equal(t, 61, result.TrainRows+result.ValidationRows)
	assert.Equal(t, 13, result.ValidationRows)
	assert.Equal(t, 1.0, result.ValidationAccuracy)

	require.Len(t, result.Predictions, 21)
	assert.Equal(t, day("2016-05-26"), result.Predictions[0].Date)
	assert.Equal(t, day("2016-06-15"), result.Predictions[20].Date)

	for _, p := range result.Predictions {
		assert.Equal(t, p.Sentiment > 0, p.SignalPredict, p.Date.Format(contracts.DateLayout))
		assert.Equal(t, p.Sentiment > 0, p.Signal, "signal is shifted to the next day")
	}

	assert.False(t, rows[1].Signal, "input rows are not modified")
}

func TestAnalyze_NoTrainingData(t *testing.T) {
	cfg := pipelineconfig.Default().Model
	rows := []contracts.FeatureRow{{Date: day("2016-06-10"), Sentiment: 0.2}}

	_, err := Analyze(rows, cfg, NewRandomForest(ForestConfig{Seed: 1}))
	assert.ErrorIs(t, err, ErrNoTrainingData)
}

func TestAnalyze_NaNSentimentPredictsSell(t *testing.T) {
	cfg := pipelineconfig.Default().Model
	rows := featureRows()
	for i := range rows {
		if rows[i].Date.Equal(day("2016-06-01")) {
			rows[i].Sentiment = math.NaN()
		}
	}

	result, err := Analyze(rows, cfg, NewRandomForest(ForestConfig{Trees: 5, Seed: 1}))
	require.NoError(t, err)
	for _, p := range result.Predictions {
		if p.Date.Equal(day("2016-06-01")) {
			assert.False(t, p.SignalPredict)
		}
	}
}

func TestNAV(t *testing.T) {
	rows := []contracts.PredictionRow{
		{FeatureRow: contracts.FeatureRow{Date: day("2016-05-26"), PctChange: 0.05}, SignalPredict: true},
		{FeatureRow: contracts.FeatureRow{Date: day("2016-05-27"), PctChange: 0.02}, SignalPredict: false},
		{FeatureRow: contracts.FeatureRow{Date: day("2016-05-28"), PctChange: -0.01}, SignalPredict: true},
	}

	got := NAV(rows)
	require.Len(t, got, 3)
	assert.Equal(t, "2016-05-26", got[0].Date)
	assert.Equal(t, 0.0, got[0].NAV, "first change counts as zero")
	assert.Equal(t, 0.0, got[0].NAVStrategy)
	assert.InDelta(t, 0.02, got[1].NAV, 1e-12)
	assert.InDelta(t, 0.02, got[1].NAVStrategy, 1e-12)
	assert.InDelta(t, 0.01, got[2].NAV, 1e-12)
	assert.InDelta(t, 0.03, got[2].NAVStrategy, 1e-12, "short after a predicted fall")
}

func newTasks(t *testing.T) (*AnalyzeTask, *objstore.Memory, database.Store) {
	t.Helper()
	ctx := context.Background()
	cfg := pipelineconfig.Default()
	db, err := database.NewSQLite(ctx, filepath.Join(t.TempDir(), "features.db"))
	require.NoError(t, err)
	t.Cleanup(db.Close)

	store := objstore.NewMemory("data")
	finance := ingest.NewPriceHistory("aal", nil, store, cfg.Prices, logger.Nop())
	twitter := ingest.NewTwitterUpload(ingest.NewTwitterExport("aal", t.TempDir(), cfg.Twitter), store, cfg.Twitter, logger.Nop())
	extract := features.NewExtract("aal", twitter, finance, db, cfg.Sentiment, features.NewVaderScorer(), logger.Nop())

	rows := featureRows()
	raw := make([][]any, len(rows))
	for i, r := range rows {
		raw[i] = r.Values()
	}
	require.NoError(t, extract.Target().Replace(ctx, contracts.FeatureColumns, raw))

	cfg.Model.Trees = 20
	return NewAnalyze("aal", extract, db, cfg.Model, logger.Nop()), objstore.NewMemory("artifacts"), db
}

func TestAnalyzeTask(t *testing.T) {
	ctx := context.Background()
	analyze, _, db := newTasks(t)

	done, err := analyze.Output().Exists(ctx)
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, analyze.Run(ctx))

	exists, err := db.TableExists(ctx, "aal_predict")
	require.NoError(t, err)
	assert.True(t, exists)

	rows, err := ReadPredictions(ctx, analyze.Target())
	require.NoError(t, err)
	assert.Len(t, rows, 21)
}

func TestPredictTask(t *testing.T) {
	ctx := context.Background()
	analyze, artifacts, _ := newTasks(t)
	require.NoError(t, analyze.Run(ctx))

	// 2016-06-01 is day 61 of the calendar: 61 % 3 != 0 → positive → BUY
	buy := NewPredict("aal", "2016-06-01", analyze, artifacts, logger.Nop())
	assert.Equal(t, []string{"Analyze(aal)"}, idStrings(buy.Deps().All()))

	_, err := buy.Result(ctx)
	assert.ErrorIs(t, err, contracts.ErrLookup)

	require.NoError(t, buy.Run(ctx))
	got, err := buy.Result(ctx)
	require.NoError(t, err)
	assert.Equal(t, `For 2016-06-01, the predicted result for "AAL" is BUY!`, got)
	assert.Equal(t, "mem://artifacts/predictions/aal/2016-06-01.txt", buy.Output().URI())

	// 2016-06-02 is day 62: 62 % 3 == 2 → positive; 2016-06-03 is day 63 → negative → SELL
	sell := NewPredict("aal", "2016-06-03", analyze, artifacts, logger.Nop())
	require.NoError(t, sell.Run(ctx))
	got, err = sell.Result(ctx)
	require.NoError(t, err)
	assert.Equal(t, `For 2016-06-03, the predicted result for "AAL" is SELL!`, got)
}

func TestPredictTask_NoMatch(t *testing.T) {
	ctx := context.Background()
	analyze, artifacts, _ := newTasks(t)
	require.NoError(t, analyze.Run(ctx))

	err := NewPredict("aal", "2016-04-02", analyze, artifacts, logger.Nop()).Run(ctx)
	assert.ErrorIs(t, err, contracts.ErrLookup)
}

func TestPredictTask_MissingTable(t *testing.T) {
	analyze, artifacts, _ := newTasks(t)

	err := NewPredict("aal", "2016-06-01", analyze, artifacts, logger.Nop()).Run(context.Background())
	assert.ErrorIs(t, err, contracts.ErrLookup)
}

func idStrings(tasks []task.Task) []string {
	out := make([]string, len(tasks))
	for i, tk := range tasks {
		out[i] = tk.ID().String()
	}
	return out
}
