// Package forecast trains the direction classifier on the feature table and
// renders per-date BUY/SELL predictions.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/wonny/twitstock/internal/contracts"
	"github.com/wonny/twitstock/internal/features"
	"github.com/wonny/twitstock/internal/pipelineconfig"
	"github.com/wonny/twitstock/internal/target"
	"github.com/wonny/twitstock/internal/task"
	"github.com/wonny/twitstock/pkg/database"
	"github.com/wonny/twitstock/pkg/logger"
)

// KindAnalyze is the task kind of AnalyzeTask
const KindAnalyze = "Analyze"

// ErrNoTrainingData is returned when the training window holds no usable rows
var ErrNoTrainingData = errors.New("no training data")

// AnalyzeTask fits the classifier on <ticker> and writes <ticker>_predict
type AnalyzeTask struct {
	ticker  string
	extract *features.ExtractTask
	model   pipelineconfig.Model
	output  *target.TableTarget
	logger  *logger.Logger

	newClassifier func() Classifier
}

func NewAnalyze(ticker string, extract *features.ExtractTask, db database.Store, model pipelineconfig.Model, log *logger.Logger) *AnalyzeTask {
	return &AnalyzeTask{
		ticker:  ticker,
		extract: extract,
		model:   model,
		output:  target.NewTable(db, contracts.PredictionTable(ticker)),
		logger:  log.Module("forecast").WithField("ticker", ticker),
		newClassifier: func() Classifier {
			return NewRandomForest(ForestConfig{
				Trees:    model.Trees,
				MaxDepth: model.MaxDepth,
				MinLeaf:  model.MinLeaf,
				Seed:     model.Seed,
			})
		},
	}
}

func (t *AnalyzeTask) ID() task.ID                 { return task.NewID(KindAnalyze, t.ticker) }
func (t *AnalyzeTask) Stage() contracts.Stage      { return contracts.StageTrain }
func (t *AnalyzeTask) Deps() task.Deps             { return task.One(t.extract) }
func (t *AnalyzeTask) Output() target.Target       { return t.output }
func (t *AnalyzeTask) Target() *target.TableTarget { return t.output }

// Analysis is the outcome of one fit
type Analysis struct {
	TrainRows          int
	ValidationRows     int
	ValidationAccuracy float64
	Predictions        []contracts.PredictionRow
}

func (t *AnalyzeTask) Run(ctx context.Context) error {
	raw, err := t.extract.Target().Read(ctx, contracts.FeatureColumns, nil)
	if err != nil {
		return err
	}

	rows := make([]contracts.FeatureRow, 0, len(raw))
	for _, v := range raw {
		r, err := contracts.FeatureRowFromValues(v)
		if err != nil {
			return fmt.Errorf("%s: %w: %v", t.extract.Target().Table(), contracts.ErrPersistence, err)
		}
		rows = append(rows, r)
	}

	result, err := Analyze(rows, t.model, t.newClassifier())
	if err != nil {
		return fmt.Errorf("analyze %s: %w", t.ticker, err)
	}

	out := make([][]any, len(result.Predictions))
	for i, r := range result.Predictions {
		out[i] = r.Values()
	}
	if err := t.output.Replace(ctx, contracts.PredictionColumns, out); err != nil {
		return err
	}

	t.logger.WithFields(map[string]interface{}{
		"train_rows":      result.TrainRows,
		"validation_rows": result.ValidationRows,
		"accuracy":        result.ValidationAccuracy,
		"predicted_rows":  len(result.Predictions),
	}).Info("Prediction table replaced")
	return nil
}

// Analyze shifts the signal to the next day's direction, fits clf on the
// training window and labels the prediction window.
//
// Rows with NaN sentiment are left out of training and predict false.
func Analyze(rows []contracts.FeatureRow, cfg pipelineconfig.Model, clf Classifier) (*Analysis, error) {
	shifted := make([]contracts.FeatureRow, len(rows))
	copy(shifted, rows)
	for i := range shifted {
		shifted[i].Signal = i+1 < len(rows) && rows[i+1].Signal
	}

	cutoff := cfg.CutoffTime()
	var x [][]float64
	var y []bool
	for _, r := range shifted {
		if r.Date.After(cutoff) || math.IsNaN(r.Sentiment) {
			continue
		}
		x = append(x, []float64{r.Sentiment})
		y = append(y, r.Signal)
	}
	if len(x) == 0 {
		return nil, fmt.Errorf("on or before %s: %w", cfg.TrainCutoff, ErrNoTrainingData)
	}

	trainIdx, testIdx := TrainTestSplit(len(x), cfg.TestSize, cfg.Seed)
	xTrain, yTrain := pick(x, y, trainIdx)
	xTest, yTest := pick(x, y, testIdx)

	if err := clf.Fit(xTrain, yTrain); err != nil {
		return nil, err
	}

	result := &Analysis{
		TrainRows:          len(xTrain),
		ValidationRows:     len(xTest),
		ValidationAccuracy: Accuracy(clf, xTest, yTest),
	}

	after, before := cfg.PredictAfterTime(), cfg.PredictBeforeTime()
	for _, r := range shifted {
		if !r.Date.After(after) || !r.Date.Before(before) {
			continue
		}
		predict := false
		if !math.IsNaN(r.Sentiment) {
			predict = clf.Predict([]float64{r.Sentiment})
		}
		result.Predictions = append(result.Predictions, contracts.PredictionRow{FeatureRow: r, SignalPredict: predict})
	}

	return result, nil
}

func pick(x [][]float64, y []bool, idx []int) ([][]float64, []bool) {
	px := make([][]float64, len(idx))
	py := make([]bool, len(idx))
	for i, k := range idx {
		px[i], py[i] = x[k], y[k]
	}
	return px, py
}
