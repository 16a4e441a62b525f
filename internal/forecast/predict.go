package forecast

import (
	"context"
	"fmt"

	"github.com/wonny/twitstock/internal/contracts"
	"github.com/wonny/twitstock/internal/target"
	"github.com/wonny/twitstock/internal/task"
	"github.com/wonny/twitstock/pkg/database"
	"github.com/wonny/twitstock/pkg/logger"
	"github.com/wonny/twitstock/pkg/objstore"
)

// KindPredict is the task kind of PredictTask
const KindPredict = "Predict"

// PredictTask renders the stored prediction for one ticker and date.
// The rendered line is an artifact, so asking again is a cache hit.
type PredictTask struct {
	ticker  string
	date    string
	analyze *AnalyzeTask
	output  *target.ObjectTarget
	logger  *logger.Logger
}

func NewPredict(ticker, date string, analyze *AnalyzeTask, artifacts objstore.Store, log *logger.Logger) *PredictTask {
	return &PredictTask{
		ticker:  ticker,
		date:    date,
		analyze: analyze,
		output:  target.NewObject(artifacts, contracts.PredictionKey(ticker, date)),
		logger:  log.Module("forecast").WithFields(map[string]interface{}{"ticker": ticker, "date": date}),
	}
}

func (t *PredictTask) ID() task.ID                  { return task.NewID(KindPredict, t.ticker, t.date) }
func (t *PredictTask) Stage() contracts.Stage       { return contracts.StagePredict }
func (t *PredictTask) Deps() task.Deps              { return task.One(t.analyze) }
func (t *PredictTask) Output() target.Target        { return t.output }
func (t *PredictTask) Target() *target.ObjectTarget { return t.output }

func (t *PredictTask) Run(ctx context.Context) error {
	rows, err := t.analyze.Target().Read(ctx, contracts.PredictionColumns, &database.PrefixFilter{
		Column: "Date",
		Prefix: t.date,
	})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no prediction for %s on %q: %w", t.ticker, t.date, contracts.ErrLookup)
	}

	first, err := contracts.PredictionRowFromValues(rows[0])
	if err != nil {
		return fmt.Errorf("%s: %w: %v", t.analyze.Target().Table(), contracts.ErrPersistence, err)
	}

	line := contracts.RenderPrediction(t.date, t.ticker, contracts.DecisionOf(first.SignalPredict))
	if err := t.output.Write(ctx, []byte(line)); err != nil {
		return err
	}

	t.logger.WithField("decision", string(contracts.DecisionOf(first.SignalPredict))).Info("Prediction rendered")
	return nil
}

// Result reads the rendered line back; ErrLookup until Run has succeeded
func (t *PredictTask) Result(ctx context.Context) (string, error) {
	data, err := t.output.Read(ctx)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
