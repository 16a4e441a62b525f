package brain

import (
	"strings"

	"github.com/wonny/twitstock/internal/contracts"
	"github.com/wonny/twitstock/internal/features"
	"github.com/wonny/twitstock/internal/forecast"
	"github.com/wonny/twitstock/internal/ingest"
	"github.com/wonny/twitstock/internal/pipelineconfig"
	"github.com/wonny/twitstock/internal/task"
	"github.com/wonny/twitstock/internal/universe"
	"github.com/wonny/twitstock/pkg/database"
	"github.com/wonny/twitstock/pkg/logger"
	"github.com/wonny/twitstock/pkg/objstore"
)

// Wrapper task kinds
const (
	KindLoadAll    = "LoadAll"
	KindAnalyzeAll = "AnalyzeAll"
)

// Dependencies are the shared resources every task is built from
type Dependencies struct {
	DB         database.Store
	Data       objstore.Store // parquet files and the ticker list copy
	Artifacts  objstore.Store // rendered predictions
	Prices     contracts.PriceSource
	Scorer     contracts.SentimentScorer
	Universe   *universe.Loader
	Pipeline   *pipelineconfig.Config
	TwitterDir string
	Logger     *logger.Logger
}

// Factory builds tasks and memoizes them by ID, so one graph holds
// exactly one instance per identity.
type Factory struct {
	deps     Dependencies
	registry *task.Registry
}

func NewFactory(deps Dependencies) *Factory {
	if deps.Pipeline == nil {
		deps.Pipeline = pipelineconfig.Default()
	}
	return &Factory{deps: deps, registry: task.NewRegistry()}
}

// Len returns the number of distinct tasks built so far
func (f *Factory) Len() int { return f.registry.Len() }

// normalize folds the spellings of one ticker onto the same identity.
// Callers outside the factory validate with contracts.NormalizeTicker first.
func normalize(ticker string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ticker), "$"))
}

func (f *Factory) PriceHistory(ticker string) *ingest.PriceHistoryTask {
	ticker = normalize(ticker)
	return f.registry.Get(task.NewID(ingest.KindPriceHistory, ticker), func() task.Task {
		return ingest.NewPriceHistory(ticker, f.deps.Prices, f.deps.Data, f.deps.Pipeline.Prices, f.deps.Logger)
	}).(*ingest.PriceHistoryTask)
}

func (f *Factory) TwitterExport(ticker string) *ingest.TwitterExportTask {
	ticker = normalize(ticker)
	return f.registry.Get(task.NewID(ingest.KindTwitterExport, ticker), func() task.Task {
		return ingest.NewTwitterExport(ticker, f.deps.TwitterDir, f.deps.Pipeline.Twitter)
	}).(*ingest.TwitterExportTask)
}

func (f *Factory) TwitterUpload(ticker string) *ingest.TwitterUploadTask {
	ticker = normalize(ticker)
	return f.registry.Get(task.NewID(ingest.KindTwitterUpload, ticker), func() task.Task {
		return ingest.NewTwitterUpload(f.TwitterExport(ticker), f.deps.Data, f.deps.Pipeline.Twitter, f.deps.Logger)
	}).(*ingest.TwitterUploadTask)
}

func (f *Factory) Extract(ticker string) *features.ExtractTask {
	ticker = normalize(ticker)
	return f.registry.Get(task.NewID(features.KindExtract, ticker), func() task.Task {
		return features.NewExtract(
			ticker,
			f.TwitterUpload(ticker),
			f.PriceHistory(ticker),
			f.deps.DB,
			f.deps.Pipeline.Sentiment,
			f.deps.Scorer,
			f.deps.Logger,
		)
	}).(*features.ExtractTask)
}

func (f *Factory) Analyze(ticker string) *forecast.AnalyzeTask {
	ticker = normalize(ticker)
	return f.registry.Get(task.NewID(forecast.KindAnalyze, ticker), func() task.Task {
		return forecast.NewAnalyze(ticker, f.Extract(ticker), f.deps.DB, f.deps.Pipeline.Model, f.deps.Logger)
	}).(*forecast.AnalyzeTask)
}

// Predict validates both parts of the query since they name the artifact key
func (f *Factory) Predict(ticker, date string) (*forecast.PredictTask, error) {
	ticker, err := contracts.NormalizeTicker(ticker)
	if err != nil {
		return nil, err
	}
	date, err = contracts.NormalizeDate(date)
	if err != nil {
		return nil, err
	}
	return f.registry.Get(task.NewID(forecast.KindPredict, ticker, date), func() task.Task {
		return forecast.NewPredict(ticker, date, f.Analyze(ticker), f.deps.Artifacts, f.deps.Logger)
	}).(*forecast.PredictTask), nil
}

func (f *Factory) Cashtags() *ingest.CashtagsTask {
	return f.registry.Get(task.NewID(ingest.KindCashtags), func() task.Task {
		return ingest.NewCashtags(f.deps.Universe.Path())
	}).(*ingest.CashtagsTask)
}

func (f *Factory) CashtagsUpload() *ingest.CashtagsUploadTask {
	return f.registry.Get(task.NewID(ingest.KindCashtagsUpload), func() task.Task {
		return ingest.NewCashtagsUpload(f.Cashtags(), f.deps.Data, f.deps.Logger)
	}).(*ingest.CashtagsUploadTask)
}

// LoadAll requires the feature table of every selected ticker.
// "all" or an empty selection is resolved against the universe file.
func (f *Factory) LoadAll(selection []string) (task.Task, error) {
	tickers, err := f.deps.Universe.Resolve(selection)
	if err != nil {
		return nil, err
	}
	return f.wrap(KindLoadAll, tickers, func(t string) task.Task { return f.Extract(t) }), nil
}

// AnalyzeAll requires the prediction table of every selected ticker
func (f *Factory) AnalyzeAll(selection []string) (task.Task, error) {
	tickers, err := f.deps.Universe.Resolve(selection)
	if err != nil {
		return nil, err
	}
	return f.wrap(KindAnalyzeAll, tickers, func(t string) task.Task { return f.Analyze(t) }), nil
}

func (f *Factory) wrap(kind string, tickers []string, each func(string) task.Task) task.Task {
	return f.registry.Get(task.NewID(kind, tickers...), func() task.Task {
		return task.NewWrapper(task.NewID(kind, tickers...), func() []task.Task {
			out := make([]task.Task, len(tickers))
			for i, t := range tickers {
				out[i] = each(t)
			}
			return out
		})
	})
}
