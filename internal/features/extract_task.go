package features

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/twitstock/internal/contracts"
	"github.com/wonny/twitstock/internal/ingest"
	"github.com/wonny/twitstock/internal/pipelineconfig"
	"github.com/wonny/twitstock/internal/target"
	"github.com/wonny/twitstock/internal/task"
	"github.com/wonny/twitstock/pkg/database"
	"github.com/wonny/twitstock/pkg/logger"
)

// KindExtract is the task kind of ExtractTask
const KindExtract = "Extract"

// Dependency names of ExtractTask
const (
	DepTwitter = "twitter"
	DepFinance = "finance"
)

// ExtractTask builds the <ticker> feature table from the uploaded tweets and prices
type ExtractTask struct {
	ticker  string
	twitter *ingest.TwitterUploadTask
	finance *ingest.PriceHistoryTask
	window  pipelineconfig.SentimentWindow
	scorer  contracts.SentimentScorer
	output  *target.TableTarget
	logger  *logger.Logger
}

func NewExtract(
	ticker string,
	twitter *ingest.TwitterUploadTask,
	finance *ingest.PriceHistoryTask,
	db database.Store,
	window pipelineconfig.SentimentWindow,
	scorer contracts.SentimentScorer,
	log *logger.Logger,
) *ExtractTask {
	return &ExtractTask{
		ticker:  ticker,
		twitter: twitter,
		finance: finance,
		window:  window,
		scorer:  scorer,
		output:  target.NewTable(db, contracts.FeatureTable(ticker)),
		logger:  log.Module("features").WithField("ticker", ticker),
	}
}

func (t *ExtractTask) ID() task.ID                 { return task.NewID(KindExtract, t.ticker) }
func (t *ExtractTask) Stage() contracts.Stage      { return contracts.StageFeatures }
func (t *ExtractTask) Output() target.Target       { return t.output }
func (t *ExtractTask) Target() *target.TableTarget { return t.output }

func (t *ExtractTask) Deps() task.Deps {
	return task.Named(map[string]task.Task{
		DepTwitter: t.twitter,
		DepFinance: t.finance,
	})
}

func (t *ExtractTask) Run(ctx context.Context) error {
	var (
		prices    []contracts.PriceChange
		sentiment []contracts.DailySentiment
	)

	// 가격/감성 정제는 서로 독립
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		points, err := ingest.ReadPrices(gctx, t.finance.Target())
		if err != nil {
			return err
		}
		prices = CleanPrices(points)
		return nil
	})
	g.Go(func() error {
		tweets, err := ingest.ReadTweets(gctx, t.twitter.Target())
		if err != nil {
			return err
		}
		sentiment = CleanSentiment(tweets, t.window.StartTime(), t.window.EndTime(), t.scorer)
		return nil
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("extract %s: %w", t.ticker, err)
	}

	joined := Join(sentiment, prices)
	rows := make([][]any, len(joined))
	for i, r := range joined {
		rows[i] = r.Values()
	}

	if err := t.output.Replace(ctx, contracts.FeatureColumns, rows); err != nil {
		return err
	}

	t.logger.WithFields(map[string]interface{}{
		"rows":           len(rows),
		"price_days":     len(prices),
		"sentiment_days": len(sentiment),
	}).Info("Feature table replaced")
	return nil
}
