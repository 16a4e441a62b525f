package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/wonny/twitstock/internal/contracts"
	"github.com/wonny/twitstock/internal/pipelineconfig"
	"github.com/wonny/twitstock/internal/target"
	"github.com/wonny/twitstock/internal/task"
	"github.com/wonny/twitstock/pkg/logger"
	"github.com/wonny/twitstock/pkg/objstore"
)

// KindPriceHistory is the task kind of PriceHistoryTask
const KindPriceHistory = "PriceHistory"

// PriceHistoryTask downloads the daily adjusted close of one ticker
// and stores it as FinanceData/<ticker>.parquet
type PriceHistoryTask struct {
	ticker string
	source contracts.PriceSource
	window pipelineconfig.PriceWindow
	output *target.ObjectTarget
	logger *logger.Logger
}

func NewPriceHistory(ticker string, source contracts.PriceSource, store objstore.Store, window pipelineconfig.PriceWindow, log *logger.Logger) *PriceHistoryTask {
	return &PriceHistoryTask{
		ticker: ticker,
		source: source,
		window: window,
		output: target.NewObject(store, contracts.PriceHistoryKey(ticker)),
		logger: log.Module("ingest").WithField("ticker", ticker),
	}
}

func (t *PriceHistoryTask) ID() task.ID                  { return task.NewID(KindPriceHistory, t.ticker) }
func (t *PriceHistoryTask) Stage() contracts.Stage       { return contracts.StageIngest }
func (t *PriceHistoryTask) Deps() task.Deps              { return task.NoDeps() }
func (t *PriceHistoryTask) Output() target.Target        { return t.output }
func (t *PriceHistoryTask) Target() *target.ObjectTarget { return t.output }

func (t *PriceHistoryTask) Run(ctx context.Context) error {
	// 시세 소스는 대문자 심볼을 사용
	points, err := t.source.History(ctx, strings.ToUpper(t.ticker), t.window.StartTime(), t.window.EndTime())
	if err != nil {
		return err
	}
	if len(points) == 0 {
		return fmt.Errorf("%s %s..%s: no rows: %w", t.ticker, t.window.Start, t.window.End, contracts.ErrUpstreamFetch)
	}

	records := make([]contracts.PriceRecord, len(points))
	for i, p := range points {
		records[i] = contracts.PriceRecord{Date: p.Date.Format(contracts.DateLayout), AdjClose: p.AdjClose}
	}

	if err := writeParquet(ctx, t.output, records); err != nil {
		return err
	}

	t.logger.WithField("rows", len(records)).Info("Price history stored")
	return nil
}
