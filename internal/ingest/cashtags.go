package ingest

import (
	"context"
	"fmt"
	"io"

	"github.com/wonny/twitstock/internal/contracts"
	"github.com/wonny/twitstock/internal/target"
	"github.com/wonny/twitstock/internal/task"
	"github.com/wonny/twitstock/pkg/logger"
	"github.com/wonny/twitstock/pkg/objstore"
)

const (
	KindCashtags       = "Cashtags"
	KindCashtagsUpload = "CashtagsUpload"
)

// CashtagsTask is the local ticker list. It is an external input and never produces it.
type CashtagsTask struct {
	output *target.FileTarget
}

func NewCashtags(path string) *CashtagsTask {
	return &CashtagsTask{output: target.NewFile(path)}
}

func (t *CashtagsTask) ID() task.ID                { return task.NewID(KindCashtags) }
func (t *CashtagsTask) Stage() contracts.Stage     { return contracts.StageIngest }
func (t *CashtagsTask) Deps() task.Deps            { return task.NoDeps() }
func (t *CashtagsTask) Output() target.Target      { return t.output }
func (t *CashtagsTask) Target() *target.FileTarget { return t.output }

func (t *CashtagsTask) Run(context.Context) error {
	return fmt.Errorf("ticker list %s: %w", t.output.Path(), contracts.ErrLookup)
}

// CashtagsUploadTask copies the ticker list to the object store
type CashtagsUploadTask struct {
	source *CashtagsTask
	output *target.ObjectTarget
	logger *logger.Logger
}

func NewCashtagsUpload(source *CashtagsTask, store objstore.Store, log *logger.Logger) *CashtagsUploadTask {
	return &CashtagsUploadTask{
		source: source,
		output: target.NewObject(store, contracts.CashtagsKey),
		logger: log.Module("ingest"),
	}
}

func (t *CashtagsUploadTask) ID() task.ID                  { return task.NewID(KindCashtagsUpload) }
func (t *CashtagsUploadTask) Stage() contracts.Stage       { return contracts.StageIngest }
func (t *CashtagsUploadTask) Deps() task.Deps              { return task.One(t.source) }
func (t *CashtagsUploadTask) Output() target.Target        { return t.output }
func (t *CashtagsUploadTask) Target() *target.ObjectTarget { return t.output }

func (t *CashtagsUploadTask) Run(ctx context.Context) error {
	f, err := t.source.Target().Open()
	if err != nil {
		return err
	}
	defer f.Close()

	w := t.output.NewWriter(ctx)
	n, err := io.Copy(w, f)
	if err != nil {
		return fmt.Errorf("copy %s: %w", t.source.Target().Path(), err)
	}
	if err := w.Close(); err != nil {
		return err
	}

	t.logger.WithFields(map[string]interface{}{
		"bytes": n,
		"uri":   t.output.URI(),
	}).Info("Ticker list uploaded")
	return nil
}
