package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/twitstock/internal/pipeline"
	"github.com/wonny/twitstock/pkg/logger"
)

// CashtagsUploader pushes the local cashtag list to the data store
type CashtagsUploader interface {
	UploadCashtags(ctx context.Context) (*pipeline.Report, error)
}

// CashtagsSyncJob keeps the remote copy of the cashtag list present
type CashtagsSyncJob struct {
	uploader CashtagsUploader
	logger   *logger.Logger
}

// NewCashtagsSyncJob creates a new cashtags sync job
func NewCashtagsSyncJob(uploader CashtagsUploader, log *logger.Logger) *CashtagsSyncJob {
	return &CashtagsSyncJob{
		uploader: uploader,
		logger:   log,
	}
}

// Name returns the job name
func (j *CashtagsSyncJob) Name() string {
	return "cashtags_sync"
}

// Schedule returns the cron schedule (Sunday 5 AM)
func (j *CashtagsSyncJob) Schedule() string {
	return "0 5 * * 0"
}

// Run uploads the cashtag list if the remote copy is missing
func (j *CashtagsSyncJob) Run(ctx context.Context) error {
	j.logger.Debug("Starting scheduled cashtags sync")

	report, err := j.uploader.UploadCashtags(ctx)
	if err != nil {
		return fmt.Errorf("cashtags sync: %w", err)
	}

	if report.Count(pipeline.StatusDone) > 0 {
		j.logger.Info("Cashtags list uploaded")
	}

	return nil
}
