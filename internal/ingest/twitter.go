package ingest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tealeg/xlsx"

	"github.com/wonny/twitstock/internal/contracts"
	"github.com/wonny/twitstock/internal/pipelineconfig"
	"github.com/wonny/twitstock/internal/target"
	"github.com/wonny/twitstock/internal/task"
	"github.com/wonny/twitstock/pkg/logger"
	"github.com/wonny/twitstock/pkg/objstore"
)

const (
	KindTwitterExport = "TwitterExport"
	KindTwitterUpload = "TwitterUpload"
)

// Stream sheet header names
const (
	colDate      = "Date"
	colContent   = "Tweet content"
	colFollowers = "Followers"
)

// excelEpoch is day zero of the 1900 date system as Excel counts it
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// TwitterExportTask is the dashboard export dropped into the twitter directory
// by hand. It is an external input; Run only reports that it is missing.
type TwitterExportTask struct {
	ticker string
	output *target.GlobTarget
}

func NewTwitterExport(ticker, dir string, cfg pipelineconfig.Twitter) *TwitterExportTask {
	pattern := filepath.Join(dir, cfg.FilePrefix+ticker+"*.xlsx")
	return &TwitterExportTask{ticker: ticker, output: target.NewGlob(pattern)}
}

func (t *TwitterExportTask) ID() task.ID                { return task.NewID(KindTwitterExport, t.ticker) }
func (t *TwitterExportTask) Stage() contracts.Stage     { return contracts.StageIngest }
func (t *TwitterExportTask) Deps() task.Deps            { return task.NoDeps() }
func (t *TwitterExportTask) Output() target.Target      { return t.output }
func (t *TwitterExportTask) Target() *target.GlobTarget { return t.output }

func (t *TwitterExportTask) Run(context.Context) error {
	return fmt.Errorf("twitter export for %s (%s): %w", t.ticker, t.output.URI(), contracts.ErrLookup)
}

// TwitterUploadTask converts the export's Stream sheet to TwitterData/<ticker>.parquet
type TwitterUploadTask struct {
	ticker string
	export *TwitterExportTask
	sheet  string
	output *target.ObjectTarget
	logger *logger.Logger
}

func NewTwitterUpload(export *TwitterExportTask, store objstore.Store, cfg pipelineconfig.Twitter, log *logger.Logger) *TwitterUploadTask {
	return &TwitterUploadTask{
		ticker: export.ticker,
		export: export,
		sheet:  cfg.Sheet,
		output: target.NewObject(store, contracts.TweetsKey(export.ticker)),
		logger: log.Module("ingest").WithField("ticker", export.ticker),
	}
}

func (t *TwitterUploadTask) ID() task.ID                  { return task.NewID(KindTwitterUpload, t.ticker) }
func (t *TwitterUploadTask) Stage() contracts.Stage       { return contracts.StageIngest }
func (t *TwitterUploadTask) Deps() task.Deps              { return task.One(t.export) }
func (t *TwitterUploadTask) Output() target.Target        { return t.output }
func (t *TwitterUploadTask) Target() *target.ObjectTarget { return t.output }

func (t *TwitterUploadTask) Run(ctx context.Context) error {
	path, err := t.export.Target().Path()
	if err != nil {
		return err
	}

	records, err := ReadStreamSheet(path, t.sheet)
	if err != nil {
		return err
	}

	if err := writeParquet(ctx, t.output, records); err != nil {
		return err
	}

	t.logger.WithFields(map[string]interface{}{
		"file": filepath.Base(path),
		"rows": len(records),
	}).Info("Twitter export converted")
	return nil
}

// ReadStreamSheet reads Date, Tweet content and Followers from the named sheet.
// Columns are located by header; other columns are ignored.
func ReadStreamSheet(path, sheetName string) ([]contracts.TweetRecord, error) {
	file, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}

	sheet, ok := file.Sheet[sheetName]
	if !ok {
		return nil, fmt.Errorf("sheet %q in %s: %w", sheetName, path, contracts.ErrLookup)
	}
	if len(sheet.Rows) == 0 {
		return nil, fmt.Errorf("sheet %q in %s is empty: %w", sheetName, path, contracts.ErrLookup)
	}

	idx := map[string]int{colDate: -1, colContent: -1, colFollowers: -1}
	for i, cell := range sheet.Rows[0].Cells {
		name := strings.TrimSpace(cell.Value)
		if _, want := idx[name]; want {
			idx[name] = i
		}
	}
	for name, i := range idx {
		if i < 0 {
			return nil, fmt.Errorf("sheet %q in %s: column %q: %w", sheetName, path, name, contracts.ErrLookup)
		}
	}

	var records []contracts.TweetRecord
	for n, row := range sheet.Rows[1:] {
		if row == nil {
			continue
		}
		raw := func(col string) string {
			i := idx[col]
			if i >= len(row.Cells) || row.Cells[i] == nil {
				return ""
			}
			return strings.TrimSpace(row.Cells[i].Value)
		}

		dateRaw := raw(colDate)
		if dateRaw == "" {
			continue // 빈 행
		}
		d, err := parseCellDate(dateRaw)
		if err != nil {
			return nil, fmt.Errorf("sheet %q row %d: %w", sheetName, n+2, err)
		}

		records = append(records, contracts.TweetRecord{
			Date:      d.Format(contracts.DateLayout),
			Content:   raw(colContent),
			Followers: parseFollowers(raw(colFollowers)),
		})
	}

	return records, nil
}

// parseCellDate accepts an Excel serial number or a textual date, truncated to the day
func parseCellDate(s string) (time.Time, error) {
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		days := math.Floor(serial)
		return excelEpoch.AddDate(0, 0, int(days)), nil
	}
	for _, layout := range []string{
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		contracts.DateLayout,
		"01/02/2006 15:04",
		"01/02/2006",
		"1/2/06 15:04",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, errors.New("unrecognized date " + strconv.Quote(s))
}

// parseFollowers returns nil for a blank or non-numeric cell
func parseFollowers(s string) *int64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || math.IsNaN(f) {
		return nil
	}
	v := int64(math.Round(f))
	return &v
}

func parseDay(s string) (time.Time, error) {
	d, err := time.Parse(contracts.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: %w", s, err)
	}
	return d, nil
}
