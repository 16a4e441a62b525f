package contracts

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/wonny/twitstock/pkg/database"
)

// DateLayout is the day format used in parquet files, tables and predict queries
const DateLayout = "2006-01-02"

// Object keys and table names
// ⭐ SSOT: 저장 위치 이름은 여기서만 생성
const CashtagsKey = "NASDAQ_100_cashtags.txt"

func PriceHistoryKey(ticker string) string { return "FinanceData/" + ticker + ".parquet" }
func TweetsKey(ticker string) string       { return "TwitterData/" + ticker + ".parquet" }

// PredictionKey is keyed by ticker and date so every query has its own artifact
func PredictionKey(ticker, date string) string {
	return fmt.Sprintf("predictions/%s/%s.txt", ticker, date)
}

func FeatureTable(ticker string) string    { return strings.ToLower(ticker) }
func PredictionTable(ticker string) string { return strings.ToLower(ticker) + "_predict" }

// PricePoint is one daily adjusted close
type PricePoint struct {
	Date     time.Time `json:"date"`
	AdjClose float64   `json:"adj_close"`
}

// PriceRecord is the parquet row of FinanceData/<ticker>.parquet
type PriceRecord struct {
	Date     string  `parquet:"Date"`
	AdjClose float64 `parquet:"Adj Close"`
}

// Tweet is one row of the twitter export. Followers is NaN when missing.
type Tweet struct {
	Date      time.Time
	Content   string
	Followers float64
}

// TweetRecord is the parquet row of TwitterData/<ticker>.parquet
type TweetRecord struct {
	Date      string `parquet:"Date"`
	Content   string `parquet:"Tweet content"`
	Followers *int64 `parquet:"Followers,optional"`
}

// ToTweet converts the stored record; a zero or negative follower count is missing
func (r TweetRecord) ToTweet() (Tweet, error) {
	d, err := time.Parse(DateLayout, r.Date)
	if err != nil {
		return Tweet{}, fmt.Errorf("tweet date %q: %w", r.Date, err)
	}
	followers := math.NaN()
	if r.Followers != nil && *r.Followers > 0 {
		followers = float64(*r.Followers)
	}
	return Tweet{Date: d, Content: r.Content, Followers: followers}, nil
}

// PriceChange is a cleaned daily percentage change (NaN on the first day)
type PriceChange struct {
	Date      time.Time
	PctChange float64
}

// DailySentiment is the mean follower-weighted compound score of one day
type DailySentiment struct {
	Date      time.Time
	Sentiment float64
}

// FeatureRow is one row of the <ticker> table. NaN fields are stored as NULL.
type FeatureRow struct {
	Date      time.Time `json:"date"`
	Sentiment float64   `json:"sentiment"`
	PctChange float64   `json:"pct_change"`
	Signal    bool      `json:"signal"`
}

// PredictionRow is one row of the <ticker>_predict table
type PredictionRow struct {
	FeatureRow
	SignalPredict bool `json:"signal_predict"`
}

// FeatureColumns is the schema of the <ticker> table
var FeatureColumns = []database.Column{
	{Name: "Date", Type: database.TypeText},
	{Name: "sentiment", Type: database.TypeFloat},
	{Name: "pct_change", Type: database.TypeFloat},
	{Name: "signal", Type: database.TypeBool},
}

// PredictionColumns is the schema of the <ticker>_predict table
var PredictionColumns = append(append([]database.Column{}, FeatureColumns...),
	database.Column{Name: "signal_predict", Type: database.TypeBool})

// Values renders the row in FeatureColumns order
func (r FeatureRow) Values() []any {
	return []any{r.Date.Format(DateLayout), r.Sentiment, r.PctChange, r.Signal}
}

// Values renders the row in PredictionColumns order
func (r PredictionRow) Values() []any {
	return append(r.FeatureRow.Values(), r.SignalPredict)
}

// FeatureRowFromValues decodes a row read with FeatureColumns (or a prefix of PredictionColumns)
func FeatureRowFromValues(v []any) (FeatureRow, error) {
	if len(v) < len(FeatureColumns) {
		return FeatureRow{}, fmt.Errorf("feature row: want %d values, got %d", len(FeatureColumns), len(v))
	}
	ds, _ := v[0].(string)
	d, err := time.Parse(DateLayout, ds)
	if err != nil {
		return FeatureRow{}, fmt.Errorf("feature row date %q: %w", ds, err)
	}
	sentiment, _ := v[1].(float64)
	pct, _ := v[2].(float64)
	signal, _ := v[3].(bool)
	return FeatureRow{Date: d, Sentiment: sentiment, PctChange: pct, Signal: signal}, nil
}

// PredictionRowFromValues decodes a row read with PredictionColumns
func PredictionRowFromValues(v []any) (PredictionRow, error) {
	if len(v) < len(PredictionColumns) {
		return PredictionRow{}, fmt.Errorf("prediction row: want %d values, got %d", len(PredictionColumns), len(v))
	}
	fr, err := FeatureRowFromValues(v)
	if err != nil {
		return PredictionRow{}, err
	}
	predict, _ := v[4].(bool)
	return PredictionRow{FeatureRow: fr, SignalPredict: predict}, nil
}
