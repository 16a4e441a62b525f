package features

import (
	"bytes"
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/twitstock/internal/contracts"
	"github.com/wonny/twitstock/internal/ingest"
	"github.com/wonny/twitstock/internal/pipelineconfig"
	"github.com/wonny/twitstock/pkg/database"
	"github.com/wonny/twitstock/pkg/logger"
	"github.com/wonny/twitstock/pkg/objstore"
)

func day(s string) time.Time {
	t, _ := time.Parse(contracts.DateLayout, s)
	return t
}

// tradingDays returns weekday closes over [start, end] rising by 0.5 per day
func tradingDays(start, end string) []contracts.PricePoint {
	var out []contracts.PricePoint
	price := 100.0
	for d := day(start); !d.After(day(end)); d = d.AddDate(0, 0, 1) {
		price += 0.5
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		out = append(out, contracts.PricePoint{Date: d, AdjClose: price})
	}
	return out
}

// mapScorer scores known texts and returns 0 for anything else
type mapScorer map[string]float64

func (m mapScorer) Compound(text string) float64 { return m[text] }

func TestCleanPrices_ReindexesCalendar(t *testing.T) {
	cfg := pipelineconfig.Default()
	changes := CleanPrices(tradingDays(cfg.Prices.Start, cfg.Prices.End))

	require.Len(t, changes, 78)
	assert.Equal(t, day("2016-04-01"), changes[0].Date)
	assert.Equal(t, day("2016-06-17"), changes[77].Date)
	assert.True(t, math.IsNaN(changes[0].PctChange))

	for i := 1; i < len(changes); i++ {
		assert.Equal(t, changes[i-1].Date.AddDate(0, 0, 1), changes[i].Date, "continuous calendar")
		assert.False(t, math.IsNaN(changes[i].PctChange))
	}
}

func TestCleanPrices_Interpolates(t *testing.T) {
	changes := CleanPrices([]contracts.PricePoint{
		{Date: day("2016-04-04"), AdjClose: 13},
		{Date: day("2016-04-01"), AdjClose: 10}, // 순서 무관
	})

	require.Len(t, changes, 4)
	// 10 → 11 → 12 → 13
	assert.InDelta(t, 0.1, changes[1].PctChange, 1e-12)
	assert.InDelta(t, 1.0/11, changes[2].PctChange, 1e-12)
	assert.InDelta(t, 1.0/12, changes[3].PctChange, 1e-12)
}

func TestCleanPrices_Empty(t *testing.T) {
	assert.Nil(t, CleanPrices(nil))
}

func TestCleanSentiment(t *testing.T) {
	scorer := mapScorer{"up": 0.5, "down": -0.4, "both": 0.2}
	tweets := []contracts.Tweet{
		{Date: day("2016-03-30"), Content: "up", Followers: 100},                      // before window
		{Date: day("2016-03-31"), Content: "up", Followers: 100},                      // log10=2 → 1.0
		{Date: day("2016-03-31"), Content: "down", Followers: 1000},                   // log10=3 → -1.2
		{Date: day("2016-03-31"), Content: "meh", Followers: 1000},                    // compound 0, dropped
		{Date: day("2016-04-01"), Content: "both", Followers: math.NaN()},             // no followers
		{Date: day("2016-04-01").Add(15 * time.Hour), Content: "both", Followers: 10}, // log10=1 → 0.2
		{Date: day("2016-06-16"), Content: "up", Followers: 100},                      // after window
	}

	got := CleanSentiment(tweets, day("2016-03-31"), day("2016-06-15"), scorer)
	require.Len(t, got, 2)

	assert.Equal(t, day("2016-03-31"), got[0].Date)
	assert.InDelta(t, (1.0-1.2)/2, got[0].Sentiment, 1e-12)
	assert.Equal(t, day("2016-04-01"), got[1].Date)
	assert.InDelta(t, 0.2, got[1].Sentiment, 1e-12)
}

func TestJoin_RowCountMatchesFinance(t *testing.T) {
	cfg := pipelineconfig.Default()
	prices := CleanPrices(tradingDays(cfg.Prices.Start, cfg.Prices.End))

	var sentiment []contracts.DailySentiment
	for d := day("2016-04-01"); !d.After(day("2016-06-15")); d = d.AddDate(0, 0, 3) {
		sentiment = append(sentiment, contracts.DailySentiment{Date: d, Sentiment: 0.3})
	}

	rows := Join(sentiment, prices)
	assert.Len(t, rows, 78)
}

func TestJoin_FillLeavesLastRow(t *testing.T) {
	prices := []contracts.PriceChange{
		{Date: day("2016-04-01"), PctChange: math.NaN()},
		{Date: day("2016-04-02"), PctChange: 0.01},
		{Date: day("2016-04-03"), PctChange: -0.02},
		{Date: day("2016-04-04"), PctChange: 0},
		{Date: day("2016-04-05"), PctChange: 0.03},
	}
	sentiment := []contracts.DailySentiment{
		{Date: day("2016-03-31"), Sentiment: math.NaN()},
		{Date: day("2016-04-02"), Sentiment: 0.4},
	}

	rows := Join(sentiment, prices)
	require.Len(t, rows, 6)
	assert.Equal(t, day("2016-03-31"), rows[0].Date)

	// back-fill at the head, forward-fill in the middle
	for _, r := range rows[:5] {
		assert.Equal(t, 0.4, r.Sentiment, r.Date.Format(contracts.DateLayout))
	}
	assert.True(t, math.IsNaN(rows[5].Sentiment), "last row is excluded from fill")

	want := []bool{false, false, true, false, false, true}
	for i, r := range rows {
		assert.Equal(t, want[i], r.Signal, r.Date.Format(contracts.DateLayout))
	}
}

func TestJoin_LastRowKeepsOwnValue(t *testing.T) {
	rows := Join(
		[]contracts.DailySentiment{{Date: day("2016-04-02"), Sentiment: -0.7}},
		[]contracts.PriceChange{{Date: day("2016-04-01"), PctChange: 0.1}, {Date: day("2016-04-02"), PctChange: 0.1}},
	)
	require.Len(t, rows, 2)
	assert.Equal(t, -0.7, rows[0].Sentiment)
	assert.Equal(t, -0.7, rows[1].Sentiment)
}

func TestVaderScorer(t *testing.T) {
	s := NewVaderScorer()

	tests := []struct {
		name string
		text string
		sign int
	}{
		{"positive", "$AAL looks great today", 1},
		{"praise", "Thanks American, fantastic flight crew", 1},
		{"negative", "terrible quarter, big losses", -1},
		{"negated", "this is not good", -1},
		{"neutral", "$AAL opens at 9:30", 0},
		{"empty", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Compound(tt.text)
			assert.GreaterOrEqual(t, got, -1.0)
			assert.LessOrEqual(t, got, 1.0)
			switch tt.sign {
			case 1:
				assert.Greater(t, got, 0.0)
			case -1:
				assert.Less(t, got, 0.0)
			default:
				assert.Equal(t, 0.0, got)
			}
		})
	}
}

func TestVaderScorer_SocialText(t *testing.T) {
	s := NewVaderScorer()

	// slang and emphasis a plain word list misses
	assert.NotZero(t, s.Compound("lol this stock is a joke"))

	plain := s.Compound("good earnings")
	assert.Greater(t, s.Compound("very good earnings"), plain)
	assert.Greater(t, s.Compound("good earnings!!"), plain)
}

func TestExtractTask(t *testing.T) {
	ctx := context.Background()
	cfg := pipelineconfig.Default()
	store := objstore.NewMemory("test")
	db, err := database.NewSQLite(ctx, filepath.Join(t.TempDir(), "features.db"))
	require.NoError(t, err)
	defer db.Close()

	source := &staticSource{points: tradingDays(cfg.Prices.Start, cfg.Prices.End)}
	finance := ingest.NewPriceHistory("aal", source, store, cfg.Prices, logger.Nop())
	twitter := ingest.NewTwitterUpload(ingest.NewTwitterExport("aal", t.TempDir(), cfg.Twitter), store, cfg.Twitter, logger.Nop())

	// 트윗 parquet을 직접 기록
	followers := int64(1000)
	var buf bytes.Buffer
	require.NoError(t, parquet.Write(&buf, []contracts.TweetRecord{
		{Date: "2016-04-05", Content: "great", Followers: &followers},
		{Date: "2016-05-10", Content: "terrible", Followers: &followers},
	}))
	require.NoError(t, store.Put(ctx, contracts.TweetsKey("aal"), buf.Bytes()))
	require.NoError(t, finance.Run(ctx))

	tk := NewExtract("aal", twitter, finance, db, cfg.Sentiment, mapScorer{"great": 0.6, "terrible": -0.5}, logger.Nop())
	assert.Equal(t, twitter, tk.Deps().Lookup(DepTwitter))
	assert.Equal(t, finance, tk.Deps().Lookup(DepFinance))

	done, err := tk.Output().Exists(ctx)
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, tk.Run(ctx))

	raw, err := tk.Target().Read(ctx, contracts.FeatureColumns, nil)
	require.NoError(t, err)
	require.Len(t, raw, 78)

	first, err := contracts.FeatureRowFromValues(raw[0])
	require.NoError(t, err)
	assert.Equal(t, day("2016-04-01"), first.Date)
	assert.InDelta(t, 1.8, first.Sentiment, 1e-9, "back-filled from 2016-04-05")

	mid, err := contracts.FeatureRowFromValues(raw[45])
	require.NoError(t, err)
	assert.Equal(t, day("2016-05-16"), mid.Date)
	assert.InDelta(t, -1.5, mid.Sentiment, 1e-9)
	assert.True(t, mid.Signal)

	last, err := contracts.FeatureRowFromValues(raw[77])
	require.NoError(t, err)
	assert.True(t, math.IsNaN(last.Sentiment))
}

func TestExtractTask_MissingInput(t *testing.T) {
	ctx := context.Background()
	cfg := pipelineconfig.Default()
	store := objstore.NewMemory("test")
	db, err := database.NewSQLite(ctx, filepath.Join(t.TempDir(), "features.db"))
	require.NoError(t, err)
	defer db.Close()

	finance := ingest.NewPriceHistory("aal", &staticSource{}, store, cfg.Prices, logger.Nop())
	twitter := ingest.NewTwitterUpload(ingest.NewTwitterExport("aal", t.TempDir(), cfg.Twitter), store, cfg.Twitter, logger.Nop())

	err = NewExtract("aal", twitter, finance, db, cfg.Sentiment, NewVaderScorer(), logger.Nop()).Run(ctx)
	assert.ErrorIs(t, err, contracts.ErrLookup)

	exists, _ := db.TableExists(ctx, "aal")
	assert.False(t, exists)
}

type staticSource struct {
	points []contracts.PricePoint
}

func (s *staticSource) History(context.Context, string, time.Time, time.Time) ([]contracts.PricePoint, error) {
	return s.points, nil
}
