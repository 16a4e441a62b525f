package contracts

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPrediction(t *testing.T) {
	tests := []struct {
		date   string
		ticker string
		signal bool
		want   string
	}{
		{"2016-06-12", "AAL", false, `For 2016-06-12, the predicted result for "AAL" is SELL!`},
		{"2016-06-13", "aapl", true, `For 2016-06-13, the predicted result for "AAPL" is BUY!`},
	}

	for _, tt := range tests {
		t.Run(tt.ticker, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderPrediction(tt.date, tt.ticker, DecisionOf(tt.signal)))
		})
	}
}

func TestNames(t *testing.T) {
	assert.Equal(t, "aal", FeatureTable("AAL"))
	assert.Equal(t, "aal_predict", PredictionTable("AAL"))
	assert.Equal(t, "FinanceData/aal.parquet", PriceHistoryKey("aal"))
	assert.Equal(t, "TwitterData/aal.parquet", TweetsKey("aal"))
	assert.Equal(t, "predictions/aal/2016-06-12.txt", PredictionKey("aal", "2016-06-12"))
}

func TestNormalizeTicker(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		invalid bool
	}{
		{raw: "AAL", want: "aal"},
		{raw: " $aapl ", want: "aapl"},
		{raw: "BRK.B", want: "brk.b"},
		{raw: "BF-B", want: "bf-b"},
		{raw: "", invalid: true},
		{raw: "$", invalid: true},
		{raw: "..", invalid: true},
		{raw: "../../etc", invalid: true},
		{raw: "aal/secret", invalid: true},
		{raw: `aal\secret`, invalid: true},
		{raw: "a a", invalid: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := NormalizeTicker(tt.raw)
			if tt.invalid {
				assert.True(t, errors.Is(err, ErrInvalidInput), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		raw     string
		invalid bool
	}{
		{raw: "2016-06-12"},
		{raw: "2016-06"},
		{raw: "2016"},
		{raw: " 2016-6-1 "},
		{raw: "", invalid: true},
		{raw: "../../../secret", invalid: true},
		{raw: "2016-06-12/../../x", invalid: true},
		{raw: "12/06/2016", invalid: true},
		{raw: "2016-06-123", invalid: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			_, err := NormalizeDate(tt.raw)
			if tt.invalid {
				assert.True(t, errors.Is(err, ErrInvalidInput), "got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestFeatureRowValues(t *testing.T) {
	row := PredictionRow{
		FeatureRow: FeatureRow{
			Date:      time.Date(2016, 6, 12, 0, 0, 0, 0, time.UTC),
			Sentiment: 0.42,
			PctChange: math.NaN(),
			Signal:    false,
		},
		SignalPredict: true,
	}

	values := row.Values()
	require.Len(t, values, len(PredictionColumns))
	assert.Equal(t, "2016-06-12", values[0])

	decoded, err := PredictionRowFromValues(values)
	require.NoError(t, err)
	assert.True(t, decoded.Date.Equal(row.Date))
	assert.Equal(t, 0.42, decoded.Sentiment)
	assert.True(t, math.IsNaN(decoded.PctChange))
	assert.True(t, decoded.SignalPredict)

	_, err = FeatureRowFromValues([]any{"2016-06-12"})
	assert.Error(t, err)
}

func TestTweetRecordToTweet(t *testing.T) {
	n := int64(1000)
	zero := int64(0)

	tweet, err := TweetRecord{Date: "2016-04-01", Content: "$AAL up", Followers: &n}.ToTweet()
	require.NoError(t, err)
	assert.Equal(t, 1000.0, tweet.Followers)

	tweet, err = TweetRecord{Date: "2016-04-01", Followers: &zero}.ToTweet()
	require.NoError(t, err)
	assert.True(t, math.IsNaN(tweet.Followers))

	tweet, err = TweetRecord{Date: "2016-04-01"}.ToTweet()
	require.NoError(t, err)
	assert.True(t, math.IsNaN(tweet.Followers))

	_, err = TweetRecord{Date: "04/01/2016"}.ToTweet()
	assert.Error(t, err)
}

func TestStages(t *testing.T) {
	stages := AllStages()
	require.Len(t, stages, 4)
	for i, s := range stages {
		assert.Equal(t, fmt.Sprintf("S%d", i), s.ShortName())
		assert.True(t, IsValidStage(s.String()))
	}
	assert.False(t, IsValidStage("S9_NOPE"))
}

func TestErrorsWrap(t *testing.T) {
	err := fmt.Errorf("price history AAL: %w", ErrUpstreamFetch)
	assert.True(t, errors.Is(err, ErrUpstreamFetch))
	assert.False(t, errors.Is(err, ErrLookup))
}
