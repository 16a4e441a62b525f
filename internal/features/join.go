package features

import (
	"math"
	"sort"
	"time"

	"github.com/wonny/twitstock/internal/contracts"
)

// Join outer-joins daily sentiment and price changes on date, sorted ascending.
//
// Missing sentiment is forward-filled and then back-filled over every row except
// the last one, which keeps whatever value it had (possibly NaN). Signal is
// PctChange > 0, so a NaN change yields false.
func Join(sentiment []contracts.DailySentiment, prices []contracts.PriceChange) []contracts.FeatureRow {
	rows := make(map[time.Time]*contracts.FeatureRow)
	get := func(d time.Time) *contracts.FeatureRow {
		d = truncateDay(d)
		r, ok := rows[d]
		if !ok {
			r = &contracts.FeatureRow{Date: d, Sentiment: math.NaN(), PctChange: math.NaN()}
			rows[d] = r
		}
		return r
	}

	for _, s := range sentiment {
		get(s.Date).Sentiment = s.Sentiment
	}
	for _, p := range prices {
		get(p.Date).PctChange = p.PctChange
	}

	out := make([]contracts.FeatureRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })

	if n := len(out); n > 1 {
		fillSentiment(out[:n-1])
	}

	for i := range out {
		out[i].Signal = out[i].PctChange > 0
	}
	return out
}

// fillSentiment forward-fills then back-fills NaN sentiment in place
func fillSentiment(rows []contracts.FeatureRow) {
	last := math.NaN()
	for i := range rows {
		if math.IsNaN(rows[i].Sentiment) {
			rows[i].Sentiment = last
		} else {
			last = rows[i].Sentiment
		}
	}

	next := math.NaN()
	for i := len(rows) - 1; i >= 0; i-- {
		if math.IsNaN(rows[i].Sentiment) {
			rows[i].Sentiment = next
		} else {
			next = rows[i].Sentiment
		}
	}
}
