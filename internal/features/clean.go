// Package features turns raw price and tweet series into the daily feature table.
package features

import (
	"math"
	"sort"
	"time"

	"github.com/wonny/twitstock/internal/contracts"
)

// CleanPrices reindexes the series onto every calendar day between its first
// and last date, linearly interpolates the days without a close, and returns
// the day-over-day percentage change. The first change is NaN.
func CleanPrices(points []contracts.PricePoint) []contracts.PriceChange {
	if len(points) == 0 {
		return nil
	}

	byDay := make(map[time.Time]float64, len(points))
	for _, p := range points {
		byDay[truncateDay(p.Date)] = p.AdjClose
	}
	days := sortedDays(byDay)
	first, last := days[0], days[len(days)-1]

	// 달력 전체로 재색인
	var calendar []time.Time
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		calendar = append(calendar, d)
	}

	closes := make([]float64, len(calendar))
	for i, d := range calendar {
		if v, ok := byDay[d]; ok {
			closes[i] = v
		} else {
			closes[i] = math.NaN()
		}
	}
	interpolate(closes)

	out := make([]contracts.PriceChange, len(calendar))
	for i, d := range calendar {
		pct := math.NaN()
		if i > 0 {
			pct = closes[i]/closes[i-1] - 1
		}
		out[i] = contracts.PriceChange{Date: d, PctChange: pct}
	}
	return out
}

// interpolate fills NaN runs linearly between their known neighbours.
// Leading NaNs stay NaN; trailing NaNs take the last known value.
func interpolate(v []float64) {
	prev := -1
	for i := range v {
		if math.IsNaN(v[i]) {
			continue
		}
		if prev >= 0 && i-prev > 1 {
			step := (v[i] - v[prev]) / float64(i-prev)
			for k := prev + 1; k < i; k++ {
				v[k] = v[prev] + step*float64(k-prev)
			}
		}
		prev = i
	}
	if prev >= 0 {
		for k := prev + 1; k < len(v); k++ {
			v[k] = v[prev]
		}
	}
}

// CleanSentiment keeps tweets dated within [start, end], drops those without a
// follower count or with a compound score of exactly zero, weights each score by
// log10(followers) and averages per day.
func CleanSentiment(tweets []contracts.Tweet, start, end time.Time, scorer contracts.SentimentScorer) []contracts.DailySentiment {
	start, end = truncateDay(start), truncateDay(end)

	type acc struct {
		sum float64
		n   int
	}
	byDay := make(map[time.Time]*acc)

	for _, tw := range tweets {
		d := truncateDay(tw.Date)
		if d.Before(start) || d.After(end) {
			continue
		}
		if math.IsNaN(tw.Followers) || tw.Followers <= 0 {
			continue
		}
		compound := scorer.Compound(tw.Content)
		// 0점은 중립이 아니라 신호 없음
		if compound == 0 {
			continue
		}

		a, ok := byDay[d]
		if !ok {
			a = &acc{}
			byDay[d] = a
		}
		a.sum += math.Log10(tw.Followers) * compound
		a.n++
	}

	days := make([]time.Time, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	out := make([]contracts.DailySentiment, len(days))
	for i, d := range days {
		a := byDay[d]
		out[i] = contracts.DailySentiment{Date: d, Sentiment: a.sum / float64(a.n)}
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func sortedDays(m map[time.Time]float64) []time.Time {
	days := make([]time.Time, 0, len(m))
	for d := range m {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}
