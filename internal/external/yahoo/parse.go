package yahoo

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/twitstock/internal/contracts"
)

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				GMTOffset int64 `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// parseChart parses the v8 chart JSON. Days with a null close are dropped.
func parseChart(body []byte) ([]contracts.PricePoint, error) {
	var resp chartResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode chart: %w", err)
	}
	if e := resp.Chart.Error; e != nil {
		return nil, fmt.Errorf("chart error %s: %s", e.Code, e.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("chart: no result")
	}

	r := resp.Chart.Result[0]
	var closes []*float64
	if len(r.Indicators.AdjClose) > 0 {
		closes = r.Indicators.AdjClose[0].AdjClose
	} else if len(r.Indicators.Quote) > 0 {
		// adjclose가 없으면 종가 사용
		closes = r.Indicators.Quote[0].Close
	}

	var points []contracts.PricePoint
	for i, ts := range r.Timestamp {
		if i >= len(closes) || closes[i] == nil || math.IsNaN(*closes[i]) {
			continue
		}
		// 거래소 현지 날짜 기준
		local := time.Unix(ts+r.Meta.GMTOffset, 0).UTC()
		day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
		points = append(points, contracts.PricePoint{Date: day, AdjClose: *closes[i]})
	}
	return points, nil
}

// parseHistoryHTML parses the history page table:
// Date | Open | High | Low | Close | Adj Close | Volume
func parseHistoryHTML(html string) ([]contracts.PricePoint, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse history page: %w", err)
	}

	var points []contracts.PricePoint
	doc.Find("table tbody tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		// 배당/분할 행은 컬럼 수가 적음
		if cells.Length() < 6 {
			return
		}

		day, err := parseHistoryDate(strings.TrimSpace(cells.Eq(0).Text()))
		if err != nil {
			return
		}

		raw := strings.ReplaceAll(strings.TrimSpace(cells.Eq(5).Text()), ",", "")
		adj, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return
		}

		points = append(points, contracts.PricePoint{Date: day, AdjClose: adj})
	})

	if len(points) == 0 {
		return nil, fmt.Errorf("history page: no price rows")
	}
	return points, nil
}

func parseHistoryDate(s string) (time.Time, error) {
	for _, layout := range []string{"Jan 2, 2006", "Jan 02, 2006", contracts.DateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
