package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/wonny/twitstock/internal/contracts"
	"github.com/wonny/twitstock/pkg/config"
	"github.com/wonny/twitstock/pkg/httputil"
	"github.com/wonny/twitstock/pkg/logger"
	"github.com/wonny/twitstock/pkg/redis"
)

const defaultHTMLBaseURL = "https://finance.yahoo.com"

// Client fetches daily price history from Yahoo Finance
// ⭐ SSOT: 가격 이력 외부 호출은 이 클라이언트에서만
type Client struct {
	httpClient  *httputil.Client
	logger      *logger.Logger
	baseURL     string // chart API
	htmlBaseURL string // history page fallback
	breaker     *gobreaker.CircuitBreaker
	cache       *redis.Cache
	cacheTTL    time.Duration
}

// NewClient creates a new Yahoo Finance client. cache may be nil.
func NewClient(httpClient *httputil.Client, cache *redis.Cache, cfg config.MarketDataConfig, log *logger.Logger) *Client {
	c := &Client{
		httpClient:  httpClient,
		logger:      log.Module("yahoo"),
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		htmlBaseURL: defaultHTMLBaseURL,
		cache:       cache,
		cacheTTL:    cfg.CacheTTL,
	}
	if !strings.Contains(c.baseURL, "finance.yahoo.com") {
		// 자체 호스팅/테스트 서버는 두 경로를 모두 제공
		c.htmlBaseURL = c.baseURL
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "yahoo",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.WithFields(map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
		IsSuccessful: func(err error) bool {
			// 사용자 취소는 외부 장애로 보지 않음
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
	})

	return c
}

// History returns adjusted closes for [start, end], both inclusive, sorted by date.
// Every failure wraps contracts.ErrUpstreamFetch.
func (c *Client) History(ctx context.Context, ticker string, start, end time.Time) ([]contracts.PricePoint, error) {
	startDay := start.Format(contracts.DateLayout)
	endDay := end.Format(contracts.DateLayout)
	key := redis.HistoryKey(ticker, startDay, endDay)

	if c.cache != nil {
		var cached []contracts.PricePoint
		if found, err := c.cache.Get(ctx, key, &cached); err == nil && found && len(cached) > 0 {
			c.logger.WithField("ticker", ticker).Debug("Price history cache hit")
			return cached, nil
		}
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetch(ctx, ticker, start, end)
	})
	if err != nil {
		return nil, fmt.Errorf("price history %s: %w: %v", ticker, contracts.ErrUpstreamFetch, err)
	}

	points := clip(out.([]contracts.PricePoint), start, end)
	if len(points) == 0 {
		return nil, fmt.Errorf("price history %s %s..%s: empty series: %w", ticker, startDay, endDay, contracts.ErrUpstreamFetch)
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, points, c.cacheTTL); err != nil {
			c.logger.WithError(err).Warn("Failed to cache price history")
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"count":  len(points),
		"start":  startDay,
		"end":    endDay,
	}).Debug("Fetched price history")
	return points, nil
}

// fetch tries the chart API first and falls back to the history page
func (c *Client) fetch(ctx context.Context, ticker string, start, end time.Time) ([]contracts.PricePoint, error) {
	params := url.Values{}
	params.Set("period1", fmt.Sprintf("%d", start.Unix()))
	// period2 is exclusive on Yahoo's side
	params.Set("period2", fmt.Sprintf("%d", end.AddDate(0, 0, 1).Unix()))

	chartParams := url.Values{}
	for k, v := range params {
		chartParams[k] = v
	}
	chartParams.Set("interval", "1d")
	chartParams.Set("events", "history")
	chartParams.Set("includeAdjustedClose", "true")

	chartURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(ticker), chartParams.Encode())
	body, err := c.httpClient.GetBody(ctx, chartURL)
	if err == nil {
		points, perr := parseChart(body)
		if perr == nil {
			return points, nil
		}
		err = perr
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	c.logger.WithError(err).WithField("ticker", ticker).Warn("Chart API failed, falling back to history page")

	pageURL := fmt.Sprintf("%s/quote/%s/history?%s", c.htmlBaseURL, url.PathEscape(ticker), params.Encode())
	html, herr := c.httpClient.GetBody(ctx, pageURL)
	if herr != nil {
		return nil, fmt.Errorf("chart: %v; history page: %w", err, herr)
	}
	points, herr := parseHistoryHTML(string(html))
	if herr != nil {
		return nil, fmt.Errorf("chart: %v; history page: %w", err, herr)
	}
	return points, nil
}

// clip keeps points within [start, end] by calendar day, sorted and deduplicated
func clip(points []contracts.PricePoint, start, end time.Time) []contracts.PricePoint {
	lo := start.Format(contracts.DateLayout)
	hi := end.Format(contracts.DateLayout)

	byDay := make(map[string]contracts.PricePoint)
	for _, p := range points {
		d := p.Date.Format(contracts.DateLayout)
		if d < lo || d > hi {
			continue
		}
		byDay[d] = p
	}

	out := make([]contracts.PricePoint, 0, len(byDay))
	for _, p := range byDay {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
