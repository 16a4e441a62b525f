package ingest

import (
	"bytes"
	"context"
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/wonny/twitstock/internal/contracts"
	"github.com/wonny/twitstock/internal/target"
)

// writeParquet encodes rows and commits them to out in one Put
func writeParquet[T any](ctx context.Context, out *target.ObjectTarget, rows []T) error {
	var buf bytes.Buffer
	if err := parquet.Write(&buf, rows); err != nil {
		return fmt.Errorf("encode parquet %s: %w", out.Key(), err)
	}
	return out.Write(ctx, buf.Bytes())
}

func readParquet[T any](ctx context.Context, in *target.ObjectTarget) ([]T, error) {
	data, err := in.Read(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := parquet.Read[T](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("decode parquet %s: %w", in.Key(), err)
	}
	return rows, nil
}

// ReadPrices loads FinanceData/<ticker>.parquet
func ReadPrices(ctx context.Context, in *target.ObjectTarget) ([]contracts.PricePoint, error) {
	records, err := readParquet[contracts.PriceRecord](ctx, in)
	if err != nil {
		return nil, err
	}

	points := make([]contracts.PricePoint, 0, len(records))
	for _, r := range records {
		d, err := parseDay(r.Date)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", in.Key(), err)
		}
		points = append(points, contracts.PricePoint{Date: d, AdjClose: r.AdjClose})
	}
	return points, nil
}

// ReadTweets loads TwitterData/<ticker>.parquet
func ReadTweets(ctx context.Context, in *target.ObjectTarget) ([]contracts.Tweet, error) {
	records, err := readParquet[contracts.TweetRecord](ctx, in)
	if err != nil {
		return nil, err
	}

	tweets := make([]contracts.Tweet, 0, len(records))
	for _, r := range records {
		tw, err := r.ToTweet()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", in.Key(), err)
		}
		tweets = append(tweets, tw)
	}
	return tweets, nil
}
