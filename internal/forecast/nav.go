package forecast

import (
	"context"
	"fmt"
	"math"

	"github.com/wonny/twitstock/internal/contracts"
	"github.com/wonny/twitstock/internal/target"
)

// NAV compares buy-and-hold against following the predictions.
//
// The first day's change counts as 0. The strategy holds +1 after a predicted
// rise and -1 after a predicted fall, acting on the previous day's prediction,
// so it is flat on the first day. Both curves are cumulative sums of daily changes.
func NAV(rows []contracts.PredictionRow) []contracts.NAVPoint {
	out := make([]contracts.NAVPoint, len(rows))
	nav, strategy := 0.0, 0.0
	for i, r := range rows {
		pct := r.PctChange
		if i == 0 || math.IsNaN(pct) {
			pct = 0
		}

		position := 0.0
		if i > 0 {
			position = -1
			if rows[i-1].SignalPredict {
				position = 1
			}
		}

		nav += pct
		strategy += pct * position
		out[i] = contracts.NAVPoint{
			Date:        r.Date.Format(contracts.DateLayout),
			NAV:         nav,
			NAVStrategy: strategy,
		}
	}
	return out
}

// ReadPredictions loads every row of a <ticker>_predict table
func ReadPredictions(ctx context.Context, table *target.TableTarget) ([]contracts.PredictionRow, error) {
	raw, err := table.Read(ctx, contracts.PredictionColumns, nil)
	if err != nil {
		return nil, err
	}

	rows := make([]contracts.PredictionRow, 0, len(raw))
	for _, v := range raw {
		r, err := contracts.PredictionRowFromValues(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w: %v", table.Table(), contracts.ErrPersistence, err)
		}
		rows = append(rows, r)
	}
	return rows, nil
}
