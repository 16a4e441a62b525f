package contracts

import (
	"fmt"
	"strings"
)

// Decision is the rendered direction for one date
type Decision string

const (
	DecisionBuy  Decision = "BUY"
	DecisionSell Decision = "SELL"
)

// DecisionOf maps a predicted signal to BUY (up) or SELL
func DecisionOf(signal bool) Decision {
	if signal {
		return DecisionBuy
	}
	return DecisionSell
}

// RenderPrediction formats the user-facing result.
// ⭐ SSOT: 예측 결과 문구는 여기서만 생성
func RenderPrediction(date, ticker string, d Decision) string {
	return fmt.Sprintf("For %s, the predicted result for %q is %s!", date, strings.ToUpper(ticker), d)
}

// NAVPoint is one day of the buy-and-hold vs. strategy comparison
type NAVPoint struct {
	Date        string  `json:"date"`
	NAV         float64 `json:"nav"`
	NAVStrategy float64 `json:"nav_strategy"`
}
