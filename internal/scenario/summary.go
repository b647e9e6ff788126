package scenario

import (
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"cashflow-lab/internal/domain"
)

// Summary describes one account's value series across all ticks.
type Summary struct {
	AccountID string          `json:"account_id"`
	Ticks     int             `json:"ticks"`
	First     decimal.Decimal `json:"first"`
	Last      decimal.Decimal `json:"last"`
	Min       decimal.Decimal `json:"min"`
	Max       decimal.Decimal `json:"max"`
	NetChange decimal.Decimal `json:"net_change"` // Last - First
	Drawdown  decimal.Decimal `json:"max_drawdown"` // largest peak-to-trough decline
	Mean      float64         `json:"mean"`
	StdDev    float64         `json:"std_dev"` // sample standard deviation, 0 for fewer than two ticks
}

// Summarize computes statistics over an account's tick series.
// Ticks without the account are skipped.
func Summarize(results *domain.Results, accountID string) Summary {
	sum := Summary{AccountID: accountID}
	if results == nil {
		return sum
	}

	var values []decimal.Decimal
	for _, tick := range results.Ticks() {
		if v, ok := tick.Values[accountID]; ok {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return sum
	}

	xs := make([]float64, len(values))
	sum.Min, sum.Max = values[0], values[0]
	for i, v := range values {
		xs[i] = v.InexactFloat64()
		if v.LessThan(sum.Min) {
			sum.Min = v
		}
		if v.GreaterThan(sum.Max) {
			sum.Max = v
		}
	}
	sum.Drawdown = maxDrawdown(values)

	sum.Ticks = len(values)
	sum.First = values[0]
	sum.Last = values[len(values)-1]
	sum.NetChange = sum.Last.Sub(sum.First)
	if len(xs) > 1 {
		sum.Mean, sum.StdDev = stat.MeanStdDev(xs, nil)
	} else {
		sum.Mean = xs[0]
	}
	return sum
}

// maxDrawdown returns the largest drop from a running peak.
func maxDrawdown(values []decimal.Decimal) decimal.Decimal {
	peak := values[0]
	worst := decimal.Zero
	for _, v := range values {
		if v.GreaterThan(peak) {
			peak = v
		}
		if dd := peak.Sub(v); dd.GreaterThan(worst) {
			worst = dd
		}
	}
	return worst
}
