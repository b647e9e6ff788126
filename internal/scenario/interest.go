package scenario

import (
	"time"

	"github.com/shopspring/decimal"

	"cashflow-lab/internal/domain"
)

// InterestModel computes the interest an account earns between two ticks.
type InterestModel interface {
	// Accrue returns the interest to credit on balance for the period
	// [from, to) at an annual percentage rate.
	Accrue(balance, annualRatePct decimal.Decimal, from, to time.Time) decimal.Decimal
}

// Interest model names used in scenario files.
const (
	InterestNone        = "none"
	InterestDailySimple = "daily_simple"
)

// NoInterest never accrues.
type NoInterest struct{}

// Accrue implements InterestModel.
func (NoInterest) Accrue(decimal.Decimal, decimal.Decimal, time.Time, time.Time) decimal.Decimal {
	return decimal.Zero
}

var (
	hundred     = decimal.NewFromInt(100)
	daysPerYear = decimal.NewFromInt(365)
)

// DailySimple accrues balance × rate/100 × days/365 per period, rounded
// half-even to cents. Crediting it every tick compounds at the tick
// resolution. Non-positive balances earn nothing.
type DailySimple struct{}

// Accrue implements InterestModel.
func (DailySimple) Accrue(balance, annualRatePct decimal.Decimal, from, to time.Time) decimal.Decimal {
	days := domain.DaysBetween(from, to)
	if days <= 0 || !balance.IsPositive() || annualRatePct.IsZero() {
		return decimal.Zero
	}

	return balance.
		Mul(annualRatePct).
		Mul(decimal.NewFromInt(days)).
		Div(hundred.Mul(daysPerYear)).
		RoundBank(2)
}

// InterestModelByName resolves a scenario file model name. An empty name
// means no interest.
func InterestModelByName(name string) (InterestModel, bool) {
	switch name {
	case InterestNone, "":
		return NoInterest{}, true
	case InterestDailySimple:
		return DailySimple{}, true
	default:
		return nil, false
	}
}
