package formula

import (
	"github.com/shopspring/decimal"

	"cashflow-lab/internal/domain"
)

// Amount converts a whole-unit amount.
func Amount(units int64) decimal.Decimal {
	return decimal.NewFromInt(units)
}

// MustAmount parses a decimal string such as "12.50". It panics on
// malformed input and is meant for literals.
func MustAmount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Deposit emits a deposit of amount on every interval date.
func Deposit(amount decimal.Decimal) ActionStage {
	return emit(domain.Deposit(amount))
}

// Withdraw emits a withdrawal of amount on every interval date.
func Withdraw(amount decimal.Decimal) ActionStage {
	return emit(domain.Withdrawal(amount))
}

// ChargeFee emits a fee of amount on every interval date.
func ChargeFee(amount decimal.Decimal) ActionStage {
	return emit(domain.Fee(amount))
}

// TransferTo emits a transfer of amount to account `to` on every interval
// date. The target is resolved when the action is applied.
func TransferTo(amount decimal.Decimal, to string) ActionStage {
	return emit(domain.Transfer(amount, to))
}

// emit pairs every interval date with the same action, in interval order.
func emit(action domain.Action) ActionStage {
	return func(*Context) (func(domain.Interval) (domain.Sequence, error), error) {
		return func(iv domain.Interval) (domain.Sequence, error) {
			return domain.NewSequence(func(yield func(domain.TimedAction) bool) {
				for d := range iv.All() {
					if !yield(domain.TimedAction{Date: d, Action: action}) {
						return
					}
				}
			}), nil
		}, nil
	}
}

// Scale multiplies every amount by factor.
func Scale(factor decimal.Decimal) SequenceStage {
	return mapSeq(func(ta domain.TimedAction) domain.TimedAction {
		ta.Action.Amount = ta.Action.Amount.Mul(factor)
		return ta
	})
}

// Shift moves every action by days calendar days. Order is preserved.
func Shift(days int) SequenceStage {
	return mapSeq(func(ta domain.TimedAction) domain.TimedAction {
		ta.Date = ta.Date.AddDate(0, 0, days)
		return ta
	})
}

// Note annotates every action with text.
func Note(text string) SequenceStage {
	return mapSeq(func(ta domain.TimedAction) domain.TimedAction {
		ta.Action.Note = text
		return ta
	})
}

func mapSeq(fn func(domain.TimedAction) domain.TimedAction) SequenceStage {
	return func(*Context) (func(domain.Sequence) (domain.Sequence, error), error) {
		return func(seq domain.Sequence) (domain.Sequence, error) {
			return domain.NewSequence(func(yield func(domain.TimedAction) bool) {
				for ta := range seq.All() {
					if !yield(fn(ta)) {
						return
					}
				}
			}), nil
		}, nil
	}
}
