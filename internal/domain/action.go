package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ActionKind identifies the effect an Action has on an account balance.
type ActionKind string

// ActionKind constants.
const (
	ActionDeposit    ActionKind = "DEPOSIT"
	ActionWithdrawal ActionKind = "WITHDRAWAL"
	ActionFee        ActionKind = "FEE"
	ActionTransfer   ActionKind = "TRANSFER"
	ActionInterest   ActionKind = "INTEREST"
)

// Action is one effect to apply to an account at a point in time.
// Amount is non-negative by convention; Kind decides the sign applied.
type Action struct {
	Kind         ActionKind
	Amount       decimal.Decimal
	Counterparty string // receiving account id, TRANSFER only
	Note         string
}

// Deposit creates a deposit of amount.
func Deposit(amount decimal.Decimal) Action {
	return Action{Kind: ActionDeposit, Amount: amount}
}

// Withdrawal creates a withdrawal of amount.
func Withdrawal(amount decimal.Decimal) Action {
	return Action{Kind: ActionWithdrawal, Amount: amount}
}

// Fee creates a fee charge of amount.
func Fee(amount decimal.Decimal) Action {
	return Action{Kind: ActionFee, Amount: amount}
}

// Transfer moves amount from the owning account to account `to`.
func Transfer(amount decimal.Decimal, to string) Action {
	return Action{Kind: ActionTransfer, Amount: amount, Counterparty: to}
}

// InterestCredit credits accrued interest.
func InterestCredit(amount decimal.Decimal) Action {
	return Action{Kind: ActionInterest, Amount: amount}
}

// Delta returns the signed change the action makes to its owning account.
func (a Action) Delta() decimal.Decimal {
	switch a.Kind {
	case ActionDeposit, ActionInterest:
		return a.Amount
	case ActionWithdrawal, ActionFee, ActionTransfer:
		return a.Amount.Neg()
	default:
		return decimal.Zero
	}
}

// Equal reports whether two actions carry the same kind, amount, counterparty
// and note.
func (a Action) Equal(b Action) bool {
	return a.Kind == b.Kind &&
		a.Amount.Equal(b.Amount) &&
		a.Counterparty == b.Counterparty &&
		a.Note == b.Note
}

func (a Action) String() string {
	switch a.Kind {
	case ActionDeposit:
		return fmt.Sprintf("Deposit(%s)", a.Amount)
	case ActionWithdrawal:
		return fmt.Sprintf("Withdrawal(%s)", a.Amount)
	case ActionFee:
		return fmt.Sprintf("Fee(%s)", a.Amount)
	case ActionTransfer:
		return fmt.Sprintf("Transfer(%s -> %s)", a.Amount, a.Counterparty)
	case ActionInterest:
		return fmt.Sprintf("Interest(%s)", a.Amount)
	default:
		return fmt.Sprintf("%s(%s)", a.Kind, a.Amount)
	}
}
