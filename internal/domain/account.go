package domain

import "github.com/shopspring/decimal"

// AccountBase is the immutable display metadata of an account.
type AccountBase struct {
	Name         string
	InterestRate decimal.Decimal // annual percentage, 5 means 5%/year
}
