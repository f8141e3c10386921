package types

import (
	"github.com/shopspring/decimal"
)

// InvestmentState is one tracked asset's row in the observation matrix
// handed to an agent: the last observed close and the monetary holding.
type InvestmentState struct {
	Symbol  string
	Price   decimal.Decimal
	Holding decimal.Decimal
}

// StateVector is the per-asset observation vector: the asset's state plus
// the portfolio's uninvested balance.
type StateVector struct {
	Price   decimal.Decimal
	Holding decimal.Decimal
	Balance decimal.Decimal
}
