package constantmix

import (
	"github.com/shopspring/decimal"

	"stocksim/types"
)

// Policy keeps each asset at a fixed fraction of the portfolio net,
// rebalancing every N steps. It stands in for an agent when replaying
// without one: a constant-mix allocation is the usual passive baseline.
type Policy struct {
	weights        map[string]decimal.Decimal
	rebalanceEvery int
}

func New(weights map[string]decimal.Decimal, rebalanceEvery int) *Policy {
	if rebalanceEvery < 1 {
		rebalanceEvery = 1
	}
	return &Policy{
		weights:        weights,
		rebalanceEvery: rebalanceEvery,
	}
}

// EqualWeights splits the whole portfolio evenly across the given symbols.
func EqualWeights(symbols []string) map[string]decimal.Decimal {
	weights := make(map[string]decimal.Decimal, len(symbols))
	if len(symbols) == 0 {
		return weights
	}
	weight := decimal.NewFromInt(1).Div(decimal.NewFromInt(int64(len(symbols))))
	for _, symbol := range symbols {
		weights[symbol] = weight
	}
	return weights
}

func (p *Policy) Allocate(step int, states []types.InvestmentState, balance decimal.Decimal) map[string]decimal.Decimal {
	if step%p.rebalanceEvery != 0 {
		return nil
	}

	net := balance
	for _, state := range states {
		net = net.Add(state.Holding)
	}

	targets := make(map[string]decimal.Decimal, len(states))
	for _, state := range states {
		weight, ok := p.weights[state.Symbol]
		if !ok {
			continue
		}
		targets[state.Symbol] = net.Mul(weight)
	}
	return targets
}
