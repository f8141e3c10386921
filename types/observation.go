package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Observation is a single close price at a trading timestamp.
type Observation struct {
	Timestamp time.Time       `json:"timestamp"`
	Close     decimal.Decimal `json:"close"`
}
