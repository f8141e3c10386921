package engine

import "errors"

// Global error declarations.
var (
	// ErrInvalidInterval is returned at construction when the requested step
	// granularity is not supported.
	ErrInvalidInterval = errors.New("step interval not supported")

	// ErrDataUnavailable is returned when the seed-price lookback window
	// yields no usable observation for a new investment.
	ErrDataUnavailable = errors.New("no price data available for symbol")

	// ErrNoObservationFound is returned when the bounded forward search
	// exhausts its retry cap without locating the next observation. The
	// cached series is stale or exhausted; the run cannot continue.
	ErrNoObservationFound = errors.New("no next observation found within search cap")

	// ErrUnknownAsset is returned for operations against a symbol that was
	// never registered with AddInvestment.
	ErrUnknownAsset = errors.New("unknown asset")

	// ErrInvestmentExceedsPortfolio should be unreachable: clamping bounds
	// every target to the available total. Kept as a defensive check.
	ErrInvestmentExceedsPortfolio = errors.New("investment exceeds portfolio total")

	// ErrValueUpdate signals a negative balance after a clamped update.
	// Always a defect, never expected in normal operation.
	ErrValueUpdate = errors.New("value update produced negative balance")
)
