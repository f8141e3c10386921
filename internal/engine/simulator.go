package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"stocksim/types"
)

// precision is the fixed decimal precision applied to holdings and balance
// on every mutation, so boundary comparisons never fail on float noise.
const precision = 6

// seedLookbackBars sizes the lookback window used to seed a reference
// price, with a floor of one calendar day.
const seedLookbackBars = 5

type timeSeriesProvider interface {
	Closes(ctx context.Context, symbol string, start, end time.Time, interval types.Interval) ([]types.Observation, error)
}

// investment is the mutable per-asset state: the last observed close used
// as the rebasing denominator, the monetary holding, and the timestamp of
// the bar the asset was last valuated at.
type investment struct {
	symbol       string
	series       *assetSeries
	refPrice     decimal.Decimal
	holding      decimal.Decimal
	lastObserved time.Time
}

// Simulator replays a portfolio over a fixed historical close-price series.
// It owns a nominal clock on the interval grid, an uninvested balance, and
// one investment per registered symbol. Single-owner, single-threaded: no
// operation may be interleaved with another on the same instance.
type Simulator struct {
	provider timeSeriesProvider
	log      zerolog.Logger

	interval    types.Interval
	clock       time.Time
	initClock   time.Time
	balance     decimal.Decimal
	initBalance decimal.Decimal

	investments map[string]*investment
	symbols     []string // registration order

	now func() time.Time
}

// NewSimulator creates a simulator starting at the given time with the
// given balance. The interval must be a supported step granularity.
func NewSimulator(provider timeSeriesProvider, start time.Time, balance decimal.Decimal, interval types.Interval, log zerolog.Logger) (*Simulator, error) {
	if !interval.Valid() {
		return nil, fmt.Errorf("interval %q: %w", interval, ErrInvalidInterval)
	}
	return &Simulator{
		provider:    provider,
		log:         log,
		interval:    interval,
		clock:       start,
		initClock:   start,
		balance:     balance.Round(precision),
		initBalance: balance.Round(precision),
		investments: make(map[string]*investment),
		now:         time.Now,
	}, nil
}

// AddInvestment registers a new tracked asset: it seeds the reference price
// from a short lookback window ending at the simulator clock and caches the
// forward series up to wall-clock now. Registration is atomic; on any
// failure no partial asset state is installed. The holding starts at zero.
func (s *Simulator) AddInvestment(ctx context.Context, symbol string) error {
	if _, ok := s.investments[symbol]; ok {
		return fmt.Errorf("symbol %s already registered", symbol)
	}

	lookback := s.interval.Duration() * seedLookbackBars
	if lookback < 24*time.Hour {
		lookback = 24 * time.Hour
	}
	seedWindow, err := s.provider.Closes(ctx, symbol, s.clock.Add(-lookback), s.clock, s.interval)
	if err != nil {
		return fmt.Errorf("seed price for %s: %w", symbol, err)
	}
	if len(seedWindow) == 0 {
		return fmt.Errorf("seed window for %s ending %s: %w", symbol, s.clock.Format(time.RFC3339), ErrDataUnavailable)
	}
	seed := seedWindow[len(seedWindow)-1]
	// A legitimate close is never zero; rejecting it here keeps the
	// rebasing denominator strictly positive for the life of the asset.
	if !seed.Close.IsPositive() {
		return fmt.Errorf("non-positive seed close %s for %s: %w", seed.Close, symbol, ErrDataUnavailable)
	}

	forward, err := s.provider.Closes(ctx, symbol, s.clock, s.now(), s.interval)
	if err != nil {
		return fmt.Errorf("forward series for %s: %w", symbol, err)
	}

	s.investments[symbol] = &investment{
		symbol:       symbol,
		series:       newAssetSeries(symbol, s.interval, forward),
		refPrice:     seed.Close,
		holding:      decimal.Zero,
		lastObserved: seed.Timestamp,
	}
	s.symbols = append(s.symbols, symbol)

	s.log.Info().
		Str("symbol", symbol).
		Str("seed_close", seed.Close.String()).
		Time("seed_time", seed.Timestamp).
		Int("cached_observations", s.investments[symbol].series.len()).
		Msg("investment registered")
	return nil
}

// NextTimestep advances the nominal clock by one interval and rebases every
// tracked asset onto its next cached observation. Each asset keeps its own
// last-observed timestamp, so assets on different trading calendars may
// desynchronize in raw timestamps while the clock stays on the grid.
//
// Rebasing holds the implicit share count constant: a zero holding stays
// zero, a nonzero holding scales by the price return since the previous
// observation. The portfolio net is therefore changed only by each asset's
// own price drift, never by the stepping itself.
//
// On failure nothing changes: all lookups are resolved before any state is
// mutated.
func (s *Simulator) NextTimestep() error {
	candidate := s.clock.Add(s.interval.Duration())

	found := make([]types.Observation, len(s.symbols))
	for i, symbol := range s.symbols {
		inv := s.investments[symbol]
		from := candidate
		if next := inv.lastObserved.Add(s.interval.Duration()); next.After(from) {
			from = next
		}
		obs, ok := inv.series.nextAfter(from, inv.lastObserved)
		if !ok {
			return fmt.Errorf("symbol %s after %s: %w", symbol, inv.lastObserved.Format(time.RFC3339), ErrNoObservationFound)
		}
		found[i] = obs
	}

	s.clock = candidate
	for i, symbol := range s.symbols {
		inv := s.investments[symbol]
		obs := found[i]
		if !inv.holding.IsZero() {
			inv.holding = obs.Close.Mul(inv.holding).Div(inv.refPrice).Round(precision)
		}
		inv.refPrice = obs.Close
		inv.lastObserved = obs.Timestamp
	}
	return nil
}

// UpdateInvestment moves value between the balance and one asset so the
// holding becomes target, clamped to [0, balance+holding]. The portfolio
// net is unchanged: value is only reallocated, never created or destroyed.
func (s *Simulator) UpdateInvestment(symbol string, target decimal.Decimal) error {
	inv, ok := s.investments[symbol]
	if !ok {
		return fmt.Errorf("symbol %s: %w", symbol, ErrUnknownAsset)
	}

	available := s.balance.Add(inv.holding)
	clamped := target
	if clamped.IsNegative() {
		clamped = decimal.Zero
	}
	if clamped.GreaterThan(available) {
		clamped = available
	}
	clamped = clamped.Round(precision)
	if !clamped.Equal(target) {
		s.log.Warn().
			Str("symbol", symbol).
			Str("target", target.String()).
			Str("clamped", clamped.String()).
			Msg("investment target clamped")
	}

	if clamped.GreaterThan(available.Round(precision)) {
		return fmt.Errorf("target %s, available %s: %w", clamped, available, ErrInvestmentExceedsPortfolio)
	}

	newBalance := available.Sub(clamped).Round(precision)
	if newBalance.IsNegative() {
		return fmt.Errorf("balance %s, holding %s, target %s: %w", s.balance, inv.holding, clamped, ErrValueUpdate)
	}

	inv.holding = clamped
	s.balance = newBalance
	return nil
}

// PortfolioNet returns balance plus the sum of all holdings. Pure.
func (s *Simulator) PortfolioNet() decimal.Decimal {
	net := s.balance
	for _, symbol := range s.symbols {
		net = net.Add(s.investments[symbol].holding)
	}
	return net
}

// Profit returns the net gain over the initial balance.
func (s *Simulator) Profit() decimal.Decimal {
	return s.PortfolioNet().Sub(s.initBalance)
}

// State returns one asset's observation vector: its last close, its
// holding, and the global balance.
func (s *Simulator) State(symbol string) (types.StateVector, error) {
	inv, ok := s.investments[symbol]
	if !ok {
		return types.StateVector{}, fmt.Errorf("symbol %s: %w", symbol, ErrUnknownAsset)
	}
	return types.StateVector{
		Price:   inv.refPrice,
		Holding: inv.holding,
		Balance: s.balance,
	}, nil
}

// AllStates returns one row per tracked asset, in registration order.
func (s *Simulator) AllStates() []types.InvestmentState {
	states := make([]types.InvestmentState, 0, len(s.symbols))
	for _, symbol := range s.symbols {
		inv := s.investments[symbol]
		states = append(states, types.InvestmentState{
			Symbol:  symbol,
			Price:   inv.refPrice,
			Holding: inv.holding,
		})
	}
	return states
}

// Balance returns the uninvested balance.
func (s *Simulator) Balance() decimal.Decimal {
	return s.balance
}

// Clock returns the simulator's current position on the nominal grid.
func (s *Simulator) Clock() time.Time {
	return s.clock
}

// Reset discards all assets and their cached series and restores the clock
// and balance to their initial snapshots. Investments are not re-registered
// automatically; callers add them again after a reset.
func (s *Simulator) Reset() {
	s.investments = make(map[string]*investment)
	s.symbols = nil
	s.clock = s.initClock
	s.balance = s.initBalance
	s.log.Debug().Time("clock", s.clock).Str("balance", s.balance.String()).Msg("simulator reset")
}
