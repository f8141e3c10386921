package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocksim/types"
)

var testStart = time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC)

// stubProvider serves observations out of a fixed in-memory series,
// filtered to the requested window, the way a real provider would.
type stubProvider struct {
	series map[string][]types.Observation
	err    error
}

func (p *stubProvider) Closes(_ context.Context, symbol string, start, end time.Time, _ types.Interval) ([]types.Observation, error) {
	if p.err != nil {
		return nil, p.err
	}
	var out []types.Observation
	for _, obs := range p.series[symbol] {
		if !obs.Timestamp.Before(start) && !obs.Timestamp.After(end) {
			out = append(out, obs)
		}
	}
	return out, nil
}

func day(offset int) time.Time {
	return testStart.AddDate(0, 0, offset)
}

func obs(t time.Time, close float64) types.Observation {
	return types.Observation{Timestamp: t, Close: decimal.NewFromFloat(close)}
}

// dailyProvider has a seed bar the day before the start and forward bars
// skipping day(2), like a holiday gap.
func dailyProvider() *stubProvider {
	return &stubProvider{series: map[string][]types.Observation{
		"X": {
			obs(day(-1), 100),
			obs(day(1), 110),
			obs(day(3), 99),
			obs(day(4), 132),
		},
	}}
}

func newTestSimulator(t *testing.T, provider *stubProvider, balance float64) *Simulator {
	t.Helper()
	sim, err := NewSimulator(provider, testStart, decimal.NewFromFloat(balance), types.Day, zerolog.Nop())
	require.NoError(t, err)
	return sim
}

func TestNewSimulatorRejectsUnsupportedInterval(t *testing.T) {
	_, err := NewSimulator(dailyProvider(), testStart, decimal.NewFromInt(1000), types.Interval("W"), zerolog.Nop())
	require.ErrorIs(t, err, ErrInvalidInterval)
}

func TestAddInvestmentSeedsReferencePrice(t *testing.T) {
	sim := newTestSimulator(t, dailyProvider(), 1000)
	require.NoError(t, sim.AddInvestment(context.Background(), "X"))

	state, err := sim.State("X")
	require.NoError(t, err)
	assert.True(t, state.Price.Equal(decimal.NewFromInt(100)), "price = %s", state.Price)
	assert.True(t, state.Holding.IsZero())
	assert.True(t, state.Balance.Equal(decimal.NewFromInt(1000)))
}

func TestAddInvestmentErrors(t *testing.T) {
	tests := []struct {
		name     string
		provider *stubProvider
		wantErr  error
	}{
		{
			name:     "no data in lookback window",
			provider: &stubProvider{series: map[string][]types.Observation{}},
			wantErr:  ErrDataUnavailable,
		},
		{
			name: "zero seed close rejected",
			provider: &stubProvider{series: map[string][]types.Observation{
				"X": {obs(day(-1), 0)},
			}},
			wantErr: ErrDataUnavailable,
		},
		{
			name:     "provider failure",
			provider: &stubProvider{err: errors.New("datasource down")},
			wantErr:  nil, // plain wrapped error
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := newTestSimulator(t, tt.provider, 1000)
			err := sim.AddInvestment(context.Background(), "X")
			require.Error(t, err)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			}
			// No partial state may leak out of a failed registration.
			_, err = sim.State("X")
			require.ErrorIs(t, err, ErrUnknownAsset)
			assert.Empty(t, sim.AllStates())
		})
	}
}

func TestAddInvestmentRejectsDuplicate(t *testing.T) {
	sim := newTestSimulator(t, dailyProvider(), 1000)
	require.NoError(t, sim.AddInvestment(context.Background(), "X"))
	require.Error(t, sim.AddInvestment(context.Background(), "X"))
	assert.Len(t, sim.AllStates(), 1)
}

func TestUpdateInvestmentMovesValue(t *testing.T) {
	sim := newTestSimulator(t, dailyProvider(), 1000)
	require.NoError(t, sim.AddInvestment(context.Background(), "X"))

	require.NoError(t, sim.UpdateInvestment("X", decimal.NewFromInt(400)))

	state, err := sim.State("X")
	require.NoError(t, err)
	assert.True(t, state.Holding.Equal(decimal.NewFromInt(400)), "holding = %s", state.Holding)
	assert.True(t, state.Balance.Equal(decimal.NewFromInt(600)), "balance = %s", state.Balance)
	assert.True(t, sim.PortfolioNet().Equal(decimal.NewFromInt(1000)))
}

func TestUpdateInvestmentClamping(t *testing.T) {
	tests := []struct {
		name        string
		target      decimal.Decimal
		wantHolding decimal.Decimal
		wantBalance decimal.Decimal
	}{
		{"over available clamps to total", decimal.NewFromInt(2000), decimal.NewFromInt(1000), decimal.Zero},
		{"exactly available", decimal.NewFromInt(1000), decimal.NewFromInt(1000), decimal.Zero},
		{"negative clamps to zero", decimal.NewFromInt(-50), decimal.Zero, decimal.NewFromInt(1000)},
		{"zero", decimal.Zero, decimal.Zero, decimal.NewFromInt(1000)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := newTestSimulator(t, dailyProvider(), 1000)
			require.NoError(t, sim.AddInvestment(context.Background(), "X"))

			require.NoError(t, sim.UpdateInvestment("X", tt.target))

			state, err := sim.State("X")
			require.NoError(t, err)
			assert.True(t, state.Holding.Equal(tt.wantHolding), "holding = %s", state.Holding)
			assert.True(t, state.Balance.Equal(tt.wantBalance), "balance = %s", state.Balance)
			// Conservation: the update never creates or destroys value.
			assert.True(t, sim.PortfolioNet().Equal(decimal.NewFromInt(1000)))
		})
	}
}

func TestUpdateInvestmentUnknownAsset(t *testing.T) {
	sim := newTestSimulator(t, dailyProvider(), 1000)
	err := sim.UpdateInvestment("Y", decimal.NewFromInt(10))
	require.ErrorIs(t, err, ErrUnknownAsset)
}

func TestNextTimestepRebasesHolding(t *testing.T) {
	sim := newTestSimulator(t, dailyProvider(), 1000)
	require.NoError(t, sim.AddInvestment(context.Background(), "X"))
	require.NoError(t, sim.UpdateInvestment("X", decimal.NewFromInt(400)))

	// Next observed close is 110 against a reference price of 100.
	require.NoError(t, sim.NextTimestep())

	state, err := sim.State("X")
	require.NoError(t, err)
	assert.True(t, state.Price.Equal(decimal.NewFromInt(110)), "price = %s", state.Price)
	assert.True(t, state.Holding.Equal(decimal.NewFromInt(440)), "holding = %s", state.Holding)
	assert.True(t, state.Balance.Equal(decimal.NewFromInt(600)), "balance = %s", state.Balance)
	assert.True(t, sim.PortfolioNet().Equal(decimal.NewFromInt(1040)))
	assert.True(t, sim.Profit().Equal(decimal.NewFromInt(40)))
}

func TestNextTimestepZeroHoldingStaysZero(t *testing.T) {
	sim := newTestSimulator(t, dailyProvider(), 1000)
	require.NoError(t, sim.AddInvestment(context.Background(), "X"))

	before := sim.PortfolioNet()
	for i := 0; i < 3; i++ {
		require.NoError(t, sim.NextTimestep())
	}

	state, err := sim.State("X")
	require.NoError(t, err)
	assert.True(t, state.Holding.IsZero())
	// An uninvested portfolio is untouched by stepping.
	assert.True(t, sim.PortfolioNet().Equal(before))
}

func TestNextTimestepSkipsCalendarGaps(t *testing.T) {
	sim := newTestSimulator(t, dailyProvider(), 1000)
	require.NoError(t, sim.AddInvestment(context.Background(), "X"))
	require.NoError(t, sim.UpdateInvestment("X", decimal.NewFromInt(1000)))

	// day(1) close 110, then nothing at day(2): the next step must land on
	// day(3) close 99.
	require.NoError(t, sim.NextTimestep())
	require.NoError(t, sim.NextTimestep())

	state, err := sim.State("X")
	require.NoError(t, err)
	assert.True(t, state.Price.Equal(decimal.NewFromInt(99)), "price = %s", state.Price)
	// 1000 * (110/100) * (99/110) = 990
	assert.True(t, state.Holding.Equal(decimal.NewFromInt(990)), "holding = %s", state.Holding)
}

func TestNextTimestepSeriesExhausted(t *testing.T) {
	provider := &stubProvider{series: map[string][]types.Observation{
		"X": {obs(day(-1), 100), obs(day(1), 110)},
	}}
	sim := newTestSimulator(t, provider, 1000)
	require.NoError(t, sim.AddInvestment(context.Background(), "X"))
	require.NoError(t, sim.UpdateInvestment("X", decimal.NewFromInt(500)))
	require.NoError(t, sim.NextTimestep())

	clockBefore := sim.Clock()
	stateBefore, err := sim.State("X")
	require.NoError(t, err)

	err = sim.NextTimestep()
	require.ErrorIs(t, err, ErrNoObservationFound)

	// The failed step must leave everything untouched, clock included.
	assert.Equal(t, clockBefore, sim.Clock())
	stateAfter, err := sim.State("X")
	require.NoError(t, err)
	assert.Equal(t, stateBefore, stateAfter)
}

func TestNextTimestepMultiAssetDesync(t *testing.T) {
	provider := &stubProvider{series: map[string][]types.Observation{
		"X": {obs(day(-1), 100), obs(day(1), 110), obs(day(2), 120)},
		// Y has a gap at day(1); it is valuated on its own timestamps.
		"Y": {obs(day(-1), 50), obs(day(2), 60), obs(day(3), 66)},
	}}
	sim := newTestSimulator(t, provider, 1000)
	require.NoError(t, sim.AddInvestment(context.Background(), "X"))
	require.NoError(t, sim.AddInvestment(context.Background(), "Y"))
	require.NoError(t, sim.UpdateInvestment("X", decimal.NewFromInt(500)))
	require.NoError(t, sim.UpdateInvestment("Y", decimal.NewFromInt(500)))

	require.NoError(t, sim.NextTimestep())

	// The clock stays on the nominal grid regardless of where each asset
	// snapped to.
	assert.Equal(t, day(1), sim.Clock())

	states := sim.AllStates()
	require.Len(t, states, 2)
	assert.Equal(t, "X", states[0].Symbol)
	assert.True(t, states[0].Holding.Equal(decimal.NewFromInt(550)), "X holding = %s", states[0].Holding)
	assert.Equal(t, "Y", states[1].Symbol)
	assert.True(t, states[1].Holding.Equal(decimal.NewFromInt(600)), "Y holding = %s", states[1].Holding)

	// Second step: X snaps to day(2) close 120, Y to day(3) close 66.
	require.NoError(t, sim.NextTimestep())
	states = sim.AllStates()
	assert.True(t, states[0].Price.Equal(decimal.NewFromInt(120)))
	assert.True(t, states[1].Price.Equal(decimal.NewFromInt(66)))
}

func TestNextTimestepHourlyInterval(t *testing.T) {
	hour := time.Date(2023, 1, 2, 9, 0, 0, 0, time.UTC)
	provider := &stubProvider{series: map[string][]types.Observation{
		"X": {
			obs(hour.Add(-18*time.Hour), 50),
			obs(hour.Add(time.Hour), 55),
			obs(hour.Add(2*time.Hour), 44),
		},
	}}
	sim, err := NewSimulator(provider, hour, decimal.NewFromInt(100), types.Hour, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, sim.AddInvestment(context.Background(), "X"))
	require.NoError(t, sim.UpdateInvestment("X", decimal.NewFromInt(100)))

	require.NoError(t, sim.NextTimestep())
	state, err := sim.State("X")
	require.NoError(t, err)
	assert.True(t, state.Holding.Equal(decimal.NewFromInt(110)), "holding = %s", state.Holding)

	require.NoError(t, sim.NextTimestep())
	state, err = sim.State("X")
	require.NoError(t, err)
	assert.True(t, state.Holding.Equal(decimal.NewFromInt(88)), "holding = %s", state.Holding)
}

func TestConservationAcrossMixedOperations(t *testing.T) {
	sim := newTestSimulator(t, dailyProvider(), 1000)
	require.NoError(t, sim.AddInvestment(context.Background(), "X"))

	require.NoError(t, sim.UpdateInvestment("X", decimal.NewFromInt(250)))
	netBefore := sim.PortfolioNet()
	require.NoError(t, sim.UpdateInvestment("X", decimal.NewFromInt(700)))
	assert.True(t, sim.PortfolioNet().Equal(netBefore), "update must conserve net")

	// Across a step, the net moves exactly by the holding's price return.
	state, err := sim.State("X")
	require.NoError(t, err)
	require.NoError(t, sim.NextTimestep())
	next, err := sim.State("X")
	require.NoError(t, err)
	wantHolding := next.Price.Mul(state.Holding).Div(state.Price).Round(6)
	assert.True(t, next.Holding.Equal(wantHolding), "holding = %s, want %s", next.Holding, wantHolding)
	assert.True(t, sim.PortfolioNet().Equal(state.Balance.Add(next.Holding)))
}

func TestResetRestoresInitialSnapshot(t *testing.T) {
	sim := newTestSimulator(t, dailyProvider(), 1000)
	require.NoError(t, sim.AddInvestment(context.Background(), "X"))
	require.NoError(t, sim.UpdateInvestment("X", decimal.NewFromInt(800)))
	require.NoError(t, sim.NextTimestep())

	sim.Reset()

	assert.Equal(t, testStart, sim.Clock())
	assert.True(t, sim.Balance().Equal(decimal.NewFromInt(1000)))
	assert.Empty(t, sim.AllStates())
	assert.True(t, sim.Profit().IsZero())

	// Registration is not restored; the asset must be added again.
	_, err := sim.State("X")
	require.ErrorIs(t, err, ErrUnknownAsset)
	require.NoError(t, sim.AddInvestment(context.Background(), "X"))
}
