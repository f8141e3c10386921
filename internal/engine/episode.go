package engine

import (
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"

	"stocksim/types"
)

// Policy decides target holding values from the observed states. This is
// the seam where an agent plugs in: it sees what an RL observation would
// see and returns the desired monetary allocation per symbol. Symbols
// missing from the returned map are left untouched.
type Policy interface {
	Allocate(step int, states []types.InvestmentState, balance decimal.Decimal) map[string]decimal.Decimal
}

// EquityPoint is one sample of the portfolio net over a replay.
type EquityPoint struct {
	Time time.Time
	Net  decimal.Decimal
}

type EpisodeConfig struct {
	Steps        int
	ShowProgress bool
}

// Episode drives the simulator over a fixed number of timesteps, applying
// a policy's allocations before each step and recording the equity curve.
type Episode struct {
	sim    *Simulator
	policy Policy
	config EpisodeConfig
}

func NewEpisode(sim *Simulator, policy Policy, config EpisodeConfig) *Episode {
	return &Episode{
		sim:    sim,
		policy: policy,
		config: config,
	}
}

// Run replays the episode. If the cached series runs out before the
// requested number of steps, the curve collected so far is returned along
// with ErrNoObservationFound so callers can tell a truncated run apart
// from a completed one.
func (e *Episode) Run() ([]EquityPoint, error) {
	var bar *progressbar.ProgressBar
	if e.config.ShowProgress {
		bar = initProgressBar(e.config.Steps)
	}

	curve := []EquityPoint{{Time: e.sim.Clock(), Net: e.sim.PortfolioNet()}}
	for step := 0; step < e.config.Steps; step++ {
		targets := e.policy.Allocate(step, e.sim.AllStates(), e.sim.Balance())
		// Apply in registration order so replays are deterministic.
		for _, state := range e.sim.AllStates() {
			target, ok := targets[state.Symbol]
			if !ok {
				continue
			}
			if err := e.sim.UpdateInvestment(state.Symbol, target); err != nil {
				return curve, fmt.Errorf("step %d: %w", step, err)
			}
		}

		if err := e.sim.NextTimestep(); err != nil {
			return curve, fmt.Errorf("step %d: %w", step, err)
		}
		curve = append(curve, EquityPoint{Time: e.sim.Clock(), Net: e.sim.PortfolioNet()})

		if bar != nil {
			bar.Add(1)
		}
	}
	return curve, nil
}

func initProgressBar(maxTicks int) *progressbar.ProgressBar {
	return progressbar.NewOptions(maxTicks,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetDescription("Replaying portfolio..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
