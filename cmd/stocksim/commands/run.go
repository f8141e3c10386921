package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"stocksim/internal/config"
	"stocksim/internal/engine"
	"stocksim/internal/logging"
	"stocksim/internal/repository"
	"stocksim/policies/constantmix"
	"stocksim/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Replay a portfolio over historical prices",
	Long: `Replays a constant-mix portfolio from a start time for a number of
timesteps, printing a summary report.

Example:
  stocksim run --symbols AAPL,MSFT --start 2023-01-02 --steps 60 --balance 1000
  stocksim run --symbols AAPL --start 2023-01-02 --source eodhd --out equity.csv`,
	RunE: runReplay,
}

var (
	runSymbols   []string
	runStart     string
	runInterval  string
	runSteps     int
	runBalance   float64
	runRebalance int
	runSource    string
	runOut       string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringSliceVar(&runSymbols, "symbols", nil, "symbols to track (required)")
	runCmd.Flags().StringVar(&runStart, "start", "", "simulation start (YYYY-MM-DD or YYYY-MM-DDTHH:MM, required)")
	runCmd.Flags().StringVar(&runInterval, "interval", "1d", "step interval (1h, 2h, 4h, 1d)")
	runCmd.Flags().IntVar(&runSteps, "steps", 30, "number of timesteps to replay")
	runCmd.Flags().Float64Var(&runBalance, "balance", 1000, "starting balance")
	runCmd.Flags().IntVar(&runRebalance, "rebalance", 1, "rebalance every N steps")
	runCmd.Flags().StringVar(&runSource, "source", "db", "price source (db or eodhd)")
	runCmd.Flags().StringVar(&runOut, "out", "", "write the equity curve to a CSV file")

	runCmd.MarkFlagRequired("symbols")
	runCmd.MarkFlagRequired("start")
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	log := logging.New(level, cfg.LogFormat)

	interval, ok := types.ParseInterval(runInterval)
	if !ok {
		return fmt.Errorf("interval %q: %w", runInterval, engine.ErrInvalidInterval)
	}
	start, err := parseStart(runStart)
	if err != nil {
		return err
	}
	balance := decimal.NewFromFloat(runBalance)

	var sim *engine.Simulator
	switch runSource {
	case "db":
		db, err := repository.NewDatabase(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect datasource: %w", err)
		}
		defer db.Close()
		sim, err = engine.NewSimulator(&db, start, balance, interval, log)
		if err != nil {
			return err
		}
	case "eodhd":
		sim, err = engine.NewSimulator(repository.NewEODHD(cfg.EODHDAPIKey, log), start, balance, interval, log)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown price source %q", runSource)
	}

	ctx := cmd.Context()
	for _, symbol := range runSymbols {
		if err := sim.AddInvestment(ctx, symbol); err != nil {
			return err
		}
	}

	policy := constantmix.New(constantmix.EqualWeights(runSymbols), runRebalance)
	episode := engine.NewEpisode(sim, policy, engine.EpisodeConfig{
		Steps:        runSteps,
		ShowProgress: true,
	})

	curve, err := episode.Run()
	if err != nil {
		if !errors.Is(err, engine.ErrNoObservationFound) {
			return err
		}
		log.Warn().Err(err).Int("completed_steps", len(curve)-1).Msg("series exhausted before requested steps")
	}

	fmt.Println()
	engine.NewReport(curve).Print()

	if runOut != "" {
		if err := engine.WriteEquityCSVFile(runOut, curve); err != nil {
			return err
		}
		log.Info().Str("path", runOut).Msg("equity curve written")
	}
	return nil
}

func parseStart(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse start time %q", s)
}
