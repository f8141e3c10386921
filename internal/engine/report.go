package engine

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Report summarizes a replayed episode's equity curve.
type Report struct {
	StartDate time.Time
	EndDate   time.Time
	Steps     int

	StartNet  decimal.Decimal
	FinalNet  decimal.Decimal
	NetProfit decimal.Decimal
	ReturnPct decimal.Decimal

	MaxDrawdown    decimal.Decimal
	MaxDrawdownPct decimal.Decimal
}

// NewReport computes summary metrics over an equity curve. The curve must
// contain at least the starting point.
func NewReport(curve []EquityPoint) *Report {
	report := &Report{}
	if len(curve) == 0 {
		return report
	}

	first, last := curve[0], curve[len(curve)-1]
	report.StartDate = first.Time
	report.EndDate = last.Time
	report.Steps = len(curve) - 1
	report.StartNet = first.Net
	report.FinalNet = last.Net
	report.NetProfit = last.Net.Sub(first.Net)
	if first.Net.IsPositive() {
		report.ReturnPct = report.NetProfit.Div(first.Net).Mul(hundred).Round(precision)
	}

	report.MaxDrawdown, report.MaxDrawdownPct = calcDrawdownMetrics(curve)
	return report
}

func calcDrawdownMetrics(curve []EquityPoint) (decimal.Decimal, decimal.Decimal) {
	maxDrawdown := decimal.Zero
	maxDrawdownPct := decimal.Zero
	peak := curve[0].Net

	for _, point := range curve[1:] {
		if point.Net.GreaterThan(peak) {
			peak = point.Net
			continue
		}
		drawdown := peak.Sub(point.Net)
		if drawdown.GreaterThan(maxDrawdown) {
			maxDrawdown = drawdown
			if peak.IsPositive() {
				maxDrawdownPct = drawdown.Div(peak).Mul(hundred).Round(precision)
			}
		}
	}
	return maxDrawdown, maxDrawdownPct
}

func (r *Report) Print() {
	fmt.Println("===== Replay Report =====")
	fmt.Printf("Start Date:        %s\n", r.StartDate.Format("2006-01-02 15:04"))
	fmt.Printf("End Date:          %s\n", r.EndDate.Format("2006-01-02 15:04"))
	fmt.Printf("Steps:             %d\n", r.Steps)

	fmt.Println("\n-- Performance --")
	fmt.Printf("Starting Net:      %s\n", r.StartNet)
	fmt.Printf("Final Net:         %s\n", r.FinalNet)
	fmt.Printf("Net Profit:        %s\n", r.NetProfit)
	fmt.Printf("Return %%:          %s\n", r.ReturnPct)

	fmt.Println("\n-- Drawdown --")
	fmt.Printf("Max Drawdown:      %s\n", r.MaxDrawdown)
	fmt.Printf("Max Drawdown %%:    %s\n", r.MaxDrawdownPct)

	fmt.Println("=========================")
}
