package engine

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"
)

// WriteEquityCSVFile writes the equity curve to a CSV file at the given path.
func WriteEquityCSVFile(path string, curve []EquityPoint) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create equity file: %w", err)
	}
	defer f.Close()

	return writeEquityCSV(f, curve)
}

// writeEquityCSV writes the equity curve to any io.Writer as CSV.
// You can pass os.Stdout for debugging, or a file.
func writeEquityCSV(w io.Writer, curve []EquityPoint) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{
		"time", // RFC3339
		"net",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, point := range curve {
		record := []string{
			point.Time.Format(time.RFC3339),
			point.Net.String(),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}

	return nil
}
