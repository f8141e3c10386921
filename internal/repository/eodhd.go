package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"stocksim/types"
)

const defaultEODHDBaseURL = "https://eodhd.com"

// EODHD fetches end-of-day close prices from the EODHD HTTP API. It only
// serves daily series; intraday granularities are not available on the
// EOD endpoint.
type EODHD struct {
	client  *http.Client
	baseURL string
	apiKey  string
	log     zerolog.Logger
}

func NewEODHD(apiKey string, log zerolog.Logger) *EODHD {
	return &EODHD{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: defaultEODHDBaseURL,
		apiKey:  apiKey,
		log:     log,
	}
}

type eodBar struct {
	Date     string          `json:"date"`
	Open     decimal.Decimal `json:"open"`
	High     decimal.Decimal `json:"high"`
	Low      decimal.Decimal `json:"low"`
	Close    decimal.Decimal `json:"close"`
	Adjusted decimal.Decimal `json:"adjusted_close"`
	Volume   decimal.Decimal `json:"volume"`
}

// Closes returns the ordered daily close observations for a symbol.
func (e *EODHD) Closes(ctx context.Context, symbol string, start, end time.Time, interval types.Interval) ([]types.Observation, error) {
	if interval != types.Day {
		return nil, fmt.Errorf("eodhd interval %q: %w", interval, ErrIntervalNotSupported)
	}

	query := url.Values{}
	query.Set("api_token", e.apiKey)
	query.Set("fmt", "json")
	query.Set("period", "d")
	query.Set("from", start.UTC().Format("2006-01-02"))
	query.Set("to", end.UTC().Format("2006-01-02"))
	addr := fmt.Sprintf("%s/api/eod/%s?%s", e.baseURL, url.PathEscape(symbol), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("build eod request: %w", err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch eod prices for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("symbol %s %w", symbol, ErrAssetNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cannot GET %s for %s: %s", resp.Request.URL.Path, symbol, resp.Status)
	}

	var bars []eodBar
	if err := json.NewDecoder(resp.Body).Decode(&bars); err != nil {
		return nil, fmt.Errorf("decode eod response for %s: %w", symbol, err)
	}

	observations := make([]types.Observation, 0, len(bars))
	for _, bar := range bars {
		day, err := time.ParseInLocation("2006-01-02", bar.Date, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("bad eod date %q for %s: %w", bar.Date, symbol, err)
		}
		observations = append(observations, types.Observation{
			Timestamp: day,
			Close:     bar.Close,
		})
	}

	e.log.Debug().
		Str("symbol", symbol).
		Int("observations", len(observations)).
		Msg("fetched eod closes")
	return observations, nil
}
