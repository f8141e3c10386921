package repository

import (
	"context"
	"errors"
	"time"

	"stocksim/types"
)

var bucketToInterval = map[types.Interval]string{
	types.Hour:      "1 hour",
	types.TwoHours:  "2 hours",
	types.FourHours: "4 hours",
	types.Day:       "1 day",
}

// GetCandles returns the bucketed candles for one asset over a time range.
func (db *Database) GetCandles(ctx context.Context, assetId int, ticker string, interval types.Interval, start, end time.Time) ([]types.Candle, error) {
	bucket, ok := bucketToInterval[interval]
	if !ok {
		return nil, ErrIntervalNotSupported
	}
	args := closesBetweenParams{
		TimeBucket: bucket,
		AssetID:    int32(assetId),
		StartTime:  start,
		EndTime:    end,
	}
	candles, err := db.candles.ClosesBetween(ctx, args)
	if err != nil {
		return nil, err
	}
	if len(candles) == 0 {
		return nil, ErrNoCandles
	}
	return convertCandles(candles, interval, ticker), nil
}

// Closes returns the ordered close-price observations for a symbol. An
// empty range yields an empty slice, not an error: no trading in a window
// is an expected condition for the simulator.
func (db *Database) Closes(ctx context.Context, symbol string, start, end time.Time, interval types.Interval) ([]types.Observation, error) {
	asset, err := db.GetAssetByTicker(ctx, symbol)
	if err != nil {
		return nil, err
	}
	candles, err := db.GetCandles(ctx, asset.Id, symbol, interval, start, end)
	if err != nil {
		if errors.Is(err, ErrNoCandles) {
			return nil, nil
		}
		return nil, err
	}

	observations := make([]types.Observation, 0, len(candles))
	for _, candle := range candles {
		observations = append(observations, types.Observation{
			Timestamp: candle.Timestamp,
			Close:     candle.Close,
		})
	}
	return observations, nil
}

func convertCandles(candleDAOs []candleRow, interval types.Interval, ticker string) []types.Candle {
	var candles []types.Candle
	for _, dao := range candleDAOs {
		candles = append(candles, types.Candle{
			AssetId:   int(dao.AssetID),
			Ticker:    ticker,
			Open:      dao.Open,
			Close:     dao.Close,
			High:      dao.High,
			Low:       dao.Low,
			Volume:    dao.Volume,
			Interval:  interval,
			Timestamp: dao.Bucket,
		})
	}
	return candles
}
