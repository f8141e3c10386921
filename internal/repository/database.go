package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Global error declarations.
var (
	ErrIntervalNotSupported = errors.New("timeframe not supported")
	ErrAssetNotFound        = errors.New("not found in datasource")
	ErrNoCandles            = errors.New("no candles found in datasource")
)

type assetStore interface {
	AssetByTicker(ctx context.Context, ticker string) (assetRow, error)
}

type candleStore interface {
	ClosesBetween(ctx context.Context, arg closesBetweenParams) ([]candleRow, error)
}

type assetRow struct {
	ID         int32
	Ticker     string
	Name       string
	Type       string
	CreatedAt  time.Time
	ModifiedAt time.Time
}

type closesBetweenParams struct {
	TimeBucket string
	AssetID    int32
	StartTime  time.Time
	EndTime    time.Time
}

type candleRow struct {
	Bucket  time.Time
	AssetID int32
	Open    decimal.Decimal
	High    decimal.Decimal
	Low     decimal.Decimal
	Close   decimal.Decimal
	Volume  decimal.Decimal
}

// Database holds the connection pool and the stores built on it.
type Database struct {
	assets  assetStore
	candles candleStore
	conn    *pgxpool.Pool
}

// NewDatabase creates a new Database instance and verifies connectivity.
func NewDatabase(dbURL string) (Database, error) {
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return Database{}, fmt.Errorf("parse config: %w", err)
	}
	// Register shopspring decimal
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	conn, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return Database{}, err
	}
	// Ensure the connection is established.
	if err := conn.Ping(context.Background()); err != nil {
		return Database{}, err
	}

	store := &pgStore{pool: conn}
	return Database{
		assets:  store,
		candles: store,
		conn:    conn,
	}, nil
}

// Close releases the connection pool.
func (db *Database) Close() {
	if db.conn != nil {
		db.conn.Close()
	}
}

type pgStore struct {
	pool *pgxpool.Pool
}

const assetByTickerQuery = `
SELECT id, ticker, name, type, created_at, modified_at
FROM assets
WHERE ticker = $1`

func (s *pgStore) AssetByTicker(ctx context.Context, ticker string) (assetRow, error) {
	var row assetRow
	err := s.pool.QueryRow(ctx, assetByTickerQuery, ticker).Scan(
		&row.ID, &row.Ticker, &row.Name, &row.Type, &row.CreatedAt, &row.ModifiedAt,
	)
	return row, err
}

const closesBetweenQuery = `
SELECT time_bucket($1::interval, timestamp) AS bucket,
       asset_id,
       first(open, timestamp) AS open,
       max(high) AS high,
       min(low) AS low,
       last(close, timestamp) AS close,
       sum(volume) AS volume
FROM candles
WHERE asset_id = $2
  AND timestamp >= $3
  AND timestamp <= $4
GROUP BY bucket, asset_id
ORDER BY bucket`

func (s *pgStore) ClosesBetween(ctx context.Context, arg closesBetweenParams) ([]candleRow, error) {
	rows, err := s.pool.Query(ctx, closesBetweenQuery, arg.TimeBucket, arg.AssetID, arg.StartTime, arg.EndTime)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[candleRow])
}
