package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"catalytics/internal/domain/models"
	domrepo "catalytics/internal/domain/repository"
	pkgch "catalytics/pkg/clickhouse"
	applogger "catalytics/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ClickHouseSchema creates the snapshot and asset tables. ReplacingMergeTree
// keeps the newest row per (category, asset, day), so re-ingesting is idempotent.
var ClickHouseSchema = []string{
	`CREATE TABLE IF NOT EXISTS snapshots (
		id UUID,
		composite_key String,
		asset_id String,
		category LowCardinality(String),
		market_cap Decimal(38, 8),
		price Decimal(38, 18),
		volume_24h Decimal(38, 8),
		date Date,
		ingested_at DateTime64(3, 'UTC') DEFAULT now64(3)
	) ENGINE = ReplacingMergeTree(ingested_at)
	PARTITION BY toYYYYMM(date)
	ORDER BY (category, asset_id, date)`,
	`CREATE TABLE IF NOT EXISTS assets (
		id String,
		category LowCardinality(String),
		image String,
		position UInt32,
		updated_at DateTime64(3, 'UTC') DEFAULT now64(3)
	) ENGINE = ReplacingMergeTree(updated_at)
	ORDER BY (category, id)`,
}

// CHSnapshotStore implements SnapshotStore backed by ClickHouse.
type CHSnapshotStore struct {
	ch *pkgch.Client
	db *sql.DB
	l  *applogger.Logger
}

var _ domrepo.SnapshotStore = (*CHSnapshotStore)(nil)

func NewCHSnapshotStore(ch *pkgch.Client) *CHSnapshotStore {
	return &CHSnapshotStore{ch: ch, db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHSnapshotStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHSnapshotStore) Init(ctx context.Context) error {
	return s.ch.InitSchema(ctx, ClickHouseSchema)
}

// StoreBatch inserts snapshots in chunks of multi-row VALUES.
func (s *CHSnapshotStore) StoreBatch(ctx context.Context, snapshots []models.Snapshot) error {
	const chunkSize = 2000
	for start := 0; start < len(snapshots); start += chunkSize {
		end := start + chunkSize
		if end > len(snapshots) {
			end = len(snapshots)
		}
		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*8)
		for _, sn := range snapshots[start:end] {
			if sn.AssetID == "" || sn.Date.IsZero() {
				continue
			}
			values = append(values, "(?, ?, ?, ?, toDecimal128(?, 8), toDecimal128(?, 18), toDecimal128(?, 8), ?)")
			args = append(args,
				uuid.NewString(),
				sn.Key(),
				sn.AssetID,
				string(sn.Category),
				sn.MarketCap.String(),
				sn.Price.String(),
				sn.Volume24h.String(),
				sn.Date.UTC().Format(time.DateOnly),
			)
		}
		if len(values) == 0 {
			continue
		}
		q := "INSERT INTO snapshots (id, composite_key, asset_id, category, market_cap, price, volume_24h, date) VALUES " +
			strings.Join(values, ",")
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.logErr("clickhouse store_batch exec error", err, applogger.Int("rows", len(values)))
			return fmt.Errorf("insert snapshots: %w", err)
		}
	}
	return nil
}

func (s *CHSnapshotStore) FetchSnapshots(ctx context.Context, start, end time.Time, category models.Category) ([]models.Snapshot, error) {
	const q = `
        SELECT asset_id, category, toString(market_cap), toString(price), toString(volume_24h), date
        FROM snapshots FINAL
        WHERE category = ? AND date >= toDate(?) AND date <= toDate(?)
        ORDER BY date ASC, market_cap DESC
    `
	rows, err := s.db.QueryContext(ctx, q, string(category), start.UTC(), end.UTC())
	if err != nil {
		s.logErr("clickhouse fetch_snapshots query error", err, applogger.String("category", string(category)))
		return nil, fmt.Errorf("fetch snapshots: %w", err)
	}
	defer rows.Close()

	out := make([]models.Snapshot, 0, 1024)
	for rows.Next() {
		var (
			sn                  models.Snapshot
			cat                 string
			capStr, pxStr, vStr string
		)
		if err := rows.Scan(&sn.AssetID, &cat, &capStr, &pxStr, &vStr, &sn.Date); err != nil {
			s.logErr("clickhouse fetch_snapshots scan error", err, applogger.String("category", string(category)))
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		if err := parseDecimals(
			[]string{capStr, pxStr, vStr},
			[]*decimal.Decimal{&sn.MarketCap, &sn.Price, &sn.Volume24h},
		); err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", sn.AssetID, err)
		}
		sn.Category = models.Category(cat)
		sn.Date = sn.Date.UTC()
		out = append(out, sn)
	}
	if err := rows.Err(); err != nil {
		s.logErr("clickhouse fetch_snapshots rows error", err, applogger.String("category", string(category)))
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *CHSnapshotStore) FetchPrices(ctx context.Context, assetID string, category models.Category, start, end time.Time) (models.Series, error) {
	const q = `
        SELECT date, toFloat64(price)
        FROM snapshots FINAL
        WHERE category = ? AND asset_id = ? AND date >= toDate(?) AND date <= toDate(?)
        ORDER BY date ASC
    `
	rows, err := s.db.QueryContext(ctx, q, string(category), assetID, start.UTC(), end.UTC())
	if err != nil {
		s.logErr("clickhouse fetch_prices query error", err, applogger.String("asset", assetID))
		return nil, fmt.Errorf("fetch prices: %w", err)
	}
	defer rows.Close()

	var out models.Series
	for rows.Next() {
		var p models.Point
		if err := rows.Scan(&p.Date, &p.Value); err != nil {
			s.logErr("clickhouse fetch_prices scan error", err, applogger.String("asset", assetID))
			return nil, fmt.Errorf("scan price: %w", err)
		}
		p.Date = p.Date.UTC()
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *CHSnapshotStore) ListAssets(ctx context.Context, category models.Category) ([]models.Asset, error) {
	const q = `
        SELECT id, category, image, position
        FROM assets FINAL
        WHERE category = ?
        ORDER BY position ASC, id ASC
    `
	rows, err := s.db.QueryContext(ctx, q, string(category))
	if err != nil {
		s.logErr("clickhouse list_assets query error", err, applogger.String("category", string(category)))
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var out []models.Asset
	for rows.Next() {
		var (
			a   models.Asset
			cat string
			pos uint32
		)
		if err := rows.Scan(&a.ID, &cat, &a.Image, &pos); err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		a.Category = models.Category(cat)
		a.Order = int(pos)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *CHSnapshotStore) UpsertAssets(ctx context.Context, assets []models.Asset) error {
	if len(assets) == 0 {
		return nil
	}
	values := make([]string, 0, len(assets))
	args := make([]interface{}, 0, len(assets)*4)
	for _, a := range assets {
		values = append(values, "(?, ?, ?, ?)")
		args = append(args, a.ID, string(a.Category), a.Image, uint32(a.Order))
	}
	q := "INSERT INTO assets (id, category, image, position) VALUES " + strings.Join(values, ",")
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		s.logErr("clickhouse upsert_assets exec error", err, applogger.Int("rows", len(assets)))
		return fmt.Errorf("upsert assets: %w", err)
	}
	return nil
}

func (s *CHSnapshotStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHSnapshotStore) Close() error {
	return s.ch.Close()
}

func parseDecimals(raw []string, dst []*decimal.Decimal) error {
	for i, r := range raw {
		d, err := decimal.NewFromString(r)
		if err != nil {
			return fmt.Errorf("parse decimal %q: %w", r, err)
		}
		*dst[i] = d
	}
	return nil
}

func (s *CHSnapshotStore) logErr(msg string, err error, fields ...applogger.Field) {
	if s.l == nil {
		return
	}
	s.l.Error(msg, append(fields, applogger.Error(err))...)
}
