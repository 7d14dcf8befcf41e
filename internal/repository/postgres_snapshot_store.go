package repository

import (
	"context"
	"fmt"
	"time"

	"catalytics/internal/domain/models"
	domrepo "catalytics/internal/domain/repository"
	applogger "catalytics/pkg/logger"
	pkgpg "catalytics/pkg/postgres"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PostgresSchema creates the snapshot and asset tables.
var PostgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS snapshots (
		id UUID PRIMARY KEY,
		composite_key TEXT NOT NULL UNIQUE,
		asset_id TEXT NOT NULL,
		category TEXT NOT NULL,
		market_cap NUMERIC NOT NULL,
		price NUMERIC NOT NULL,
		volume_24h NUMERIC NOT NULL,
		date DATE NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS snapshots_category_date_idx ON snapshots (category, date)`,
	`CREATE TABLE IF NOT EXISTS assets (
		id TEXT NOT NULL,
		category TEXT NOT NULL,
		image TEXT NOT NULL DEFAULT '',
		position INTEGER NOT NULL,
		PRIMARY KEY (id, category)
	)`,
}

// PGSnapshotStore implements SnapshotStore backed by PostgreSQL.
type PGSnapshotStore struct {
	db *pkgpg.DB
	l  *applogger.Logger
}

var _ domrepo.SnapshotStore = (*PGSnapshotStore)(nil)

func NewPGSnapshotStore(db *pkgpg.DB) *PGSnapshotStore {
	return &PGSnapshotStore{db: db}
}

// SetLogger injects a structured logger.
func (s *PGSnapshotStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *PGSnapshotStore) Init(ctx context.Context) error {
	return s.db.InitSchema(ctx, PostgresSchema)
}

// StoreBatch inserts snapshots in one transaction. Rows whose composite key
// already exists are left untouched.
func (s *PGSnapshotStore) StoreBatch(ctx context.Context, snapshots []models.Snapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO snapshots (id, composite_key, asset_id, category, market_cap, price, volume_24h, date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (composite_key) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, sn := range snapshots {
		if sn.AssetID == "" || sn.Date.IsZero() {
			continue
		}
		if _, err := stmt.ExecContext(ctx,
			uuid.New(),
			sn.Key(),
			sn.AssetID,
			string(sn.Category),
			sn.MarketCap.String(),
			sn.Price.String(),
			sn.Volume24h.String(),
			sn.Date.UTC().Format(time.DateOnly),
		); err != nil {
			s.logErr("postgres store_batch exec error", err, applogger.String("key", sn.Key()))
			return fmt.Errorf("failed to insert snapshot %s: %w", sn.Key(), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshots: %w", err)
	}
	return nil
}

func (s *PGSnapshotStore) FetchSnapshots(ctx context.Context, start, end time.Time, category models.Category) ([]models.Snapshot, error) {
	query := `
		SELECT asset_id, category, market_cap, price, volume_24h, date
		FROM snapshots
		WHERE category = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC, market_cap DESC
	`
	rows, err := s.db.QueryContext(ctx, query, string(category),
		start.UTC().Format(time.DateOnly), end.UTC().Format(time.DateOnly))
	if err != nil {
		s.logErr("postgres fetch_snapshots query error", err, applogger.String("category", string(category)))
		return nil, fmt.Errorf("failed to fetch snapshots: %w", err)
	}
	defer rows.Close()

	var out []models.Snapshot
	for rows.Next() {
		var (
			sn                  models.Snapshot
			cat                 string
			capStr, pxStr, vStr string
		)
		if err := rows.Scan(&sn.AssetID, &cat, &capStr, &pxStr, &vStr, &sn.Date); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		if err := parseDecimals(
			[]string{capStr, pxStr, vStr},
			[]*decimal.Decimal{&sn.MarketCap, &sn.Price, &sn.Volume24h},
		); err != nil {
			return nil, fmt.Errorf("failed to parse snapshot %s: %w", sn.AssetID, err)
		}
		sn.Category = models.Category(cat)
		sn.Date = sn.Date.UTC()
		out = append(out, sn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshots: %w", err)
	}
	return out, nil
}

func (s *PGSnapshotStore) FetchPrices(ctx context.Context, assetID string, category models.Category, start, end time.Time) (models.Series, error) {
	query := `
		SELECT date, price
		FROM snapshots
		WHERE category = $1 AND asset_id = $2 AND date >= $3 AND date <= $4
		ORDER BY date ASC
	`
	rows, err := s.db.QueryContext(ctx, query, string(category), assetID,
		start.UTC().Format(time.DateOnly), end.UTC().Format(time.DateOnly))
	if err != nil {
		s.logErr("postgres fetch_prices query error", err, applogger.String("asset", assetID))
		return nil, fmt.Errorf("failed to fetch prices: %w", err)
	}
	defer rows.Close()

	var out models.Series
	for rows.Next() {
		var (
			day   time.Time
			pxStr string
		)
		if err := rows.Scan(&day, &pxStr); err != nil {
			return nil, fmt.Errorf("failed to scan price: %w", err)
		}
		px, err := decimal.NewFromString(pxStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse price: %w", err)
		}
		out = append(out, models.Point{Date: day.UTC(), Value: px.InexactFloat64()})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate prices: %w", err)
	}
	return out, nil
}

func (s *PGSnapshotStore) ListAssets(ctx context.Context, category models.Category) ([]models.Asset, error) {
	query := `
		SELECT id, category, image, position
		FROM assets
		WHERE category = $1
		ORDER BY position ASC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, string(category))
	if err != nil {
		s.logErr("postgres list_assets query error", err, applogger.String("category", string(category)))
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	var out []models.Asset
	for rows.Next() {
		var (
			a   models.Asset
			cat string
		)
		if err := rows.Scan(&a.ID, &cat, &a.Image, &a.Order); err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		a.Category = models.Category(cat)
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpsertAssets replaces image and order for existing (id, category) pairs.
func (s *PGSnapshotStore) UpsertAssets(ctx context.Context, assets []models.Asset) error {
	if len(assets) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO assets (id, category, image, position)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id, category) DO UPDATE SET image = EXCLUDED.image, position = EXCLUDED.position`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, a := range assets {
		if _, err := stmt.ExecContext(ctx, a.ID, string(a.Category), a.Image, a.Order); err != nil {
			s.logErr("postgres upsert_assets exec error", err, applogger.String("asset", a.ID))
			return fmt.Errorf("failed to upsert asset %s: %w", a.ID, err)
		}
	}
	return tx.Commit()
}

func (s *PGSnapshotStore) Health(ctx context.Context) error {
	return s.db.Health(ctx)
}

func (s *PGSnapshotStore) Close() error {
	return s.db.Close()
}

func (s *PGSnapshotStore) logErr(msg string, err error, fields ...applogger.Field) {
	if s.l == nil {
		return
	}
	s.l.Error(msg, append(fields, applogger.Error(err))...)
}
