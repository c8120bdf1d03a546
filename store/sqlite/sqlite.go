/*
Package sqlite provides a SQLite-backed implementation of store.Store.

PURPOSE:
  Persists normalized EDI forecast lines, delivery events, and product
  metadata, plus the analysis-run audit trail. In production the same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  forecast_lines:  One row per (site, client, product, target week,
                   reference week). Re-ingesting a snapshot upserts the
                   quantities instead of duplicating rows, mirroring the
                   upstream EDIGlobal conflict handling.
  delivery_events: Append-only shipment facts for inventory netting.
  product_meta:    Production line / weekly capacity annotations.
  analysis_runs:   One audit row per engine invocation.

QUANTITIES:
  Stored as TEXT and parsed through shopspring/decimal. Never float:
  tolerance comparisons must be exact.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  multiple readers don't block and crash recovery is cleaner.

USAGE:
  st, err := sqlite.New("./data/forecast.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()

SEE ALSO:
  - store/store.go: Interface definition
  - store/memory: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/avocarbon/forecast-engine/engine"
	"github.com/avocarbon/forecast-engine/store"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

// Store implements store.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ store.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Forecast lines (upsert on snapshot re-ingestion)
	CREATE TABLE IF NOT EXISTS forecast_lines (
		site TEXT NOT NULL,
		client_code TEXT NOT NULL,
		client_material_no TEXT,
		product_code TEXT NOT NULL,
		target_week TEXT NOT NULL,
		reference_week TEXT NOT NULL,
		quantity TEXT NOT NULL,
		cumulated_quantity TEXT,
		edi_status TEXT,
		last_delivery_date TEXT,
		last_delivered_qty TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (site, client_code, product_code, target_week, reference_week)
	);

	CREATE INDEX IF NOT EXISTS idx_forecast_lines_reference_week
		ON forecast_lines(reference_week);
	CREATE INDEX IF NOT EXISTS idx_forecast_lines_product
		ON forecast_lines(site, product_code);

	-- Delivery events (append-only facts)
	CREATE TABLE IF NOT EXISTS delivery_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		site TEXT NOT NULL,
		product_code TEXT NOT NULL,
		delivery_no TEXT,
		event_week TEXT,
		status TEXT NOT NULL,
		quantity TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_delivery_events_product
		ON delivery_events(site, product_code);

	-- Product metadata
	CREATE TABLE IF NOT EXISTS product_meta (
		product_code TEXT PRIMARY KEY,
		line TEXT,
		weekly_capacity TEXT
	);

	-- Analysis run audit trail
	CREATE TABLE IF NOT EXISTS analysis_runs (
		id TEXT PRIMARY KEY,
		mode TEXT NOT NULL,
		snapshot1 TEXT,
		snapshot2 TEXT,
		trigger_source TEXT NOT NULL,
		red_rows INTEGER NOT NULL,
		green_rows INTEGER NOT NULL,
		ran_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_analysis_runs_ran_at
		ON analysis_runs(ran_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// FORECASTS
// =============================================================================

// SaveForecasts upserts a batch inside one transaction. The conflict
// target mirrors the upstream EDIGlobal primary key: same snapshot line
// means update, never duplicate.
func (s *Store) SaveForecasts(ctx context.Context, records []store.ForecastRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO forecast_lines (
			site, client_code, client_material_no, product_code,
			target_week, reference_week, quantity, cumulated_quantity,
			edi_status, last_delivery_date, last_delivered_qty,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (site, client_code, product_code, target_week, reference_week)
		DO UPDATE SET
			client_material_no = excluded.client_material_no,
			quantity = excluded.quantity,
			cumulated_quantity = excluded.cumulated_quantity,
			edi_status = excluded.edi_status,
			last_delivery_date = excluded.last_delivery_date,
			last_delivered_qty = excluded.last_delivered_qty,
			updated_at = excluded.updated_at`)
	if err != nil {
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, r := range records {
		var lastQty interface{}
		if r.LastDeliveredQty != nil {
			lastQty = r.LastDeliveredQty.String()
		}
		if _, err := stmt.ExecContext(ctx,
			r.Site, r.ClientCode, r.ClientMaterialNo, r.ProductCode,
			r.TargetWeek, r.ReferenceWeek, r.Quantity.String(), r.CumulatedQuantity.String(),
			r.EDIStatus, r.LastDeliveryDate, lastQty,
			now, now,
		); err != nil {
			return 0, fmt.Errorf("upsert forecast line: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(records), nil
}

// ListForecasts returns every stored line in engine form.
func (s *Store) ListForecasts(ctx context.Context) ([]engine.ForecastLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT site, client_code, product_code, target_week, reference_week, quantity
		FROM forecast_lines
		ORDER BY reference_week, site, client_code, product_code, target_week`)
	if err != nil {
		return nil, fmt.Errorf("query forecast lines: %w", err)
	}
	defer rows.Close()

	var lines []engine.ForecastLine
	for rows.Next() {
		var line engine.ForecastLine
		var quantity string
		if err := rows.Scan(&line.Site, &line.ClientCode, &line.ProductCode,
			&line.TargetWeek, &line.ReferenceWeek, &quantity); err != nil {
			return nil, fmt.Errorf("scan forecast line: %w", err)
		}
		if line.Quantity, err = decimal.NewFromString(quantity); err != nil {
			return nil, fmt.Errorf("parse quantity %q: %w", quantity, err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// ListReferenceWeeks returns the distinct reference weeks, oldest first.
func (s *Store) ListReferenceWeeks(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT reference_week FROM forecast_lines`)
	if err != nil {
		return nil, fmt.Errorf("query reference weeks: %w", err)
	}
	defer rows.Close()

	var weeks []string
	for rows.Next() {
		var week string
		if err := rows.Scan(&week); err != nil {
			return nil, fmt.Errorf("scan reference week: %w", err)
		}
		weeks = append(weeks, week)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	engine.SortWeeks(weeks)
	return weeks, nil
}

// =============================================================================
// DELIVERIES
// =============================================================================

// SaveDeliveries appends delivery events. Events are never updated.
func (s *Store) SaveDeliveries(ctx context.Context, events []engine.DeliveryEvent) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO delivery_events (site, product_code, delivery_no, event_week, status, quantity, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, ev := range events {
		if _, err := stmt.ExecContext(ctx,
			ev.Site, ev.ProductCode, ev.DeliveryNo, ev.EventWeek,
			string(ev.Status), ev.Quantity.String(), now,
		); err != nil {
			return 0, fmt.Errorf("insert delivery event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(events), nil
}

// ListDeliveries returns every stored delivery event.
func (s *Store) ListDeliveries(ctx context.Context) ([]engine.DeliveryEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT site, product_code, delivery_no, event_week, status, quantity
		FROM delivery_events ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query delivery events: %w", err)
	}
	defer rows.Close()

	var events []engine.DeliveryEvent
	for rows.Next() {
		var ev engine.DeliveryEvent
		var status, quantity string
		if err := rows.Scan(&ev.Site, &ev.ProductCode, &ev.DeliveryNo,
			&ev.EventWeek, &status, &quantity); err != nil {
			return nil, fmt.Errorf("scan delivery event: %w", err)
		}
		ev.Status = engine.DeliveryStatus(status)
		if ev.Quantity, err = decimal.NewFromString(quantity); err != nil {
			return nil, fmt.Errorf("parse quantity %q: %w", quantity, err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// =============================================================================
// PRODUCT METADATA
// =============================================================================

// PutProductMeta upserts one product's annotation.
func (s *Store) PutProductMeta(ctx context.Context, meta engine.ProductMeta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var capacity interface{}
	if meta.WeeklyCapacity != nil {
		capacity = meta.WeeklyCapacity.String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO product_meta (product_code, line, weekly_capacity)
		VALUES (?, ?, ?)
		ON CONFLICT (product_code) DO UPDATE SET
			line = excluded.line,
			weekly_capacity = excluded.weekly_capacity`,
		meta.ProductCode, meta.Line, capacity)
	if err != nil {
		return fmt.Errorf("upsert product meta: %w", err)
	}
	return nil
}

// ListProductMeta returns all annotations keyed by product code.
func (s *Store) ListProductMeta(ctx context.Context) (map[string]engine.ProductMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT product_code, line, weekly_capacity FROM product_meta`)
	if err != nil {
		return nil, fmt.Errorf("query product meta: %w", err)
	}
	defer rows.Close()

	out := make(map[string]engine.ProductMeta)
	for rows.Next() {
		var meta engine.ProductMeta
		var lineName, capacity sql.NullString
		if err := rows.Scan(&meta.ProductCode, &lineName, &capacity); err != nil {
			return nil, fmt.Errorf("scan product meta: %w", err)
		}
		meta.Line = lineName.String
		if capacity.Valid {
			c, err := decimal.NewFromString(capacity.String)
			if err != nil {
				return nil, fmt.Errorf("parse weekly capacity %q: %w", capacity.String, err)
			}
			meta.WeeklyCapacity = &c
		}
		out[meta.ProductCode] = meta
	}
	return out, rows.Err()
}

// =============================================================================
// ANALYSIS RUNS
// =============================================================================

// RecordAnalysisRun appends one audit record.
func (s *Store) RecordAnalysisRun(ctx context.Context, run store.AnalysisRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO analysis_runs (id, mode, snapshot1, snapshot2, trigger_source, red_rows, green_rows, ran_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Mode, run.Snapshot1, run.Snapshot2, run.Trigger,
		run.RedRows, run.GreenRows, run.RanAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert analysis run: %w", err)
	}
	return nil
}

// ListAnalysisRuns returns the most recent runs, newest first.
func (s *Store) ListAnalysisRuns(ctx context.Context, limit int) ([]store.AnalysisRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, mode, snapshot1, snapshot2, trigger_source, red_rows, green_rows, ran_at
		FROM analysis_runs ORDER BY ran_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query analysis runs: %w", err)
	}
	defer rows.Close()

	var runs []store.AnalysisRun
	for rows.Next() {
		var run store.AnalysisRun
		var ranAt string
		if err := rows.Scan(&run.ID, &run.Mode, &run.Snapshot1, &run.Snapshot2,
			&run.Trigger, &run.RedRows, &run.GreenRows, &ranAt); err != nil {
			return nil, fmt.Errorf("scan analysis run: %w", err)
		}
		if run.RanAt, err = time.Parse(time.RFC3339, ranAt); err != nil {
			return nil, fmt.Errorf("parse ran_at %q: %w", ranAt, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
