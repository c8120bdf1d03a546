/*
Package store defines the persistence interfaces for the forecast engine.

PURPOSE:
  The engine itself performs no I/O; these interfaces are how the API
  surface and the scheduler load forecast snapshots, delivery events, and
  product metadata, and how analysis runs are recorded for audit.

INTERFACES:
  Store: Full persistence contract. Implemented by store/sqlite
  (production) and store/memory (tests/dev).

RECORD VS ENGINE TYPES:
  ForecastRecord wraps engine.ForecastLine with the EDI bookkeeping
  columns (cumulated quantity, EDI status, last delivery info) that the
  extractors produce but the variance engine never reads. The store
  persists the full record; readers feeding the engine get the lean line.

SEE ALSO:
  - store/sqlite: SQLite implementation
  - store/memory: In-memory implementation
*/
package store

import (
	"context"
	"time"

	"github.com/avocarbon/forecast-engine/engine"
	"github.com/shopspring/decimal"
)

// =============================================================================
// RECORDS
// =============================================================================

// ForecastRecord is one persisted forecast line with its EDI bookkeeping.
// Identity for upserts is (site, clientCode, productCode, targetWeek,
// referenceWeek): re-ingesting the same snapshot overwrites quantities
// instead of duplicating rows.
type ForecastRecord struct {
	engine.ForecastLine

	ClientMaterialNo  string
	CumulatedQuantity decimal.Decimal
	EDIStatus         string
	LastDeliveryDate  string
	LastDeliveredQty  *decimal.Decimal
}

// AnalysisRun is the audit record of one engine invocation.
type AnalysisRun struct {
	ID        string
	Mode      string
	Snapshot1 string
	Snapshot2 string
	Trigger   string // "api" or "scheduler"
	RedRows   int
	GreenRows int
	RanAt     time.Time
}

// =============================================================================
// STORE CONTRACT
// =============================================================================

// Store is the persistence contract for the analysis surfaces.
type Store interface {
	// SaveForecasts upserts a batch of forecast records and returns the
	// number of rows written.
	SaveForecasts(ctx context.Context, records []ForecastRecord) (int, error)

	// SaveDeliveries appends delivery events. Events are facts, not
	// state: they are never updated, only accumulated.
	SaveDeliveries(ctx context.Context, events []engine.DeliveryEvent) (int, error)

	// PutProductMeta upserts one product's metadata.
	PutProductMeta(ctx context.Context, meta engine.ProductMeta) error

	// ListForecasts returns every stored line in engine form.
	ListForecasts(ctx context.Context) ([]engine.ForecastLine, error)

	// ListDeliveries returns every stored delivery event.
	ListDeliveries(ctx context.Context) ([]engine.DeliveryEvent, error)

	// ListProductMeta returns all product metadata keyed by product code.
	ListProductMeta(ctx context.Context) (map[string]engine.ProductMeta, error)

	// ListReferenceWeeks returns the distinct reference weeks with stored
	// data, sorted chronologically.
	ListReferenceWeeks(ctx context.Context) ([]string, error)

	// RecordAnalysisRun appends one audit record.
	RecordAnalysisRun(ctx context.Context, run AnalysisRun) error

	// ListAnalysisRuns returns the most recent runs, newest first.
	ListAnalysisRuns(ctx context.Context, limit int) ([]AnalysisRun, error)

	Close() error
}
