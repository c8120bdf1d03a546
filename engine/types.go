/*
Package engine implements the forecast variance and decision matrix core.

PURPOSE:
  This package contains the pure computation at the heart of the EDI
  forecast monitoring system: it buckets supplier forecast lines into
  time-horizon intervals, compares committed quantities across two forecast
  snapshots, nets in-transit inventory against immediate-horizon demand,
  classifies every out-of-tolerance line into exactly one case, and derives
  a payer/action decision from that case.

KEY CONCEPTS IN THIS FILE (types.go):
  - ForecastLine: One supplier commitment from an EDI snapshot
  - DeliveryEvent: One inventory-affecting shipment event
  - ProductMeta: Optional production-line/capacity annotation
  - GroupKey: The aggregation identity (site, client, product, interval)
  - VarianceRow: The derived comparison row the classifier annotates
  - Capabilities: Externally supplied feasibility signals for classification

DESIGN PRINCIPLES:
  1. Purity: Every component is a pure function over its inputs. No I/O,
     no retained state, no ambient globals. Determinism is a correctness
     requirement because downstream decisions are emailed verbatim.
  2. Precision: Uses decimal.Decimal for all quantities and percentages
     to avoid floating-point errors in tolerance comparisons.
  3. Injected policy: Tolerance percentages and the decision table are
     configuration data supplied by the caller, never package globals.

USAGE:
  eng := engine.New(engine.DefaultToleranceTable(), engine.DefaultDecisionTable())
  result, err := eng.Analyze(engine.Input{
      Mode:           engine.ModePairwise,
      ReferenceWeeks: []string{"2025-W10", "2025-W11"},
      Forecasts:      lines,
      Deliveries:     events,
  })

SEE ALSO:
  - week.go: Week identifier parsing and distance arithmetic
  - interval.go: Horizon bucket classification and tolerance table
  - variance.go: Snapshot comparison and coverage evaluation
  - cases.go: Deterministic case classification
  - decision.go: Case to payer/action resolution
*/
package engine

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// INPUT ROWS - Produced by external extractors, consumed read-only
// =============================================================================

// ForecastLine is one supplier commitment from a forecast snapshot.
// Immutable once produced by an extractor. Identity for aggregation is
// (site, client, product, interval-of(targetWeek, referenceWeek)), not the
// raw key: many raw lines collapse into one grouped quantity via summation.
type ForecastLine struct {
	Site          string
	ClientCode    string
	ProductCode   string
	TargetWeek    string // week the delivery is promised for, "YYYY-Www"
	ReferenceWeek string // week the snapshot was issued, "YYYY-Www"
	Quantity      decimal.Decimal
}

// DeliveryStatus is the normalized status of a delivery event. Callers
// guarantee normalization (case, whitespace); anything outside the three
// known values is ignored by inventory netting.
type DeliveryStatus string

const (
	StatusDispatched DeliveryStatus = "Dispatched"
	StatusInTransit  DeliveryStatus = "InTransit"
	StatusDelivered  DeliveryStatus = "Delivered"
)

// DeliveryEvent is one inventory-affecting event. Dispatched and InTransit
// add to outstanding exposure; Delivered subtracts.
type DeliveryEvent struct {
	Site        string
	ProductCode string
	DeliveryNo  string
	EventWeek   string
	Status      DeliveryStatus
	Quantity    decimal.Decimal
}

// ProductMeta annotates output rows for human consumption. It never drives
// classification directly; capacity feasibility arrives as an external
// boolean signal, not a computation over WeeklyCapacity.
type ProductMeta struct {
	ProductCode    string
	Line           string
	WeeklyCapacity *decimal.Decimal
}

// =============================================================================
// GROUPING
// =============================================================================

// GroupKey is the aggregation identity for a forecast line.
type GroupKey struct {
	Site        string
	ClientCode  string
	ProductCode string
	Interval    IntervalBucket
}

// StockKey identifies an inventory position. Netting and coverage are per
// (site, product); client and horizon do not partition physical stock.
type StockKey struct {
	Site        string
	ProductCode string
}

// GroupedRow is one aggregated quantity for a group key within a single
// snapshot. Output ordering of grouped rows carries no meaning.
type GroupedRow struct {
	Key      GroupKey
	Quantity decimal.Decimal
}

// =============================================================================
// VARIANCE ROW - Derived comparison row, annotated then frozen
// =============================================================================

// VarianceRow is the result of comparing one group key across the two
// snapshots. Created fresh for every pairwise comparison and never mutated
// after classification and decision annotation.
type VarianceRow struct {
	Key GroupKey

	// Annotation from ProductMeta, blank when no entry exists.
	Line           string
	WeeklyCapacity *decimal.Decimal

	QtySnapshot1 decimal.Decimal
	QtySnapshot2 decimal.Decimal
	Difference   decimal.Decimal
	VariationPct decimal.Decimal
	AllowedPct   decimal.Decimal
	Violation    bool

	// Coverage fields, populated only for the immediate "W-1 to W" horizon.
	InTransit        *decimal.Decimal
	RequiredQuantity *decimal.Decimal
	CoverageOK       *bool
	DeliveryIssue    bool

	// Decision annotation. Nil case means no action required.
	Case     *CaseID
	Decision *Decision
}

// Red reports whether the row belongs on the actionable (red) sheet.
// A row is red on tolerance breach, or on an immediate-horizon coverage
// failure even when the forecast itself is stable (difference == 0 but the
// pipeline cannot cover the requirement).
func (r *VarianceRow) Red() bool {
	return r.Violation || (r.Key.Interval == BucketCurrent && r.DeliveryIssue)
}

// =============================================================================
// CAPABILITIES - External feasibility signals
// =============================================================================

// Capabilities carries the externally sourced boolean signals the case
// classifier branches on. The engine never computes these; planners and
// upstream systems assert them per site/product.
type Capabilities struct {
	OutOfProtocol bool // change already breaches the contractual protocol

	StockCover    bool // finished-goods stock covers the increase
	CapNormCover  bool // normal production capacity covers it
	OTCapCover    bool // overtime capacity covers it
	AltOrSubCover bool // alternate site or subcontractor capacity covers it
	MaterialOK    bool // raw material available
	LogiOK        bool // standard logistics can deliver in time
	AirOK         bool // air shipment feasible
	SwapOK        bool // reference swap with another product feasible

	WIPRisk      bool // decrease strands work in progress
	POCancelable bool // open purchase order can still be cancelled
	ReallocOK    bool // quantity can be reallocated to another client
	StorageOK    bool // storage under commercial agreement available
	RSOK         bool // production replanning feasible
}

// CapabilityProvider supplies Capabilities per stock key. Implementations
// are expected to be deterministic for a given run.
type CapabilityProvider interface {
	CapabilitiesFor(key StockKey) Capabilities
}

// StaticCapabilities is a map-backed CapabilityProvider with a default for
// unknown keys. The zero value of Capabilities (everything infeasible) is a
// deliberate fail-safe: increases escalate to manual review.
type StaticCapabilities struct {
	ByKey   map[StockKey]Capabilities
	Default Capabilities
}

func (s StaticCapabilities) CapabilitiesFor(key StockKey) Capabilities {
	if c, ok := s.ByKey[key]; ok {
		return c
	}
	return s.Default
}

// =============================================================================
// SUMMARY
// =============================================================================

// SummaryRow is the cumulative drift for one group key between the first
// and the last available reference week.
type SummaryRow struct {
	Key            GroupKey
	FirstWeek      string
	LastWeek       string
	FirstQuantity  decimal.Decimal
	LastQuantity   decimal.Decimal
	CumulativeDiff decimal.Decimal
	CumulativePct  decimal.Decimal
}

// =============================================================================
// DECIMAL HELPERS
// =============================================================================

var hundred = decimal.NewFromInt(100)

// pct computes 100*num/den with the explicit zero-baseline policy: a zero
// denominator yields 0%, never an error and never infinity. A brand-new line
// with no prior baseline is reported as "no variation" by policy.
func pct(num, den decimal.Decimal) decimal.Decimal {
	if den.IsZero() {
		return decimal.Zero
	}
	return num.Mul(hundred).Div(den)
}
