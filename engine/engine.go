/*
engine.go - Pipeline orchestration

PURPOSE:
  Wires the pure components into the two analysis modes:

  Pairwise mode (>= 2 distinct reference weeks with data):
    group both snapshots -> outer join -> variance evaluation -> inventory
    netting -> case classification -> decision resolution -> red/green
    sheets, plus the cumulative summary across the full week span.

  Single-week coverage mode (exactly one usable reference week):
    skips variance and classification entirely; only the immediate-horizon
    coverage check runs, with every variance field zero/blank.

  The caller selects the mode explicitly. The engine never silently
  downgrades a pairwise request: fewer than two usable snapshots is an
  error the caller must handle by re-requesting single-week mode.

DETERMINISM:
  Output rows are sorted by group key, so identical inputs produce
  byte-identical results. Required, not cosmetic: downstream reports and
  mails render these rows verbatim.

SEE ALSO:
  - types.go: Input/output row types
  - errors.go: InsufficientSnapshots, InvalidWeekFormat
*/
package engine

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MODES
// =============================================================================

// Mode selects the analysis shape. Explicit by design.
type Mode string

const (
	// ModePairwise compares the two most recent of the supplied reference
	// weeks and rolls the cumulative summary over the full span.
	ModePairwise Mode = "pairwise"

	// ModeSingleWeek runs only the immediate-horizon coverage check over
	// one reference week.
	ModeSingleWeek Mode = "single_week"
)

// =============================================================================
// INPUT / OUTPUT
// =============================================================================

// Input is everything one analysis run consumes. The engine reads it and
// mutates nothing; concurrent callers may share the collaborator values.
type Input struct {
	Mode           Mode
	ReferenceWeeks []string

	Forecasts  []ForecastLine
	Deliveries []DeliveryEvent
	Products   map[string]ProductMeta

	// Capabilities supplies the external feasibility signals. Nil means
	// "nothing asserted": increases then escalate to manual review, which
	// is the safe default.
	Capabilities CapabilityProvider
}

// Result is the full output of one run.
type Result struct {
	Mode Mode

	// Snapshot1/Snapshot2 are the two compared reference weeks in
	// pairwise mode; only Snapshot2 is set in single-week mode.
	Snapshot1 string
	Snapshot2 string

	RedSheet   []VarianceRow
	GreenSheet []VarianceRow
	Summary    []SummaryRow
}

// Engine bundles the injected policy tables. Stateless; safe for
// concurrent use.
type Engine struct {
	Tolerances ToleranceTable
	Decisions  DecisionTable
}

// New creates an engine with the given policy tables.
func New(tolerances ToleranceTable, decisions DecisionTable) *Engine {
	return &Engine{Tolerances: tolerances, Decisions: decisions}
}

// =============================================================================
// ANALYZE
// =============================================================================

// Analyze runs one analysis. Reference weeks are validated up front; a
// malformed identifier aborts before any computation.
func (e *Engine) Analyze(in Input) (*Result, error) {
	if len(in.ReferenceWeeks) == 0 {
		return nil, ErrNoReferenceWeeks
	}
	if err := ValidateWeeks(in.ReferenceWeeks); err != nil {
		return nil, err
	}

	weeks := append([]string(nil), in.ReferenceWeeks...)
	SortWeeks(weeks)

	caps := in.Capabilities
	if caps == nil {
		caps = StaticCapabilities{}
	}

	switch in.Mode {
	case ModeSingleWeek:
		return e.analyzeSingleWeek(in, weeks, caps)
	default:
		return e.analyzePairwise(in, weeks, caps)
	}
}

func (e *Engine) analyzePairwise(in Input, weeks []string, caps CapabilityProvider) (*Result, error) {
	usable := weeksWithData(in.Forecasts, weeks)
	if len(usable) < 2 {
		return nil, &InsufficientSnapshotsError{Requested: in.ReferenceWeeks, Usable: len(usable)}
	}

	// Compare the two most recent snapshots; the summary spans them all.
	week1 := usable[len(usable)-2]
	week2 := usable[len(usable)-1]

	grouped1 := GroupAndSum(in.Forecasts, week1, e.Tolerances)
	grouped2 := GroupAndSum(in.Forecasts, week2, e.Tolerances)
	pairs := JoinSnapshots(grouped1, grouped2)
	inTransit := NetInTransit(in.Deliveries)

	result := &Result{
		Mode:      ModePairwise,
		Snapshot1: week1,
		Snapshot2: week2,
		Summary:   RollSummary(in.Forecasts, usable, e.Tolerances),
	}

	for _, pair := range pairs {
		row := EvaluateVariance(pair, inTransit, e.Tolerances, in.Products)
		e.decide(&row, caps)
		if row.Red() {
			result.RedSheet = append(result.RedSheet, row)
		} else {
			result.GreenSheet = append(result.GreenSheet, row)
		}
	}
	return result, nil
}

func (e *Engine) analyzeSingleWeek(in Input, weeks []string, caps CapabilityProvider) (*Result, error) {
	// Use the most recent supplied week that has data, or the most recent
	// supplied week when none do (the run is then trivially empty).
	week := weeks[len(weeks)-1]
	if usable := weeksWithData(in.Forecasts, weeks); len(usable) > 0 {
		week = usable[len(usable)-1]
	}

	grouped := GroupAndSum(in.Forecasts, week, e.Tolerances)
	inTransit := NetInTransit(in.Deliveries)

	keys := make([]GroupKey, 0, len(grouped))
	for key := range grouped {
		keys = append(keys, key)
	}
	sortGroupKeys(keys)

	result := &Result{Mode: ModeSingleWeek, Snapshot2: week}
	for _, key := range keys {
		row := EvaluateCoverageOnly(key, grouped[key], inTransit, e.Tolerances, in.Products)
		// No variance, no classification: coverage failures alone route
		// to the red sheet, without case or decision.
		if row.Red() {
			result.RedSheet = append(result.RedSheet, row)
		} else {
			result.GreenSheet = append(result.GreenSheet, row)
		}
	}
	return result, nil
}

// decide classifies and resolves one evaluated row. Rows with zero
// difference get no case and no decision regardless of interval.
func (e *Engine) decide(row *VarianceRow, caps CapabilityProvider) {
	if !row.Red() {
		return
	}
	c := caps.CapabilitiesFor(StockKey{Site: row.Key.Site, ProductCode: row.Key.ProductCode})
	row.Case = Classify(row, c)
	if row.Case != nil {
		d := e.Decisions.Resolve(*row.Case, c)
		row.Decision = &d
	}
}

// weeksWithData filters the sorted week list down to those with at least
// one matching forecast line.
func weeksWithData(lines []ForecastLine, sortedWeeks []string) []string {
	counts := make(map[string]int)
	for _, line := range lines {
		counts[line.ReferenceWeek]++
	}
	var usable []string
	for _, week := range sortedWeeks {
		if counts[week] > 0 {
			usable = append(usable, week)
		}
	}
	return usable
}

func sortGroupKeys(keys []GroupKey) {
	sort.Slice(keys, func(i, j int) bool { return lessGroupKey(keys[i], keys[j]) })
}

// TotalInTransit sums the netted in-transit exposure across all stock
// keys. Used by reporting surfaces; always >= 0 by construction.
func TotalInTransit(events []DeliveryEvent) decimal.Decimal {
	total := decimal.Zero
	for _, v := range NetInTransit(events) {
		total = total.Add(v)
	}
	return total
}
