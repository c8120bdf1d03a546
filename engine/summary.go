/*
summary.go - Cumulative drift across all available snapshots

PURPOSE:
  Produces the coarse second view of forecast drift: for every group key
  observed anywhere in the ordered reference-week list, the cumulative
  difference and percentage between the first and the last available
  week. Independent of which adjacent pair triggered a violation.

  The upstream system weighs zero baselines differently here than in the
  adjacent-pair comparison: a brand-new quantity counts as a full jump in
  the cumulative view but as 0% variation in the pairwise view. Both
  behaviors are preserved as-is; see cumulativePct.

SEE ALSO:
  - aggregate.go: Per-snapshot grouping
  - engine.go: Runs the roller alongside the pairwise evaluation
*/
package engine

import (
	"sort"

	"github.com/shopspring/decimal"
)

// RollSummary computes cumulative first-to-last drift per group key over
// the full ordered list of reference weeks. Weeks must already be sorted
// chronologically; fewer than two weeks yields no summary rows.
func RollSummary(lines []ForecastLine, orderedWeeks []string, tolerances ToleranceTable) []SummaryRow {
	if len(orderedWeeks) < 2 {
		return nil
	}
	firstWeek := orderedWeeks[0]
	lastWeek := orderedWeeks[len(orderedWeeks)-1]

	first := GroupAndSum(lines, firstWeek, tolerances)
	last := GroupAndSum(lines, lastWeek, tolerances)

	// Union of keys observed in ANY snapshot, not just the endpoints: a
	// group that appeared mid-span and vanished still shows up with zero
	// on both ends.
	keys := make(map[GroupKey]struct{})
	for _, week := range orderedWeeks {
		for key := range GroupAndSum(lines, week, tolerances) {
			keys[key] = struct{}{}
		}
	}

	rows := make([]SummaryRow, 0, len(keys))
	for key := range keys {
		q1 := first[key]
		q2 := last[key]
		diff := q2.Sub(q1)
		rows = append(rows, SummaryRow{
			Key:            key,
			FirstWeek:      firstWeek,
			LastWeek:       lastWeek,
			FirstQuantity:  q1,
			LastQuantity:   q2,
			CumulativeDiff: diff,
			CumulativePct:  cumulativePct(diff, q1, q2),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		return lessGroupKey(rows[i].Key, rows[j].Key)
	})
	return rows
}

// cumulativePct treats a brand-new quantity (zero first-week baseline with
// a non-zero last week) as a full 100% jump. This intentionally differs
// from the pairwise zero-baseline rule; both behaviors are preserved from
// the upstream system pending a product-owner decision.
func cumulativePct(diff, q1, q2 decimal.Decimal) decimal.Decimal {
	if q1.IsZero() {
		if q2.IsZero() {
			return decimal.Zero
		}
		return hundred
	}
	return pct(diff, q1)
}
