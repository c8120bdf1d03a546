/*
variance.go - Snapshot comparison and coverage evaluation

PURPOSE:
  Turns a joined group-key pair into a VarianceRow: signed difference,
  percentage variation, tolerance breach, and - at the immediate horizon
  only - coverage of the required quantity by netted in-transit stock.

PERCENTAGE POLICY:
  variationPct = 100 * difference / q1 when q1 != 0, else 0%. The explicit
  zero-baseline rule means a brand-new line is not flagged as infinite
  variation. The cumulative summary (summary.go) intentionally keeps the
  same rule; the two code paths in the upstream system disagree on how to
  weigh new demand and both behaviors are preserved as-is pending a
  product-owner decision.

COVERAGE:
  Only rows in the "W-1 to W" bucket get requiredQuantity/inTransit/
  coverageOk. Further horizons leave them unset: coverage is only
  meaningful where there is no time left to replan. A stable forecast
  (difference == 0) with insufficient pipeline stock is still actionable,
  which is why sheet routing checks deliveryIssue independently of the
  tolerance math.

SEE ALSO:
  - aggregate.go: Produces the joined pairs
  - netting.go: Produces the in-transit figures
  - cases.go: Classifies the rows this file flags
*/
package engine

import "github.com/shopspring/decimal"

// EvaluateVariance builds the VarianceRow for one joined pair.
func EvaluateVariance(pair JoinedPair, inTransit map[StockKey]decimal.Decimal, tolerances ToleranceTable, meta map[string]ProductMeta) VarianceRow {
	row := VarianceRow{
		Key:          pair.Key,
		QtySnapshot1: pair.Qty1,
		QtySnapshot2: pair.Qty2,
		Difference:   pair.Qty2.Sub(pair.Qty1),
		AllowedPct:   tolerances.AllowedPct(pair.Key.Interval),
	}
	annotate(&row, meta)

	row.VariationPct = pct(row.Difference, pair.Qty1)
	row.Violation = row.VariationPct.Abs().GreaterThan(row.AllowedPct)

	if pair.Key.Interval == BucketCurrent {
		applyCoverage(&row, pair.Qty2, inTransit)
	}
	return row
}

// EvaluateCoverageOnly builds the single-week-mode row for one grouped
// quantity: no variance fields, only the immediate-horizon coverage check.
// All variance fields are reported as zero; rows outside the immediate
// horizon are returned with coverage unset and are never red.
func EvaluateCoverageOnly(key GroupKey, quantity decimal.Decimal, inTransit map[StockKey]decimal.Decimal, tolerances ToleranceTable, meta map[string]ProductMeta) VarianceRow {
	row := VarianceRow{
		Key:          key,
		QtySnapshot2: quantity,
		AllowedPct:   tolerances.AllowedPct(key.Interval),
	}
	annotate(&row, meta)

	if key.Interval == BucketCurrent {
		applyCoverage(&row, quantity, inTransit)
	}
	return row
}

func annotate(row *VarianceRow, meta map[string]ProductMeta) {
	if m, ok := meta[row.Key.ProductCode]; ok {
		row.Line = m.Line
		row.WeeklyCapacity = m.WeeklyCapacity
	}
}

func applyCoverage(row *VarianceRow, required decimal.Decimal, inTransit map[StockKey]decimal.Decimal) {
	available := inTransit[StockKey{Site: row.Key.Site, ProductCode: row.Key.ProductCode}]
	covered := available.GreaterThanOrEqual(required)

	row.RequiredQuantity = &required
	row.InTransit = &available
	row.CoverageOK = &covered
	row.DeliveryIssue = !covered
}
