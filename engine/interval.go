/*
interval.go - Horizon bucket classification and tolerance policy

PURPOSE:
  Maps a signed week distance (target week relative to the reference week
  that issued the forecast) to one of five ordered horizon buckets, each
  carrying its own allowed-variation percentage. The nearer the horizon,
  the less slack the supplier protocol allows.

BUCKET TABLE (default policy):
  W-1 to W        distance <= 1    0%   no slack on current/backlog commitments
  W+2 to W+5      2..5             5%
  W+6 to W+14     6..14           10%
  W+15 to W+24    15..24          15%
  W+25 and more   >= 25           20%   no upper cap

  A distance of exactly 1 is grouped with <= 0: a commitment due this or
  next week carries zero tolerance. An UNKNOWN distance (either week
  unparsable) also classifies as "W-1 to W" - fail-safe toward escalation,
  never toward silence.

POLICY INJECTION:
  The tolerance table is immutable configuration injected into the engine,
  never ambient package state, so alternate policies are testable.

SEE ALSO:
  - week.go: Produces the signed distance
  - policy/: JSON-configurable tolerance tables
*/
package engine

import "github.com/shopspring/decimal"

// =============================================================================
// BUCKETS
// =============================================================================

// IntervalBucket is one horizon classification. The set is closed and the
// ranges are contiguous and exhaustive over all integer distances.
type IntervalBucket string

const (
	BucketCurrent IntervalBucket = "W-1 to W"
	BucketNear    IntervalBucket = "W+2 to W+5"
	BucketMid     IntervalBucket = "W+6 to W+14"
	BucketFar     IntervalBucket = "W+15 to W+24"
	BucketHorizon IntervalBucket = "W+25 and more"
)

// Buckets lists all buckets in ascending horizon order.
func Buckets() []IntervalBucket {
	return []IntervalBucket{BucketCurrent, BucketNear, BucketMid, BucketFar, BucketHorizon}
}

// bucketRank orders buckets for deterministic output sorting.
func bucketRank(b IntervalBucket) int {
	switch b {
	case BucketCurrent:
		return 0
	case BucketNear:
		return 1
	case BucketMid:
		return 2
	case BucketFar:
		return 3
	case BucketHorizon:
		return 4
	}
	return 5
}

// =============================================================================
// TOLERANCE TABLE
// =============================================================================

// ToleranceRule binds one bucket to its inclusive distance range and the
// allowed variation percentage. MaxDist is ignored when Unbounded is set.
type ToleranceRule struct {
	Bucket     IntervalBucket
	MinDist    int
	MaxDist    int
	Unbounded  bool
	AllowedPct decimal.Decimal
}

// ToleranceTable is the ordered horizon policy. Rules are evaluated
// top-to-bottom; the first matching range wins.
type ToleranceTable struct {
	rules []ToleranceRule
}

// NewToleranceTable builds a table from ordered rules.
func NewToleranceTable(rules []ToleranceRule) ToleranceTable {
	out := make([]ToleranceRule, len(rules))
	copy(out, rules)
	return ToleranceTable{rules: out}
}

// DefaultToleranceTable returns the contractual policy from the supplier
// protocol table above.
func DefaultToleranceTable() ToleranceTable {
	return NewToleranceTable([]ToleranceRule{
		{Bucket: BucketCurrent, MinDist: -1 << 31, MaxDist: 1, AllowedPct: decimal.Zero},
		{Bucket: BucketNear, MinDist: 2, MaxDist: 5, AllowedPct: decimal.NewFromInt(5)},
		{Bucket: BucketMid, MinDist: 6, MaxDist: 14, AllowedPct: decimal.NewFromInt(10)},
		{Bucket: BucketFar, MinDist: 15, MaxDist: 24, AllowedPct: decimal.NewFromInt(15)},
		{Bucket: BucketHorizon, MinDist: 25, Unbounded: true, AllowedPct: decimal.NewFromInt(20)},
	})
}

// Classify maps a signed week distance to its bucket. known=false (the
// distance could not be computed) classifies as the most urgent bucket,
// identical to any distance <= 1.
func (t ToleranceTable) Classify(dist int, known bool) IntervalBucket {
	if !known {
		return t.rules[0].Bucket
	}
	for _, r := range t.rules {
		if dist < r.MinDist {
			continue
		}
		if r.Unbounded || dist <= r.MaxDist {
			return r.Bucket
		}
	}
	// Ranges are exhaustive; reaching here means a misconfigured custom
	// table. Fail toward the most urgent bucket.
	return t.rules[0].Bucket
}

// AllowedPct returns the allowed variation for a bucket. Unknown buckets
// get zero tolerance.
func (t ToleranceTable) AllowedPct(b IntervalBucket) decimal.Decimal {
	for _, r := range t.rules {
		if r.Bucket == b {
			return r.AllowedPct
		}
	}
	return decimal.Zero
}
