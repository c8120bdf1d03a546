/*
aggregate.go - Multi-key grouping and snapshot joining

PURPOSE:
  Collapses raw forecast lines into grouped quantities per
  (site, client, product, horizon bucket) for a single snapshot, and joins
  the grouped results of two snapshots by full outer join on the group key.

JOIN SEMANTICS:
  A key present in only one snapshot is zero on the other side: a line
  that vanished is a full decrease to zero, a new line is a full increase
  from zero. Nothing is dropped.

ORDERING:
  Grouped output ordering carries no meaning. Callers that need stable
  output (the engine does, for byte-identical runs) sort explicitly.

SEE ALSO:
  - interval.go: Bucket assignment inside the group key
  - variance.go: Consumes the joined pairs
*/
package engine

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// GROUP AND SUM
// =============================================================================

// GroupAndSum aggregates the lines of one snapshot into quantities per
// group key. Only lines whose ReferenceWeek equals refWeek participate.
// The horizon bucket comes from the distance between the line's target
// week and its reference week; an uncomputable distance routes to the
// most urgent bucket.
func GroupAndSum(lines []ForecastLine, refWeek string, tolerances ToleranceTable) map[GroupKey]decimal.Decimal {
	groups := make(map[GroupKey]decimal.Decimal)
	for _, line := range lines {
		if line.ReferenceWeek != refWeek {
			continue
		}
		dist, known := WeekDiff(line.TargetWeek, line.ReferenceWeek)
		key := GroupKey{
			Site:        line.Site,
			ClientCode:  line.ClientCode,
			ProductCode: line.ProductCode,
			Interval:    tolerances.Classify(dist, known),
		}
		groups[key] = groups[key].Add(line.Quantity)
	}
	return groups
}

// =============================================================================
// SNAPSHOT JOIN
// =============================================================================

// JoinedPair is one group key with its quantity in each of the two
// snapshots being compared. Missing sides are zero.
type JoinedPair struct {
	Key  GroupKey
	Qty1 decimal.Decimal
	Qty2 decimal.Decimal
}

// JoinSnapshots full-outer-joins two grouped snapshots on the group key
// and returns the pairs in a deterministic order (site, client, product,
// horizon). Determinism here is what makes repeated engine runs
// byte-identical downstream.
func JoinSnapshots(s1, s2 map[GroupKey]decimal.Decimal) []JoinedPair {
	seen := make(map[GroupKey]struct{}, len(s1)+len(s2))
	pairs := make([]JoinedPair, 0, len(s1)+len(s2))

	add := func(key GroupKey) {
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		pairs = append(pairs, JoinedPair{Key: key, Qty1: s1[key], Qty2: s2[key]})
	}
	for key := range s1 {
		add(key)
	}
	for key := range s2 {
		add(key)
	}

	sort.Slice(pairs, func(i, j int) bool {
		return lessGroupKey(pairs[i].Key, pairs[j].Key)
	})
	return pairs
}

func lessGroupKey(a, b GroupKey) bool {
	if a.Site != b.Site {
		return a.Site < b.Site
	}
	if a.ClientCode != b.ClientCode {
		return a.ClientCode < b.ClientCode
	}
	if a.ProductCode != b.ProductCode {
		return a.ProductCode < b.ProductCode
	}
	return bucketRank(a.Interval) < bucketRank(b.Interval)
}

// DistinctReferenceWeeks returns the distinct reference weeks present in
// the lines, sorted chronologically.
func DistinctReferenceWeeks(lines []ForecastLine) []string {
	seen := make(map[string]struct{})
	var weeks []string
	for _, line := range lines {
		if _, ok := seen[line.ReferenceWeek]; !ok {
			seen[line.ReferenceWeek] = struct{}{}
			weeks = append(weeks, line.ReferenceWeek)
		}
	}
	SortWeeks(weeks)
	return weeks
}
