package engine_test

import (
	"testing"

	"github.com/avocarbon/forecast-engine/engine"
	"github.com/shopspring/decimal"
)

func line(site, client, product, target, ref string, quantity int64) engine.ForecastLine {
	return engine.ForecastLine{
		Site:          site,
		ClientCode:    client,
		ProductCode:   product,
		TargetWeek:    target,
		ReferenceWeek: ref,
		Quantity:      decimal.NewFromInt(quantity),
	}
}

// =============================================================================
// GROUP AND SUM
// =============================================================================

func TestGroupAndSum_CollapsesLinesIntoBuckets(t *testing.T) {
	// Two lines with target weeks in the same horizon bucket sum into one
	// grouped quantity; a third in another bucket stays separate.
	table := engine.DefaultToleranceTable()
	lines := []engine.ForecastLine{
		line("Tunisia", "C00072", "VABC", "2025-W12", "2025-W10", 40), // distance 2
		line("Tunisia", "C00072", "VABC", "2025-W14", "2025-W10", 60), // distance 4, same bucket
		line("Tunisia", "C00072", "VABC", "2025-W20", "2025-W10", 25), // distance 10
	}

	groups := engine.GroupAndSum(lines, "2025-W10", table)

	near := engine.GroupKey{Site: "Tunisia", ClientCode: "C00072", ProductCode: "VABC", Interval: engine.BucketNear}
	if got := groups[near]; !got.Equal(decimal.NewFromInt(100)) {
		t.Errorf("near bucket: expected 100, got %s", got)
	}
	mid := engine.GroupKey{Site: "Tunisia", ClientCode: "C00072", ProductCode: "VABC", Interval: engine.BucketMid}
	if got := groups[mid]; !got.Equal(decimal.NewFromInt(25)) {
		t.Errorf("mid bucket: expected 25, got %s", got)
	}
}

func TestGroupAndSum_FiltersByReferenceWeek(t *testing.T) {
	table := engine.DefaultToleranceTable()
	lines := []engine.ForecastLine{
		line("Tunisia", "C00072", "VABC", "2025-W12", "2025-W10", 40),
		line("Tunisia", "C00072", "VABC", "2025-W12", "2025-W11", 99),
	}

	groups := engine.GroupAndSum(lines, "2025-W10", table)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group from snapshot 2025-W10, got %d", len(groups))
	}
}

func TestGroupAndSum_MalformedTargetWeekRoutesToMostUrgentBucket(t *testing.T) {
	// One malformed upstream record must not crash the batch; it lands in
	// the zero-tolerance bucket instead.
	table := engine.DefaultToleranceTable()
	lines := []engine.ForecastLine{
		line("Tunisia", "C00072", "VABC", "", "2025-W10", 15),
	}

	groups := engine.GroupAndSum(lines, "2025-W10", table)
	key := engine.GroupKey{Site: "Tunisia", ClientCode: "C00072", ProductCode: "VABC", Interval: engine.BucketCurrent}
	if got := groups[key]; !got.Equal(decimal.NewFromInt(15)) {
		t.Errorf("expected 15 in the current bucket, got %s", got)
	}
}

// =============================================================================
// SNAPSHOT JOIN
// =============================================================================

func TestJoinSnapshots_FullOuterJoinWithZeroFill(t *testing.T) {
	table := engine.DefaultToleranceTable()
	s1 := engine.GroupAndSum([]engine.ForecastLine{
		line("Tunisia", "C00072", "VABC", "2025-W13", "2025-W10", 100),
		line("Tunisia", "C00072", "VOLD", "2025-W13", "2025-W10", 30),
	}, "2025-W10", table)
	s2 := engine.GroupAndSum([]engine.ForecastLine{
		line("Tunisia", "C00072", "VABC", "2025-W13", "2025-W11", 130),
		line("Tunisia", "C00072", "VNEW", "2025-W13", "2025-W11", 20),
	}, "2025-W11", table)

	pairs := engine.JoinSnapshots(s1, s2)
	byProduct := make(map[string]engine.JoinedPair)
	for _, p := range pairs {
		byProduct[p.Key.ProductCode] = p
	}

	// A vanished line is a full decrease to zero.
	old := byProduct["VOLD"]
	if !old.Qty1.Equal(decimal.NewFromInt(30)) || !old.Qty2.IsZero() {
		t.Errorf("VOLD: expected 30 -> 0, got %s -> %s", old.Qty1, old.Qty2)
	}
	// A new line is a full increase from zero.
	fresh := byProduct["VNEW"]
	if !fresh.Qty1.IsZero() || !fresh.Qty2.Equal(decimal.NewFromInt(20)) {
		t.Errorf("VNEW: expected 0 -> 20, got %s -> %s", fresh.Qty1, fresh.Qty2)
	}
}

func TestJoinSnapshots_DeterministicOrder(t *testing.T) {
	table := engine.DefaultToleranceTable()
	lines1 := []engine.ForecastLine{
		line("Tunisia", "C00072", "VZZZ", "2025-W13", "2025-W10", 1),
		line("Germany", "C00011", "VAAA", "2025-W13", "2025-W10", 2),
		line("Tunisia", "C00011", "VAAA", "2025-W13", "2025-W10", 3),
	}
	s1 := engine.GroupAndSum(lines1, "2025-W10", table)

	first := engine.JoinSnapshots(s1, nil)
	for i := 0; i < 10; i++ {
		again := engine.JoinSnapshots(s1, nil)
		for j := range first {
			if first[j].Key != again[j].Key {
				t.Fatalf("iteration %d: join order not stable at index %d", i, j)
			}
		}
	}
	if first[0].Key.Site != "Germany" {
		t.Errorf("expected Germany first in sorted order, got %s", first[0].Key.Site)
	}
}

func TestDistinctReferenceWeeks_SortedChronologically(t *testing.T) {
	weeks := engine.DistinctReferenceWeeks([]engine.ForecastLine{
		line("Tunisia", "C00072", "VABC", "2025-W13", "2025-W11", 1),
		line("Tunisia", "C00072", "VABC", "2025-W13", "2025-W09", 1),
		line("Tunisia", "C00072", "VABC", "2025-W13", "2025-W11", 1),
		line("Tunisia", "C00072", "VABC", "2025-W13", "2025-W10", 1),
	})

	want := []string{"2025-W09", "2025-W10", "2025-W11"}
	if len(weeks) != len(want) {
		t.Fatalf("expected %v, got %v", want, weeks)
	}
	for i := range want {
		if weeks[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, weeks)
		}
	}
}
