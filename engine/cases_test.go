package engine_test

import (
	"testing"

	"github.com/avocarbon/forecast-engine/engine"
	"github.com/shopspring/decimal"
)

// varianceRow builds a minimal row for classifier tests. difference drives
// the increase/decrease split; interval drives criticality.
func varianceRow(difference int64, interval engine.IntervalBucket) *engine.VarianceRow {
	return &engine.VarianceRow{
		Key: engine.GroupKey{
			Site:        "Tunisia",
			ClientCode:  "C00072",
			ProductCode: "VABC",
			Interval:    interval,
		},
		Difference: decimal.NewFromInt(difference),
	}
}

func classify(t *testing.T, row *engine.VarianceRow, c engine.Capabilities) engine.CaseID {
	t.Helper()
	id := engine.Classify(row, c)
	if id == nil {
		t.Fatal("expected a case, got none")
	}
	return *id
}

// =============================================================================
// INVARIANTS
// =============================================================================

func TestClassify_ZeroDifferenceHasNoCase(t *testing.T) {
	// Holds for every interval, even the immediate horizon.
	for _, bucket := range engine.Buckets() {
		row := varianceRow(0, bucket)
		if id := engine.Classify(row, engine.Capabilities{}); id != nil {
			t.Errorf("interval %q: expected no case for zero difference, got %s", bucket, *id)
		}
	}
}

func TestClassify_EveryNonZeroRowGetsExactlyOneCase(t *testing.T) {
	// The rule lists end in catch-alls, so classification is total even
	// with no capability asserted.
	if got := classify(t, varianceRow(10, engine.BucketMid), engine.Capabilities{}); got != engine.CaseIncManual {
		t.Errorf("bare increase: expected INC_MANUAL, got %s", got)
	}
	if got := classify(t, varianceRow(-10, engine.BucketMid), engine.Capabilities{}); got != engine.CaseDecIP {
		t.Errorf("bare decrease: expected DEC_IP, got %s", got)
	}
}

// =============================================================================
// INCREASE TREE
// =============================================================================

func TestClassify_CriticalIncrease(t *testing.T) {
	// Immediate horizon, stock does not cover: air wins when feasible.
	row := varianceRow(25, engine.BucketCurrent)

	if got := classify(t, row, engine.Capabilities{AirOK: true}); got != engine.CaseIncCriticalAir {
		t.Errorf("expected INC_CRITICAL_AIR, got %s", got)
	}
	if got := classify(t, row, engine.Capabilities{}); got != engine.CaseIncCriticalExpedite {
		t.Errorf("expected INC_CRITICAL_EXPEDITE, got %s", got)
	}
}

func TestClassify_CriticalOnlyAtImmediateHorizon(t *testing.T) {
	// Same capabilities, farther horizon: not critical, falls through the
	// normal priority ladder to manual.
	row := varianceRow(25, engine.BucketNear)
	if got := classify(t, row, engine.Capabilities{AirOK: true}); got != engine.CaseIncManual {
		t.Errorf("expected INC_MANUAL outside the immediate horizon, got %s", got)
	}
}

func TestClassify_StockCoverAtImmediateHorizonIsNotCritical(t *testing.T) {
	row := varianceRow(25, engine.BucketCurrent)
	if got := classify(t, row, engine.Capabilities{StockCover: true}); got != engine.CaseIncIPStock {
		t.Errorf("expected INC_IP_STOCK when stock covers, got %s", got)
	}
}

func TestClassify_IncreasePriorityLadder(t *testing.T) {
	// Cheapest feasible lever always wins; protocol flag only flips the
	// IP/OOP suffix.
	row := varianceRow(10, engine.BucketMid)

	cases := []struct {
		name string
		caps engine.Capabilities
		want engine.CaseID
	}{
		{
			name: "stock beats everything",
			caps: engine.Capabilities{StockCover: true, CapNormCover: true, MaterialOK: true, LogiOK: true},
			want: engine.CaseIncIPStock,
		},
		{
			name: "normal capacity needs material and logistics",
			caps: engine.Capabilities{CapNormCover: true, MaterialOK: true, LogiOK: true},
			want: engine.CaseIncIPNormCap,
		},
		{
			name: "normal capacity without logistics falls through",
			caps: engine.Capabilities{CapNormCover: true, MaterialOK: true},
			want: engine.CaseIncManual,
		},
		{
			name: "overtime accepts air instead of standard logistics",
			caps: engine.Capabilities{OTCapCover: true, MaterialOK: true, AirOK: true},
			want: engine.CaseIncIPOT,
		},
		{
			name: "alternate site after overtime",
			caps: engine.Capabilities{AltOrSubCover: true, MaterialOK: true, LogiOK: true},
			want: engine.CaseIncIPAltSubc,
		},
		{
			name: "swap when no capacity lever fits",
			caps: engine.Capabilities{SwapOK: true},
			want: engine.CaseIncSwapPartial,
		},
		{
			name: "swap has a single fixed identifier regardless of protocol",
			caps: engine.Capabilities{SwapOK: true, OutOfProtocol: true},
			want: engine.CaseIncSwapPartial,
		},
		{
			name: "out of protocol flips the suffix",
			caps: engine.Capabilities{StockCover: true, OutOfProtocol: true},
			want: engine.CaseIncOOPStock,
		},
		{
			name: "out of protocol overtime",
			caps: engine.Capabilities{OTCapCover: true, MaterialOK: true, LogiOK: true, OutOfProtocol: true},
			want: engine.CaseIncOOPOT,
		},
		{
			name: "out of protocol alternate site",
			caps: engine.Capabilities{AltOrSubCover: true, MaterialOK: true, AirOK: true, OutOfProtocol: true},
			want: engine.CaseIncOOPAltSubc,
		},
	}
	for _, tc := range cases {
		if got := classify(t, row, tc.caps); got != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

// =============================================================================
// DECREASE TREE
// =============================================================================

func TestClassify_DecreasePriority(t *testing.T) {
	row := varianceRow(-10, engine.BucketMid)

	if got := classify(t, row, engine.Capabilities{OutOfProtocol: true, WIPRisk: true}); got != engine.CaseDecOOP {
		t.Errorf("protocol breach outranks WIP risk: expected DEC_OOP, got %s", got)
	}
	if got := classify(t, row, engine.Capabilities{WIPRisk: true}); got != engine.CaseDecWIPRisk {
		t.Errorf("expected DEC_WIP_RISK, got %s", got)
	}
	if got := classify(t, row, engine.Capabilities{}); got != engine.CaseDecIP {
		t.Errorf("expected DEC_IP, got %s", got)
	}
}
