package engine_test

import (
	"strings"
	"testing"

	"github.com/avocarbon/forecast-engine/engine"
)

// =============================================================================
// STATIC TABLE
// =============================================================================

func TestResolve_StaticCases(t *testing.T) {
	table := engine.DefaultDecisionTable()

	d := table.Resolve(engine.CaseIncIPStock, engine.Capabilities{StockCover: true})
	if d.WhoPays != engine.PayerSupplier {
		t.Errorf("INC_IP_STOCK: expected Supplier pays, got %s", d.WhoPays)
	}
	if d.Lever != engine.LeverStock {
		t.Errorf("INC_IP_STOCK: expected stock lever, got %s", d.Lever)
	}
	if d.WhatToDo == "" || d.NextAction == "" {
		t.Error("INC_IP_STOCK: expected non-empty guidance text")
	}

	d = table.Resolve(engine.CaseIncOOPNormCap, engine.Capabilities{OutOfProtocol: true})
	if d.WhoPays != engine.PayerClient {
		t.Errorf("INC_OOP_NORMCAP: expected Client pays, got %s", d.WhoPays)
	}
}

func TestResolve_EveryCaseYieldsADecision(t *testing.T) {
	// Total coverage: no case that reaches the resolver may come back
	// without lever and guidance.
	table := engine.DefaultDecisionTable()
	all := []engine.CaseID{
		engine.CaseIncCriticalAir, engine.CaseIncCriticalExpedite,
		engine.CaseIncIPStock, engine.CaseIncOOPStock,
		engine.CaseIncIPNormCap, engine.CaseIncOOPNormCap,
		engine.CaseIncIPOT, engine.CaseIncOOPOT,
		engine.CaseIncIPAltSubc, engine.CaseIncOOPAltSubc,
		engine.CaseIncSwapPartial, engine.CaseIncManual,
		engine.CaseDecOOP, engine.CaseDecWIPRisk, engine.CaseDecIP,
	}
	for _, id := range all {
		d := table.Resolve(id, engine.Capabilities{})
		if d.Lever == "" {
			t.Errorf("%s: missing lever", id)
		}
		if d.WhatToDo == "" || d.NextAction == "" {
			t.Errorf("%s: missing guidance text", id)
		}
	}
}

// =============================================================================
// DYNAMIC CASES
// =============================================================================

func TestResolve_CriticalPayerFollowsProtocol(t *testing.T) {
	// Urgency does not change who pays for a pre-existing breach.
	table := engine.DefaultDecisionTable()

	d := table.Resolve(engine.CaseIncCriticalAir, engine.Capabilities{})
	if d.WhoPays != engine.PayerSupplier {
		t.Errorf("in protocol: expected Supplier pays, got %s", d.WhoPays)
	}
	d = table.Resolve(engine.CaseIncCriticalAir, engine.Capabilities{OutOfProtocol: true})
	if d.WhoPays != engine.PayerClient {
		t.Errorf("out of protocol: expected Client pays, got %s", d.WhoPays)
	}
	if d.Lever != engine.LeverAirShipment {
		t.Errorf("expected air shipment lever, got %s", d.Lever)
	}
}

func TestResolve_DecreaseLeverPriority(t *testing.T) {
	table := engine.DefaultDecisionTable()

	cases := []struct {
		name string
		caps engine.Capabilities
		want engine.Lever
	}{
		{
			name: "cancel wins over everything",
			caps: engine.Capabilities{POCancelable: true, ReallocOK: true, StorageOK: true, RSOK: true},
			want: engine.LeverCancelPO,
		},
		{
			name: "then reallocate",
			caps: engine.Capabilities{ReallocOK: true, StorageOK: true, RSOK: true},
			want: engine.LeverReallocate,
		},
		{
			name: "then storage",
			caps: engine.Capabilities{StorageOK: true, RSOK: true},
			want: engine.LeverStore,
		},
		{
			name: "then replanning",
			caps: engine.Capabilities{RSOK: true},
			want: engine.LeverReplan,
		},
		{
			name: "escalation only when nothing is feasible",
			caps: engine.Capabilities{},
			want: engine.LeverEscalate,
		},
	}
	for _, id := range []engine.CaseID{engine.CaseDecOOP, engine.CaseDecWIPRisk} {
		for _, tc := range cases {
			if d := table.Resolve(id, tc.caps); d.Lever != tc.want {
				t.Errorf("%s / %s: expected lever %q, got %q", id, tc.name, tc.want, d.Lever)
			}
		}
	}
}

func TestResolve_DecreasePayer(t *testing.T) {
	table := engine.DefaultDecisionTable()

	if d := table.Resolve(engine.CaseDecOOP, engine.Capabilities{OutOfProtocol: true}); d.WhoPays != engine.PayerClient {
		t.Errorf("DEC_OOP: expected Client pays, got %s", d.WhoPays)
	}
	if d := table.Resolve(engine.CaseDecWIPRisk, engine.Capabilities{WIPRisk: true}); d.WhoPays != engine.PayerSupplier {
		t.Errorf("DEC_WIP_RISK: expected Supplier pays, got %s", d.WhoPays)
	}
}

func TestResolve_ManualListsUnmetPredicates(t *testing.T) {
	// The escalation must name what was checked and found missing, so the
	// receiver can act without re-deriving the analysis.
	table := engine.DefaultDecisionTable()

	d := table.Resolve(engine.CaseIncManual, engine.Capabilities{MaterialOK: true})
	for _, gap := range []string{
		"no FG stock cover",
		"no normal capacity",
		"no overtime capacity",
		"no alternate site or subcontract capacity",
		"standard logistics not feasible",
		"air shipment not feasible",
		"no swap candidate",
	} {
		if !strings.Contains(d.WhatToDo, gap) {
			t.Errorf("expected gap %q in action text %q", gap, d.WhatToDo)
		}
	}
	if strings.Contains(d.WhatToDo, "material not available") {
		t.Errorf("material was available, must not be listed: %q", d.WhatToDo)
	}
	if d.Lever != engine.LeverEscalate {
		t.Errorf("expected escalate lever, got %s", d.Lever)
	}
}
