package engine_test

import (
	"testing"

	"github.com/avocarbon/forecast-engine/engine"
	"github.com/shopspring/decimal"
)

func event(site, product string, status engine.DeliveryStatus, qty int64) engine.DeliveryEvent {
	return engine.DeliveryEvent{
		Site:        site,
		ProductCode: product,
		Status:      status,
		Quantity:    decimal.NewFromInt(qty),
	}
}

// =============================================================================
// NETTING
// =============================================================================

func TestNetInTransit_DispatchedAndInTransitAdd_DeliveredSubtracts(t *testing.T) {
	// GIVEN: Dispatched 100, Dispatched 50, Delivered 80 for one product
	// THEN: effective in-transit is 70
	net := engine.NetInTransit([]engine.DeliveryEvent{
		event("Tunisia", "VABC", engine.StatusDispatched, 100),
		event("Tunisia", "VABC", engine.StatusDispatched, 50),
		event("Tunisia", "VABC", engine.StatusDelivered, 80),
	})

	got := net[engine.StockKey{Site: "Tunisia", ProductCode: "VABC"}]
	if !got.Equal(decimal.NewFromInt(70)) {
		t.Errorf("expected 70, got %s", got)
	}
}

func TestNetInTransit_PerSiteAndProduct(t *testing.T) {
	net := engine.NetInTransit([]engine.DeliveryEvent{
		event("Tunisia", "VABC", engine.StatusInTransit, 40),
		event("Germany", "VABC", engine.StatusInTransit, 10),
		event("Tunisia", "VXYZ", engine.StatusDispatched, 5),
	})

	if got := net[engine.StockKey{Site: "Tunisia", ProductCode: "VABC"}]; !got.Equal(decimal.NewFromInt(40)) {
		t.Errorf("Tunisia/VABC: expected 40, got %s", got)
	}
	if got := net[engine.StockKey{Site: "Germany", ProductCode: "VABC"}]; !got.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Germany/VABC: expected 10, got %s", got)
	}
	if got := net[engine.StockKey{Site: "Tunisia", ProductCode: "VXYZ"}]; !got.Equal(decimal.NewFromInt(5)) {
		t.Errorf("Tunisia/VXYZ: expected 5, got %s", got)
	}
}

func TestNetInTransit_NegativeClampedToZero(t *testing.T) {
	// More delivered than ever dispatched is data skew, never negative
	// availability.
	net := engine.NetInTransit([]engine.DeliveryEvent{
		event("Tunisia", "VABC", engine.StatusDispatched, 30),
		event("Tunisia", "VABC", engine.StatusDelivered, 100),
	})

	got := net[engine.StockKey{Site: "Tunisia", ProductCode: "VABC"}]
	if !got.IsZero() {
		t.Errorf("expected clamp to zero, got %s", got)
	}
}

func TestNetInTransit_UnknownStatusIgnored(t *testing.T) {
	net := engine.NetInTransit([]engine.DeliveryEvent{
		event("Tunisia", "VABC", engine.StatusDispatched, 30),
		event("Tunisia", "VABC", engine.DeliveryStatus("Cancelled"), 500),
	})

	got := net[engine.StockKey{Site: "Tunisia", ProductCode: "VABC"}]
	if !got.Equal(decimal.NewFromInt(30)) {
		t.Errorf("expected 30 with unknown status ignored, got %s", got)
	}
}

func TestNetInTransit_NeverNegative_RandomizedFolds(t *testing.T) {
	// Property: whatever the event sequence, every netted value is >= 0.
	statuses := []engine.DeliveryStatus{
		engine.StatusDispatched, engine.StatusInTransit, engine.StatusDelivered,
	}
	var events []engine.DeliveryEvent
	for i := 0; i < 200; i++ {
		events = append(events, event("Tunisia", "VABC", statuses[i%3], int64((i*37)%91)))
		events = append(events, event("Germany", "VXYZ", statuses[(i+1)%3], int64((i*53)%77)))
	}

	for key, v := range engine.NetInTransit(events) {
		if v.IsNegative() {
			t.Errorf("negative in-transit for %v: %s", key, v)
		}
	}
}
