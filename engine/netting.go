/*
netting.go - In-transit inventory netting

PURPOSE:
  Folds delivery/shipment events into a single non-negative "effective
  in-transit" quantity per (site, product). This is the sole figure the
  variance evaluator checks immediate-horizon requirements against.

STATUS HANDLING:
  Dispatched, InTransit  -> add to outstanding exposure
  Delivered              -> subtract (already received)
  anything else          -> ignored, not counted toward exposure

CLAMPING:
  A negative running total only indicates data skew (more delivered than
  ever dispatched) and is clamped to zero after folding: the engine never
  reports negative availability.

STATE:
  Recomputed fresh on every run. There is no persisted running balance.

SEE ALSO:
  - variance.go: Coverage check at the immediate horizon
*/
package engine

import "github.com/shopspring/decimal"

// NetInTransit folds all delivery events into the effective in-transit
// quantity per stock key. Every value in the result is >= 0.
func NetInTransit(events []DeliveryEvent) map[StockKey]decimal.Decimal {
	totals := make(map[StockKey]decimal.Decimal)
	for _, ev := range events {
		key := StockKey{Site: ev.Site, ProductCode: ev.ProductCode}
		switch ev.Status {
		case StatusDispatched, StatusInTransit:
			totals[key] = totals[key].Add(ev.Quantity)
		case StatusDelivered:
			totals[key] = totals[key].Sub(ev.Quantity)
		}
	}
	for key, total := range totals {
		if total.IsNegative() {
			totals[key] = decimal.Zero
		}
	}
	return totals
}
