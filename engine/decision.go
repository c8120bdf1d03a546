/*
decision.go - Case to payer/action decision resolution

PURPOSE:
  Maps every case identifier to {whoPays, lever, whatToDo, nextAction}.
  Most cases are a static table lookup from injected policy; three are
  resolved dynamically at decision time:

  - The critical increase cases derive the payer from outOfProtocol:
    urgency does not change who is financially responsible for a
    pre-existing protocol breach.
  - DEC_OOP and DEC_WIP_RISK pick exactly one mitigation lever in fixed
    priority: cancel open order -> reallocate -> store under agreement ->
    replan production -> escalate.
  - INC_MANUAL lists the specific unmet capability predicates in its
    action text so the escalation is actionable rather than generic.

  Dynamic cases are computed, not looked up, precisely so the resolver is
  total: every case that reaches it yields a decision.

SEE ALSO:
  - cases.go: Produces the case identifiers
  - policy/: JSON-configurable decision tables
*/
package engine

import (
	"fmt"
	"strings"
)

// =============================================================================
// DECISION
// =============================================================================

// Payer identifies who carries the cost of a mitigation.
type Payer string

const (
	PayerSupplier Payer = "Supplier"
	PayerClient   Payer = "Client"
	PayerShared   Payer = "Shared"
)

// Lever is the single mitigation chosen for a case.
type Lever string

const (
	LeverStock       Lever = "ship from stock"
	LeverNormalCap   Lever = "normal capacity"
	LeverOvertime    Lever = "overtime"
	LeverAltSite     Lever = "alternate site / subcontract"
	LeverAirShipment Lever = "air shipment"
	LeverExpedite    Lever = "expedite / partial delivery"
	LeverSwap        Lever = "reference swap"
	LeverCancelPO    Lever = "cancel open order"
	LeverReallocate  Lever = "reallocate to other client"
	LeverStore       Lever = "store under agreement"
	LeverReplan      Lever = "replan production"
	LeverEscalate    Lever = "escalate"
)

// Decision is the resolved guidance attached to a red-sheet row.
type Decision struct {
	WhoPays    Payer
	Lever      Lever
	WhatToDo   string
	NextAction string
}

// =============================================================================
// DECISION TABLE
// =============================================================================

// DecisionEntry is one static table row.
type DecisionEntry struct {
	WhoPays    Payer
	Lever      Lever
	WhatToDo   string
	NextAction string
}

// DecisionTable is the injected case policy. Entries cover the statically
// resolvable cases; the dynamic ones are computed in Resolve.
type DecisionTable struct {
	entries map[CaseID]DecisionEntry
}

// NewDecisionTable builds a table from explicit entries.
func NewDecisionTable(entries map[CaseID]DecisionEntry) DecisionTable {
	out := make(map[CaseID]DecisionEntry, len(entries))
	for id, e := range entries {
		out[id] = e
	}
	return DecisionTable{entries: out}
}

// Entries returns a copy of the static rows, so callers can overlay
// partial overrides without touching the table itself.
func (t DecisionTable) Entries() map[CaseID]DecisionEntry {
	out := make(map[CaseID]DecisionEntry, len(t.entries))
	for id, e := range t.entries {
		out[id] = e
	}
	return out
}

// DefaultDecisionTable returns the supply-chain policy shipped with the
// engine. Text is rendered verbatim in reports and mails.
func DefaultDecisionTable() DecisionTable {
	return NewDecisionTable(map[CaseID]DecisionEntry{
		CaseIncCriticalAir: {
			Lever:      LeverAirShipment,
			WhatToDo:   "Urgent increase inside the frozen horizon; in-transit stock does not cover it. Arrange air shipment for the uncovered quantity.",
			NextAction: "Book air freight, confirm revised delivery slot with the client, track until receipt.",
		},
		CaseIncCriticalExpedite: {
			Lever:      LeverExpedite,
			WhatToDo:   "Urgent increase inside the frozen horizon; air shipment is not feasible. Expedite road freight and agree a partial-delivery schedule.",
			NextAction: "Negotiate partial deliveries with the client and expedite the remainder on the fastest routing.",
		},
		CaseIncIPStock: {
			WhoPays:    PayerSupplier,
			Lever:      LeverStock,
			WhatToDo:   "In-protocol increase covered by finished-goods stock. Serve it from stock.",
			NextAction: "Release the quantity from FG stock and confirm the delivery plan.",
		},
		CaseIncOOPStock: {
			WhoPays:    PayerClient,
			Lever:      LeverStock,
			WhatToDo:   "Out-of-protocol increase, still covered by finished-goods stock. Serve it from stock and record the protocol breach.",
			NextAction: "Release from FG stock; notify the client that the change exceeds the agreed flexibility.",
		},
		CaseIncIPNormCap: {
			WhoPays:    PayerSupplier,
			Lever:      LeverNormalCap,
			WhatToDo:   "In-protocol increase absorbed by normal capacity with material and logistics confirmed.",
			NextAction: "Insert the quantity into the master schedule within normal shifts.",
		},
		CaseIncOOPNormCap: {
			WhoPays:    PayerClient,
			Lever:      LeverNormalCap,
			WhatToDo:   "Out-of-protocol increase absorbed by normal capacity. Production proceeds; commercial terms apply to the breach.",
			NextAction: "Schedule within normal shifts; raise the protocol deviation with the client account manager.",
		},
		CaseIncIPOT: {
			WhoPays:    PayerSupplier,
			Lever:      LeverOvertime,
			WhatToDo:   "In-protocol increase requiring overtime. Material is available and a transport mode is confirmed.",
			NextAction: "Approve overtime shifts and lock the transport booking.",
		},
		CaseIncOOPOT: {
			WhoPays:    PayerClient,
			Lever:      LeverOvertime,
			WhatToDo:   "Out-of-protocol increase requiring overtime. The client carries the overtime premium.",
			NextAction: "Approve overtime shifts; invoice the premium per the logistics protocol.",
		},
		CaseIncIPAltSubc: {
			WhoPays:    PayerSupplier,
			Lever:      LeverAltSite,
			WhatToDo:   "In-protocol increase produced at an alternate site or subcontractor. Material and transport are confirmed.",
			NextAction: "Place the transfer order with the alternate site and align quality release.",
		},
		CaseIncOOPAltSubc: {
			WhoPays:    PayerClient,
			Lever:      LeverAltSite,
			WhatToDo:   "Out-of-protocol increase produced at an alternate site or subcontractor at the client's cost.",
			NextAction: "Place the transfer order; invoice the differential cost to the client.",
		},
		CaseIncSwapPartial: {
			WhoPays:    PayerShared,
			Lever:      LeverSwap,
			WhatToDo:   "No capacity lever covers the full increase; a reference swap with another product absorbs part of it.",
			NextAction: "Agree the swap and a partial-delivery plan for the remainder with the client.",
		},
		CaseDecIP: {
			WhoPays:    PayerSupplier,
			Lever:      LeverReplan,
			WhatToDo:   "In-protocol decrease. Absorb it in the production plan.",
			NextAction: "Rebalance the weekly schedule and release freed capacity.",
		},
	})
}

// =============================================================================
// RESOLVER
// =============================================================================

// Resolve produces the decision for one classified case. Rows without a
// case must not be passed in. Resolution never fails: every static case
// has a table entry and the dynamic cases are computed.
func (t DecisionTable) Resolve(id CaseID, c Capabilities) Decision {
	switch id {
	case CaseIncCriticalAir, CaseIncCriticalExpedite:
		entry := t.entries[id]
		return Decision{
			WhoPays:    payerByProtocol(c),
			Lever:      entry.Lever,
			WhatToDo:   entry.WhatToDo,
			NextAction: entry.NextAction,
		}
	case CaseDecOOP, CaseDecWIPRisk:
		return resolveDecrease(id, c)
	case CaseIncManual:
		return resolveManual(c)
	}
	entry := t.entries[id]
	return Decision{
		WhoPays:    entry.WhoPays,
		Lever:      entry.Lever,
		WhatToDo:   entry.WhatToDo,
		NextAction: entry.NextAction,
	}
}

// payerByProtocol: a pre-existing protocol breach shifts cost to the
// client even when the mitigation is urgent.
func payerByProtocol(c Capabilities) Payer {
	if c.OutOfProtocol {
		return PayerClient
	}
	return PayerSupplier
}

// resolveDecrease picks exactly one mitigation lever in fixed priority.
// Escalation is the last resort, chosen only when nothing else is feasible.
func resolveDecrease(id CaseID, c Capabilities) Decision {
	payer := PayerSupplier
	context := "Decrease puts work in progress at risk."
	if id == CaseDecOOP {
		payer = PayerClient
		context = "Decrease exceeds the contractually allowed variation."
	}

	lever := LeverEscalate
	action := "No mitigation lever is feasible; escalate to the client account manager."
	switch {
	case c.POCancelable:
		lever = LeverCancelPO
		action = "Cancel the open purchase order for the reduced quantity."
	case c.ReallocOK:
		lever = LeverReallocate
		action = "Reallocate the quantity to another client demand."
	case c.StorageOK:
		lever = LeverStore
		action = "Store the quantity under the commercial storage agreement."
	case c.RSOK:
		lever = LeverReplan
		action = "Replan production to absorb the reduction."
	}

	return Decision{
		WhoPays:    payer,
		Lever:      lever,
		WhatToDo:   context + " Apply the least disruptive feasible lever.",
		NextAction: action,
	}
}

// resolveManual builds the escalation decision listing every unmet
// capability predicate, so the receiver knows exactly what was checked.
func resolveManual(c Capabilities) Decision {
	var gaps []string
	if !c.StockCover {
		gaps = append(gaps, "no FG stock cover")
	}
	if !c.CapNormCover {
		gaps = append(gaps, "no normal capacity")
	}
	if !c.OTCapCover {
		gaps = append(gaps, "no overtime capacity")
	}
	if !c.AltOrSubCover {
		gaps = append(gaps, "no alternate site or subcontract capacity")
	}
	if !c.MaterialOK {
		gaps = append(gaps, "material not available")
	}
	if !c.LogiOK {
		gaps = append(gaps, "standard logistics not feasible")
	}
	if !c.AirOK {
		gaps = append(gaps, "air shipment not feasible")
	}
	if !c.SwapOK {
		gaps = append(gaps, "no swap candidate")
	}

	return Decision{
		WhoPays:    payerByProtocol(c),
		Lever:      LeverEscalate,
		WhatToDo:   fmt.Sprintf("No lever covers the increase (%s). Manual arbitration required.", strings.Join(gaps, ", ")),
		NextAction: "Escalate to plant management and the client account manager with the gap list.",
	}
}
