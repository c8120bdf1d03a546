/*
cases.go - Deterministic case classification

PURPOSE:
  Assigns exactly one case identifier to every variance row that needs
  action, branching on the row's fields plus the externally supplied
  capability booleans. The engine never computes feasibility; it only
  branches on what planners assert.

STRUCTURE:
  The classifier is an explicit ordered list of (predicate, case) rules
  evaluated top-to-bottom, first match wins. The order is a policy choice,
  not an optimization: cheaper, less disruptive levers always beat
  costlier ones. Keeping the rules in a flat auditable list (rather than
  nested conditionals) lets each branch be unit-tested in isolation.

DECISION TREE:
  difference == 0          -> no case (and never reaches Classify)
  increase, immediate horizon, stock does not cover:
      air feasible         -> INC_CRITICAL_AIR
      otherwise            -> INC_CRITICAL_EXPEDITE
  increase, non-critical, in strict priority:
      FG stock covers                          -> INC_{IP,OOP}_STOCK
      normal capacity + material + logistics   -> INC_{IP,OOP}_NORMCAP
      overtime cap + material + (logi or air)  -> INC_{IP,OOP}_OT
      alt/subcontract + material + (logi/air)  -> INC_{IP,OOP}_ALT_SUBC
      swap feasible                            -> INC_SWAP_PARTIAL
      nothing covers the gap                   -> INC_MANUAL
  decrease:
      out of protocol      -> DEC_OOP
      WIP at risk          -> DEC_WIP_RISK
      otherwise            -> DEC_IP

SEE ALSO:
  - decision.go: Maps cases to payer/action decisions
*/
package engine

// CaseID is one label from the closed case set.
type CaseID string

const (
	CaseIncCriticalAir      CaseID = "INC_CRITICAL_AIR"
	CaseIncCriticalExpedite CaseID = "INC_CRITICAL_EXPEDITE"
	CaseIncIPStock          CaseID = "INC_IP_STOCK"
	CaseIncOOPStock         CaseID = "INC_OOP_STOCK"
	CaseIncIPNormCap        CaseID = "INC_IP_NORMCAP"
	CaseIncOOPNormCap       CaseID = "INC_OOP_NORMCAP"
	CaseIncIPOT             CaseID = "INC_IP_OT"
	CaseIncOOPOT            CaseID = "INC_OOP_OT"
	CaseIncIPAltSubc        CaseID = "INC_IP_ALT_SUBC"
	CaseIncOOPAltSubc       CaseID = "INC_OOP_ALT_SUBC"
	CaseIncSwapPartial      CaseID = "INC_SWAP_PARTIAL"
	CaseIncManual           CaseID = "INC_MANUAL"
	CaseDecOOP              CaseID = "DEC_OOP"
	CaseDecWIPRisk          CaseID = "DEC_WIP_RISK"
	CaseDecIP               CaseID = "DEC_IP"
)

// =============================================================================
// RULES
// =============================================================================

// caseRule is one (predicate, case) pair. The resolver receives the row
// and capabilities and returns the case when the predicate holds.
type caseRule struct {
	name    string
	applies func(row *VarianceRow, c Capabilities) bool
	resolve func(row *VarianceRow, c Capabilities) CaseID
}

// fixedCase builds a resolver returning a single case.
func fixedCase(id CaseID) func(*VarianceRow, Capabilities) CaseID {
	return func(*VarianceRow, Capabilities) CaseID { return id }
}

// protocolCase picks the in-protocol or out-of-protocol variant.
func protocolCase(ip, oop CaseID) func(*VarianceRow, Capabilities) CaseID {
	return func(_ *VarianceRow, c Capabilities) CaseID {
		if c.OutOfProtocol {
			return oop
		}
		return ip
	}
}

// increaseRules is the ordered increase decision tree. First match wins.
var increaseRules = []caseRule{
	{
		name: "critical air",
		applies: func(row *VarianceRow, c Capabilities) bool {
			return isCritical(row, c) && c.AirOK
		},
		resolve: fixedCase(CaseIncCriticalAir),
	},
	{
		name: "critical expedite",
		applies: func(row *VarianceRow, c Capabilities) bool {
			return isCritical(row, c)
		},
		resolve: fixedCase(CaseIncCriticalExpedite),
	},
	{
		name: "stock cover",
		applies: func(_ *VarianceRow, c Capabilities) bool {
			return c.StockCover
		},
		resolve: protocolCase(CaseIncIPStock, CaseIncOOPStock),
	},
	{
		name: "normal capacity",
		applies: func(_ *VarianceRow, c Capabilities) bool {
			return c.CapNormCover && c.MaterialOK && c.LogiOK
		},
		resolve: protocolCase(CaseIncIPNormCap, CaseIncOOPNormCap),
	},
	{
		name: "overtime capacity",
		applies: func(_ *VarianceRow, c Capabilities) bool {
			return c.OTCapCover && c.MaterialOK && (c.LogiOK || c.AirOK)
		},
		resolve: protocolCase(CaseIncIPOT, CaseIncOOPOT),
	},
	{
		name: "alternate site or subcontract",
		applies: func(_ *VarianceRow, c Capabilities) bool {
			return c.AltOrSubCover && c.MaterialOK && (c.LogiOK || c.AirOK)
		},
		resolve: protocolCase(CaseIncIPAltSubc, CaseIncOOPAltSubc),
	},
	{
		name: "swap",
		applies: func(_ *VarianceRow, c Capabilities) bool {
			return c.SwapOK
		},
		resolve: fixedCase(CaseIncSwapPartial),
	},
	{
		name: "manual escalation",
		applies: func(*VarianceRow, Capabilities) bool { return true },
		resolve: fixedCase(CaseIncManual),
	},
}

// decreaseRules is the ordered decrease decision tree.
var decreaseRules = []caseRule{
	{
		name: "out of protocol",
		applies: func(_ *VarianceRow, c Capabilities) bool {
			return c.OutOfProtocol
		},
		resolve: fixedCase(CaseDecOOP),
	},
	{
		name: "WIP risk",
		applies: func(_ *VarianceRow, c Capabilities) bool {
			return c.WIPRisk
		},
		resolve: fixedCase(CaseDecWIPRisk),
	},
	{
		name: "in protocol",
		applies: func(*VarianceRow, Capabilities) bool { return true },
		resolve: fixedCase(CaseDecIP),
	},
}

// isCritical: an increase at the immediate horizon that in-transit stock
// does not cover. Urgent because there is no time left to replan.
func isCritical(row *VarianceRow, c Capabilities) bool {
	return row.Key.Interval == BucketCurrent && !c.StockCover
}

// =============================================================================
// CLASSIFIER
// =============================================================================

// Classify assigns the case for one variance row. A zero difference means
// no case; the caller must not attach decisions to such rows. Every
// non-zero row terminates in a defined case: both rule lists end in a
// catch-all, so classification is total by construction.
func Classify(row *VarianceRow, c Capabilities) *CaseID {
	if row.Difference.IsZero() {
		return nil
	}
	rules := increaseRules
	if row.Difference.IsNegative() {
		rules = decreaseRules
	}
	for _, rule := range rules {
		if rule.applies(row, c) {
			id := rule.resolve(row, c)
			return &id
		}
	}
	return nil // unreachable: catch-all rules always match
}
