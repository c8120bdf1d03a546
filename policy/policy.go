/*
Package policy provides JSON to engine configuration conversion.

PURPOSE:
  Converts JSON policy definitions into the engine's ToleranceTable and
  DecisionTable. This lets supply-chain owners tune horizon tolerances and
  decision text without code changes - the tables are configuration, the
  engine only ever sees immutable injected values.

JSON SCHEMA:
  {
    "tolerances": [
      {"bucket": "W-1 to W", "min_dist": -9999, "max_dist": 1, "allowed_pct": "0"},
      {"bucket": "W+25 and more", "min_dist": 25, "unbounded": true, "allowed_pct": "20"}
    ],
    "decisions": {
      "INC_IP_STOCK": {
        "who_pays": "Supplier",
        "lever": "ship from stock",
        "what_to_do": "...",
        "next_action": "..."
      }
    }
  }

  Omitted sections fall back to the engine defaults, so a config may
  override only the tolerances or only part of the decision text.

VALIDATION:
  Tolerance rules must name known buckets and carry parseable decimal
  percentages. Decision entries must name known cases. Anything else is
  rejected at load time - a misconfigured policy must never reach a run.

USAGE:
  cfg, err := policy.Parse(jsonBytes)
  eng := engine.New(cfg.Tolerances, cfg.Decisions)

SEE ALSO:
  - engine/interval.go: ToleranceTable
  - engine/decision.go: DecisionTable
*/
package policy

import (
	"encoding/json"
	"fmt"

	"github.com/avocarbon/forecast-engine/engine"
	"github.com/shopspring/decimal"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ConfigJSON is the serialized policy document.
type ConfigJSON struct {
	Tolerances []ToleranceRuleJSON          `json:"tolerances,omitempty"`
	Decisions  map[string]DecisionEntryJSON `json:"decisions,omitempty"`
}

// ToleranceRuleJSON is one horizon rule. AllowedPct is a string to keep
// decimal precision out of float territory.
type ToleranceRuleJSON struct {
	Bucket     string `json:"bucket"`
	MinDist    int    `json:"min_dist"`
	MaxDist    int    `json:"max_dist,omitempty"`
	Unbounded  bool   `json:"unbounded,omitempty"`
	AllowedPct string `json:"allowed_pct"`
}

// DecisionEntryJSON is one static decision row.
type DecisionEntryJSON struct {
	WhoPays    string `json:"who_pays,omitempty"`
	Lever      string `json:"lever"`
	WhatToDo   string `json:"what_to_do"`
	NextAction string `json:"next_action"`
}

// Config is the parsed, engine-ready policy.
type Config struct {
	Tolerances engine.ToleranceTable
	Decisions  engine.DecisionTable
}

// =============================================================================
// PARSING
// =============================================================================

// Default returns the engine's built-in policy.
func Default() Config {
	return Config{
		Tolerances: engine.DefaultToleranceTable(),
		Decisions:  engine.DefaultDecisionTable(),
	}
}

// Parse converts a JSON policy document into engine configuration.
// Omitted sections keep the defaults.
func Parse(data []byte) (Config, error) {
	var doc ConfigJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return Config{}, fmt.Errorf("invalid policy JSON: %w", err)
	}

	cfg := Default()

	if len(doc.Tolerances) > 0 {
		table, err := parseTolerances(doc.Tolerances)
		if err != nil {
			return Config{}, err
		}
		cfg.Tolerances = table
	}
	if len(doc.Decisions) > 0 {
		table, err := parseDecisions(doc.Decisions)
		if err != nil {
			return Config{}, err
		}
		cfg.Decisions = table
	}
	return cfg, nil
}

func parseTolerances(rules []ToleranceRuleJSON) (engine.ToleranceTable, error) {
	known := make(map[engine.IntervalBucket]bool)
	for _, b := range engine.Buckets() {
		known[b] = true
	}

	out := make([]engine.ToleranceRule, 0, len(rules))
	for i, r := range rules {
		bucket := engine.IntervalBucket(r.Bucket)
		if !known[bucket] {
			return engine.ToleranceTable{}, fmt.Errorf("tolerance rule %d: unknown bucket %q", i, r.Bucket)
		}
		pctValue, err := decimal.NewFromString(r.AllowedPct)
		if err != nil {
			return engine.ToleranceTable{}, fmt.Errorf("tolerance rule %d (%s): bad allowed_pct %q", i, r.Bucket, r.AllowedPct)
		}
		if pctValue.IsNegative() {
			return engine.ToleranceTable{}, fmt.Errorf("tolerance rule %d (%s): allowed_pct must be >= 0", i, r.Bucket)
		}
		out = append(out, engine.ToleranceRule{
			Bucket:     bucket,
			MinDist:    r.MinDist,
			MaxDist:    r.MaxDist,
			Unbounded:  r.Unbounded,
			AllowedPct: pctValue,
		})
	}
	return engine.NewToleranceTable(out), nil
}

// parseDecisions overlays the JSON entries onto the default table. A
// partial decisions section must leave every unnamed case resolving to
// its shipped text.
func parseDecisions(entries map[string]DecisionEntryJSON) (engine.DecisionTable, error) {
	known := map[engine.CaseID]bool{
		engine.CaseIncCriticalAir: true, engine.CaseIncCriticalExpedite: true,
		engine.CaseIncIPStock: true, engine.CaseIncOOPStock: true,
		engine.CaseIncIPNormCap: true, engine.CaseIncOOPNormCap: true,
		engine.CaseIncIPOT: true, engine.CaseIncOOPOT: true,
		engine.CaseIncIPAltSubc: true, engine.CaseIncOOPAltSubc: true,
		engine.CaseIncSwapPartial: true, engine.CaseIncManual: true,
		engine.CaseDecOOP: true, engine.CaseDecWIPRisk: true, engine.CaseDecIP: true,
	}

	out := engine.DefaultDecisionTable().Entries()
	for name, e := range entries {
		id := engine.CaseID(name)
		if !known[id] {
			return engine.DecisionTable{}, fmt.Errorf("decision entry: unknown case %q", name)
		}
		payer, err := parsePayer(e.WhoPays)
		if err != nil {
			return engine.DecisionTable{}, fmt.Errorf("decision entry %s: %w", name, err)
		}
		out[id] = engine.DecisionEntry{
			WhoPays:    payer,
			Lever:      engine.Lever(e.Lever),
			WhatToDo:   e.WhatToDo,
			NextAction: e.NextAction,
		}
	}
	return engine.NewDecisionTable(out), nil
}

func parsePayer(s string) (engine.Payer, error) {
	switch s {
	case "":
		// Blank is allowed: the dynamic cases compute their payer.
		return "", nil
	case string(engine.PayerSupplier):
		return engine.PayerSupplier, nil
	case string(engine.PayerClient):
		return engine.PayerClient, nil
	case string(engine.PayerShared):
		return engine.PayerShared, nil
	}
	return "", fmt.Errorf("unknown payer %q", s)
}
