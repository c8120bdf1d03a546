/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's internal model from the external contract: extractors post
  normalized EDI rows here, renderers read red/green sheets from here.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

QUANTITIES:
  Carried as JSON strings and parsed through shopspring/decimal, so the
  wire format never loses precision to floats.

SEE ALSO:
  - handlers.go: Uses these types
  - engine/types.go: The internal model these map onto
*/
package api

import (
	"fmt"

	"github.com/avocarbon/forecast-engine/engine"
	"github.com/avocarbon/forecast-engine/store"
	"github.com/shopspring/decimal"
)

// =============================================================================
// INGESTION REQUESTS
// =============================================================================

// ForecastLineRequest is one normalized forecast row from an extractor.
type ForecastLineRequest struct {
	Site             string `json:"site"`
	ClientCode       string `json:"client_code"`
	ClientMaterialNo string `json:"client_material_no,omitempty"`
	ProductCode      string `json:"product_code"`
	TargetWeek       string `json:"target_week"`
	ReferenceWeek    string `json:"reference_week"`
	Quantity         string `json:"quantity"`
	CumulatedQty     string `json:"cumulated_quantity,omitempty"`
	EDIStatus        string `json:"edi_status,omitempty"`
	LastDeliveryDate string `json:"last_delivery_date,omitempty"`
	LastDeliveredQty string `json:"last_delivered_quantity,omitempty"`
}

// IngestForecastsRequest is the batch ingest body.
type IngestForecastsRequest struct {
	Lines []ForecastLineRequest `json:"lines"`
}

// DeliveryEventRequest is one normalized delivery event.
type DeliveryEventRequest struct {
	Site        string `json:"site"`
	ProductCode string `json:"product_code"`
	DeliveryNo  string `json:"delivery_no,omitempty"`
	EventWeek   string `json:"event_week,omitempty"`
	Status      string `json:"status"`
	Quantity    string `json:"quantity"`
}

// IngestDeliveriesRequest is the batch ingest body.
type IngestDeliveriesRequest struct {
	Events []DeliveryEventRequest `json:"events"`
}

// ProductMetaRequest sets one product's annotation.
type ProductMetaRequest struct {
	Line           string `json:"line,omitempty"`
	WeeklyCapacity string `json:"weekly_capacity,omitempty"`
}

// IngestResponse reports how many rows were written.
type IngestResponse struct {
	Saved int `json:"saved"`
}

// =============================================================================
// ANALYSIS REQUEST / RESPONSE
// =============================================================================

// CapabilitiesDTO mirrors engine.Capabilities on the wire.
type CapabilitiesDTO struct {
	OutOfProtocol bool `json:"out_of_protocol"`
	StockCover    bool `json:"stock_cover"`
	CapNormCover  bool `json:"cap_norm_cover"`
	OTCapCover    bool `json:"ot_cap_cover"`
	AltOrSubCover bool `json:"alt_or_sub_cover"`
	MaterialOK    bool `json:"material_ok"`
	LogiOK        bool `json:"logi_ok"`
	AirOK         bool `json:"air_ok"`
	SwapOK        bool `json:"swap_ok"`
	WIPRisk       bool `json:"wip_risk"`
	POCancelable  bool `json:"po_cancelable"`
	ReallocOK     bool `json:"realloc_ok"`
	StorageOK     bool `json:"storage_ok"`
	RSOK          bool `json:"rs_ok"`
}

// CapabilityOverride scopes capability flags to one site/product.
type CapabilityOverride struct {
	Site         string          `json:"site"`
	ProductCode  string          `json:"product_code"`
	Capabilities CapabilitiesDTO `json:"capabilities"`
}

// RunAnalysisRequest triggers one engine run. ReferenceWeeks may be
// omitted to analyze every stored snapshot.
type RunAnalysisRequest struct {
	Mode                string               `json:"mode"` // "pairwise" or "single_week"
	ReferenceWeeks      []string             `json:"reference_weeks,omitempty"`
	DefaultCapabilities CapabilitiesDTO      `json:"default_capabilities"`
	CapabilityOverrides []CapabilityOverride `json:"capability_overrides,omitempty"`
}

// VarianceRowDTO is one analyzed row for renderers.
type VarianceRowDTO struct {
	Site         string `json:"site"`
	ClientCode   string `json:"client_code"`
	ProductCode  string `json:"product_code"`
	Interval     string `json:"interval"`
	Line         string `json:"line,omitempty"`
	QtySnapshot1 string `json:"qty_snapshot1"`
	QtySnapshot2 string `json:"qty_snapshot2"`
	Difference   string `json:"difference"`
	VariationPct string `json:"variation_pct"`
	AllowedPct   string `json:"allowed_pct"`
	Violation    bool   `json:"violation"`

	InTransit        string `json:"in_transit,omitempty"`
	RequiredQuantity string `json:"required_quantity,omitempty"`
	CoverageOK       *bool  `json:"coverage_ok,omitempty"`
	DeliveryIssue    bool   `json:"delivery_issue"`

	CaseID     string `json:"case_id,omitempty"`
	WhoPays    string `json:"who_pays,omitempty"`
	Lever      string `json:"lever,omitempty"`
	WhatToDo   string `json:"what_to_do,omitempty"`
	NextAction string `json:"next_action,omitempty"`
}

// SummaryRowDTO is one cumulative drift row.
type SummaryRowDTO struct {
	Site           string `json:"site"`
	ClientCode     string `json:"client_code"`
	ProductCode    string `json:"product_code"`
	Interval       string `json:"interval"`
	FirstWeek      string `json:"first_week"`
	LastWeek       string `json:"last_week"`
	FirstQuantity  string `json:"first_quantity"`
	LastQuantity   string `json:"last_quantity"`
	CumulativeDiff string `json:"cumulative_diff"`
	CumulativePct  string `json:"cumulative_pct"`
}

// AnalysisResponse is the full run output.
type AnalysisResponse struct {
	RunID     string `json:"run_id"`
	Mode      string `json:"mode"`
	Snapshot1 string `json:"snapshot1,omitempty"`
	Snapshot2 string `json:"snapshot2,omitempty"`

	// InTransitTotal is the netted outstanding exposure across all stock
	// keys at run time.
	InTransitTotal string `json:"in_transit_total"`

	RedSheet   []VarianceRowDTO `json:"red_sheet"`
	GreenSheet []VarianceRowDTO `json:"green_sheet"`
	Summary    []SummaryRowDTO  `json:"summary"`
}

// AnalysisRunDTO is one audit record.
type AnalysisRunDTO struct {
	ID        string `json:"id"`
	Mode      string `json:"mode"`
	Snapshot1 string `json:"snapshot1,omitempty"`
	Snapshot2 string `json:"snapshot2,omitempty"`
	Trigger   string `json:"trigger"`
	RedRows   int    `json:"red_rows"`
	GreenRows int    `json:"green_rows"`
	RanAt     string `json:"ran_at"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func (r ForecastLineRequest) toRecord() (store.ForecastRecord, error) {
	quantity, err := decimal.NewFromString(r.Quantity)
	if err != nil {
		return store.ForecastRecord{}, fmt.Errorf("bad quantity %q: %w", r.Quantity, err)
	}
	rec := store.ForecastRecord{
		ForecastLine: engine.ForecastLine{
			Site:          r.Site,
			ClientCode:    r.ClientCode,
			ProductCode:   r.ProductCode,
			TargetWeek:    r.TargetWeek,
			ReferenceWeek: r.ReferenceWeek,
			Quantity:      quantity,
		},
		ClientMaterialNo: r.ClientMaterialNo,
		EDIStatus:        r.EDIStatus,
		LastDeliveryDate: r.LastDeliveryDate,
	}
	if r.CumulatedQty != "" {
		if rec.CumulatedQuantity, err = decimal.NewFromString(r.CumulatedQty); err != nil {
			return store.ForecastRecord{}, fmt.Errorf("bad cumulated_quantity %q: %w", r.CumulatedQty, err)
		}
	}
	if r.LastDeliveredQty != "" {
		q, err := decimal.NewFromString(r.LastDeliveredQty)
		if err != nil {
			return store.ForecastRecord{}, fmt.Errorf("bad last_delivered_quantity %q: %w", r.LastDeliveredQty, err)
		}
		rec.LastDeliveredQty = &q
	}
	return rec, nil
}

func (r DeliveryEventRequest) toEvent() (engine.DeliveryEvent, error) {
	quantity, err := decimal.NewFromString(r.Quantity)
	if err != nil {
		return engine.DeliveryEvent{}, fmt.Errorf("bad quantity %q: %w", r.Quantity, err)
	}
	switch engine.DeliveryStatus(r.Status) {
	case engine.StatusDispatched, engine.StatusInTransit, engine.StatusDelivered:
	default:
		return engine.DeliveryEvent{}, fmt.Errorf("unknown status %q", r.Status)
	}
	return engine.DeliveryEvent{
		Site:        r.Site,
		ProductCode: r.ProductCode,
		DeliveryNo:  r.DeliveryNo,
		EventWeek:   r.EventWeek,
		Status:      engine.DeliveryStatus(r.Status),
		Quantity:    quantity,
	}, nil
}

func (c CapabilitiesDTO) toEngine() engine.Capabilities {
	return engine.Capabilities{
		OutOfProtocol: c.OutOfProtocol,
		StockCover:    c.StockCover,
		CapNormCover:  c.CapNormCover,
		OTCapCover:    c.OTCapCover,
		AltOrSubCover: c.AltOrSubCover,
		MaterialOK:    c.MaterialOK,
		LogiOK:        c.LogiOK,
		AirOK:         c.AirOK,
		SwapOK:        c.SwapOK,
		WIPRisk:       c.WIPRisk,
		POCancelable:  c.POCancelable,
		ReallocOK:     c.ReallocOK,
		StorageOK:     c.StorageOK,
		RSOK:          c.RSOK,
	}
}

func varianceRowDTO(row engine.VarianceRow) VarianceRowDTO {
	dto := VarianceRowDTO{
		Site:          row.Key.Site,
		ClientCode:    row.Key.ClientCode,
		ProductCode:   row.Key.ProductCode,
		Interval:      string(row.Key.Interval),
		Line:          row.Line,
		QtySnapshot1:  row.QtySnapshot1.String(),
		QtySnapshot2:  row.QtySnapshot2.String(),
		Difference:    row.Difference.String(),
		VariationPct:  row.VariationPct.String(),
		AllowedPct:    row.AllowedPct.String(),
		Violation:     row.Violation,
		DeliveryIssue: row.DeliveryIssue,
		CoverageOK:    row.CoverageOK,
	}
	if row.InTransit != nil {
		dto.InTransit = row.InTransit.String()
	}
	if row.RequiredQuantity != nil {
		dto.RequiredQuantity = row.RequiredQuantity.String()
	}
	if row.Case != nil {
		dto.CaseID = string(*row.Case)
	}
	if row.Decision != nil {
		dto.WhoPays = string(row.Decision.WhoPays)
		dto.Lever = string(row.Decision.Lever)
		dto.WhatToDo = row.Decision.WhatToDo
		dto.NextAction = row.Decision.NextAction
	}
	return dto
}

func summaryRowDTO(row engine.SummaryRow) SummaryRowDTO {
	return SummaryRowDTO{
		Site:           row.Key.Site,
		ClientCode:     row.Key.ClientCode,
		ProductCode:    row.Key.ProductCode,
		Interval:       string(row.Key.Interval),
		FirstWeek:      row.FirstWeek,
		LastWeek:       row.LastWeek,
		FirstQuantity:  row.FirstQuantity.String(),
		LastQuantity:   row.LastQuantity.String(),
		CumulativeDiff: row.CumulativeDiff.String(),
		CumulativePct:  row.CumulativePct.String(),
	}
}
