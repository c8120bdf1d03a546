/*
handlers.go - HTTP API handlers for the forecast variance service

PURPOSE:
  Exposes ingestion and analysis via REST. Handles HTTP request/response
  and JSON serialization, delegates everything else to the engine and the
  store. No business rule lives here.

ENDPOINTS:
  Ingestion (extractor-facing, API-key protected):
    POST /api/forecasts            Batch-ingest normalized forecast rows
    POST /api/deliveries           Batch-ingest delivery events
    PUT  /api/products/{code}/meta Set product line/capacity annotation

  Analysis:
    GET  /api/weeks                Distinct stored reference weeks
    POST /api/analysis/run         Run the engine, persist an audit row
    GET  /api/analysis/runs        Recent run audit records

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed body or quantities
  - 401: Missing/invalid API key on ingest routes
  - 422: Engine preconditions (invalid week, insufficient snapshots)
  - 500: Store failures

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - scheduler.go: Automated periodic runs
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/avocarbon/forecast-engine/engine"
	"github.com/avocarbon/forecast-engine/store"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  store.Store
	Engine *engine.Engine

	// APIKey guards the ingest routes. Empty disables the check (dev).
	APIKey string
}

// NewHandler creates a new handler.
func NewHandler(st store.Store, eng *engine.Engine, apiKey string) *Handler {
	return &Handler{Store: st, Engine: eng, APIKey: apiKey}
}

// =============================================================================
// INGESTION
// =============================================================================

// IngestForecasts handles POST /api/forecasts.
func (h *Handler) IngestForecasts(w http.ResponseWriter, r *http.Request) {
	var req IngestForecastsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Lines) == 0 {
		respondError(w, http.StatusBadRequest, "no forecast lines supplied")
		return
	}

	records := make([]store.ForecastRecord, 0, len(req.Lines))
	for i, lr := range req.Lines {
		if lr.Site == "" || lr.ClientCode == "" || lr.ProductCode == "" || lr.ReferenceWeek == "" {
			respondError(w, http.StatusBadRequest,
				fmt.Sprintf("line %d: site, client_code, product_code and reference_week are required", i))
			return
		}
		// Reference weeks must be canonical before they reach any
		// analysis; target weeks may be malformed (the engine routes
		// them to the most urgent bucket).
		if _, err := engine.ParseWeek(lr.ReferenceWeek); err != nil {
			respondError(w, http.StatusUnprocessableEntity,
				fmt.Sprintf("line %d: %v", i, err))
			return
		}
		rec, err := lr.toRecord()
		if err != nil {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("line %d: %v", i, err))
			return
		}
		records = append(records, rec)
	}

	n, err := h.Store.SaveForecasts(r.Context(), records)
	if err != nil {
		log.Printf("[API] forecast ingest failed: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to save forecast lines")
		return
	}
	respondJSON(w, http.StatusCreated, IngestResponse{Saved: n})
}

// IngestDeliveries handles POST /api/deliveries.
func (h *Handler) IngestDeliveries(w http.ResponseWriter, r *http.Request) {
	var req IngestDeliveriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Events) == 0 {
		respondError(w, http.StatusBadRequest, "no delivery events supplied")
		return
	}

	events := make([]engine.DeliveryEvent, 0, len(req.Events))
	for i, er := range req.Events {
		ev, err := er.toEvent()
		if err != nil {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("event %d: %v", i, err))
			return
		}
		events = append(events, ev)
	}

	n, err := h.Store.SaveDeliveries(r.Context(), events)
	if err != nil {
		log.Printf("[API] delivery ingest failed: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to save delivery events")
		return
	}
	respondJSON(w, http.StatusCreated, IngestResponse{Saved: n})
}

// PutProductMeta handles PUT /api/products/{code}/meta.
func (h *Handler) PutProductMeta(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	var req ProductMetaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	meta := engine.ProductMeta{ProductCode: code, Line: req.Line}
	if req.WeeklyCapacity != "" {
		c, err := decimal.NewFromString(req.WeeklyCapacity)
		if err != nil {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("bad weekly_capacity %q", req.WeeklyCapacity))
			return
		}
		meta.WeeklyCapacity = &c
	}

	if err := h.Store.PutProductMeta(r.Context(), meta); err != nil {
		log.Printf("[API] product meta update failed: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to save product meta")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"product_code": code})
}

// =============================================================================
// ANALYSIS
// =============================================================================

// ListWeeks handles GET /api/weeks.
func (h *Handler) ListWeeks(w http.ResponseWriter, r *http.Request) {
	weeks, err := h.Store.ListReferenceWeeks(r.Context())
	if err != nil {
		log.Printf("[API] week listing failed: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list reference weeks")
		return
	}
	respondJSON(w, http.StatusOK, map[string][]string{"reference_weeks": weeks})
}

// RunAnalysis handles POST /api/analysis/run.
func (h *Handler) RunAnalysis(w http.ResponseWriter, r *http.Request) {
	var req RunAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	mode := engine.Mode(req.Mode)
	switch mode {
	case engine.ModePairwise, engine.ModeSingleWeek:
	case "":
		mode = engine.ModePairwise
	default:
		respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown mode %q", req.Mode))
		return
	}

	weeks := req.ReferenceWeeks
	if len(weeks) == 0 {
		stored, err := h.Store.ListReferenceWeeks(r.Context())
		if err != nil {
			log.Printf("[API] week listing failed: %v", err)
			respondError(w, http.StatusInternalServerError, "failed to list reference weeks")
			return
		}
		weeks = stored
	}

	caps := engine.StaticCapabilities{
		ByKey:   make(map[engine.StockKey]engine.Capabilities, len(req.CapabilityOverrides)),
		Default: req.DefaultCapabilities.toEngine(),
	}
	for _, o := range req.CapabilityOverrides {
		key := engine.StockKey{Site: o.Site, ProductCode: o.ProductCode}
		caps.ByKey[key] = o.Capabilities.toEngine()
	}

	result, err := h.analyze(r.Context(), mode, weeks, caps, "api")
	if err != nil {
		if engine.IsClientError(err) {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		log.Printf("[API] analysis failed: %v", err)
		respondError(w, http.StatusInternalServerError, "analysis failed")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// analyze loads the inputs, runs the engine, and records the audit row.
func (h *Handler) analyze(ctx context.Context, mode engine.Mode, weeks []string, caps engine.CapabilityProvider, trigger string) (*AnalysisResponse, error) {
	forecasts, err := h.Store.ListForecasts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load forecasts: %w", err)
	}
	deliveries, err := h.Store.ListDeliveries(ctx)
	if err != nil {
		return nil, fmt.Errorf("load deliveries: %w", err)
	}
	products, err := h.Store.ListProductMeta(ctx)
	if err != nil {
		return nil, fmt.Errorf("load product meta: %w", err)
	}

	result, err := h.Engine.Analyze(engine.Input{
		Mode:           mode,
		ReferenceWeeks: weeks,
		Forecasts:      forecasts,
		Deliveries:     deliveries,
		Products:       products,
		Capabilities:   caps,
	})
	if err != nil {
		return nil, err
	}

	run := store.AnalysisRun{
		ID:        newRunID(),
		Mode:      string(result.Mode),
		Snapshot1: result.Snapshot1,
		Snapshot2: result.Snapshot2,
		Trigger:   trigger,
		RedRows:   len(result.RedSheet),
		GreenRows: len(result.GreenSheet),
		RanAt:     time.Now().UTC(),
	}
	if err := h.Store.RecordAnalysisRun(ctx, run); err != nil {
		// The analysis itself succeeded; a lost audit row is logged, not
		// surfaced as a failure.
		log.Printf("[API] failed to record analysis run %s: %v", run.ID, err)
	}

	resp := &AnalysisResponse{
		RunID:          run.ID,
		Mode:           string(result.Mode),
		Snapshot1:      result.Snapshot1,
		Snapshot2:      result.Snapshot2,
		InTransitTotal: engine.TotalInTransit(deliveries).String(),
		RedSheet:       make([]VarianceRowDTO, 0, len(result.RedSheet)),
		GreenSheet:     make([]VarianceRowDTO, 0, len(result.GreenSheet)),
		Summary:        make([]SummaryRowDTO, 0, len(result.Summary)),
	}
	for _, row := range result.RedSheet {
		resp.RedSheet = append(resp.RedSheet, varianceRowDTO(row))
	}
	for _, row := range result.GreenSheet {
		resp.GreenSheet = append(resp.GreenSheet, varianceRowDTO(row))
	}
	for _, row := range result.Summary {
		resp.Summary = append(resp.Summary, summaryRowDTO(row))
	}
	return resp, nil
}

// ListAnalysisRuns handles GET /api/analysis/runs.
func (h *Handler) ListAnalysisRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := h.Store.ListAnalysisRuns(r.Context(), limit)
	if err != nil {
		log.Printf("[API] run listing failed: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list analysis runs")
		return
	}

	out := make([]AnalysisRunDTO, 0, len(runs))
	for _, run := range runs {
		out = append(out, AnalysisRunDTO{
			ID:        run.ID,
			Mode:      run.Mode,
			Snapshot1: run.Snapshot1,
			Snapshot2: run.Snapshot2,
			Trigger:   run.Trigger,
			RedRows:   run.RedRows,
			GreenRows: run.GreenRows,
			RanAt:     run.RanAt.Format(time.RFC3339),
		})
	}
	respondJSON(w, http.StatusOK, map[string][]AnalysisRunDTO{"runs": out})
}

// =============================================================================
// HELPERS
// =============================================================================

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[API] failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// newRunID builds a sortable run identifier from the current time.
func newRunID() string {
	return "run-" + time.Now().UTC().Format("20060102T150405.000000000")
}
