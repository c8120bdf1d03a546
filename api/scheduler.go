/*
scheduler.go - Automated variance analysis scheduler

PURPOSE:
  Periodically runs the variance analysis over the stored snapshots so
  planners get a fresh red/green sheet without clicking anything. EDI
  extracts land weekly; the scheduler picks up new snapshots as they
  arrive.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Compares the two most recent reference weeks (pairwise mode)
  - Falls back to single-week coverage mode when only one snapshot
    exists, and says so in the log
  - Records every run for audit and UI display

CONFIGURATION:
  - CheckInterval: How often to run (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewAnalysisScheduler(handler)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: RunAnalysis endpoint (manual trigger)
  - engine/engine.go: Analysis modes
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/avocarbon/forecast-engine/engine"
)

// AnalysisScheduler handles automated periodic variance runs.
type AnalysisScheduler struct {
	Handler       *Handler
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewAnalysisScheduler creates a new scheduler.
func NewAnalysisScheduler(handler *Handler) *AnalysisScheduler {
	return &AnalysisScheduler{
		Handler:       handler,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (as *AnalysisScheduler) Start() {
	as.mu.Lock()
	defer as.mu.Unlock()

	if !as.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	as.ticker = time.NewTicker(as.CheckInterval)
	as.wg.Add(1)

	go as.run()

	log.Printf("[Scheduler] Started with check interval: %v", as.CheckInterval)
}

// Stop stops the scheduler.
func (as *AnalysisScheduler) Stop() {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.ticker != nil {
		as.ticker.Stop()
		close(as.stop)
		as.wg.Wait()
		log.Println("[Scheduler] Stopped")
	}
}

func (as *AnalysisScheduler) run() {
	defer as.wg.Done()

	// Run immediately on start
	as.checkAndAnalyze()

	for {
		select {
		case <-as.ticker.C:
			as.checkAndAnalyze()
		case <-as.stop:
			return
		}
	}
}

func (as *AnalysisScheduler) checkAndAnalyze() {
	ctx := context.Background()

	weeks, err := as.Handler.Store.ListReferenceWeeks(ctx)
	if err != nil {
		log.Printf("[Scheduler] Error listing reference weeks: %v", err)
		return
	}

	var mode engine.Mode
	switch {
	case len(weeks) >= 2:
		mode = engine.ModePairwise
	case len(weeks) == 1:
		// One snapshot cannot be compared against anything; run the
		// coverage-only check instead of pretending to diff.
		mode = engine.ModeSingleWeek
		log.Printf("[Scheduler] Only one snapshot stored (%s), running coverage check", weeks[0])
	default:
		log.Println("[Scheduler] No snapshots stored, nothing to analyze")
		return
	}

	result, err := as.Handler.analyze(ctx, mode, weeks, engine.StaticCapabilities{}, "scheduler")
	if err != nil {
		log.Printf("[Scheduler] Analysis failed: %v", err)
		return
	}

	log.Printf("[Scheduler] Run %s completed (%s): %d red, %d green",
		result.RunID, result.Mode, len(result.RedSheet), len(result.GreenSheet))
}

// RunNow triggers an immediate run (for testing/admin).
func (as *AnalysisScheduler) RunNow() {
	as.checkAndAnalyze()
}

// GetNextRunTime returns when the next scheduled run will occur.
func (as *AnalysisScheduler) GetNextRunTime() time.Time {
	return time.Now().Add(as.CheckInterval)
}
