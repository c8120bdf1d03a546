package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/avocarbon/forecast-engine/engine"
	"github.com/avocarbon/forecast-engine/store"
	"github.com/avocarbon/forecast-engine/store/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func record(site, client, product, target, ref string, quantity int64) store.ForecastRecord {
	return store.ForecastRecord{
		ForecastLine: engine.ForecastLine{
			Site:          site,
			ClientCode:    client,
			ProductCode:   product,
			TargetWeek:    target,
			ReferenceWeek: ref,
			Quantity:      decimal.NewFromInt(quantity),
		},
		CumulatedQuantity: decimal.NewFromInt(quantity),
		EDIStatus:         "Forecast",
	}
}

func TestSaveForecasts_UpsertOnSameSnapshotLine(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	n, err := s.SaveForecasts(ctx, []store.ForecastRecord{
		record("Tunisia", "C00072", "VABC", "2025-W14", "2025-W10", 100),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Re-ingesting the same line updates the quantity, no duplicate row.
	_, err = s.SaveForecasts(ctx, []store.ForecastRecord{
		record("Tunisia", "C00072", "VABC", "2025-W14", "2025-W10", 120),
	})
	require.NoError(t, err)

	lines, err := s.ListForecasts(ctx)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.True(t, lines[0].Quantity.Equal(decimal.NewFromInt(120)),
		"expected updated quantity 120, got %s", lines[0].Quantity)
}

func TestListReferenceWeeks_DistinctAndChronological(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.SaveForecasts(ctx, []store.ForecastRecord{
		record("Tunisia", "C00072", "VABC", "2025-W14", "2025-W11", 1),
		record("Tunisia", "C00072", "VABC", "2025-W15", "2025-W11", 2),
		record("Tunisia", "C00072", "VABC", "2025-W14", "2025-W09", 3),
		record("Tunisia", "C00072", "VABC", "2025-W14", "2025-W10", 4),
	})
	require.NoError(t, err)

	weeks, err := s.ListReferenceWeeks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-W09", "2025-W10", "2025-W11"}, weeks)
}

func TestSaveDeliveries_AppendOnly(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	events := []engine.DeliveryEvent{
		{Site: "Tunisia", ProductCode: "VABC", DeliveryNo: "D-1", EventWeek: "2025-W10",
			Status: engine.StatusDispatched, Quantity: decimal.NewFromInt(100)},
		{Site: "Tunisia", ProductCode: "VABC", DeliveryNo: "D-1", EventWeek: "2025-W11",
			Status: engine.StatusDelivered, Quantity: decimal.NewFromInt(80)},
	}
	n, err := s.SaveDeliveries(ctx, events)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Identical facts accumulate; nothing is deduplicated.
	_, err = s.SaveDeliveries(ctx, events[:1])
	require.NoError(t, err)

	got, err := s.ListDeliveries(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, engine.StatusDispatched, got[0].Status)
	assert.True(t, got[0].Quantity.Equal(decimal.NewFromInt(100)))
}

func TestProductMeta_RoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	capacity := decimal.NewFromInt(5000)
	require.NoError(t, s.PutProductMeta(ctx, engine.ProductMeta{
		ProductCode:    "VABC",
		Line:           "L3",
		WeeklyCapacity: &capacity,
	}))
	require.NoError(t, s.PutProductMeta(ctx, engine.ProductMeta{
		ProductCode: "VXYZ",
	}))

	meta, err := s.ListProductMeta(ctx)
	require.NoError(t, err)
	require.Len(t, meta, 2)
	assert.Equal(t, "L3", meta["VABC"].Line)
	require.NotNil(t, meta["VABC"].WeeklyCapacity)
	assert.True(t, meta["VABC"].WeeklyCapacity.Equal(capacity))
	assert.Nil(t, meta["VXYZ"].WeeklyCapacity)
}

func TestAnalysisRuns_NewestFirst(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	base := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-1", "run-2", "run-3"} {
		require.NoError(t, s.RecordAnalysisRun(ctx, store.AnalysisRun{
			ID:        id,
			Mode:      "pairwise",
			Snapshot1: "2025-W10",
			Snapshot2: "2025-W11",
			Trigger:   "api",
			RedRows:   i,
			GreenRows: 10 - i,
			RanAt:     base.Add(time.Duration(i) * time.Hour),
		}))
	}

	runs, err := s.ListAnalysisRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-3", runs[0].ID)
	assert.Equal(t, "run-2", runs[1].ID)
}
