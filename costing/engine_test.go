package costing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/cost-engine/costing"
	"github.com/warp/cost-engine/costing/store"
)

// =============================================================================
// END-TO-END REPORT TESTS
// =============================================================================

// julyWeek seeds a small but representative operation: one guide with a
// legacy cost, one escort double-booked on a day, one headphone vendor.
func julyWeek() *store.Memory {
	m := store.NewMemory()
	m.Resources = []costing.Resource{
		{ID: "g1", Kind: costing.KindGuide, Name: "Ana"},
		{ID: "e1", Kind: costing.KindEscort, Name: "Ben"},
		{ID: "h1", Kind: costing.KindHeadphone, Name: "AudioCo"},
	}
	m.Activities = []costing.Activity{
		{ID: "a1", Title: "City Walk"},
		{ID: "a2", Title: "Museum Tour"},
	}
	m.Occurrences = []costing.Occurrence{
		occurrence("o1", "a1", "2026-07-10", 42),
		occurrence("o2", "a2", "2026-07-10", 15),
		occurrence("o3", "a1", "2026-07-11", 20),
	}
	m.Assignments = []costing.Assignment{
		assignment("as-g1", "g1", costing.KindGuide, "o1"),
		assignment("as-e1", "e1", costing.KindEscort, "o1"),
		assignment("as-e2", "e1", costing.KindEscort, "o2"),
		assignment("as-h1", "h1", costing.KindHeadphone, "o1"),
	}
	m.LegacyActivityCosts = []costing.LegacyActivityCost{
		{ActivityID: "a1", Amount: costing.MustParseMoney("70")},
	}
	m.ResourceRates = []costing.ResourceRate{
		{ResourceKind: costing.KindEscort, ResourceID: "e1", Amount: costing.MustParseMoney("80"), RateType: costing.RateFlatDaily},
		{ResourceKind: costing.KindHeadphone, ResourceID: "h1", Amount: costing.MustParseMoney("2"), RateType: costing.RatePerPax},
	}
	return m
}

func julyRange() costing.DateRange {
	return costing.DateRange{Start: d("2026-07-06"), End: d("2026-07-12")}
}

func TestBuildReport_FullPipeline(t *testing.T) {
	// GIVEN: A guide (70), a double-booked escort (80, collapsed) and a
	//        headphone vendor (2 x 42)
	// WHEN: Building the report grouped by staff
	// THEN: Three items totaling 234, with the escort billed once

	engine := costing.NewEngine(julyWeek(), nil)
	report, err := engine.BuildReport(context.Background(), costing.ReportRequest{Range: julyRange()})
	require.NoError(t, err)

	require.Len(t, report.Items, 3)
	assert.True(t, report.TotalCost.Equal(costing.MustParseMoney("234")),
		"expected 234, got %s", report.TotalCost)
	assert.Equal(t, costing.GroupByStaff, report.GroupBy)
	assert.Equal(t, "EUR", report.Currency)
	assert.NotEmpty(t, report.RunID)

	// Sum of items always equals the report total.
	sum := costing.ZeroMoney()
	for _, it := range report.Items {
		sum = sum.Add(it.Cost)
	}
	assert.True(t, sum.Equal(report.TotalCost))

	// One bucket per resource; the escort bucket holds exactly one item.
	require.Len(t, report.Buckets, 3)
	for _, b := range report.Buckets {
		if b.Key == "escort:e1" {
			assert.Equal(t, 1, b.ItemCount)
		}
	}

	assert.Equal(t, 3, report.Diagnostics.ResolvedCount)
	assert.Equal(t, 0, report.Diagnostics.ZeroCostCount)
}

func TestBuildReport_KindFilter(t *testing.T) {
	// GIVEN: The same data
	// WHEN: Requesting only guides
	// THEN: Only the guide item appears

	engine := costing.NewEngine(julyWeek(), nil)
	report, err := engine.BuildReport(context.Background(), costing.ReportRequest{
		Range: julyRange(),
		Kinds: []costing.ResourceKind{costing.KindGuide},
	})
	require.NoError(t, err)

	require.Len(t, report.Items, 1)
	assert.Equal(t, costing.KindGuide, report.Items[0].ResourceKind)
	assert.True(t, report.TotalCost.Equal(costing.MustParseMoney("70")))
}

func TestBuildReport_InvalidRequests(t *testing.T) {
	engine := costing.NewEngine(julyWeek(), nil)
	ctx := context.Background()

	_, err := engine.BuildReport(ctx, costing.ReportRequest{})
	assert.ErrorIs(t, err, costing.ErrInvalidDateRange)

	_, err = engine.BuildReport(ctx, costing.ReportRequest{
		Range: costing.DateRange{Start: d("2026-07-12"), End: d("2026-07-06")},
	})
	assert.ErrorIs(t, err, costing.ErrInvalidDateRange)

	_, err = engine.BuildReport(ctx, costing.ReportRequest{
		Range: julyRange(),
		Kinds: []costing.ResourceKind{"pilot"},
	})
	assert.ErrorIs(t, err, costing.ErrUnknownResourceKind)

	_, err = engine.BuildReport(ctx, costing.ReportRequest{
		Range:   julyRange(),
		GroupBy: "vendor",
	})
	assert.ErrorIs(t, err, costing.ErrUnknownGroupBy)
}

func TestBuildReport_ReadFailureAbortsWholeReport(t *testing.T) {
	// GIVEN: The seasonal cost read fails
	// WHEN: Building the report
	// THEN: No partial report; the error names the failing query

	m := julyWeek()
	m.Fail = "seasonal_costs"
	m.FailErr = errors.New("connection reset")

	engine := costing.NewEngine(m, nil)
	report, err := engine.BuildReport(context.Background(), costing.ReportRequest{Range: julyRange()})

	assert.Nil(t, report)
	require.ErrorIs(t, err, costing.ErrReferenceRead)

	var rerr *costing.ReferenceReadError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "seasonal_costs", rerr.Query)
}

func TestBuildReport_DeterministicAcrossRuns(t *testing.T) {
	// GIVEN: The same store
	// WHEN: Building the report twice
	// THEN: Item order and totals are identical

	engine := costing.NewEngine(julyWeek(), nil)
	ctx := context.Background()

	first, err := engine.BuildReport(ctx, costing.ReportRequest{Range: julyRange()})
	require.NoError(t, err)
	second, err := engine.BuildReport(ctx, costing.ReportRequest{Range: julyRange()})
	require.NoError(t, err)

	require.Equal(t, len(first.Items), len(second.Items))
	for i := range first.Items {
		assert.Equal(t, first.Items[i].AssignmentID, second.Items[i].AssignmentID)
		assert.True(t, first.Items[i].Cost.Equal(second.Items[i].Cost))
	}
}
