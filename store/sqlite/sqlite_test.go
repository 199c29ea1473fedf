package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/cost-engine/costing"
	"github.com/warp/cost-engine/store/sqlite"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func mustDate(s string) costing.Date {
	d, err := costing.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func seedWeek(t *testing.T, st *sqlite.Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, st.SaveResource(ctx, costing.Resource{ID: "g1", Kind: costing.KindGuide, Name: "Ana"}))
	require.NoError(t, st.SaveResource(ctx, costing.Resource{ID: "e1", Kind: costing.KindEscort, Name: "Ben"}))
	require.NoError(t, st.SaveActivity(ctx, costing.Activity{ID: "a1", Title: "City Walk"}))
	require.NoError(t, st.SaveOccurrence(ctx, costing.Occurrence{
		ID: "o1", ActivityID: "a1", Date: mustDate("2026-07-10"), Time: "09:30", PaxSold: 20}))
	require.NoError(t, st.SaveOccurrence(ctx, costing.Occurrence{
		ID: "o2", ActivityID: "a1", Date: mustDate("2026-08-01"), PaxSold: 5}))
	require.NoError(t, st.SaveAssignment(ctx, costing.Assignment{
		ID: "as1", ResourceID: "g1", ResourceKind: costing.KindGuide, OccurrenceID: "o1"}))
	require.NoError(t, st.SaveAssignment(ctx, costing.Assignment{
		ID: "as2", ResourceID: "e1", ResourceKind: costing.KindEscort, OccurrenceID: "o1"}))
	require.NoError(t, st.SaveAssignment(ctx, costing.Assignment{
		ID: "as3", ResourceID: "g1", ResourceKind: costing.KindGuide, OccurrenceID: "o2"}))
	require.NoError(t, st.SaveLegacyActivityCost(ctx, costing.LegacyActivityCost{
		ActivityID: "a1", Amount: costing.MustParseMoney("70")}))
	require.NoError(t, st.SaveResourceRate(ctx, costing.ResourceRate{
		ResourceKind: costing.KindEscort, ResourceID: "e1",
		Amount: costing.MustParseMoney("80"), RateType: costing.RateFlatDaily}))
}

func julyRange() costing.DateRange {
	return costing.DateRange{Start: mustDate("2026-07-06"), End: mustDate("2026-07-12")}
}

// =============================================================================
// READ FILTERS
// =============================================================================

func TestListAssignments_RangeAndKindFilter(t *testing.T) {
	// GIVEN: Assignments inside and outside the requested week
	// WHEN: Listing for the week with all kinds
	// THEN: Only the in-range assignments return

	st := newTestStore(t)
	seedWeek(t, st)
	ctx := context.Background()

	assignments, err := st.ListAssignments(ctx, julyRange(), costing.AllKinds())
	require.NoError(t, err)
	require.Len(t, assignments, 2)

	// Kind filter
	guidesOnly, err := st.ListAssignments(ctx, julyRange(), []costing.ResourceKind{costing.KindGuide})
	require.NoError(t, err)
	require.Len(t, guidesOnly, 1)
	assert.Equal(t, costing.AssignmentID("as1"), guidesOnly[0].ID)
}

func TestListSeasons_OverlapNotContainment(t *testing.T) {
	// GIVEN: A season straddling the start of the requested range
	// WHEN: Listing seasons
	// THEN: It matches on overlap, containment is not required

	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveSeason(ctx, costing.Season{
		ID: "s1", Year: 2026, Name: "early summer",
		Start: mustDate("2026-06-15"), End: mustDate("2026-07-08")}))
	require.NoError(t, st.SaveSeason(ctx, costing.Season{
		ID: "s2", Year: 2026, Name: "autumn",
		Start: mustDate("2026-09-01"), End: mustDate("2026-10-31")}))

	seasons, err := st.ListSeasons(ctx, julyRange())
	require.NoError(t, err)
	require.Len(t, seasons, 1)
	assert.Equal(t, costing.SeasonID("s1"), seasons[0].ID)
}

func TestListOccurrencesByID_UnknownIDsOmitted(t *testing.T) {
	st := newTestStore(t)
	seedWeek(t, st)

	occs, err := st.ListOccurrencesByID(context.Background(),
		[]costing.OccurrenceID{"o1", "o-missing"})
	require.NoError(t, err)
	require.Len(t, occs, 1)
	assert.Equal(t, "2026-07-10", occs[0].Date.String())
	assert.Equal(t, 20, occs[0].PaxSold)
}

func TestAmounts_RoundTripAsDecimalText(t *testing.T) {
	// GIVEN: A rate with a fractional amount
	// WHEN: Saving and listing
	// THEN: The decimal survives exactly

	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveResourceRate(ctx, costing.ResourceRate{
		ResourceKind: costing.KindHeadphone, ResourceID: "h1",
		Amount: costing.MustParseMoney("2.35"), RateType: costing.RatePerPax}))

	rates, err := st.ListResourceRates(ctx, []costing.ResourceKind{costing.KindHeadphone})
	require.NoError(t, err)
	require.Len(t, rates, 1)
	assert.Equal(t, "2.35", rates[0].Amount.String())
	assert.Equal(t, costing.RatePerPax, rates[0].RateType)
}

// =============================================================================
// SERVICE GROUPS
// =============================================================================

func TestServiceGroups_ByOccurrenceWithMembers(t *testing.T) {
	// GIVEN: A group with two members and a manual cost
	// WHEN: Listing groups for one member occurrence
	// THEN: The group returns once with its full member list

	st := newTestStore(t)
	seedWeek(t, st)
	ctx := context.Background()

	manual := costing.MustParseMoney("150")
	require.NoError(t, st.SaveServiceGroup(ctx, costing.ServiceGroup{
		ID: "grp1", GuideID: "g1", ServiceDate: mustDate("2026-07-10"),
		ManualCost: &manual,
		MemberIDs:  []costing.OccurrenceID{"o1", "o2"},
	}))

	groups, err := st.ListServiceGroupsByOccurrence(ctx, []costing.OccurrenceID{"o1"})
	require.NoError(t, err)
	require.Len(t, groups, 1)

	g := groups[0]
	assert.Equal(t, costing.GroupID("grp1"), g.ID)
	assert.ElementsMatch(t, []costing.OccurrenceID{"o1", "o2"}, g.MemberIDs)
	require.NotNil(t, g.ManualCost)
	assert.Equal(t, "150", g.ManualCost.String())
}

func TestServiceGroups_SaveReplacesMembers(t *testing.T) {
	st := newTestStore(t)
	seedWeek(t, st)
	ctx := context.Background()

	group := costing.ServiceGroup{
		ID: "grp1", GuideID: "g1", ServiceDate: mustDate("2026-07-10"),
		MemberIDs: []costing.OccurrenceID{"o1", "o2"},
	}
	require.NoError(t, st.SaveServiceGroup(ctx, group))

	group.MemberIDs = []costing.OccurrenceID{"o2"}
	require.NoError(t, st.SaveServiceGroup(ctx, group))

	groups, err := st.ListServiceGroupsByOccurrence(ctx, []costing.OccurrenceID{"o2"})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, []costing.OccurrenceID{"o2"}, groups[0].MemberIDs)
	assert.Nil(t, groups[0].ManualCost)

	// The dropped member no longer resolves the group.
	none, err := st.ListServiceGroupsByOccurrence(ctx, []costing.OccurrenceID{"o1"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

// =============================================================================
// END TO END THROUGH THE ENGINE
// =============================================================================

func TestEngine_OnSQLiteStore(t *testing.T) {
	// GIVEN: The seeded week in SQLite
	// WHEN: Building a report through the full pipeline
	// THEN: The guide (70) and escort (80) both resolve

	st := newTestStore(t)
	seedWeek(t, st)

	engine := costing.NewEngine(st, nil)
	report, err := engine.BuildReport(context.Background(), costing.ReportRequest{Range: julyRange()})
	require.NoError(t, err)

	require.Len(t, report.Items, 2)
	assert.True(t, report.TotalCost.Equal(costing.MustParseMoney("150")),
		"expected 150, got %s", report.TotalCost)
	assert.Equal(t, 2, report.Diagnostics.ResolvedCount)
}
