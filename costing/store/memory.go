/*
Package store provides an in-memory ReferenceStore.

PURPOSE:
  Backs engine tests and demos without a database. Mirrors the filter
  semantics of the SQLite store exactly: range filters are inclusive, ID-set
  reads omit unknown IDs, seasons match when they overlap the range.

  Not safe for concurrent seeding; seed first, then run reports. Reads are
  safe concurrently because nothing mutates after seeding.

SEE ALSO:
  - store/sqlite: the production implementation
*/
package store

import (
	"context"

	"github.com/warp/cost-engine/costing"
)

// Memory is an in-memory ReferenceStore seeded through its exported slices.
type Memory struct {
	Resources    []costing.Resource
	Activities   []costing.Activity
	Occurrences  []costing.Occurrence
	Assignments  []costing.Assignment
	Seasons      []costing.Season
	SpecialDates []costing.SpecialDate

	SeasonalCosts       []costing.SeasonalCost
	SpecialDateCosts    []costing.SpecialDateCost
	GuideSeasonalCosts  []costing.GuideSeasonalCost
	GuideSpecialCosts   []costing.GuideSpecialDateCost
	GuideSpecialRules   []costing.GuideSpecialRule
	LegacyActivityCosts []costing.LegacyActivityCost
	LegacyGuideCosts    []costing.LegacyGuideActivityCost

	Overrides     []costing.CostOverride
	ResourceRates []costing.ResourceRate
	ServiceGroups []costing.ServiceGroup

	// Fail, when set, makes the named query return FailErr. Used to test
	// the abort-on-read-failure contract.
	Fail    string
	FailErr error
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) failing(query string) error {
	if m.Fail == query {
		return m.FailErr
	}
	return nil
}

func kindSet(kinds []costing.ResourceKind) map[costing.ResourceKind]bool {
	set := make(map[costing.ResourceKind]bool, len(kinds))
	for _, k := range kinds {
		set[k] = true
	}
	return set
}

func (m *Memory) ListResources(ctx context.Context, kinds []costing.ResourceKind) ([]costing.Resource, error) {
	if err := m.failing("resources"); err != nil {
		return nil, err
	}
	set := kindSet(kinds)
	var out []costing.Resource
	for _, r := range m.Resources {
		if set[r.Kind] {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *Memory) ListActivities(ctx context.Context) ([]costing.Activity, error) {
	if err := m.failing("activities"); err != nil {
		return nil, err
	}
	return m.Activities, nil
}

func (m *Memory) ListAssignments(ctx context.Context, rng costing.DateRange, kinds []costing.ResourceKind) ([]costing.Assignment, error) {
	if err := m.failing("assignments"); err != nil {
		return nil, err
	}
	set := kindSet(kinds)
	occDates := make(map[costing.OccurrenceID]costing.Date, len(m.Occurrences))
	for _, o := range m.Occurrences {
		occDates[o.ID] = o.Date
	}
	var out []costing.Assignment
	for _, a := range m.Assignments {
		if !set[a.ResourceKind] {
			continue
		}
		date, ok := occDates[a.OccurrenceID]
		if !ok || !rng.Contains(date) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *Memory) ListOccurrencesByID(ctx context.Context, ids []costing.OccurrenceID) ([]costing.Occurrence, error) {
	if err := m.failing("occurrences_by_id"); err != nil {
		return nil, err
	}
	want := make(map[costing.OccurrenceID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []costing.Occurrence
	for _, o := range m.Occurrences {
		if want[o.ID] {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *Memory) ListSeasons(ctx context.Context, rng costing.DateRange) ([]costing.Season, error) {
	if err := m.failing("seasons"); err != nil {
		return nil, err
	}
	var out []costing.Season
	for _, s := range m.Seasons {
		if !s.End.Before(rng.Start) && !s.Start.After(rng.End) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *Memory) ListSpecialDates(ctx context.Context, rng costing.DateRange) ([]costing.SpecialDate, error) {
	if err := m.failing("special_dates"); err != nil {
		return nil, err
	}
	var out []costing.SpecialDate
	for _, sd := range m.SpecialDates {
		if rng.Contains(sd.Date) {
			out = append(out, sd)
		}
	}
	return out, nil
}

func (m *Memory) ListSeasonalCosts(ctx context.Context, rng costing.DateRange) ([]costing.SeasonalCost, error) {
	if err := m.failing("seasonal_costs"); err != nil {
		return nil, err
	}
	return m.SeasonalCosts, nil
}

func (m *Memory) ListSpecialDateCosts(ctx context.Context, rng costing.DateRange) ([]costing.SpecialDateCost, error) {
	if err := m.failing("special_date_costs"); err != nil {
		return nil, err
	}
	return m.SpecialDateCosts, nil
}

func (m *Memory) ListGuideSeasonalCosts(ctx context.Context, rng costing.DateRange) ([]costing.GuideSeasonalCost, error) {
	if err := m.failing("guide_seasonal_costs"); err != nil {
		return nil, err
	}
	return m.GuideSeasonalCosts, nil
}

func (m *Memory) ListGuideSpecialDateCosts(ctx context.Context, rng costing.DateRange) ([]costing.GuideSpecialDateCost, error) {
	if err := m.failing("guide_special_date_costs"); err != nil {
		return nil, err
	}
	return m.GuideSpecialCosts, nil
}

func (m *Memory) ListGuideSpecialRules(ctx context.Context) ([]costing.GuideSpecialRule, error) {
	if err := m.failing("guide_special_rules"); err != nil {
		return nil, err
	}
	return m.GuideSpecialRules, nil
}

func (m *Memory) ListLegacyActivityCosts(ctx context.Context) ([]costing.LegacyActivityCost, error) {
	if err := m.failing("legacy_activity_costs"); err != nil {
		return nil, err
	}
	return m.LegacyActivityCosts, nil
}

func (m *Memory) ListLegacyGuideActivityCosts(ctx context.Context) ([]costing.LegacyGuideActivityCost, error) {
	if err := m.failing("legacy_guide_activity_costs"); err != nil {
		return nil, err
	}
	return m.LegacyGuideCosts, nil
}

func (m *Memory) ListOverridesByAssignment(ctx context.Context, ids []costing.AssignmentID) ([]costing.CostOverride, error) {
	if err := m.failing("overrides_by_assignment"); err != nil {
		return nil, err
	}
	want := make(map[costing.AssignmentID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []costing.CostOverride
	for _, ov := range m.Overrides {
		if want[ov.AssignmentID] {
			out = append(out, ov)
		}
	}
	return out, nil
}

func (m *Memory) ListResourceRates(ctx context.Context, kinds []costing.ResourceKind) ([]costing.ResourceRate, error) {
	if err := m.failing("resource_rates"); err != nil {
		return nil, err
	}
	set := kindSet(kinds)
	var out []costing.ResourceRate
	for _, r := range m.ResourceRates {
		if set[r.ResourceKind] {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *Memory) ListServiceGroupsByOccurrence(ctx context.Context, ids []costing.OccurrenceID) ([]costing.ServiceGroup, error) {
	if err := m.failing("service_groups_by_occurrence"); err != nil {
		return nil, err
	}
	want := make(map[costing.OccurrenceID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []costing.ServiceGroup
	for _, g := range m.ServiceGroups {
		for _, member := range g.MemberIDs {
			if want[member] {
				out = append(out, g)
				break
			}
		}
	}
	return out, nil
}
