/*
loader.go - Reference data loading (fan-out, closure, batching)

PURPOSE:
  Fetches everything one report computation needs into an immutable Snapshot.
  The reads are mutually independent, so the loader issues them concurrently
  and waits for all of them before the resolver runs.

PHASES:
  1. Range/kind-filtered reads: resources, assignments, seasons, special
     dates, every cost-fact family, rules, rates. All fan out at once.
  2. ID-set reads derived from the assignments: occurrences, per-assignment
     overrides, service groups touching the loaded occurrences. Batched to
     respect the store's query-size limit.
  3. Closure: a service group member may fall outside the naive filtered set,
     so any member occurrence not yet loaded is fetched by explicit ID.

ERROR MODEL:
  Any read failure aborts the whole report. errgroup cancels the sibling
  reads, so a caller cancellation abandons in-flight work and no partial
  snapshot escapes.

SEE ALSO:
  - store/sqlite: the production ReferenceStore
  - costing/store: the in-memory ReferenceStore used in tests
*/
package costing

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxQueryIDs bounds how many identifiers a single fetch-by-ID read may
// carry. Larger sets are split into consecutive batches.
const maxQueryIDs = 200

// =============================================================================
// REFERENCE STORE - What the engine reads (and nothing else)
// =============================================================================

// ReferenceStore is the read-only boundary to the data store. All range
// filters are inclusive and pushed down to the store.
type ReferenceStore interface {
	// ListResources returns resources of the given kinds.
	ListResources(ctx context.Context, kinds []ResourceKind) ([]Resource, error)

	// ListActivities returns all activities.
	ListActivities(ctx context.Context) ([]Activity, error)

	// ListAssignments returns assignments of the given kinds whose
	// occurrence date falls inside the range.
	ListAssignments(ctx context.Context, rng DateRange, kinds []ResourceKind) ([]Assignment, error)

	// ListOccurrencesByID returns the occurrences with the given IDs.
	// Unknown IDs are omitted, not an error.
	ListOccurrencesByID(ctx context.Context, ids []OccurrenceID) ([]Occurrence, error)

	// ListSeasons returns seasons overlapping the range.
	ListSeasons(ctx context.Context, rng DateRange) ([]Season, error)

	// ListSpecialDates returns special dates inside the range.
	ListSpecialDates(ctx context.Context, rng DateRange) ([]SpecialDate, error)

	ListSeasonalCosts(ctx context.Context, rng DateRange) ([]SeasonalCost, error)
	ListSpecialDateCosts(ctx context.Context, rng DateRange) ([]SpecialDateCost, error)
	ListGuideSeasonalCosts(ctx context.Context, rng DateRange) ([]GuideSeasonalCost, error)
	ListGuideSpecialDateCosts(ctx context.Context, rng DateRange) ([]GuideSpecialDateCost, error)
	ListGuideSpecialRules(ctx context.Context) ([]GuideSpecialRule, error)
	ListLegacyActivityCosts(ctx context.Context) ([]LegacyActivityCost, error)
	ListLegacyGuideActivityCosts(ctx context.Context) ([]LegacyGuideActivityCost, error)

	// ListOverridesByAssignment returns manual overrides for the given
	// assignment IDs.
	ListOverridesByAssignment(ctx context.Context, ids []AssignmentID) ([]CostOverride, error)

	// ListResourceRates returns flat/per-pax rates for the given kinds.
	ListResourceRates(ctx context.Context, kinds []ResourceKind) ([]ResourceRate, error)

	// ListServiceGroupsByOccurrence returns every service group that has at
	// least one of the given occurrences as a member.
	ListServiceGroupsByOccurrence(ctx context.Context, ids []OccurrenceID) ([]ServiceGroup, error)
}

// =============================================================================
// SNAPSHOT - Immutable input to the resolver
// =============================================================================

// Snapshot is everything one report computation reads. Built once per
// request; never mutated afterwards.
type Snapshot struct {
	Range DateRange
	Kinds []ResourceKind

	Resources   []Resource
	Activities  []Activity
	Assignments []Assignment
	Occurrences []Occurrence

	Seasons      []Season
	SpecialDates []SpecialDate

	SeasonalCosts        []SeasonalCost
	SpecialDateCosts     []SpecialDateCost
	GuideSeasonalCosts   []GuideSeasonalCost
	GuideSpecialCosts    []GuideSpecialDateCost
	GuideSpecialRules    []GuideSpecialRule
	LegacyActivityCosts  []LegacyActivityCost
	LegacyGuideCosts     []LegacyGuideActivityCost

	Overrides     []CostOverride
	ResourceRates []ResourceRate
	ServiceGroups []ServiceGroup
}

// =============================================================================
// LOADER
// =============================================================================

// Loader builds Snapshots from a ReferenceStore.
type Loader struct {
	Store  ReferenceStore
	Logger *zap.Logger
}

// Load fetches the full snapshot for one report. Any failing read aborts
// the load and is surfaced with the failing query's identity.
func (l *Loader) Load(ctx context.Context, rng DateRange, kinds []ResourceKind) (*Snapshot, error) {
	snap := &Snapshot{Range: rng, Kinds: kinds}

	// Phase 1: independent range/kind-filtered reads.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(l.read(gctx, "resources", func(ctx context.Context) error {
		var err error
		snap.Resources, err = l.Store.ListResources(ctx, kinds)
		return err
	}))
	g.Go(l.read(gctx, "activities", func(ctx context.Context) error {
		var err error
		snap.Activities, err = l.Store.ListActivities(ctx)
		return err
	}))
	g.Go(l.read(gctx, "assignments", func(ctx context.Context) error {
		var err error
		snap.Assignments, err = l.Store.ListAssignments(ctx, rng, kinds)
		return err
	}))
	g.Go(l.read(gctx, "seasons", func(ctx context.Context) error {
		var err error
		snap.Seasons, err = l.Store.ListSeasons(ctx, rng)
		return err
	}))
	g.Go(l.read(gctx, "special_dates", func(ctx context.Context) error {
		var err error
		snap.SpecialDates, err = l.Store.ListSpecialDates(ctx, rng)
		return err
	}))
	g.Go(l.read(gctx, "seasonal_costs", func(ctx context.Context) error {
		var err error
		snap.SeasonalCosts, err = l.Store.ListSeasonalCosts(ctx, rng)
		return err
	}))
	g.Go(l.read(gctx, "special_date_costs", func(ctx context.Context) error {
		var err error
		snap.SpecialDateCosts, err = l.Store.ListSpecialDateCosts(ctx, rng)
		return err
	}))
	g.Go(l.read(gctx, "guide_seasonal_costs", func(ctx context.Context) error {
		var err error
		snap.GuideSeasonalCosts, err = l.Store.ListGuideSeasonalCosts(ctx, rng)
		return err
	}))
	g.Go(l.read(gctx, "guide_special_date_costs", func(ctx context.Context) error {
		var err error
		snap.GuideSpecialCosts, err = l.Store.ListGuideSpecialDateCosts(ctx, rng)
		return err
	}))
	g.Go(l.read(gctx, "guide_special_rules", func(ctx context.Context) error {
		var err error
		snap.GuideSpecialRules, err = l.Store.ListGuideSpecialRules(ctx)
		return err
	}))
	g.Go(l.read(gctx, "legacy_activity_costs", func(ctx context.Context) error {
		var err error
		snap.LegacyActivityCosts, err = l.Store.ListLegacyActivityCosts(ctx)
		return err
	}))
	g.Go(l.read(gctx, "legacy_guide_activity_costs", func(ctx context.Context) error {
		var err error
		snap.LegacyGuideCosts, err = l.Store.ListLegacyGuideActivityCosts(ctx)
		return err
	}))
	g.Go(l.read(gctx, "resource_rates", func(ctx context.Context) error {
		var err error
		snap.ResourceRates, err = l.Store.ListResourceRates(ctx, kinds)
		return err
	}))
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Phase 2: ID-set reads derived from the assignments.
	occurrenceIDs := make([]OccurrenceID, 0, len(snap.Assignments))
	assignmentIDs := make([]AssignmentID, 0, len(snap.Assignments))
	seenOcc := make(map[OccurrenceID]bool)
	for _, a := range snap.Assignments {
		assignmentIDs = append(assignmentIDs, a.ID)
		if !seenOcc[a.OccurrenceID] {
			seenOcc[a.OccurrenceID] = true
			occurrenceIDs = append(occurrenceIDs, a.OccurrenceID)
		}
	}

	g, gctx = errgroup.WithContext(ctx)
	g.Go(l.read(gctx, "occurrences_by_id", func(ctx context.Context) error {
		occs, err := l.loadOccurrences(ctx, occurrenceIDs)
		snap.Occurrences = occs
		return err
	}))
	g.Go(l.read(gctx, "overrides_by_assignment", func(ctx context.Context) error {
		for _, batch := range batchAssignmentIDs(assignmentIDs) {
			ovs, err := l.Store.ListOverridesByAssignment(ctx, batch)
			if err != nil {
				return err
			}
			snap.Overrides = append(snap.Overrides, ovs...)
		}
		return nil
	}))
	g.Go(l.read(gctx, "service_groups_by_occurrence", func(ctx context.Context) error {
		seenGroup := make(map[GroupID]bool)
		for _, batch := range batchOccurrenceIDs(occurrenceIDs) {
			groups, err := l.Store.ListServiceGroupsByOccurrence(ctx, batch)
			if err != nil {
				return err
			}
			for _, gr := range groups {
				if !seenGroup[gr.ID] {
					seenGroup[gr.ID] = true
					snap.ServiceGroups = append(snap.ServiceGroups, gr)
				}
			}
		}
		return nil
	}))
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Phase 3: occurrence closure. Group members may fall outside the
	// assignment-filtered set and must be fetched by explicit ID.
	for _, occ := range snap.Occurrences {
		seenOcc[occ.ID] = true
	}
	var missing []OccurrenceID
	for _, gr := range snap.ServiceGroups {
		for _, id := range gr.MemberIDs {
			if !seenOcc[id] {
				seenOcc[id] = true
				missing = append(missing, id)
			}
		}
	}
	if len(missing) > 0 {
		extra, err := l.loadOccurrences(ctx, missing)
		if err != nil {
			l.logReadFailure("group_member_occurrences", err)
			return nil, readErr("group_member_occurrences", err)
		}
		snap.Occurrences = append(snap.Occurrences, extra...)
	}

	return snap, nil
}

func (l *Loader) loadOccurrences(ctx context.Context, ids []OccurrenceID) ([]Occurrence, error) {
	var out []Occurrence
	for _, batch := range batchOccurrenceIDs(ids) {
		occs, err := l.Store.ListOccurrencesByID(ctx, batch)
		if err != nil {
			return nil, err
		}
		out = append(out, occs...)
	}
	return out, nil
}

// read wraps one named store read for errgroup, tagging failures with the
// query identity.
func (l *Loader) read(ctx context.Context, query string, fn func(ctx context.Context) error) func() error {
	return func() error {
		if err := fn(ctx); err != nil {
			l.logReadFailure(query, err)
			return readErr(query, err)
		}
		return nil
	}
}

func (l *Loader) logReadFailure(query string, err error) {
	if l.Logger != nil {
		l.Logger.Error("reference read failed",
			zap.String("query", query),
			zap.Error(err))
	}
}

// =============================================================================
// BATCHING
// =============================================================================

func batchOccurrenceIDs(ids []OccurrenceID) [][]OccurrenceID {
	var batches [][]OccurrenceID
	for len(ids) > maxQueryIDs {
		batches = append(batches, ids[:maxQueryIDs])
		ids = ids[maxQueryIDs:]
	}
	if len(ids) > 0 {
		batches = append(batches, ids)
	}
	return batches
}

func batchAssignmentIDs(ids []AssignmentID) [][]AssignmentID {
	var batches [][]AssignmentID
	for len(ids) > maxQueryIDs {
		batches = append(batches, ids[:maxQueryIDs])
		ids = ids[maxQueryIDs:]
	}
	if len(ids) > 0 {
		batches = append(batches, ids)
	}
	return batches
}
