/*
registry.go - Indexed view over a loaded Snapshot

PURPOSE:
  The resolver needs constant-time lookups: override by assignment, special
  date by calendar date, seasonal cost by (activity, season), guide facts by
  (guide, activity, ...), rate by (kind, resource), service group by member
  occurrence. The Registry builds those indexes once per report and offers
  nothing beyond retrieval.

DETERMINISM:
  Seasons may overlap. SeasonsContaining returns matches sorted by ascending
  start date, ties broken by ascending season ID, so the guide-seasonal
  short-circuit always picks the earliest-starting season instead of
  depending on iteration order.
*/
package costing

import (
	"sort"
)

// =============================================================================
// COMPOSITE KEYS
// =============================================================================

type activitySeasonKey struct {
	Activity ActivityID
	Season   SeasonID
}

type activitySpecialKey struct {
	Activity ActivityID
	Special  SpecialDateID
}

type guideActivityKey struct {
	Guide    ResourceID
	Activity ActivityID
}

type guideActivitySeasonKey struct {
	Guide    ResourceID
	Activity ActivityID
	Season   SeasonID
}

type guideActivitySpecialKey struct {
	Guide    ResourceID
	Activity ActivityID
	Special  SpecialDateID
}

type kindResourceKey struct {
	Kind     ResourceKind
	Resource ResourceID
}

// =============================================================================
// REGISTRY
// =============================================================================

// Registry is the indexed, immutable view the resolver and deduplicator
// work against.
type Registry struct {
	resources   map[ResourceID]Resource
	activities  map[ActivityID]Activity
	occurrences map[OccurrenceID]Occurrence

	overrides map[AssignmentID]Money

	specialByDate map[Date]SpecialDate
	seasons       []Season // sorted: start asc, then ID asc

	seasonalCost     map[activitySeasonKey]Money
	specialCost      map[activitySpecialKey]Money
	guideSeasonal    map[guideActivitySeasonKey]Money
	guideSpecial     map[guideActivitySpecialKey]Money
	specialRules     map[guideActivityKey]bool
	legacyActivity   map[ActivityID]Money
	legacyGuide      map[guideActivityKey]Money

	rates          map[kindResourceKey]ResourceRate
	groupByMember  map[OccurrenceID]*ServiceGroup
	groupsByID     map[GroupID]*ServiceGroup
}

// NewRegistry indexes a snapshot.
func NewRegistry(snap *Snapshot) *Registry {
	r := &Registry{
		resources:      make(map[ResourceID]Resource, len(snap.Resources)),
		activities:     make(map[ActivityID]Activity, len(snap.Activities)),
		occurrences:    make(map[OccurrenceID]Occurrence, len(snap.Occurrences)),
		overrides:      make(map[AssignmentID]Money, len(snap.Overrides)),
		specialByDate:  make(map[Date]SpecialDate, len(snap.SpecialDates)),
		seasonalCost:   make(map[activitySeasonKey]Money, len(snap.SeasonalCosts)),
		specialCost:    make(map[activitySpecialKey]Money, len(snap.SpecialDateCosts)),
		guideSeasonal:  make(map[guideActivitySeasonKey]Money, len(snap.GuideSeasonalCosts)),
		guideSpecial:   make(map[guideActivitySpecialKey]Money, len(snap.GuideSpecialCosts)),
		specialRules:   make(map[guideActivityKey]bool, len(snap.GuideSpecialRules)),
		legacyActivity: make(map[ActivityID]Money, len(snap.LegacyActivityCosts)),
		legacyGuide:    make(map[guideActivityKey]Money, len(snap.LegacyGuideCosts)),
		rates:          make(map[kindResourceKey]ResourceRate, len(snap.ResourceRates)),
		groupByMember:  make(map[OccurrenceID]*ServiceGroup),
		groupsByID:     make(map[GroupID]*ServiceGroup, len(snap.ServiceGroups)),
	}

	for _, res := range snap.Resources {
		r.resources[res.ID] = res
	}
	for _, a := range snap.Activities {
		r.activities[a.ID] = a
	}
	for _, o := range snap.Occurrences {
		r.occurrences[o.ID] = o
	}
	for _, ov := range snap.Overrides {
		r.overrides[ov.AssignmentID] = ov.Amount
	}
	for _, sd := range snap.SpecialDates {
		r.specialByDate[sd.Date] = sd
	}

	r.seasons = make([]Season, len(snap.Seasons))
	copy(r.seasons, snap.Seasons)
	sort.Slice(r.seasons, func(i, j int) bool {
		if !r.seasons[i].Start.Equal(r.seasons[j].Start) {
			return r.seasons[i].Start.Before(r.seasons[j].Start)
		}
		return r.seasons[i].ID < r.seasons[j].ID
	})

	for _, c := range snap.SeasonalCosts {
		r.seasonalCost[activitySeasonKey{c.ActivityID, c.SeasonID}] = c.Amount
	}
	for _, c := range snap.SpecialDateCosts {
		r.specialCost[activitySpecialKey{c.ActivityID, c.SpecialDateID}] = c.Amount
	}
	for _, c := range snap.GuideSeasonalCosts {
		r.guideSeasonal[guideActivitySeasonKey{c.GuideID, c.ActivityID, c.SeasonID}] = c.Amount
	}
	for _, c := range snap.GuideSpecialCosts {
		r.guideSpecial[guideActivitySpecialKey{c.GuideID, c.ActivityID, c.SpecialDateID}] = c.Amount
	}
	for _, rule := range snap.GuideSpecialRules {
		r.specialRules[guideActivityKey{rule.GuideID, rule.ActivityID}] = true
	}
	for _, c := range snap.LegacyActivityCosts {
		r.legacyActivity[c.ActivityID] = c.Amount
	}
	for _, c := range snap.LegacyGuideCosts {
		r.legacyGuide[guideActivityKey{c.GuideID, c.ActivityID}] = c.Amount
	}
	for _, rate := range snap.ResourceRates {
		r.rates[kindResourceKey{rate.ResourceKind, rate.ResourceID}] = rate
	}

	for i := range snap.ServiceGroups {
		grp := &snap.ServiceGroups[i]
		r.groupsByID[grp.ID] = grp
		for _, member := range grp.MemberIDs {
			r.groupByMember[member] = grp
		}
	}

	return r
}

// =============================================================================
// LOOKUPS
// =============================================================================

func (r *Registry) Resource(id ResourceID) (Resource, bool) {
	res, ok := r.resources[id]
	return res, ok
}

func (r *Registry) Activity(id ActivityID) (Activity, bool) {
	a, ok := r.activities[id]
	return a, ok
}

func (r *Registry) Occurrence(id OccurrenceID) (Occurrence, bool) {
	o, ok := r.occurrences[id]
	return o, ok
}

// Override returns the manual cost for an assignment, if one exists.
func (r *Registry) Override(id AssignmentID) (Money, bool) {
	m, ok := r.overrides[id]
	return m, ok
}

// SpecialDateOn returns the special date for a calendar date, if any.
func (r *Registry) SpecialDateOn(d Date) (SpecialDate, bool) {
	sd, ok := r.specialByDate[d]
	return sd, ok
}

// SeasonsContaining returns every season containing d, earliest start first.
func (r *Registry) SeasonsContaining(d Date) []Season {
	var out []Season
	for _, s := range r.seasons {
		if s.Contains(d) {
			out = append(out, s)
		}
	}
	return out
}

func (r *Registry) SeasonalCost(activity ActivityID, season SeasonID) (Money, bool) {
	m, ok := r.seasonalCost[activitySeasonKey{activity, season}]
	return m, ok
}

func (r *Registry) SpecialDateCost(activity ActivityID, special SpecialDateID) (Money, bool) {
	m, ok := r.specialCost[activitySpecialKey{activity, special}]
	return m, ok
}

func (r *Registry) GuideSeasonalCost(guide ResourceID, activity ActivityID, season SeasonID) (Money, bool) {
	m, ok := r.guideSeasonal[guideActivitySeasonKey{guide, activity, season}]
	return m, ok
}

func (r *Registry) GuideSpecialDateCost(guide ResourceID, activity ActivityID, special SpecialDateID) (Money, bool) {
	m, ok := r.guideSpecial[guideActivitySpecialKey{guide, activity, special}]
	return m, ok
}

// HasSpecialRule reports whether the (guide, activity) pair is governed by
// guide-specific cost facts.
func (r *Registry) HasSpecialRule(guide ResourceID, activity ActivityID) bool {
	return r.specialRules[guideActivityKey{guide, activity}]
}

func (r *Registry) LegacyActivityCost(activity ActivityID) (Money, bool) {
	m, ok := r.legacyActivity[activity]
	return m, ok
}

func (r *Registry) LegacyGuideActivityCost(guide ResourceID, activity ActivityID) (Money, bool) {
	m, ok := r.legacyGuide[guideActivityKey{guide, activity}]
	return m, ok
}

// Rate returns the flat/per-pax rate for a non-guide resource.
func (r *Registry) Rate(kind ResourceKind, resource ResourceID) (ResourceRate, bool) {
	rate, ok := r.rates[kindResourceKey{kind, resource}]
	return rate, ok
}

// GroupForOccurrence returns the service group an occurrence belongs to.
func (r *Registry) GroupForOccurrence(id OccurrenceID) (*ServiceGroup, bool) {
	g, ok := r.groupByMember[id]
	return g, ok
}

func (r *Registry) GroupByID(id GroupID) (*ServiceGroup, bool) {
	g, ok := r.groupsByID[id]
	return g, ok
}
