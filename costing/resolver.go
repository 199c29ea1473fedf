/*
resolver.go - The cost resolution algorithm

PURPOSE:
  Given a resource and an occurrence, pick the single applicable cost from
  the layered fact families. The priority order, in short-circuit sequence:

    1. excluded_from_cost on the resource  -> not applicable at all
    2. per-assignment override             -> checked by the deduplication
                                              pass BEFORE the resolver runs;
                                              always wins
    3. non-guide kinds                     -> flat_daily or per_pax rate
    4. guide with a special rule           -> guide special-date cost, then
                                              guide seasonal cost; if neither
                                              fact is configured, fall through
    5. shared/legacy fallback              -> MAXIMUM of every applicable
                                              fact, 0 if none apply

  Step 4 short-circuits on first match while step 5 takes the maximum of all
  candidates. That asymmetry is intentional contract, not an accident; do
  not unify the two rules.

DIAGNOSTICS:
  Instead of ad-hoc debug counters, the resolver tallies its work into an
  explicit Diagnostics value returned with the report.
*/
package costing

// =============================================================================
// DIAGNOSTICS
// =============================================================================

// Diagnostics summarizes resolver behavior for one report run.
type Diagnostics struct {
	ResolvedCount      int          `json:"resolved_count"`
	ZeroCostCount      int          `json:"zero_cost_count"`
	ZeroCostActivities []ActivityID `json:"zero_cost_activities"`
	SkippedAssignments int          `json:"skipped_assignments"`

	zeroSeen map[ActivityID]bool
}

func newDiagnostics() *Diagnostics {
	return &Diagnostics{
		ZeroCostActivities: []ActivityID{},
		zeroSeen:           make(map[ActivityID]bool),
	}
}

func (d *Diagnostics) recordResolved(activity ActivityID, cost Money) {
	d.ResolvedCount++
	if cost.IsZero() {
		d.ZeroCostCount++
		if activity != "" && !d.zeroSeen[activity] {
			d.zeroSeen[activity] = true
			d.ZeroCostActivities = append(d.ZeroCostActivities, activity)
		}
	}
}

func (d *Diagnostics) recordSkipped() { d.SkippedAssignments++ }

// =============================================================================
// RESOLVER
// =============================================================================

// Resolver picks one cost per (resource, occurrence) from the registry.
type Resolver struct {
	reg  *Registry
	diag *Diagnostics
}

func NewResolver(reg *Registry) *Resolver {
	return &Resolver{reg: reg, diag: newDiagnostics()}
}

// Diagnostics returns the tallies accumulated so far.
func (r *Resolver) Diagnostics() Diagnostics {
	d := *r.diag
	return d
}

// Resolve returns the applicable cost for a resource on an occurrence.
// ok is false only for excluded resources, whose items are omitted entirely.
// Per-assignment overrides are the caller's responsibility (dedup.go) since
// they attach to an assignment, not a (resource, occurrence) pair.
func (r *Resolver) Resolve(res Resource, occ Occurrence) (cost Money, ok bool) {
	if res.ExcludedFromCost {
		return ZeroMoney(), false
	}

	if res.Kind != KindGuide {
		cost = r.resolveRate(res, occ)
		r.diag.recordResolved(occ.ActivityID, cost)
		return cost, true
	}

	cost = r.resolveGuide(res.ID, occ)
	r.diag.recordResolved(occ.ActivityID, cost)
	return cost, true
}

// resolveRate prices escort/headphone/printing kinds. Missing rate -> 0.
func (r *Resolver) resolveRate(res Resource, occ Occurrence) Money {
	rate, ok := r.reg.Rate(res.Kind, res.ID)
	if !ok {
		return ZeroMoney()
	}
	if rate.RateType == RatePerPax {
		return rate.Amount.MulInt(occ.PaxSold)
	}
	return rate.Amount
}

func (r *Resolver) resolveGuide(guide ResourceID, occ Occurrence) Money {
	activity := occ.ActivityID
	date := occ.Date

	if r.reg.HasSpecialRule(guide, activity) {
		// Guide-specific lookup short-circuits: special date first, then the
		// earliest-starting season carrying a configured cost.
		if sd, ok := r.reg.SpecialDateOn(date); ok {
			if amount, ok := r.reg.GuideSpecialDateCost(guide, activity, sd.ID); ok {
				return amount
			}
		}
		for _, season := range r.reg.SeasonsContaining(date) {
			if amount, ok := r.reg.GuideSeasonalCost(guide, activity, season.ID); ok {
				return amount
			}
		}
		// Neither guide fact configured: fall through to the shared lookup.
	}

	return r.resolveShared(guide, activity, date)
}

// resolveShared collects every applicable shared/legacy fact and returns the
// maximum. Unlike the guide-specific branch this is NOT first-match priority.
func (r *Resolver) resolveShared(guide ResourceID, activity ActivityID, date Date) Money {
	var candidates []Money

	if sd, ok := r.reg.SpecialDateOn(date); ok {
		if amount, ok := r.reg.SpecialDateCost(activity, sd.ID); ok {
			candidates = append(candidates, amount)
		}
	}
	for _, season := range r.reg.SeasonsContaining(date) {
		if amount, ok := r.reg.SeasonalCost(activity, season.ID); ok {
			candidates = append(candidates, amount)
		}
	}
	if amount, ok := r.reg.LegacyActivityCost(activity); ok {
		candidates = append(candidates, amount)
	}
	if amount, ok := r.reg.LegacyGuideActivityCost(guide, activity); ok {
		candidates = append(candidates, amount)
	}

	if len(candidates) == 0 {
		return ZeroMoney()
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		best = best.Max(c)
	}
	return best
}
