/*
dedup.go - Kind-specific collapsing of per-assignment costs

PURPOSE:
  Consumes the resolver's per-assignment results and emits the final,
  non-duplicated list of cost items:

    escort     one item per (escort, date); a flat daily rate is never
               multiplied by the number of services that day
    guide      one item per assignment, unless the occurrence belongs to a
               service group: then exactly one item per group, manual cost
               winning over the maximum member cost
    headphone  every assignment emits its own item (cost scales with pax,
    printing   double service in the same slot is billed independently)

  Per-assignment overrides are checked here, before the resolver runs,
  because they attach to assignments. An override always wins - except for
  excluded resources, which never produce an item at all.

  The service-group "process once" rule uses an explicit visited set owned
  by the pass, so repeated encounters of the same group are idempotent.
*/
package costing

// =============================================================================
// DEDUPLICATOR
// =============================================================================

type escortDayKey struct {
	Escort ResourceID
	Date   Date
}

// Deduplicator turns assignments into deduplicated cost items.
type Deduplicator struct {
	reg *Registry
	res *Resolver

	visitedGroups map[GroupID]bool
	seenEscortDay map[escortDayKey]bool
}

func NewDeduplicator(reg *Registry, res *Resolver) *Deduplicator {
	return &Deduplicator{
		reg:           reg,
		res:           res,
		visitedGroups: make(map[GroupID]bool),
		seenEscortDay: make(map[escortDayKey]bool),
	}
}

// Items processes assignments in order and returns the final cost items.
// Assignments referencing unknown occurrences or resources are tolerated as
// data drift: skipped silently, tallied in diagnostics.
func (d *Deduplicator) Items(assignments []Assignment) []CostItem {
	items := make([]CostItem, 0, len(assignments))

	for _, a := range assignments {
		occ, ok := d.reg.Occurrence(a.OccurrenceID)
		if !ok {
			d.res.diag.recordSkipped()
			continue
		}
		res, ok := d.reg.Resource(a.ResourceID)
		if !ok {
			d.res.diag.recordSkipped()
			continue
		}
		if res.ExcludedFromCost {
			continue
		}

		switch res.Kind {
		case KindEscort:
			if item, ok := d.escortItem(a, res, occ); ok {
				items = append(items, item)
			}
		case KindGuide:
			if item, ok := d.guideItem(a, res, occ); ok {
				items = append(items, item)
			}
		default: // headphone, printing: no deduplication
			items = append(items, d.plainItem(a, res, occ, true))
		}
	}

	return items
}

// escortItem emits one item per (escort, date). Later assignments on the
// same day contribute nothing.
func (d *Deduplicator) escortItem(a Assignment, res Resource, occ Occurrence) (CostItem, bool) {
	key := escortDayKey{Escort: res.ID, Date: occ.Date}
	if d.seenEscortDay[key] {
		return CostItem{}, false
	}
	d.seenEscortDay[key] = true
	return d.plainItem(a, res, occ, false), true
}

func (d *Deduplicator) guideItem(a Assignment, res Resource, occ Occurrence) (CostItem, bool) {
	// Overrides attach to one assignment and beat grouping: the item is
	// emitted ungrouped and the group stays unprocessed for its other
	// members.
	if amount, ok := d.reg.Override(a.ID); ok {
		item := d.newItem(a, res, occ, amount, false)
		d.res.diag.recordResolved(occ.ActivityID, amount)
		return item, true
	}

	group, ok := d.reg.GroupForOccurrence(occ.ID)
	if !ok {
		return d.plainItem(a, res, occ, false), true
	}

	if d.visitedGroups[group.ID] {
		return CostItem{}, false
	}
	d.visitedGroups[group.ID] = true
	return d.groupedItem(a, res, occ, group), true
}

// groupedItem collapses a whole service group into one item: manual cost if
// set and positive, else the maximum resolved member cost. The displayed
// activity comes from the member that produced the maximum, first seen wins
// ties.
func (d *Deduplicator) groupedItem(a Assignment, res Resource, trigger Occurrence, group *ServiceGroup) CostItem {
	bestOcc := trigger
	bestCost, _ := d.res.Resolve(res, trigger)

	for _, memberID := range group.MemberIDs {
		if memberID == trigger.ID {
			continue
		}
		member, ok := d.reg.Occurrence(memberID)
		if !ok {
			d.res.diag.recordSkipped()
			continue
		}
		cost, ok := d.res.Resolve(res, member)
		if !ok {
			continue
		}
		if cost.GreaterThan(bestCost) {
			bestCost = cost
			bestOcc = member
		}
	}

	if group.ManualCost != nil && group.ManualCost.IsPositive() {
		bestCost = *group.ManualCost
	}

	item := d.newItem(a, res, bestOcc, bestCost, false)
	item.Date = group.ServiceDate
	item.Grouped = true
	item.GroupID = group.ID
	return item
}

// plainItem resolves one assignment with the override-first rule.
func (d *Deduplicator) plainItem(a Assignment, res Resource, occ Occurrence, withPax bool) CostItem {
	amount, ok := d.reg.Override(a.ID)
	if ok {
		d.res.diag.recordResolved(occ.ActivityID, amount)
	} else {
		amount, _ = d.res.Resolve(res, occ)
	}
	return d.newItem(a, res, occ, amount, withPax)
}

func (d *Deduplicator) newItem(a Assignment, res Resource, occ Occurrence, cost Money, withPax bool) CostItem {
	item := CostItem{
		ResourceKind: res.Kind,
		ResourceID:   res.ID,
		ResourceName: res.Name,
		Date:         occ.Date,
		ActivityID:   occ.ActivityID,
		AssignmentID: a.ID,
		Cost:         cost,
	}
	if act, ok := d.reg.Activity(occ.ActivityID); ok {
		item.ActivityTitle = act.Title
	}
	if withPax {
		pax := occ.PaxSold
		item.PaxCount = &pax
	}
	return item
}
