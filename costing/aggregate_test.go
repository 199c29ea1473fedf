package costing_test

import (
	"testing"

	"github.com/warp/cost-engine/costing"
)

func item(resource, name, activity, title, date, cost string) costing.CostItem {
	return costing.CostItem{
		ResourceKind:  costing.KindGuide,
		ResourceID:    costing.ResourceID(resource),
		ResourceName:  name,
		ActivityID:    costing.ActivityID(activity),
		ActivityTitle: title,
		Date:          d(date),
		Cost:          money(cost),
	}
}

func TestAggregate_ByActivity_SumsItems(t *testing.T) {
	// GIVEN: Two items for activity a3 costing 40 and 60
	// WHEN: Aggregating by activity
	// THEN: One bucket with total 100 and item count 2

	items := []costing.CostItem{
		item("g1", "Ana", "a3", "Boat Trip", "2026-07-10", "40"),
		item("g2", "Eli", "a3", "Boat Trip", "2026-07-11", "60"),
	}
	buckets, total := costing.Aggregate(items, costing.GroupByActivity)

	if len(buckets) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(buckets))
	}
	b := buckets[0]
	if b.Key != "a3" || b.Label != "Boat Trip" {
		t.Errorf("unexpected bucket identity %q/%q", b.Key, b.Label)
	}
	if !b.TotalCost.Equal(money("100")) || b.ItemCount != 2 {
		t.Errorf("expected total 100 over 2 items, got %s over %d", b.TotalCost, b.ItemCount)
	}
	if !total.Equal(money("100")) {
		t.Errorf("expected report total 100, got %s", total)
	}
}

func TestAggregate_ByActivity_NoActivityBucket(t *testing.T) {
	// GIVEN: An item with no activity reference
	// WHEN: Aggregating by activity
	// THEN: It lands in the dedicated no-activity bucket

	items := []costing.CostItem{
		item("g1", "Ana", "", "", "2026-07-10", "25"),
	}
	buckets, _ := costing.Aggregate(items, costing.GroupByActivity)

	if len(buckets) != 1 || buckets[0].Key != "no-activity" {
		t.Fatalf("expected the no-activity bucket, got %+v", buckets)
	}
}

func TestAggregate_SortsByDescendingTotal(t *testing.T) {
	// GIVEN: Buckets totaling 30, 90 and 90
	// WHEN: Aggregating by staff
	// THEN: Descending total, equal totals ordered by ascending key

	items := []costing.CostItem{
		item("g1", "Ana", "a1", "Walk", "2026-07-10", "30"),
		item("g3", "Zoe", "a1", "Walk", "2026-07-10", "90"),
		item("g2", "Eli", "a1", "Walk", "2026-07-10", "90"),
	}
	buckets, _ := costing.Aggregate(items, costing.GroupByStaff)

	if len(buckets) != 3 {
		t.Fatalf("expected 3 buckets, got %d", len(buckets))
	}
	if buckets[0].Key != "guide:g2" || buckets[1].Key != "guide:g3" {
		t.Errorf("equal totals must order by ascending key, got %q then %q", buckets[0].Key, buckets[1].Key)
	}
	if buckets[2].Key != "guide:g1" {
		t.Errorf("smallest total must come last, got %q", buckets[2].Key)
	}
}

func TestAggregate_ByDate_KeysAreDates(t *testing.T) {
	items := []costing.CostItem{
		item("g1", "Ana", "a1", "Walk", "2026-07-10", "30"),
		item("g1", "Ana", "a1", "Walk", "2026-07-11", "40"),
	}
	buckets, total := costing.Aggregate(items, costing.GroupByDate)

	if len(buckets) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(buckets))
	}
	if buckets[0].Key != "2026-07-11" {
		t.Errorf("expected the larger day first, got %q", buckets[0].Key)
	}
	if !total.Equal(money("70")) {
		t.Errorf("expected total 70, got %s", total)
	}
}

func TestAggregate_TotalIndependentOfGrouping(t *testing.T) {
	// GIVEN: The same items
	// WHEN: Aggregating along every dimension
	// THEN: The report-wide total never changes

	items := []costing.CostItem{
		item("g1", "Ana", "a1", "Walk", "2026-07-10", "30"),
		item("g2", "Eli", "a2", "Tour", "2026-07-11", "45.50"),
		item("g2", "Eli", "", "", "2026-07-12", "10"),
	}

	for _, dim := range []costing.GroupBy{costing.GroupByStaff, costing.GroupByDate, costing.GroupByActivity} {
		_, total := costing.Aggregate(items, dim)
		if !total.Equal(money("85.50")) {
			t.Errorf("group_by=%s: expected total 85.50, got %s", dim, total)
		}
	}
}

func TestAggregate_PaxCountsSummed(t *testing.T) {
	// GIVEN: Headphone items carrying pax counts
	// WHEN: Aggregating by staff
	// THEN: The bucket sums the pax

	pax1, pax2 := 42, 10
	items := []costing.CostItem{
		{ResourceKind: costing.KindHeadphone, ResourceID: "h1", ResourceName: "AudioCo", Date: d("2026-07-10"), Cost: money("84"), PaxCount: &pax1},
		{ResourceKind: costing.KindHeadphone, ResourceID: "h1", ResourceName: "AudioCo", Date: d("2026-07-11"), Cost: money("20"), PaxCount: &pax2},
	}
	buckets, _ := costing.Aggregate(items, costing.GroupByStaff)

	if len(buckets) != 1 || buckets[0].TotalPax != 52 {
		t.Fatalf("expected one bucket with 52 pax, got %+v", buckets)
	}
}

func TestAggregate_Empty(t *testing.T) {
	buckets, total := costing.Aggregate(nil, costing.GroupByStaff)
	if len(buckets) != 0 {
		t.Errorf("expected no buckets, got %d", len(buckets))
	}
	if !total.IsZero() {
		t.Errorf("expected zero total, got %s", total)
	}
}
