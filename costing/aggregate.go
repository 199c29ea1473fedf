/*
aggregate.go - Bucketing the final cost items

PURPOSE:
  Groups cost items by a caller-chosen dimension (staff, date, activity) and
  computes per-bucket totals plus the report-wide total. Buckets are keyed
  on a comparable struct, never on concatenated strings, so there are no
  incidental key collisions; the wire-level key string is derived only when
  the bucket is emitted.
*/
package costing

import (
	"sort"
)

// =============================================================================
// GROUPING DIMENSION
// =============================================================================

type GroupBy string

const (
	GroupByStaff    GroupBy = "staff"
	GroupByDate     GroupBy = "date"
	GroupByActivity GroupBy = "activity"
)

func ValidGroupBy(g GroupBy) bool {
	switch g {
	case GroupByStaff, GroupByDate, GroupByActivity:
		return true
	}
	return false
}

// =============================================================================
// BUCKETS
// =============================================================================

// bucketKey identifies one bucket. Exactly the fields for the chosen
// dimension are set; the rest stay zero.
type bucketKey struct {
	Kind     ResourceKind // staff
	Resource ResourceID   // staff
	Date     Date         // date
	Activity ActivityID   // activity ("" = no-activity bucket)
}

// Bucket is one aggregated group of the report.
type Bucket struct {
	Key       string
	Label     string
	TotalCost Money
	ItemCount int
	TotalPax  int
}

// noActivityKey labels items lacking an activity when grouping by activity.
const noActivityKey = "no-activity"

// =============================================================================
// AGGREGATOR
// =============================================================================

// Aggregate buckets items by the chosen dimension and returns the buckets
// sorted by descending total cost, plus the report-wide total (which is
// independent of bucketing).
func Aggregate(items []CostItem, groupBy GroupBy) ([]Bucket, Money) {
	type accum struct {
		label string
		total Money
		count int
		pax   int
	}

	buckets := make(map[bucketKey]*accum)
	order := make([]bucketKey, 0)
	total := ZeroMoney()

	for _, item := range items {
		total = total.Add(item.Cost)

		key, label := keyFor(item, groupBy)
		acc, ok := buckets[key]
		if !ok {
			acc = &accum{label: label, total: ZeroMoney()}
			buckets[key] = acc
			order = append(order, key)
		}
		acc.total = acc.total.Add(item.Cost)
		acc.count++
		if item.PaxCount != nil {
			acc.pax += *item.PaxCount
		}
	}

	out := make([]Bucket, 0, len(buckets))
	for _, key := range order {
		acc := buckets[key]
		out = append(out, Bucket{
			Key:       keyString(key, groupBy),
			Label:     acc.label,
			TotalCost: acc.total,
			ItemCount: acc.count,
			TotalPax:  acc.pax,
		})
	}

	// Descending total cost; key ascending keeps equal totals stable.
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].TotalCost.Equal(out[j].TotalCost) {
			return out[i].TotalCost.GreaterThan(out[j].TotalCost)
		}
		return out[i].Key < out[j].Key
	})

	return out, total
}

func keyFor(item CostItem, groupBy GroupBy) (bucketKey, string) {
	switch groupBy {
	case GroupByDate:
		return bucketKey{Date: item.Date}, item.Date.String()
	case GroupByActivity:
		if item.ActivityID == "" {
			return bucketKey{}, noActivityKey
		}
		label := item.ActivityTitle
		if label == "" {
			label = string(item.ActivityID)
		}
		return bucketKey{Activity: item.ActivityID}, label
	default: // staff
		return bucketKey{Kind: item.ResourceKind, Resource: item.ResourceID}, item.ResourceName
	}
}

func keyString(key bucketKey, groupBy GroupBy) string {
	switch groupBy {
	case GroupByDate:
		return key.Date.String()
	case GroupByActivity:
		if key.Activity == "" {
			return noActivityKey
		}
		return string(key.Activity)
	default:
		return string(key.Kind) + ":" + string(key.Resource)
	}
}
