/*
Package costing implements the staffing cost resolution engine.

PURPOSE:
  For a date range and a set of resource kinds, the engine determines the
  single applicable monetary cost per staffing/equipment assignment, honoring
  a layered set of override rules (per-assignment manual overrides,
  guide-specific contractual exceptions, special-date pricing, seasonal
  pricing, legacy flat pricing), collapses costs that must not be
  double-counted (daily-rate escorts, grouped multi-activity guide services),
  and aggregates the result along a caller-chosen dimension.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: a decimal currency amount (single currency per report)
  - Resource/Activity/Occurrence/Assignment: the scheduling entities
  - Season/SpecialDate: the pricing calendar
  - Cost facts: the family of priced rules the resolver picks from
  - CostItem: one resolved, deduplicated line of the report

DESIGN PRINCIPLES:
  1. Read-only: the engine never mutates reference data
  2. Precision: decimal.Decimal for money, never float arithmetic
  3. Type safety: distinct ID types so a guide ID cannot be passed as an
     activity ID
  4. Determinism: every tie-break is explicit (see registry.go)

SEE ALSO:
  - loader.go:    fetching the snapshot these types describe
  - registry.go:  indexed lookups over the snapshot
  - resolver.go:  the priority algorithm
*/
package costing

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Decimal currency amount
// =============================================================================

// Money is a non-negative currency amount. The currency itself is fixed per
// report and carried separately; Money is just the magnitude.
type Money struct {
	Value decimal.Decimal
}

func NewMoney(value float64) Money       { return Money{Value: decimal.NewFromFloat(value)} }
func NewMoneyFromInt(value int64) Money  { return Money{Value: decimal.NewFromInt(value)} }
func ZeroMoney() Money                   { return Money{Value: decimal.Zero} }

// MustParseMoney parses a decimal string, returning zero on malformed input.
// Reference data amounts come from the store as decimal text.
func MustParseMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ZeroMoney()
	}
	return Money{Value: d}
}

func (m Money) Add(o Money) Money          { return Money{Value: m.Value.Add(o.Value)} }
func (m Money) MulInt(n int) Money         { return Money{Value: m.Value.Mul(decimal.NewFromInt(int64(n)))} }
func (m Money) GreaterThan(o Money) bool   { return m.Value.GreaterThan(o.Value) }
func (m Money) IsZero() bool               { return m.Value.IsZero() }
func (m Money) IsPositive() bool           { return m.Value.IsPositive() }
func (m Money) Equal(o Money) bool         { return m.Value.Equal(o.Value) }
func (m Money) Max(o Money) Money          { if o.GreaterThan(m) { return o }; return m }
func (m Money) String() string             { return m.Value.String() }
func (m Money) Float64() float64           { return m.Value.InexactFloat64() }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ResourceID string
type ActivityID string
type OccurrenceID string
type AssignmentID string
type SeasonID string
type SpecialDateID string
type GroupID string

// =============================================================================
// RESOURCE KIND
// =============================================================================

// ResourceKind determines which cost model applies: guides use the layered
// fact lookup, the other kinds use flat/per-pax rates.
type ResourceKind string

const (
	KindGuide     ResourceKind = "guide"
	KindEscort    ResourceKind = "escort"
	KindHeadphone ResourceKind = "headphone"
	KindPrinting  ResourceKind = "printing"
)

// AllKinds returns every resource kind, in report display order.
func AllKinds() []ResourceKind {
	return []ResourceKind{KindGuide, KindEscort, KindHeadphone, KindPrinting}
}

// ValidKind reports whether k is one of the four known kinds.
func ValidKind(k ResourceKind) bool {
	switch k {
	case KindGuide, KindEscort, KindHeadphone, KindPrinting:
		return true
	}
	return false
}

// =============================================================================
// SCHEDULING ENTITIES
// =============================================================================

// Resource is one staffing/equipment provider (a guide, an escort, a
// headphone vendor, a printing vendor).
type Resource struct {
	ID   ResourceID
	Kind ResourceKind
	Name string

	// ExcludedFromCost permanently zeroes out cost contribution regardless
	// of any other fact. Only guides paid out-of-band carry this flag.
	ExcludedFromCost bool
}

// Activity is a bookable product. Immutable from the engine's perspective.
type Activity struct {
	ID    ActivityID
	Title string
}

// Occurrence is one scheduled instance of an activity.
type Occurrence struct {
	ID         OccurrenceID
	ActivityID ActivityID
	Date       Date
	Time       string // HH:MM, display only
	PaxSold    int
}

// Assignment binds one resource to one occurrence. Many assignments may
// reference the same resource and/or occurrence.
type Assignment struct {
	ID           AssignmentID
	ResourceID   ResourceID
	ResourceKind ResourceKind
	OccurrenceID OccurrenceID
}

// =============================================================================
// PRICING CALENDAR
// =============================================================================

// Season is a named date range carrying its own cost facts. Seasons may
// overlap; membership is inclusive on both ends.
type Season struct {
	ID    SeasonID
	Year  int
	Name  string
	Start Date
	End   Date
}

// Contains reports whether d falls inside the season, inclusive.
func (s Season) Contains(d Date) bool {
	return !d.Before(s.Start) && !d.After(s.End)
}

// SpecialDate is a single calendar date (e.g. a holiday) that may carry its
// own cost facts. At most one SpecialDate per calendar date is meaningful.
type SpecialDate struct {
	ID   SpecialDateID
	Date Date
	Name string
}

// GuideSpecialRule marks that a (guide, activity) pair is governed by
// guide-specific cost facts before falling back to the shared ones.
type GuideSpecialRule struct {
	GuideID    ResourceID
	ActivityID ActivityID
}

// =============================================================================
// COST FACTS - The priced rules the resolver picks from
// =============================================================================

// CostOverride is a manually entered cost for one specific assignment.
// Highest priority, always wins.
type CostOverride struct {
	AssignmentID AssignmentID
	Amount       Money
}

// SeasonalCost is a shared per-activity cost for one season.
type SeasonalCost struct {
	ActivityID ActivityID
	SeasonID   SeasonID
	Amount     Money
}

// SpecialDateCost is a shared per-activity cost for one special date.
type SpecialDateCost struct {
	ActivityID    ActivityID
	SpecialDateID SpecialDateID
	Amount        Money
}

// GuideSeasonalCost is a guide-specific seasonal cost, used only when a
// GuideSpecialRule exists for the (guide, activity) pair.
type GuideSeasonalCost struct {
	GuideID    ResourceID
	ActivityID ActivityID
	SeasonID   SeasonID
	Amount     Money
}

// GuideSpecialDateCost is a guide-specific special-date cost.
type GuideSpecialDateCost struct {
	GuideID       ResourceID
	ActivityID    ActivityID
	SpecialDateID SpecialDateID
	Amount        Money
}

// LegacyActivityCost is the flat per-activity cost that pre-dates seasons.
type LegacyActivityCost struct {
	ActivityID ActivityID
	Amount     Money
}

// LegacyGuideActivityCost is the flat per-(guide, activity) cost that
// pre-dates seasons.
type LegacyGuideActivityCost struct {
	GuideID    ResourceID
	ActivityID ActivityID
	Amount     Money
}

// =============================================================================
// RESOURCE RATES - Non-guide pricing
// =============================================================================

type RateType string

const (
	RateFlatDaily RateType = "flat_daily"
	RatePerPax    RateType = "per_pax"
)

// ResourceRate prices escort/headphone/printing resources. Guides never use
// rates.
type ResourceRate struct {
	ResourceKind ResourceKind
	ResourceID   ResourceID
	Amount       Money
	RateType     RateType
}

// =============================================================================
// SERVICE GROUPS - Linked occurrences billed once
// =============================================================================

// ServiceGroup represents one guide covering several linked occurrences that
// must be billed as a single unit. ManualCost, when set and positive,
// overrides the computed cost for the whole group.
type ServiceGroup struct {
	ID          GroupID
	GuideID     ResourceID
	ServiceDate Date
	ManualCost  *Money
	MemberIDs   []OccurrenceID
}

// =============================================================================
// COST ITEM - One resolved line of the report
// =============================================================================

// CostItem is the deduplicated, resolved cost for one assignment (or one
// escort-day, or one service group).
type CostItem struct {
	ResourceKind ResourceKind
	ResourceID   ResourceID
	ResourceName string
	Date         Date
	ActivityID   ActivityID // empty when no activity is known
	ActivityTitle string
	AssignmentID AssignmentID
	PaxCount     *int // only headphone/printing items carry a pax count
	Cost         Money
	Grouped      bool
	GroupID      GroupID
}
