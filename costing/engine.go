/*
engine.go - Report orchestration

PURPOSE:
  Wires one report request through the pipeline:

    Loader -> Registry -> (Resolver x Deduplicator) -> Aggregate

  The whole computation is a pure batch transform: one concurrent fan-out to
  build the snapshot, then synchronous passes over immutable data. Nothing
  is retried and nothing is shared across concurrent requests, so there is
  no locking anywhere in the engine.
*/
package costing

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultCurrency is used when the engine is built without an explicit one.
// The engine is single-currency per report; amounts pass through unchanged.
const DefaultCurrency = "EUR"

// =============================================================================
// REQUEST / REPORT
// =============================================================================

// ReportRequest describes one staffing cost report.
type ReportRequest struct {
	Range   DateRange
	Kinds   []ResourceKind // empty = all kinds
	GroupBy GroupBy        // empty = staff
}

// Report is the fully computed result.
type Report struct {
	RunID       string
	Range       DateRange
	GroupBy     GroupBy
	Currency    string
	Items       []CostItem
	Buckets     []Bucket
	TotalCost   Money
	Diagnostics Diagnostics
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine computes staffing cost reports against a ReferenceStore.
type Engine struct {
	Store    ReferenceStore
	Logger   *zap.Logger
	Currency string
}

func NewEngine(store ReferenceStore, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{Store: store, Logger: logger, Currency: DefaultCurrency}
}

// BuildReport validates the request, builds the snapshot and runs the
// resolution pipeline. A failed reference read aborts the whole report.
func (e *Engine) BuildReport(ctx context.Context, req ReportRequest) (*Report, error) {
	if err := normalize(&req); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	log := e.Logger.With(zap.String("report_run", runID))

	loader := &Loader{Store: e.Store, Logger: log}
	snap, err := loader.Load(ctx, req.Range, req.Kinds)
	if err != nil {
		return nil, err
	}

	reg := NewRegistry(snap)
	resolver := NewResolver(reg)
	dedup := NewDeduplicator(reg, resolver)

	// Deterministic item order: occurrence date, then assignment ID. This
	// also fixes which escort assignment "comes first" on a day and which
	// group member is first seen.
	assignments := make([]Assignment, len(snap.Assignments))
	copy(assignments, snap.Assignments)
	sort.SliceStable(assignments, func(i, j int) bool {
		oi, iok := reg.Occurrence(assignments[i].OccurrenceID)
		oj, jok := reg.Occurrence(assignments[j].OccurrenceID)
		if iok && jok && !oi.Date.Equal(oj.Date) {
			return oi.Date.Before(oj.Date)
		}
		return assignments[i].ID < assignments[j].ID
	})

	items := dedup.Items(assignments)
	buckets, total := Aggregate(items, req.GroupBy)
	diag := resolver.Diagnostics()

	log.Info("staffing cost report computed",
		zap.String("range", req.Range.String()),
		zap.String("group_by", string(req.GroupBy)),
		zap.Int("assignments", len(snap.Assignments)),
		zap.Int("items", len(items)),
		zap.Int("zero_cost", diag.ZeroCostCount),
		zap.Int("skipped", diag.SkippedAssignments))

	return &Report{
		RunID:       runID,
		Range:       req.Range,
		GroupBy:     req.GroupBy,
		Currency:    e.Currency,
		Items:       items,
		Buckets:     buckets,
		TotalCost:   total,
		Diagnostics: diag,
	}, nil
}

func normalize(req *ReportRequest) error {
	if req.Range.Start.IsZero() || req.Range.End.IsZero() || !req.Range.Valid() {
		return ErrInvalidDateRange
	}
	if len(req.Kinds) == 0 {
		req.Kinds = AllKinds()
	}
	for _, k := range req.Kinds {
		if !ValidKind(k) {
			return ErrUnknownResourceKind
		}
	}
	if req.GroupBy == "" {
		req.GroupBy = GroupByStaff
	}
	if !ValidGroupBy(req.GroupBy) {
		return ErrUnknownGroupBy
	}
	return nil
}
