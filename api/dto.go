/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific formatting (dates as strings, money as decimal strings)
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Response: Complex response wrappers

TYPES:
  Report:
    ReportResponse, CostItemDTO, SummaryDTO, DiagnosticsDTO

MONEY FORMATTING:
  Amounts are serialized as decimal strings ("84.50"), never as JSON
  numbers, so clients are not exposed to float rounding.

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - costing/engine.go: The domain types these wrap
*/
package api

import (
	"github.com/warp/cost-engine/costing"
)

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// CostItemDTO is one resolved cost line in API responses.
type CostItemDTO struct {
	ResourceType  string `json:"resource_type"`
	ResourceID    string `json:"resource_id"`
	ResourceName  string `json:"resource_name"`
	Date          string `json:"date"`
	ActivityID    string `json:"activity_id,omitempty"`
	ActivityTitle string `json:"activity_title,omitempty"`
	AssignmentID  string `json:"assignment_id"`
	PaxCount      *int   `json:"pax_count,omitempty"`
	CostAmount    string `json:"cost_amount"`
	Currency      string `json:"currency"`
	IsGrouped     bool   `json:"is_grouped,omitempty"`
	GroupID       string `json:"group_id,omitempty"`
}

// SummaryDTO is one aggregation bucket.
type SummaryDTO struct {
	Key       string `json:"key"`
	Label     string `json:"label"`
	TotalCost string `json:"total_cost"`
	ItemCount int    `json:"item_count"`
	TotalPax  int    `json:"total_pax,omitempty"`
}

// DiagnosticsDTO reports resolution statistics alongside the items.
type DiagnosticsDTO struct {
	ResolvedCount      int      `json:"resolved_count"`
	ZeroCostCount      int      `json:"zero_cost_count"`
	ZeroCostActivities []string `json:"zero_cost_activities,omitempty"`
	SkippedAssignments int      `json:"skipped_assignments,omitempty"`
}

// DateRangeDTO echoes the requested range.
type DateRangeDTO struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// ReportResponse is the full staffing cost report.
type ReportResponse struct {
	Items       []CostItemDTO  `json:"items"`
	Summaries   []SummaryDTO   `json:"summaries"`
	TotalCost   string         `json:"total_cost"`
	Currency    string         `json:"currency"`
	DateRange   DateRangeDTO   `json:"date_range"`
	GroupBy     string         `json:"group_by"`
	Diagnostics DiagnosticsDTO `json:"diagnostics"`
}

// ErrorResponse is the standard error shape.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// MAPPING
// =============================================================================

func toReportResponse(report *costing.Report) ReportResponse {
	items := make([]CostItemDTO, len(report.Items))
	for i, item := range report.Items {
		items[i] = toCostItemDTO(item, report.Currency)
	}

	summaries := make([]SummaryDTO, len(report.Buckets))
	for i, b := range report.Buckets {
		summaries[i] = SummaryDTO{
			Key:       b.Key,
			Label:     b.Label,
			TotalCost: b.TotalCost.String(),
			ItemCount: b.ItemCount,
			TotalPax:  b.TotalPax,
		}
	}

	zeroActs := make([]string, len(report.Diagnostics.ZeroCostActivities))
	for i, id := range report.Diagnostics.ZeroCostActivities {
		zeroActs[i] = string(id)
	}

	return ReportResponse{
		Items:     items,
		Summaries: summaries,
		TotalCost: report.TotalCost.String(),
		Currency:  report.Currency,
		DateRange: DateRangeDTO{
			StartDate: report.Range.Start.String(),
			EndDate:   report.Range.End.String(),
		},
		GroupBy: string(report.GroupBy),
		Diagnostics: DiagnosticsDTO{
			ResolvedCount:      report.Diagnostics.ResolvedCount,
			ZeroCostCount:      report.Diagnostics.ZeroCostCount,
			ZeroCostActivities: zeroActs,
			SkippedAssignments: report.Diagnostics.SkippedAssignments,
		},
	}
}

func toCostItemDTO(item costing.CostItem, currency string) CostItemDTO {
	return CostItemDTO{
		ResourceType:  string(item.ResourceKind),
		ResourceID:    string(item.ResourceID),
		ResourceName:  item.ResourceName,
		Date:          item.Date.String(),
		ActivityID:    string(item.ActivityID),
		ActivityTitle: item.ActivityTitle,
		AssignmentID:  string(item.AssignmentID),
		PaxCount:      item.PaxCount,
		CostAmount:    item.Cost.String(),
		Currency:      currency,
		IsGrouped:     item.Grouped,
		GroupID:       string(item.GroupID),
	}
}
