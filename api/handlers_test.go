package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/warp/cost-engine/api"
	"github.com/warp/cost-engine/costing"
	"github.com/warp/cost-engine/costing/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func testServer(t *testing.T) *httptest.Server {
	t.Helper()

	m := store.NewMemory()
	m.Resources = []costing.Resource{
		{ID: "g1", Kind: costing.KindGuide, Name: "Ana"},
		{ID: "e1", Kind: costing.KindEscort, Name: "Ben"},
	}
	m.Activities = []costing.Activity{{ID: "a1", Title: "City Walk"}}
	m.Occurrences = []costing.Occurrence{
		{ID: "o1", ActivityID: "a1", Date: mustDate("2026-07-10"), PaxSold: 20},
	}
	m.Assignments = []costing.Assignment{
		{ID: "as1", ResourceID: "g1", ResourceKind: costing.KindGuide, OccurrenceID: "o1"},
		{ID: "as2", ResourceID: "e1", ResourceKind: costing.KindEscort, OccurrenceID: "o1"},
	}
	m.LegacyActivityCosts = []costing.LegacyActivityCost{
		{ActivityID: "a1", Amount: costing.MustParseMoney("70")},
	}
	m.ResourceRates = []costing.ResourceRate{
		{ResourceKind: costing.KindEscort, ResourceID: "e1",
			Amount: costing.MustParseMoney("80"), RateType: costing.RateFlatDaily},
	}

	engine := costing.NewEngine(m, nil)
	srv := httptest.NewServer(api.NewRouter(api.NewHandler(engine, nil)))
	t.Cleanup(srv.Close)
	return srv
}

func mustDate(s string) costing.Date {
	d, err := costing.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func getJSON(t *testing.T, url string, into any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if into != nil {
		if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
	}
	return resp.StatusCode
}

// =============================================================================
// REPORT ENDPOINT
// =============================================================================

func TestStaffingCosts_OK(t *testing.T) {
	// GIVEN: A seeded store with one guide and one escort on 2026-07-10
	// WHEN: Requesting the report for that week
	// THEN: 200 with two items, staff grouping by default, decimal-string
	//       amounts

	srv := testServer(t)

	var body struct {
		Items []struct {
			ResourceType string `json:"resource_type"`
			CostAmount   string `json:"cost_amount"`
			Currency     string `json:"currency"`
		} `json:"items"`
		Summaries []struct {
			Key       string `json:"key"`
			TotalCost string `json:"total_cost"`
		} `json:"summaries"`
		TotalCost string `json:"total_cost"`
		GroupBy   string `json:"group_by"`
		Currency  string `json:"currency"`
	}
	status := getJSON(t, srv.URL+"/api/reports/staffing-costs?start_date=2026-07-06&end_date=2026-07-12", &body)

	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if len(body.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(body.Items))
	}
	if body.TotalCost != "150" {
		t.Errorf("expected total_cost \"150\", got %q", body.TotalCost)
	}
	if body.GroupBy != "staff" {
		t.Errorf("expected default group_by staff, got %q", body.GroupBy)
	}
	if body.Currency != "EUR" {
		t.Errorf("expected EUR, got %q", body.Currency)
	}
	if len(body.Summaries) != 2 {
		t.Errorf("expected 2 summaries, got %d", len(body.Summaries))
	}
}

func TestStaffingCosts_ResourceTypeFilter(t *testing.T) {
	srv := testServer(t)

	var body struct {
		Items []struct {
			ResourceType string `json:"resource_type"`
		} `json:"items"`
	}
	status := getJSON(t, srv.URL+"/api/reports/staffing-costs?start_date=2026-07-06&end_date=2026-07-12&resource_types=escort", &body)

	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if len(body.Items) != 1 || body.Items[0].ResourceType != "escort" {
		t.Errorf("expected only the escort item, got %+v", body.Items)
	}
}

func TestStaffingCosts_BadRequests(t *testing.T) {
	srv := testServer(t)

	cases := []struct {
		name  string
		query string
	}{
		{"missing dates", ""},
		{"malformed date", "?start_date=07/10/2026&end_date=2026-07-12"},
		{"inverted range", "?start_date=2026-07-12&end_date=2026-07-06"},
		{"unknown resource type", "?start_date=2026-07-06&end_date=2026-07-12&resource_types=pilot"},
		{"unknown group_by", "?start_date=2026-07-06&end_date=2026-07-12&group_by=vendor"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var body struct {
				Error string `json:"error"`
			}
			status := getJSON(t, srv.URL+"/api/reports/staffing-costs"+tc.query, &body)
			if status != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", status)
			}
			if body.Error == "" {
				t.Error("expected an error message")
			}
		})
	}
}

func TestStaffingCosts_GroupByActivity(t *testing.T) {
	srv := testServer(t)

	var body struct {
		Summaries []struct {
			Key   string `json:"key"`
			Label string `json:"label"`
		} `json:"summaries"`
		GroupBy string `json:"group_by"`
	}
	status := getJSON(t, srv.URL+"/api/reports/staffing-costs?start_date=2026-07-06&end_date=2026-07-12&group_by=activity", &body)

	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if body.GroupBy != "activity" {
		t.Errorf("expected group_by activity, got %q", body.GroupBy)
	}
	if len(body.Summaries) != 1 || body.Summaries[0].Label != "City Walk" {
		t.Errorf("expected one City Walk bucket, got %+v", body.Summaries)
	}
}

// =============================================================================
// HEALTH ENDPOINT
// =============================================================================

func TestHealth(t *testing.T) {
	srv := testServer(t)

	var body map[string]string
	status := getJSON(t, srv.URL+"/api/health", &body)
	if status != http.StatusOK || body["status"] != "ok" {
		t.Errorf("expected 200/ok, got %d/%v", status, body)
	}
}
