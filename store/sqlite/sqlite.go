/*
Package sqlite provides the SQLite-backed ReferenceStore.

PURPOSE:
  Implements costing.ReferenceStore using SQLite. In production the same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

READ PATH:
  All report queries push their filters down: assignments join occurrences
  to filter by date and kind, seasons match by range overlap, ID-set reads
  use IN (...) with caller-side batching (costing.Loader splits large sets).

WRITE PATH:
  The engine itself never writes. The Save* methods exist for the
  administrative surface that owns this data and for tests; they are plain
  upserts with no versioning.

KEY TABLES:
  resources, activities, occurrences, assignments     scheduling
  seasons, special_dates                              pricing calendar
  seasonal_costs, special_date_costs,
  guide_seasonal_costs, guide_special_date_costs,
  guide_special_rules,
  legacy_activity_costs, legacy_guide_activity_costs  cost facts
  assignment_cost_overrides, resource_rates           overrides and rates
  service_groups, service_group_members               grouped guide services

AMOUNTS AND DATES:
  Monetary amounts are stored as decimal text and parsed with
  shopspring/decimal - never as REAL. Dates are stored as YYYY-MM-DD text,
  which sorts and compares correctly in SQLite.

WAL MODE:
  Opened with WAL for better read concurrency; multiple report requests can
  read while the admin surface writes.

USAGE:
  st, err := sqlite.New("./data/costs.db")
  if err != nil { ... }
  defer st.Close()
  engine := costing.NewEngine(st, logger)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper migration
  tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - costing/loader.go: the interface this package implements
  - costing/store/memory.go: in-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/cost-engine/costing"
)

// Store implements costing.ReferenceStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS resources (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		excluded_from_cost BOOLEAN NOT NULL DEFAULT FALSE
	);
	CREATE INDEX IF NOT EXISTS idx_resources_kind ON resources(kind);

	CREATE TABLE IF NOT EXISTS activities (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS occurrences (
		id TEXT PRIMARY KEY,
		activity_id TEXT NOT NULL,
		date TEXT NOT NULL,
		time TEXT NOT NULL DEFAULT '',
		pax_sold INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_occurrences_date ON occurrences(date);
	CREATE INDEX IF NOT EXISTS idx_occurrences_activity ON occurrences(activity_id);

	CREATE TABLE IF NOT EXISTS assignments (
		id TEXT PRIMARY KEY,
		resource_id TEXT NOT NULL,
		resource_kind TEXT NOT NULL,
		occurrence_id TEXT NOT NULL
	);
	-- Hot path: the report filters assignments by kind and occurrence date.
	CREATE INDEX IF NOT EXISTS idx_assignments_kind ON assignments(resource_kind);
	CREATE INDEX IF NOT EXISTS idx_assignments_occurrence ON assignments(occurrence_id);

	CREATE TABLE IF NOT EXISTS seasons (
		id TEXT PRIMARY KEY,
		year INTEGER NOT NULL,
		name TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_seasons_range ON seasons(start_date, end_date);

	CREATE TABLE IF NOT EXISTS special_dates (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		name TEXT NOT NULL
	);
	-- At most one special date per calendar date is meaningful for lookup.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_special_dates_date ON special_dates(date);

	CREATE TABLE IF NOT EXISTS seasonal_costs (
		activity_id TEXT NOT NULL,
		season_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		PRIMARY KEY (activity_id, season_id)
	);

	CREATE TABLE IF NOT EXISTS special_date_costs (
		activity_id TEXT NOT NULL,
		special_date_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		PRIMARY KEY (activity_id, special_date_id)
	);

	CREATE TABLE IF NOT EXISTS guide_seasonal_costs (
		guide_id TEXT NOT NULL,
		activity_id TEXT NOT NULL,
		season_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		PRIMARY KEY (guide_id, activity_id, season_id)
	);

	CREATE TABLE IF NOT EXISTS guide_special_date_costs (
		guide_id TEXT NOT NULL,
		activity_id TEXT NOT NULL,
		special_date_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		PRIMARY KEY (guide_id, activity_id, special_date_id)
	);

	CREATE TABLE IF NOT EXISTS guide_special_rules (
		guide_id TEXT NOT NULL,
		activity_id TEXT NOT NULL,
		PRIMARY KEY (guide_id, activity_id)
	);

	CREATE TABLE IF NOT EXISTS legacy_activity_costs (
		activity_id TEXT PRIMARY KEY,
		amount TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS legacy_guide_activity_costs (
		guide_id TEXT NOT NULL,
		activity_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		PRIMARY KEY (guide_id, activity_id)
	);

	CREATE TABLE IF NOT EXISTS assignment_cost_overrides (
		assignment_id TEXT PRIMARY KEY,
		amount TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS resource_rates (
		resource_kind TEXT NOT NULL,
		resource_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		rate_type TEXT NOT NULL,
		PRIMARY KEY (resource_kind, resource_id)
	);

	CREATE TABLE IF NOT EXISTS service_groups (
		id TEXT PRIMARY KEY,
		guide_id TEXT NOT NULL,
		service_date TEXT NOT NULL,
		manual_cost TEXT
	);

	CREATE TABLE IF NOT EXISTS service_group_members (
		group_id TEXT NOT NULL,
		occurrence_id TEXT NOT NULL,
		PRIMARY KEY (group_id, occurrence_id)
	);
	CREATE INDEX IF NOT EXISTS idx_group_members_occurrence
		ON service_group_members(occurrence_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// QUERY HELPERS
// =============================================================================

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func kindArgs(kinds []costing.ResourceKind) []any {
	args := make([]any, len(kinds))
	for i, k := range kinds {
		args[i] = string(k)
	}
	return args
}

// =============================================================================
// REFERENCE STORE READS
// =============================================================================

func (s *Store) ListResources(ctx context.Context, kinds []costing.ResourceKind) ([]costing.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := fmt.Sprintf(`
		SELECT id, kind, name, excluded_from_cost
		FROM resources
		WHERE kind IN (%s)
		ORDER BY id`, placeholders(len(kinds)))

	rows, err := s.db.QueryContext(ctx, query, kindArgs(kinds)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query resources: %w", err)
	}
	defer rows.Close()

	var out []costing.Resource
	for rows.Next() {
		var r costing.Resource
		var kind string
		if err := rows.Scan(&r.ID, &kind, &r.Name, &r.ExcludedFromCost); err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		r.Kind = costing.ResourceKind(kind)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) ListActivities(ctx context.Context) ([]costing.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, title FROM activities ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var out []costing.Activity
	for rows.Next() {
		var a costing.Activity
		if err := rows.Scan(&a.ID, &a.Title); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) ListAssignments(ctx context.Context, rng costing.DateRange, kinds []costing.ResourceKind) ([]costing.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := fmt.Sprintf(`
		SELECT a.id, a.resource_id, a.resource_kind, a.occurrence_id
		FROM assignments a
		JOIN occurrences o ON o.id = a.occurrence_id
		WHERE a.resource_kind IN (%s)
		  AND o.date >= ? AND o.date <= ?
		ORDER BY o.date, a.id`, placeholders(len(kinds)))

	args := kindArgs(kinds)
	args = append(args, rng.Start.String(), rng.End.String())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	var out []costing.Assignment
	for rows.Next() {
		var a costing.Assignment
		var kind string
		if err := rows.Scan(&a.ID, &a.ResourceID, &kind, &a.OccurrenceID); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		a.ResourceKind = costing.ResourceKind(kind)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) ListOccurrencesByID(ctx context.Context, ids []costing.OccurrenceID) ([]costing.Occurrence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(ids) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT id, activity_id, date, time, pax_sold
		FROM occurrences
		WHERE id IN (%s)`, placeholders(len(ids)))

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = string(id)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query occurrences: %w", err)
	}
	defer rows.Close()

	var out []costing.Occurrence
	for rows.Next() {
		o, err := scanOccurrence(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func scanOccurrence(rows *sql.Rows) (costing.Occurrence, error) {
	var o costing.Occurrence
	var date string
	if err := rows.Scan(&o.ID, &o.ActivityID, &date, &o.Time, &o.PaxSold); err != nil {
		return o, fmt.Errorf("failed to scan occurrence: %w", err)
	}
	d, err := costing.ParseDate(date)
	if err != nil {
		return o, fmt.Errorf("bad occurrence date %q: %w", date, err)
	}
	o.Date = d
	return o, nil
}

func (s *Store) ListSeasons(ctx context.Context, rng costing.DateRange) ([]costing.Season, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Overlap test: the season touches the range at all.
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, year, name, start_date, end_date
		FROM seasons
		WHERE end_date >= ? AND start_date <= ?
		ORDER BY start_date, id`,
		rng.Start.String(), rng.End.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query seasons: %w", err)
	}
	defer rows.Close()

	var out []costing.Season
	for rows.Next() {
		var se costing.Season
		var start, end string
		if err := rows.Scan(&se.ID, &se.Year, &se.Name, &start, &end); err != nil {
			return nil, fmt.Errorf("failed to scan season: %w", err)
		}
		if se.Start, err = costing.ParseDate(start); err != nil {
			return nil, fmt.Errorf("bad season start %q: %w", start, err)
		}
		if se.End, err = costing.ParseDate(end); err != nil {
			return nil, fmt.Errorf("bad season end %q: %w", end, err)
		}
		out = append(out, se)
	}
	return out, rows.Err()
}

func (s *Store) ListSpecialDates(ctx context.Context, rng costing.DateRange) ([]costing.SpecialDate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, name
		FROM special_dates
		WHERE date >= ? AND date <= ?
		ORDER BY date`,
		rng.Start.String(), rng.End.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query special dates: %w", err)
	}
	defer rows.Close()

	var out []costing.SpecialDate
	for rows.Next() {
		var sd costing.SpecialDate
		var date string
		if err := rows.Scan(&sd.ID, &date, &sd.Name); err != nil {
			return nil, fmt.Errorf("failed to scan special date: %w", err)
		}
		d, err := costing.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("bad special date %q: %w", date, err)
		}
		sd.Date = d
		out = append(out, sd)
	}
	return out, rows.Err()
}

func (s *Store) ListSeasonalCosts(ctx context.Context, rng costing.DateRange) ([]costing.SeasonalCost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.activity_id, c.season_id, c.amount
		FROM seasonal_costs c
		JOIN seasons se ON se.id = c.season_id
		WHERE se.end_date >= ? AND se.start_date <= ?`,
		rng.Start.String(), rng.End.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query seasonal costs: %w", err)
	}
	defer rows.Close()

	var out []costing.SeasonalCost
	for rows.Next() {
		var c costing.SeasonalCost
		var amount string
		if err := rows.Scan(&c.ActivityID, &c.SeasonID, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan seasonal cost: %w", err)
		}
		c.Amount = costing.MustParseMoney(amount)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) ListSpecialDateCosts(ctx context.Context, rng costing.DateRange) ([]costing.SpecialDateCost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.activity_id, c.special_date_id, c.amount
		FROM special_date_costs c
		JOIN special_dates sd ON sd.id = c.special_date_id
		WHERE sd.date >= ? AND sd.date <= ?`,
		rng.Start.String(), rng.End.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query special date costs: %w", err)
	}
	defer rows.Close()

	var out []costing.SpecialDateCost
	for rows.Next() {
		var c costing.SpecialDateCost
		var amount string
		if err := rows.Scan(&c.ActivityID, &c.SpecialDateID, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan special date cost: %w", err)
		}
		c.Amount = costing.MustParseMoney(amount)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) ListGuideSeasonalCosts(ctx context.Context, rng costing.DateRange) ([]costing.GuideSeasonalCost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.guide_id, c.activity_id, c.season_id, c.amount
		FROM guide_seasonal_costs c
		JOIN seasons se ON se.id = c.season_id
		WHERE se.end_date >= ? AND se.start_date <= ?`,
		rng.Start.String(), rng.End.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query guide seasonal costs: %w", err)
	}
	defer rows.Close()

	var out []costing.GuideSeasonalCost
	for rows.Next() {
		var c costing.GuideSeasonalCost
		var amount string
		if err := rows.Scan(&c.GuideID, &c.ActivityID, &c.SeasonID, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan guide seasonal cost: %w", err)
		}
		c.Amount = costing.MustParseMoney(amount)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) ListGuideSpecialDateCosts(ctx context.Context, rng costing.DateRange) ([]costing.GuideSpecialDateCost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.guide_id, c.activity_id, c.special_date_id, c.amount
		FROM guide_special_date_costs c
		JOIN special_dates sd ON sd.id = c.special_date_id
		WHERE sd.date >= ? AND sd.date <= ?`,
		rng.Start.String(), rng.End.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query guide special date costs: %w", err)
	}
	defer rows.Close()

	var out []costing.GuideSpecialDateCost
	for rows.Next() {
		var c costing.GuideSpecialDateCost
		var amount string
		if err := rows.Scan(&c.GuideID, &c.ActivityID, &c.SpecialDateID, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan guide special date cost: %w", err)
		}
		c.Amount = costing.MustParseMoney(amount)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) ListGuideSpecialRules(ctx context.Context) ([]costing.GuideSpecialRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT guide_id, activity_id FROM guide_special_rules`)
	if err != nil {
		return nil, fmt.Errorf("failed to query guide special rules: %w", err)
	}
	defer rows.Close()

	var out []costing.GuideSpecialRule
	for rows.Next() {
		var r costing.GuideSpecialRule
		if err := rows.Scan(&r.GuideID, &r.ActivityID); err != nil {
			return nil, fmt.Errorf("failed to scan guide special rule: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) ListLegacyActivityCosts(ctx context.Context) ([]costing.LegacyActivityCost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT activity_id, amount FROM legacy_activity_costs`)
	if err != nil {
		return nil, fmt.Errorf("failed to query legacy activity costs: %w", err)
	}
	defer rows.Close()

	var out []costing.LegacyActivityCost
	for rows.Next() {
		var c costing.LegacyActivityCost
		var amount string
		if err := rows.Scan(&c.ActivityID, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan legacy activity cost: %w", err)
		}
		c.Amount = costing.MustParseMoney(amount)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) ListLegacyGuideActivityCosts(ctx context.Context) ([]costing.LegacyGuideActivityCost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT guide_id, activity_id, amount FROM legacy_guide_activity_costs`)
	if err != nil {
		return nil, fmt.Errorf("failed to query legacy guide activity costs: %w", err)
	}
	defer rows.Close()

	var out []costing.LegacyGuideActivityCost
	for rows.Next() {
		var c costing.LegacyGuideActivityCost
		var amount string
		if err := rows.Scan(&c.GuideID, &c.ActivityID, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan legacy guide activity cost: %w", err)
		}
		c.Amount = costing.MustParseMoney(amount)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) ListOverridesByAssignment(ctx context.Context, ids []costing.AssignmentID) ([]costing.CostOverride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(ids) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT assignment_id, amount
		FROM assignment_cost_overrides
		WHERE assignment_id IN (%s)`, placeholders(len(ids)))

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = string(id)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query overrides: %w", err)
	}
	defer rows.Close()

	var out []costing.CostOverride
	for rows.Next() {
		var ov costing.CostOverride
		var amount string
		if err := rows.Scan(&ov.AssignmentID, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan override: %w", err)
		}
		ov.Amount = costing.MustParseMoney(amount)
		out = append(out, ov)
	}
	return out, rows.Err()
}

func (s *Store) ListResourceRates(ctx context.Context, kinds []costing.ResourceKind) ([]costing.ResourceRate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := fmt.Sprintf(`
		SELECT resource_kind, resource_id, amount, rate_type
		FROM resource_rates
		WHERE resource_kind IN (%s)`, placeholders(len(kinds)))

	rows, err := s.db.QueryContext(ctx, query, kindArgs(kinds)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query resource rates: %w", err)
	}
	defer rows.Close()

	var out []costing.ResourceRate
	for rows.Next() {
		var r costing.ResourceRate
		var kind, amount, rateType string
		if err := rows.Scan(&kind, &r.ResourceID, &amount, &rateType); err != nil {
			return nil, fmt.Errorf("failed to scan resource rate: %w", err)
		}
		r.ResourceKind = costing.ResourceKind(kind)
		r.Amount = costing.MustParseMoney(amount)
		r.RateType = costing.RateType(rateType)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) ListServiceGroupsByOccurrence(ctx context.Context, ids []costing.OccurrenceID) ([]costing.ServiceGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(ids) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT DISTINCT g.id, g.guide_id, g.service_date, g.manual_cost
		FROM service_groups g
		JOIN service_group_members m ON m.group_id = g.id
		WHERE m.occurrence_id IN (%s)`, placeholders(len(ids)))

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = string(id)
	}

	groups, err := s.queryGroups(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	// Second pass: member lists.
	for i := range groups {
		members, err := s.groupMembers(ctx, groups[i].ID)
		if err != nil {
			return nil, err
		}
		groups[i].MemberIDs = members
	}
	return groups, nil
}

func (s *Store) queryGroups(ctx context.Context, query string, args ...any) ([]costing.ServiceGroup, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query service groups: %w", err)
	}
	defer rows.Close()

	var out []costing.ServiceGroup
	for rows.Next() {
		var g costing.ServiceGroup
		var date string
		var manual sql.NullString
		if err := rows.Scan(&g.ID, &g.GuideID, &date, &manual); err != nil {
			return nil, fmt.Errorf("failed to scan service group: %w", err)
		}
		d, err := costing.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("bad service group date %q: %w", date, err)
		}
		g.ServiceDate = d
		if manual.Valid && manual.String != "" {
			m := costing.MustParseMoney(manual.String)
			g.ManualCost = &m
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *Store) groupMembers(ctx context.Context, groupID costing.GroupID) ([]costing.OccurrenceID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT occurrence_id FROM service_group_members
		WHERE group_id = ?
		ORDER BY occurrence_id`, string(groupID))
	if err != nil {
		return nil, fmt.Errorf("failed to query group members: %w", err)
	}
	defer rows.Close()

	var out []costing.OccurrenceID
	for rows.Next() {
		var id costing.OccurrenceID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan group member: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// =============================================================================
// SEED WRITES - Used by the admin surface and tests, never by the engine
// =============================================================================

func (s *Store) SaveResource(ctx context.Context, r costing.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO resources (id, kind, name, excluded_from_cost)
		VALUES (?, ?, ?, ?)`,
		r.ID, string(r.Kind), r.Name, r.ExcludedFromCost)
	return err
}

func (s *Store) SaveActivity(ctx context.Context, a costing.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO activities (id, title) VALUES (?, ?)`,
		a.ID, a.Title)
	return err
}

func (s *Store) SaveOccurrence(ctx context.Context, o costing.Occurrence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO occurrences (id, activity_id, date, time, pax_sold)
		VALUES (?, ?, ?, ?, ?)`,
		o.ID, o.ActivityID, o.Date.String(), o.Time, o.PaxSold)
	return err
}

func (s *Store) SaveAssignment(ctx context.Context, a costing.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO assignments (id, resource_id, resource_kind, occurrence_id)
		VALUES (?, ?, ?, ?)`,
		a.ID, a.ResourceID, string(a.ResourceKind), a.OccurrenceID)
	return err
}

func (s *Store) SaveSeason(ctx context.Context, se costing.Season) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO seasons (id, year, name, start_date, end_date)
		VALUES (?, ?, ?, ?, ?)`,
		se.ID, se.Year, se.Name, se.Start.String(), se.End.String())
	return err
}

func (s *Store) SaveSpecialDate(ctx context.Context, sd costing.SpecialDate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO special_dates (id, date, name) VALUES (?, ?, ?)`,
		sd.ID, sd.Date.String(), sd.Name)
	return err
}

func (s *Store) SaveSeasonalCost(ctx context.Context, c costing.SeasonalCost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO seasonal_costs (activity_id, season_id, amount)
		VALUES (?, ?, ?)`,
		c.ActivityID, c.SeasonID, c.Amount.String())
	return err
}

func (s *Store) SaveSpecialDateCost(ctx context.Context, c costing.SpecialDateCost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO special_date_costs (activity_id, special_date_id, amount)
		VALUES (?, ?, ?)`,
		c.ActivityID, c.SpecialDateID, c.Amount.String())
	return err
}

func (s *Store) SaveGuideSeasonalCost(ctx context.Context, c costing.GuideSeasonalCost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO guide_seasonal_costs (guide_id, activity_id, season_id, amount)
		VALUES (?, ?, ?, ?)`,
		c.GuideID, c.ActivityID, c.SeasonID, c.Amount.String())
	return err
}

func (s *Store) SaveGuideSpecialDateCost(ctx context.Context, c costing.GuideSpecialDateCost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO guide_special_date_costs (guide_id, activity_id, special_date_id, amount)
		VALUES (?, ?, ?, ?)`,
		c.GuideID, c.ActivityID, c.SpecialDateID, c.Amount.String())
	return err
}

func (s *Store) SaveGuideSpecialRule(ctx context.Context, r costing.GuideSpecialRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO guide_special_rules (guide_id, activity_id) VALUES (?, ?)`,
		r.GuideID, r.ActivityID)
	return err
}

func (s *Store) SaveLegacyActivityCost(ctx context.Context, c costing.LegacyActivityCost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO legacy_activity_costs (activity_id, amount) VALUES (?, ?)`,
		c.ActivityID, c.Amount.String())
	return err
}

func (s *Store) SaveLegacyGuideActivityCost(ctx context.Context, c costing.LegacyGuideActivityCost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO legacy_guide_activity_costs (guide_id, activity_id, amount)
		VALUES (?, ?, ?)`,
		c.GuideID, c.ActivityID, c.Amount.String())
	return err
}

func (s *Store) SaveOverride(ctx context.Context, ov costing.CostOverride) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO assignment_cost_overrides (assignment_id, amount)
		VALUES (?, ?)`,
		ov.AssignmentID, ov.Amount.String())
	return err
}

func (s *Store) SaveResourceRate(ctx context.Context, r costing.ResourceRate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO resource_rates (resource_kind, resource_id, amount, rate_type)
		VALUES (?, ?, ?, ?)`,
		string(r.ResourceKind), r.ResourceID, r.Amount.String(), string(r.RateType))
	return err
}

// SaveServiceGroup writes the group and its member list atomically.
func (s *Store) SaveServiceGroup(ctx context.Context, g costing.ServiceGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var manual any
	if g.ManualCost != nil {
		manual = g.ManualCost.String()
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO service_groups (id, guide_id, service_date, manual_cost)
		VALUES (?, ?, ?, ?)`,
		g.ID, g.GuideID, g.ServiceDate.String(), manual); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM service_group_members WHERE group_id = ?`, g.ID); err != nil {
		return err
	}
	for _, member := range g.MemberIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO service_group_members (group_id, occurrence_id) VALUES (?, ?)`,
			g.ID, member); err != nil {
			return err
		}
	}
	return tx.Commit()
}
