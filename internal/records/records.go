// Package records implements duplicate resolution and lead persistence
// against the external records store. The store is the sole source of truth
// for leads; this package holds no durable state of its own.
package records

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/yobot/leadflow/internal/model"
	"github.com/yobot/leadflow/internal/resilience"
	"github.com/yobot/leadflow/pkg/airtable"
)

// DedupStatus is the outcome of a duplicate lookup. Unavailable is
// distinguished from None so callers can report that the check did not run,
// even though both proceed as "no duplicate" (fail-open, a known risk: a
// transient lookup error lets a duplicate row through).
type DedupStatus string

const (
	DedupFound       DedupStatus = "found"
	DedupNone        DedupStatus = "none"
	DedupUnavailable DedupStatus = "unavailable"
)

// Dedup is the result of a duplicate lookup.
type Dedup struct {
	Status   DedupStatus
	RecordID string
}

// Store reads and writes lead rows and audit events in the records store.
type Store struct {
	client      airtable.Client
	leadsTable  string
	eventsTable string
	mapping     Mapping
	breaker     *resilience.CircuitBreaker
	now         func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithMapping overrides the default column mapping.
func WithMapping(m Mapping) StoreOption {
	return func(s *Store) {
		s.mapping = m
	}
}

// WithCircuitBreaker guards store calls with the given breaker.
func WithCircuitBreaker(cb *resilience.CircuitBreaker) StoreOption {
	return func(s *Store) {
		s.breaker = cb
	}
}

// WithNow sets a fixed clock for testing.
func WithNow(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a records Store over the given client and tables.
func NewStore(client airtable.Client, leadsTable, eventsTable string, opts ...StoreOption) *Store {
	s := &Store{
		client:      client,
		leadsTable:  leadsTable,
		eventsTable: eventsTable,
		mapping:     DefaultMapping(),
		breaker:     resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig()),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// escapeFormula makes a value safe for interpolation into a filter formula.
func escapeFormula(v string) string {
	return strings.ReplaceAll(v, `"`, `\"`)
}

// dedupFormula builds the lookup filter for a lead. Email wins when present;
// otherwise full name plus a domain substring match on the website column.
// Returns "" when the lead carries neither, in which case no lookup is
// possible and the lead is treated as new.
func (s *Store) dedupFormula(lead model.Lead) string {
	if lead.Email != "" {
		return fmt.Sprintf(`{%s} = "%s"`, s.mapping.Leads.Email, escapeFormula(lead.Email))
	}
	fullName := lead.FullName()
	if fullName != "" && lead.Domain != "" {
		return fmt.Sprintf(`AND({%s} = "%s", FIND("%s", {%s}))`,
			s.mapping.Leads.FullName, escapeFormula(fullName),
			escapeFormula(lead.Domain), s.mapping.Leads.Website,
		)
	}
	return ""
}

// FindDuplicate checks whether a lead already exists. The lookup is capped
// to one row and takes the store's own ordering as-is. Transient transport
// and throttling failures are retried inside the client; whatever still
// fails here is logged and reported as DedupUnavailable, never returned.
func (s *Store) FindDuplicate(ctx context.Context, lead model.Lead) Dedup {
	formula := s.dedupFormula(lead)
	if formula == "" {
		zap.L().Debug("records: lead has no dedup key, treating as new",
			zap.String("subject", lead.Subject()),
		)
		return Dedup{Status: DedupNone}
	}

	rows, err := resilience.ExecuteVal(ctx, s.breaker, func(ctx context.Context) ([]airtable.Record, error) {
		return s.client.ListRecords(ctx, s.leadsTable,
			airtable.WithFilterFormula(formula),
			airtable.WithMaxRecords(1),
		)
	})
	if err != nil {
		zap.L().Warn("records: duplicate lookup unavailable, proceeding as new",
			zap.String("subject", lead.Subject()),
			zap.Error(err),
		)
		return Dedup{Status: DedupUnavailable}
	}

	if len(rows) == 0 {
		return Dedup{Status: DedupNone}
	}
	return Dedup{Status: DedupFound, RecordID: rows[0].ID}
}

// Insert writes a new lead row with the sync and duplicate flags cleared
// and returns the store-assigned record identifier.
func (s *Store) Insert(ctx context.Context, lead model.Lead, enr model.Enrichment) (string, error) {
	cols := s.mapping.Leads
	fields := map[string]any{
		cols.Timestamp: s.now().UTC().Format(time.RFC3339),
		cols.FullName:  lead.FullName(),
		cols.Email:     lead.Email,
		cols.Phone:     lead.Phone,
		cols.Company:   lead.Company,
		cols.Website:   lead.Domain,
		cols.Synced:    false,
		cols.Duplicate: false,
		cols.Source:    lead.Source,
	}
	if enr.Title != "" {
		fields[cols.Title] = enr.Title
	}
	if enr.ProfileURL != "" {
		fields[cols.Profile] = enr.ProfileURL
	}

	rec, err := resilience.ExecuteVal(ctx, s.breaker, func(ctx context.Context) (*airtable.Record, error) {
		return s.client.CreateRecord(ctx, s.leadsTable, fields)
	})
	if err != nil {
		return "", eris.Wrap(err, "records: insert lead")
	}
	return rec.ID, nil
}

// MarkDuplicate sets the duplicate flag on an existing row.
func (s *Store) MarkDuplicate(ctx context.Context, recordID string) error {
	_, err := resilience.ExecuteVal(ctx, s.breaker, func(ctx context.Context) (*airtable.Record, error) {
		return s.client.UpdateRecord(ctx, s.leadsTable, recordID, map[string]any{
			s.mapping.Leads.Duplicate: true,
		})
	})
	if err != nil {
		return eris.Wrapf(err, "records: mark duplicate %s", recordID)
	}
	return nil
}

// UpdateExisting patches only the enriched fields that are present onto an
// existing row; absent fields are left untouched.
func (s *Store) UpdateExisting(ctx context.Context, recordID string, enr model.Enrichment) error {
	cols := s.mapping.Leads
	fields := map[string]any{}
	if enr.Email != "" {
		fields[cols.Email] = enr.Email
	}
	if enr.Phone != "" {
		fields[cols.Phone] = enr.Phone
	}
	if enr.Title != "" {
		fields[cols.Title] = enr.Title
	}
	if enr.ProfileURL != "" {
		fields[cols.Profile] = enr.ProfileURL
	}
	if len(fields) == 0 {
		return nil
	}

	_, err := resilience.ExecuteVal(ctx, s.breaker, func(ctx context.Context) (*airtable.Record, error) {
		return s.client.UpdateRecord(ctx, s.leadsTable, recordID, fields)
	})
	if err != nil {
		return eris.Wrapf(err, "records: update existing %s", recordID)
	}
	return nil
}

// SetSynced patches the CRM sync flag on a row.
func (s *Store) SetSynced(ctx context.Context, recordID string, synced bool) error {
	_, err := resilience.ExecuteVal(ctx, s.breaker, func(ctx context.Context) (*airtable.Record, error) {
		return s.client.UpdateRecord(ctx, s.leadsTable, recordID, map[string]any{
			s.mapping.Leads.Synced: synced,
		})
	})
	if err != nil {
		return eris.Wrapf(err, "records: set synced %s", recordID)
	}
	return nil
}

// AppendEvent writes one audit row to the events table.
func (s *Store) AppendEvent(ctx context.Context, ev model.Event) error {
	cols := s.mapping.Events
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}
	err := s.breaker.Execute(ctx, func(ctx context.Context) error {
		_, err := s.client.CreateRecord(ctx, s.eventsTable, map[string]any{
			cols.Type:      string(ev.Type),
			cols.Source:    ev.Source,
			cols.Subject:   ev.Subject,
			cols.Status:    string(ev.Status),
			cols.Detail:    ev.Detail,
			cols.Timestamp: ts.UTC().Format(time.RFC3339),
		})
		return err
	})
	if err != nil {
		return eris.Wrap(err, "records: append event")
	}
	return nil
}
