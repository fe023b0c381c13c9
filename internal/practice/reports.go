package practice

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// ReportRange is an inclusive reporting interval.
type ReportRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func (r ReportRange) contains(t time.Time) bool {
	return !t.Before(r.From) && !t.After(r.To)
}

type CaseMetrics struct {
	Total             int     `json:"total"`
	Active            int     `json:"active"`
	Pending           int     `json:"pending"`
	Closed            int     `json:"closed"`
	UpcomingDeadlines int     `json:"upcoming_deadlines"`
	SuccessRate       float64 `json:"success_rate"` // closed / total, percent

	// AverageCaseDurationDays is the mean of updated_at - created_at over
	// closed cases.
	AverageCaseDurationDays float64 `json:"average_case_duration_days"`
}

type TimeMetrics struct {
	BillableHours    float64 `json:"billable_hours"`
	NonBillableHours float64 `json:"non_billable_hours"`
	TotalHours       float64 `json:"total_hours"`
	UtilizationRate  float64 `json:"utilization_rate"` // billable / total, percent
}

type FinancialMetrics struct {
	Revenue           float64 `json:"revenue"`
	Outstanding       float64 `json:"outstanding"`
	InvoiceCount      int     `json:"invoice_count"`
	BillableHours     float64 `json:"billable_hours"`
	AverageHourlyRate float64 `json:"average_hourly_rate"`
}

type ClientMetrics struct {
	NewClients int `json:"new_clients"`
}

// Report is the reporting dashboard for one user and range.
type Report struct {
	Range     ReportRange      `json:"range"`
	Cases     CaseMetrics      `json:"cases"`
	Time      TimeMetrics      `json:"time"`
	Financial FinancialMetrics `json:"financial"`
	Clients   ClientMetrics    `json:"clients"`
}

// Dashboard loads cases, time entries, invoices and clients concurrently and
// computes the report for r.
func (s *Service) Dashboard(ctx context.Context, userID string, r ReportRange) (*Report, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if r.From.IsZero() || r.To.IsZero() {
		return nil, fmt.Errorf("%w: report range is required", ErrInvalidInput)
	}
	if r.To.Before(r.From) {
		return nil, fmt.Errorf("%w: report range ends before it starts", ErrInvalidInput)
	}

	var (
		cases    []*Case
		entries  []*TimeEntry
		invoices []*Invoice
		clients  []*Client
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cases, err = s.store.QueryCases(gctx, CaseQuery{VisibleTo: userID})
		if err != nil {
			return fmt.Errorf("querying cases: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		entries, err = s.store.ListTimeEntries(gctx, TimeEntryQuery{UserID: userID, From: &r.From, To: &r.To})
		if err != nil {
			return fmt.Errorf("listing time entries: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		invoices, err = s.store.ListInvoices(gctx, InvoiceQuery{UserID: userID, From: &r.From, To: &r.To})
		if err != nil {
			return fmt.Errorf("listing invoices: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		clients, err = s.store.ListClients(gctx, userID)
		if err != nil {
			return fmt.Errorf("listing clients: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rep := &Report{
		Range:     r,
		Cases:     caseMetrics(cases, r),
		Time:      timeMetrics(entries),
		Financial: financialMetrics(invoices, entries),
	}
	for _, c := range clients {
		if r.contains(c.CreatedAt) {
			rep.Clients.NewClients++
		}
	}
	return rep, nil
}

// caseMetrics counts cases created within r. Upcoming deadlines are the
// counted cases whose deadline also falls within r.
func caseMetrics(cases []*Case, r ReportRange) CaseMetrics {
	var (
		m          CaseMetrics
		closedSpan time.Duration
	)
	for _, c := range cases {
		if !r.contains(c.CreatedAt) {
			continue
		}
		m.Total++
		switch c.Status {
		case CaseActive:
			m.Active++
		case CasePending:
			m.Pending++
		case CaseClosed:
			m.Closed++
			closedSpan += c.UpdatedAt.Sub(c.CreatedAt)
		}
		if c.Deadline != nil && r.contains(*c.Deadline) {
			m.UpcomingDeadlines++
		}
	}
	if m.Total > 0 {
		m.SuccessRate = float64(m.Closed) / float64(m.Total) * 100
	}
	if m.Closed > 0 {
		m.AverageCaseDurationDays = closedSpan.Hours() / 24 / float64(m.Closed)
	}
	return m
}

func timeMetrics(entries []*TimeEntry) TimeMetrics {
	var m TimeMetrics
	for _, e := range entries {
		if e.Billable {
			m.BillableHours += e.Hours()
		} else {
			m.NonBillableHours += e.Hours()
		}
	}
	m.TotalHours = m.BillableHours + m.NonBillableHours
	if m.TotalHours > 0 {
		m.UtilizationRate = m.BillableHours / m.TotalHours * 100
	}
	return m
}

// financialMetrics sums invoice amounts as revenue; cancelled invoices are
// excluded and unpaid ones are also counted as outstanding.
func financialMetrics(invoices []*Invoice, entries []*TimeEntry) FinancialMetrics {
	var m FinancialMetrics
	for _, inv := range invoices {
		if inv.Status == InvoiceCancelled {
			continue
		}
		m.InvoiceCount++
		m.Revenue += inv.Amount()
		if inv.Status != InvoicePaid {
			m.Outstanding += inv.Amount()
		}
	}
	for _, e := range entries {
		if e.Billable {
			m.BillableHours += e.Hours()
		}
	}
	if m.BillableHours > 0 {
		m.AverageHourlyRate = m.Revenue / m.BillableHours
	}
	return m
}
