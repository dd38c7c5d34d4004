// Package directory is the in-process customer book: a fixed set of
// synthetic CRM records seeded at startup, plus the mock credit-bureau
// view and offer pricing derived from them. Records are read-only after
// construction, so lookups need no locking.
package directory

import (
	"fmt"
	"strings"
	"time"

	"github.com/loanease/loanease-go/internal/domain"
)

// Directory serves seeded customers, credit reports and offer quotes.
type Directory struct {
	customers []*domain.Customer
	byID      map[string]*domain.Customer
}

// New builds a Directory over the default synthetic dataset.
func New() *Directory {
	return NewWith(seedCustomers())
}

// NewWith builds a Directory over the given records, preserving order.
// Used by tests that need profiles outside the default dataset.
func NewWith(customers []*domain.Customer) *Directory {
	byID := make(map[string]*domain.Customer, len(customers))
	for _, c := range customers {
		byID[c.ID] = c
	}
	return &Directory{customers: customers, byID: byID}
}

// FindByIdentifier matches phone (exact), email (case-insensitive) or name
// (case-insensitive substring), checked in that order per record, records
// in seeding order. First match wins.
func (d *Directory) FindByIdentifier(identifier string) (*domain.Customer, bool) {
	normalized := strings.ToLower(strings.TrimSpace(identifier))
	if normalized == "" {
		return nil, false
	}
	for _, c := range d.customers {
		if c.Phone == normalized ||
			strings.ToLower(c.Email) == normalized ||
			strings.Contains(strings.ToLower(c.Name), normalized) {
			return c, true
		}
	}
	return nil, false
}

// FindByID looks a customer up by record ID.
func (d *Directory) FindByID(id string) (*domain.Customer, bool) {
	c, ok := d.byID[id]
	return c, ok
}

// All returns every customer in seeding order.
func (d *Directory) All() []*domain.Customer {
	return d.customers
}

// CreditReport builds the mock bureau response for a customer.
func (d *Directory) CreditReport(customerID string) (*domain.CreditBureauReport, bool) {
	c, ok := d.byID[customerID]
	if !ok {
		return nil, false
	}
	history := "Fair"
	switch {
	case c.CreditScore >= 750:
		history = "Excellent"
	case c.CreditScore >= 700:
		history = "Good"
	}
	return &domain.CreditBureauReport{
		CustomerID:     c.ID,
		CreditScore:    c.CreditScore,
		CreditHistory:  history,
		ActiveLoans:    len(c.ExistingLoans),
		DefaultHistory: false,
	}, true
}

// QuoteOffer prices amount/tenureMonths for a customer off the credit-score
// rate ladder. Amount 0 quotes the full pre-approved limit; tenure 0 uses
// the default.
func (d *Directory) QuoteOffer(customerID string, amount int64, tenureMonths int) (*domain.LoanOffer, bool) {
	c, ok := d.byID[customerID]
	if !ok {
		return nil, false
	}
	if amount <= 0 {
		amount = c.PreApprovedLimit
	}
	if tenureMonths <= 0 {
		tenureMonths = domain.DefaultTenureMonths
	}
	rate := domain.RateForScore(c.CreditScore)
	return &domain.LoanOffer{
		ID:            fmt.Sprintf("OFFER-%s-%d", c.ID, time.Now().UnixMilli()),
		CustomerID:    c.ID,
		Amount:        amount,
		InterestRate:  rate,
		Tenure:        tenureMonths,
		EMI:           domain.EMI(amount, rate, tenureMonths),
		ProcessingFee: domain.ProcessingFee(amount),
		PreApproved:   amount <= c.PreApprovedLimit,
	}, true
}
