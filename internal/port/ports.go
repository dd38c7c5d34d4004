// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/loanease/loanease-go/internal/domain"
)

// LLMGateway talks to the language model. Implementations must degrade
// gracefully: ExtractLoanDetails and ClassifyIntent absorb provider
// failures and return zero values, while Generate surfaces the error so
// callers can fall back to a canned reply.
type LLMGateway interface {
	// Generate produces the persona-voiced reply for a conversation turn.
	// extra carries step-specific instructions appended to the prompt.
	Generate(ctx context.Context, persona domain.AgentType, userMessage string, snapshot *domain.AgentContext, extra string) (string, error)

	// ExtractLoanDetails pulls a structured amount/tenure out of free text.
	// Fields the message does not state come back as zero values.
	ExtractLoanDetails(ctx context.Context, message string) (*domain.LoanDetails, error)

	// ClassifyIntent maps free text onto the closed intent set. The
	// current step is given as classification context.
	ClassifyIntent(ctx context.Context, message string, step domain.Step) (domain.Intent, error)
}

// SessionStore holds conversation sessions in memory. Put refreshes the
// session's recency for eviction ordering.
type SessionStore interface {
	Get(id string) (*domain.ConversationSession, bool)
	Put(session *domain.ConversationSession)
	// Lock serializes turns on one session; the returned func releases it.
	Lock(id string) (unlock func())
	Len() int
}

// ApplicationStore holds loan applications.
type ApplicationStore interface {
	Get(id string) (*domain.LoanApplication, bool)
	Put(app *domain.LoanApplication)
	ListByCustomer(customerID string) []*domain.LoanApplication
}

// CustomerDirectory serves the seeded customer book, the credit bureau
// view, and pre-computed offer quotes.
type CustomerDirectory interface {
	// FindByIdentifier matches phone (exact), email (case-insensitive) or
	// name (case-insensitive substring), in seeding order.
	FindByIdentifier(identifier string) (*domain.Customer, bool)
	FindByID(id string) (*domain.Customer, bool)
	All() []*domain.Customer
	CreditReport(customerID string) (*domain.CreditBureauReport, bool)
	// QuoteOffer prices a principal/tenure for the customer using the
	// credit-score rate ladder.
	QuoteOffer(customerID string, amount int64, tenureMonths int) (*domain.LoanOffer, bool)
}
