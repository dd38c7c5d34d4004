// Package domain defines the core business entities for LoanEase.
// These models are independent of the transport layer and the LLM
// provider and represent the canonical data structures used throughout
// the conversation orchestrator.
package domain

import "time"

// ============================================================
// Conversation steps & enums
// ============================================================

// Step identifies the stage a conversation session is in.
type Step string

const (
	StepGreeting          Step = "greeting"
	StepIdentification    Step = "identification"
	StepNeedsAssessment   Step = "needs_assessment"
	StepOfferPresentation Step = "offer_presentation"
	StepVerification      Step = "verification"
	StepUnderwriting      Step = "underwriting"
	StepDecision          Step = "decision"
	StepSanction          Step = "sanction"

	// StepClosed is the only terminal step. A closed session still
	// accepts messages but they are answered by the generic fallback
	// handler and never advance application state.
	StepClosed Step = "closed"
)

// AppStatus is the lifecycle status of a loan application.
// It advances together with the session step but is a distinct enum.
type AppStatus string

const (
	StatusInitiated    AppStatus = "initiated"
	StatusVerification AppStatus = "verification"
	StatusUnderwriting AppStatus = "underwriting"
	StatusApproved     AppStatus = "approved"
	StatusRejected     AppStatus = "rejected"
	StatusSanctioned   AppStatus = "sanctioned"
)

// KYCStatus tracks identity/address verification of an application.
type KYCStatus string

const (
	KYCPending  KYCStatus = "pending"
	KYCVerified KYCStatus = "verified"
	KYCFailed   KYCStatus = "failed"
)

// Intent is the closed set of tags the LLM classifier may return.
// Anything the classifier produces outside this set degrades to IntentOther.
type Intent string

const (
	IntentProvideIdentity   Intent = "provide_identity"
	IntentProvideLoanAmount Intent = "provide_loan_amount"
	IntentProvideTenure     Intent = "provide_tenure"
	IntentAcceptOffer       Intent = "accept_offer"
	IntentRejectOffer       Intent = "reject_offer"
	IntentAskQuestion       Intent = "ask_question"
	IntentProvideDocument   Intent = "provide_document"
	IntentConfirm           Intent = "confirm"
	IntentGreeting          Intent = "greeting"
	IntentOther             Intent = "other"
)

// ParseIntent normalizes a raw classifier answer into the closed intent set.
func ParseIntent(raw string) Intent {
	switch Intent(raw) {
	case IntentProvideIdentity, IntentProvideLoanAmount, IntentProvideTenure,
		IntentAcceptOffer, IntentRejectOffer, IntentAskQuestion,
		IntentProvideDocument, IntentConfirm, IntentGreeting:
		return Intent(raw)
	}
	return IntentOther
}

// AgentType tags which stage persona produced an assistant message.
type AgentType string

const (
	AgentMaster       AgentType = "master"
	AgentSales        AgentType = "sales"
	AgentVerification AgentType = "verification"
	AgentUnderwriting AgentType = "underwriting"
	AgentSanction     AgentType = "sanction"
)

// AgentTypeLabels maps persona tags to display names for the chat UI.
var AgentTypeLabels = map[AgentType]string{
	AgentMaster:       "LoanEase AI",
	AgentSales:        "Sales Agent",
	AgentVerification: "Verification Agent",
	AgentUnderwriting: "Underwriting Agent",
	AgentSanction:     "Sanction Agent",
}

// ============================================================
// Customer (mock CRM record, read-only after startup)
// ============================================================

// ExistingLoan is a loan already held by a customer.
type ExistingLoan struct {
	Type            string `json:"type"`
	Amount          int64  `json:"amount"`
	EMI             int64  `json:"emi"`
	RemainingTenure int    `json:"remainingTenure"`
}

// Customer is an immutable reference record from the customer directory.
// Amounts are whole rupees.
type Customer struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Phone            string         `json:"phone"`
	Email            string         `json:"email"`
	Age              int            `json:"age"`
	City             string         `json:"city"`
	Address          string         `json:"address"`
	PANNumber        string         `json:"panNumber"`
	AadharNumber     string         `json:"aadharNumber"`
	EmploymentType   string         `json:"employmentType"` // salaried, self-employed
	MonthlyIncome    int64          `json:"monthlyIncome"`
	Employer         string         `json:"employer,omitempty"`
	ExistingLoans    []ExistingLoan `json:"existingLoans"`
	PreApprovedLimit int64          `json:"preApprovedLimit"`
	CreditScore      int            `json:"creditScore"`
	KYCVerified      bool           `json:"kycVerified"`
}

// CustomerSummary is the masked customer record exposed by GET /v1/customers.
type CustomerSummary struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Phone            string `json:"phone"`
	City             string `json:"city"`
	PreApprovedLimit int64  `json:"preApprovedLimit"`
}

// CreditBureauReport is the mock credit-bureau response for a customer.
type CreditBureauReport struct {
	CustomerID     string `json:"customerId"`
	CreditScore    int    `json:"creditScore"`
	CreditHistory  string `json:"creditHistory"` // Excellent, Good, Fair
	ActiveLoans    int    `json:"activeLoans"`
	DefaultHistory bool   `json:"defaultHistory"`
}

// ============================================================
// Loan offer & application
// ============================================================

// LoanOffer is a quoted offer from the mock offer mart.
type LoanOffer struct {
	ID            string  `json:"id"`
	CustomerID    string  `json:"customerId"`
	Amount        int64   `json:"amount"`
	InterestRate  float64 `json:"interestRate"`
	Tenure        int     `json:"tenure"`
	EMI           int64   `json:"emi"`
	ProcessingFee int64   `json:"processingFee"`
	PreApproved   bool    `json:"preApproved"`
}

// LoanApplication is the mutable per-session application record.
// It is created during needs assessment and mutated in place by every
// subsequent stage; it is never deleted.
type LoanApplication struct {
	ID                 string    `json:"id"`
	CustomerID         string    `json:"customerId"`
	CustomerName       string    `json:"customerName"`
	RequestedAmount    int64     `json:"requestedAmount"`
	ApprovedAmount     int64     `json:"approvedAmount,omitempty"`
	Tenure             int       `json:"tenure"` // months
	InterestRate       float64   `json:"interestRate"`
	EMI                int64     `json:"emi"`
	Status             AppStatus `json:"status"`
	KYCStatus          KYCStatus `json:"kycStatus"`
	CreditScore        int       `json:"creditScore,omitempty"`
	SalarySlipUploaded bool      `json:"salarySlipUploaded"`
	SalarySlipVerified bool      `json:"salarySlipVerified"`
	RejectionReason    string    `json:"rejectionReason,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// ============================================================
// Chat messages & sessions
// ============================================================

// MessageMetadata carries loan highlights for rendering offer cards.
type MessageMetadata struct {
	LoanAmount       int64   `json:"loanAmount,omitempty"`
	Tenure           int     `json:"tenure,omitempty"`
	InterestRate     float64 `json:"interestRate,omitempty"`
	Status           string  `json:"status,omitempty"`
	DocumentRequired bool    `json:"documentRequired,omitempty"`
}

// ChatMessage is one entry in a session's conversation history.
type ChatMessage struct {
	ID        string           `json:"id"`
	Role      string           `json:"role"` // user, assistant, system
	Content   string           `json:"content"`
	AgentType AgentType        `json:"agentType,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Metadata  *MessageMetadata `json:"metadata,omitempty"`
}

// ConversationSession holds the full state of one chat conversation.
type ConversationSession struct {
	ID             string           `json:"id"`
	CustomerID     string           `json:"customerId,omitempty"`
	Messages       []ChatMessage    `json:"messages"`
	Application    *LoanApplication `json:"application,omitempty"`
	CurrentStep    Step             `json:"currentStep"`
	StartedAt      time.Time        `json:"startedAt"`
	LastActivityAt time.Time        `json:"lastActivityAt"`
}

// ============================================================
// Orchestrator response & API shapes
// ============================================================

// ChatResponse is what the orchestrator returns for every processed message.
type ChatResponse struct {
	Message            ChatMessage      `json:"message"`
	Application        *LoanApplication `json:"application,omitempty"`
	CurrentStep        Step             `json:"currentStep"`
	SuggestedResponses []string         `json:"suggestedResponses,omitempty"`
}

// SendMessageRequest is the body for POST /v1/chat/send.
type SendMessageRequest struct {
	SessionID  string `json:"sessionId"`
	Message    string `json:"message"`
	CustomerID string `json:"customerId,omitempty"`
}

// ============================================================
// Sanction letter
// ============================================================

// SanctionLetter is the projection of a sanctioned application into the
// formal letter view. Dates are wall-clock-derived at projection time.
type SanctionLetter struct {
	ApplicationID      string   `json:"applicationId"`
	CustomerName       string   `json:"customerName"`
	LoanAmount         int64    `json:"loanAmount"`
	InterestRate       float64  `json:"interestRate"`
	Tenure             int      `json:"tenure"`
	EMI                int64    `json:"emi"`
	ProcessingFee      int64    `json:"processingFee"`
	DisbursementDate   string   `json:"disbursementDate"`
	SanctionDate       string   `json:"sanctionDate"`
	TermsAndConditions []string `json:"termsAndConditions"`
}

// ============================================================
// LLM gateway shapes
// ============================================================

// LoanDetails is the loosely structured result of the extraction call.
// Zero values mean "not mentioned".
type LoanDetails struct {
	Amount       int64 `json:"amount"`
	TenureMonths int   `json:"tenure"`
}

// AgentContext is the snapshot of conversation state handed to the LLM
// so generated replies stay grounded in the current application.
type AgentContext struct {
	CustomerName     string
	CustomerID       string
	PreApprovedLimit int64
	CreditScore      int
	RequestedAmount  int64
	TenureMonths     int
	InterestRate     float64
	EMI              int64
	Status           AppStatus
	History          []string // "Customer: ..." / "sales: ..." lines, most recent last
}

// ============================================================
// Health & funnel metrics API responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"`
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth is the health of one dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
}

// FunnelMetrics is returned by GET /v1/metrics/funnel.
type FunnelMetrics struct {
	SessionsStarted  int64   `json:"sessionsStarted"`
	MessagesHandled  int64   `json:"messagesHandled"`
	Approvals        int64   `json:"approvals"`
	Rejections       int64   `json:"rejections"`
	Sanctions        int64   `json:"sanctions"`
	LLMErrorRate     float64 `json:"llmErrorRate"`
	SessionsEvicted  int64   `json:"sessionsEvicted"`
	Period           string  `json:"period"`
}
