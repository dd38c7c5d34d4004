// Package service holds the conversation orchestrator: the state machine
// that walks a customer from greeting to sanction letter, delegating
// wording to the LLM gateway and decisions to the eligibility rules.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/loanease/loanease-go/internal/domain"
	"github.com/loanease/loanease-go/internal/infra/observability"
	"github.com/loanease/loanease-go/internal/port"
)

var tracer = otel.Tracer("service/orchestrator")

// fallbackReply is returned whenever reply generation fails; the state
// machine itself never depends on the model being up.
const fallbackReply = "I apologize for the technical difficulty. Please try again in a moment."

// stepInput carries one turn's inputs into a step handler.
type stepInput struct {
	session  *domain.ConversationSession
	customer *domain.Customer // nil until identified
	message  string
	intent   domain.Intent
	details  *domain.LoanDetails // populated during needs assessment
	snapshot *domain.AgentContext
}

type stepFn func(ctx context.Context, in *stepInput) *domain.ChatResponse

// Orchestrator drives loan conversations.
type Orchestrator struct {
	llm       port.LLMGateway
	sessions  port.SessionStore
	apps      port.ApplicationStore
	directory port.CustomerDirectory
	metrics   *observability.Metrics
	logger    *zap.Logger
	steps     map[domain.Step]stepFn
	now       func() time.Time
}

// NewOrchestrator creates the orchestrator with all dependencies injected.
func NewOrchestrator(
	llm port.LLMGateway,
	sessions port.SessionStore,
	apps port.ApplicationStore,
	directory port.CustomerDirectory,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Orchestrator {
	o := &Orchestrator{
		llm:       llm,
		sessions:  sessions,
		apps:      apps,
		directory: directory,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
	o.steps = map[domain.Step]stepFn{
		domain.StepGreeting:          o.handleGreeting,
		domain.StepIdentification:    o.handleIdentification,
		domain.StepNeedsAssessment:   o.handleNeedsAssessment,
		domain.StepOfferPresentation: o.handleOfferPresentation,
		domain.StepVerification:      o.handleVerification,
		domain.StepUnderwriting:      o.handleUnderwriting,
		domain.StepDecision:          o.handleDecision,
		domain.StepSanction:          o.handleSanction,
	}
	return o
}

// InitializeSession creates (or revisits) a session and returns the
// welcome message. The welcome text is fixed, not generated.
func (o *Orchestrator) InitializeSession(ctx context.Context, sessionID string) (*domain.ChatResponse, error) {
	_, span := tracer.Start(ctx, "Orchestrator.InitializeSession")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", sessionID))

	start := time.Now()
	defer func() { o.metrics.RecordRequestDuration("initialize_session", time.Since(start)) }()

	unlock := o.sessions.Lock(sessionID)
	defer unlock()

	session, ok := o.sessions.Get(sessionID)
	if !ok {
		session = &domain.ConversationSession{
			ID:          sessionID,
			CurrentStep: domain.StepGreeting,
			StartedAt:   o.now(),
		}
		o.metrics.IncrSessionStarted()
	}

	welcome := o.newAssistantMessage(
		"Hello! Welcome to Tata Capital's LoanEase. I'm here to help you with a personal loan today. To get started, could you please share your registered phone number or email address?",
		domain.AgentMaster, nil,
	)
	session.Messages = append(session.Messages, welcome)
	session.LastActivityAt = o.now()
	o.sessions.Put(session)

	return &domain.ChatResponse{
		Message:            welcome,
		CurrentStep:        session.CurrentStep,
		SuggestedResponses: []string{"9876543213", "9876543214", "I'm a new customer"},
	}, nil
}

// ProcessMessage runs one conversation turn. Turns on the same session
// are serialized by the session lock; intent classification and loan
// detail extraction run concurrently, both degrading internally.
func (o *Orchestrator) ProcessMessage(ctx context.Context, req *domain.SendMessageRequest) (*domain.ChatResponse, error) {
	ctx, span := tracer.Start(ctx, "Orchestrator.ProcessMessage")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", req.SessionID))

	if strings.TrimSpace(req.Message) == "" {
		return nil, &domain.ErrValidation{Field: "message", Message: "must not be empty"}
	}

	start := time.Now()
	defer func() { o.metrics.RecordRequestDuration("process_message", time.Since(start)) }()

	unlock := o.sessions.Lock(req.SessionID)
	defer unlock()

	session, ok := o.sessions.Get(req.SessionID)
	if !ok {
		session = &domain.ConversationSession{
			ID:          req.SessionID,
			CurrentStep: domain.StepGreeting,
			StartedAt:   o.now(),
		}
		o.metrics.IncrSessionStarted()
	}

	session.Messages = append(session.Messages, domain.ChatMessage{
		ID:        uuid.NewString(),
		Role:      "user",
		Content:   req.Message,
		Timestamp: o.now(),
	})

	var customer *domain.Customer
	if session.CustomerID != "" {
		customer, _ = o.directory.FindByID(session.CustomerID)
	} else if req.CustomerID != "" {
		if c, ok := o.directory.FindByID(req.CustomerID); ok {
			customer = c
			session.CustomerID = c.ID
		}
	}

	in := &stepInput{
		session:  session,
		customer: customer,
		message:  req.Message,
		snapshot: buildSnapshot(session, customer),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		intent, err := o.llm.ClassifyIntent(gctx, req.Message, session.CurrentStep)
		if err != nil {
			intent = domain.IntentOther
		}
		in.intent = intent
		return nil
	})
	if session.CurrentStep == domain.StepNeedsAssessment {
		g.Go(func() error {
			details, err := o.llm.ExtractLoanDetails(gctx, req.Message)
			if err != nil {
				details = &domain.LoanDetails{}
			}
			in.details = details
			return nil
		})
	}
	_ = g.Wait() // both branches degrade internally

	o.metrics.IncrMessage(session.CurrentStep)
	o.metrics.IncrIntent(in.intent)
	span.SetAttributes(
		attribute.String("chat.step", string(session.CurrentStep)),
		attribute.String("chat.intent", string(in.intent)),
	)

	handler, ok := o.steps[session.CurrentStep]
	if !ok {
		handler = o.handleGeneric
	}
	resp := handler(ctx, in)

	session.Messages = append(session.Messages, resp.Message)
	session.CurrentStep = resp.CurrentStep
	session.LastActivityAt = o.now()
	if resp.Application != nil {
		session.Application = resp.Application
		o.apps.Put(resp.Application)
	}
	o.sessions.Put(session)

	return resp, nil
}

// HandleSalarySlipUpload records the uploaded slip against the session's
// application and immediately re-runs the underwriting decision.
func (o *Orchestrator) HandleSalarySlipUpload(ctx context.Context, sessionID, applicationID, fileName string, fileSize int64) (*domain.ChatResponse, error) {
	ctx, span := tracer.Start(ctx, "Orchestrator.HandleSalarySlipUpload")
	defer span.End()
	span.SetAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("application.id", applicationID),
	)

	start := time.Now()
	defer func() { o.metrics.RecordRequestDuration("salary_slip_upload", time.Since(start)) }()

	unlock := o.sessions.Lock(sessionID)
	defer unlock()

	session, ok := o.sessions.Get(sessionID)
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "session", ID: sessionID}
	}

	if session.Application == nil || session.Application.ID != applicationID {
		msg := o.newAssistantMessage(
			"I couldn't find your application. Please try again or restart the conversation.",
			domain.AgentMaster, nil,
		)
		session.Messages = append(session.Messages, msg)
		session.LastActivityAt = o.now()
		o.sessions.Put(session)
		return &domain.ChatResponse{Message: msg, CurrentStep: session.CurrentStep}, nil
	}

	app := session.Application
	app.SalarySlipUploaded = true
	app.SalarySlipVerified = true // demo: upload implies verification
	app.UpdatedAt = o.now()

	if report, ok := o.directory.CreditReport(session.CustomerID); ok {
		app.CreditScore = report.CreditScore
	}

	o.logger.Info("salary slip uploaded",
		zap.String("application_id", applicationID),
		zap.String("file_name", fileName),
		zap.Int64("file_size", fileSize),
	)

	var resp *domain.ChatResponse
	if customer, ok := o.directory.FindByID(session.CustomerID); ok {
		resp = o.decideAfterSalarySlip(session, customer)
	} else {
		resp = &domain.ChatResponse{
			Message: o.newAssistantMessage(
				"Your salary slip has been uploaded successfully. Processing your application...",
				domain.AgentUnderwriting, nil,
			),
			Application: app,
			CurrentStep: domain.StepUnderwriting,
		}
	}

	session.Messages = append(session.Messages, resp.Message)
	session.CurrentStep = resp.CurrentStep
	session.LastActivityAt = o.now()
	if resp.Application != nil {
		session.Application = resp.Application
		o.apps.Put(resp.Application)
	}
	o.sessions.Put(session)

	return resp, nil
}

// Session returns a session by ID.
func (o *Orchestrator) Session(sessionID string) (*domain.ConversationSession, error) {
	session, ok := o.sessions.Get(sessionID)
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "session", ID: sessionID}
	}
	return session, nil
}

// Application returns an application by ID.
func (o *Orchestrator) Application(applicationID string) (*domain.LoanApplication, error) {
	app, ok := o.apps.Get(applicationID)
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "application", ID: applicationID}
	}
	return app, nil
}

// Customers returns the masked customer book for the demo picker.
func (o *Orchestrator) Customers() []domain.CustomerSummary {
	all := o.directory.All()
	out := make([]domain.CustomerSummary, 0, len(all))
	for _, c := range all {
		out = append(out, domain.CustomerSummary{
			ID:               c.ID,
			Name:             c.Name,
			Phone:            maskPhone(c.Phone),
			City:             c.City,
			PreApprovedLimit: c.PreApprovedLimit,
		})
	}
	return out
}

// CreditReport returns the mock bureau report for a customer.
func (o *Orchestrator) CreditReport(customerID string) (*domain.CreditBureauReport, error) {
	report, ok := o.directory.CreditReport(customerID)
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "customer", ID: customerID}
	}
	return report, nil
}

// Offers quotes a customer's standard offer ladder: the full pre-approved
// limit plus 50% and 75% cuts.
func (o *Orchestrator) Offers(customerID string) ([]domain.LoanOffer, error) {
	customer, ok := o.directory.FindByID(customerID)
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "customer", ID: customerID}
	}
	offers := make([]domain.LoanOffer, 0, 3)
	for _, amount := range []int64{
		customer.PreApprovedLimit,
		customer.PreApprovedLimit / 2,
		customer.PreApprovedLimit * 3 / 4,
	} {
		if offer, ok := o.directory.QuoteOffer(customerID, amount, domain.DefaultTenureMonths); ok {
			offers = append(offers, *offer)
		}
	}
	return offers, nil
}

// generate asks the LLM for a persona reply, falling back to the canned
// apology so a turn always produces something.
func (o *Orchestrator) generate(ctx context.Context, persona domain.AgentType, userMessage string, snapshot *domain.AgentContext, extra string) string {
	text, err := o.llm.Generate(ctx, persona, userMessage, snapshot, extra)
	if err != nil {
		o.logger.Warn("reply generation failed, using fallback",
			zap.String("persona", string(persona)), zap.Error(err))
		return fallbackReply
	}
	return text
}

func (o *Orchestrator) newAssistantMessage(content string, agent domain.AgentType, metadata *domain.MessageMetadata) domain.ChatMessage {
	return domain.ChatMessage{
		ID:        uuid.NewString(),
		Role:      "assistant",
		Content:   content,
		AgentType: agent,
		Timestamp: o.now(),
		Metadata:  metadata,
	}
}

func (o *Orchestrator) newApplicationID() string {
	return "APP-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// buildSnapshot projects session + customer state into the LLM context.
func buildSnapshot(session *domain.ConversationSession, customer *domain.Customer) *domain.AgentContext {
	s := &domain.AgentContext{}
	if customer != nil {
		s.CustomerName = customer.Name
		s.CustomerID = customer.ID
		s.PreApprovedLimit = customer.PreApprovedLimit
		s.CreditScore = customer.CreditScore
	}
	if app := session.Application; app != nil {
		if app.CreditScore > 0 {
			s.CreditScore = app.CreditScore
		}
		s.RequestedAmount = app.RequestedAmount
		s.TenureMonths = app.Tenure
		s.InterestRate = app.InterestRate
		s.EMI = app.EMI
		s.Status = app.Status
	}
	s.History = make([]string, 0, len(session.Messages))
	for _, m := range session.Messages {
		speaker := "Customer"
		if m.Role != "user" {
			speaker = string(m.AgentType)
			if speaker == "" {
				speaker = "AI"
			}
		}
		s.History = append(s.History, speaker+": "+m.Content)
	}
	return s
}

// maskPhone keeps the last four characters and pads to ten with '*'.
func maskPhone(phone string) string {
	runes := []rune(phone)
	if len(runes) > 4 {
		runes = runes[len(runes)-4:]
	}
	masked := string(runes)
	for len([]rune(masked)) < 10 {
		masked = "*" + masked
	}
	return masked
}
