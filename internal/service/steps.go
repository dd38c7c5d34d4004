package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/loanease/loanease-go/internal/domain"
)

// Step handlers. Each consumes one turn and returns the reply, the next
// step and the (possibly mutated) application. Deterministic transitions
// use fixed wording; everything conversational goes through the LLM.

func (o *Orchestrator) handleGreeting(ctx context.Context, in *stepInput) *domain.ChatResponse {
	if customer, ok := o.directory.FindByIdentifier(in.message); ok {
		in.session.CustomerID = customer.ID
		return &domain.ChatResponse{
			Message: o.newAssistantMessage(fmt.Sprintf(
				"Great to have you here, %s! I can see you have a pre-approved personal loan offer of up to ₹%s. How much would you like to borrow today?",
				customer.Name, domain.FormatINR(customer.PreApprovedLimit),
			), domain.AgentMaster, nil),
			CurrentStep: domain.StepNeedsAssessment,
			SuggestedResponses: []string{
				"₹" + domain.FormatINR(customer.PreApprovedLimit),
				"₹" + domain.FormatINR(customer.PreApprovedLimit/2),
				"I need more than my pre-approved limit",
			},
		}
	}

	reply := o.generate(ctx, domain.AgentMaster, in.message, in.snapshot,
		"The customer identity could not be found. Ask them to verify their phone number or email again, or let them know they might be a new customer.")
	return &domain.ChatResponse{
		Message:            o.newAssistantMessage(reply, domain.AgentMaster, nil),
		CurrentStep:        domain.StepIdentification,
		SuggestedResponses: []string{"Let me try again", "I'm a new customer"},
	}
}

func (o *Orchestrator) handleIdentification(ctx context.Context, in *stepInput) *domain.ChatResponse {
	if customer, ok := o.directory.FindByIdentifier(in.message); ok {
		in.session.CustomerID = customer.ID
		return &domain.ChatResponse{
			Message: o.newAssistantMessage(fmt.Sprintf(
				"Found you, %s! You have a pre-approved personal loan offer of ₹%s at an attractive interest rate. How much would you like to borrow?",
				customer.Name, domain.FormatINR(customer.PreApprovedLimit),
			), domain.AgentMaster, nil),
			CurrentStep: domain.StepNeedsAssessment,
			SuggestedResponses: []string{
				"₹" + domain.FormatINR(customer.PreApprovedLimit),
				"₹" + domain.FormatINR(customer.PreApprovedLimit*3/2),
				"What's my maximum limit?",
			},
		}
	}

	if strings.Contains(strings.ToLower(in.message), "new customer") {
		return &domain.ChatResponse{
			Message: o.newAssistantMessage(
				"I appreciate your interest! For new customers, please visit our nearest branch or apply through our website for a personalized loan offer. Is there anything else I can help you with today?",
				domain.AgentMaster, nil,
			),
			CurrentStep:        domain.StepClosed,
			SuggestedResponses: []string{"Find nearest branch", "Visit website"},
		}
	}

	reply := o.generate(ctx, domain.AgentMaster, in.message, in.snapshot,
		"Still unable to identify the customer. Be helpful and suggest trying their registered phone or email.")
	return &domain.ChatResponse{
		Message:            o.newAssistantMessage(reply, domain.AgentMaster, nil),
		CurrentStep:        domain.StepIdentification,
		SuggestedResponses: []string{"9876543213", "9876543214", "I'm a new customer"},
	}
}

func (o *Orchestrator) handleNeedsAssessment(ctx context.Context, in *stepInput) *domain.ChatResponse {
	customer := in.customer
	if customer == nil {
		return o.requireIdentity(ctx, in)
	}

	details := in.details
	if details == nil {
		details = &domain.LoanDetails{}
	}
	requestedAmount := details.Amount
	tenure := details.TenureMonths
	if tenure <= 0 {
		tenure = domain.DefaultTenureMonths
	}

	if requestedAmount <= 0 {
		reply := o.generate(ctx, domain.AgentSales, in.message, in.snapshot,
			"Ask the customer to specify the loan amount they need. Mention their pre-approved limit.")
		return &domain.ChatResponse{
			Message:     o.newAssistantMessage(reply, domain.AgentSales, nil),
			CurrentStep: domain.StepNeedsAssessment,
			SuggestedResponses: []string{
				"₹" + domain.FormatINR(customer.PreApprovedLimit),
				"₹3,00,000",
				"₹5,00,000",
			},
		}
	}

	rate := domain.RateForScore(customer.CreditScore)
	emi := domain.EMI(requestedAmount, rate, tenure)

	app := &domain.LoanApplication{
		ID:              o.newApplicationID(),
		CustomerID:      customer.ID,
		CustomerName:    customer.Name,
		RequestedAmount: requestedAmount,
		Tenure:          tenure,
		InterestRate:    rate,
		EMI:             emi,
		Status:          domain.StatusInitiated,
		KYCStatus:       domain.KYCPending,
		CreatedAt:       o.now(),
		UpdatedAt:       o.now(),
	}

	maxLimit := customer.PreApprovedLimit * domain.LimitMultiple
	if requestedAmount > maxLimit {
		app.Status = domain.StatusRejected
		app.RejectionReason = fmt.Sprintf(
			"Requested amount of ₹%s exceeds maximum lending limit of ₹%s (2x pre-approved limit).",
			domain.FormatINR(requestedAmount), domain.FormatINR(maxLimit),
		)
		o.metrics.IncrOutcome(domain.StatusRejected)

		// Over-limit requests stay in needs assessment so the customer
		// can try a smaller amount.
		return &domain.ChatResponse{
			Message: o.newAssistantMessage(fmt.Sprintf(
				"I appreciate your interest in ₹%s. However, this exceeds our maximum lending limit for your profile. Based on your pre-approved limit of ₹%s, the maximum I can offer is ₹%s. Would you like to proceed with a lower amount?",
				domain.FormatINR(requestedAmount), domain.FormatINR(customer.PreApprovedLimit), domain.FormatINR(maxLimit),
			), domain.AgentSales, nil),
			Application: app,
			CurrentStep: domain.StepNeedsAssessment,
			SuggestedResponses: []string{
				"₹" + domain.FormatINR(maxLimit),
				"₹" + domain.FormatINR(customer.PreApprovedLimit),
				"No, thank you",
			},
		}
	}

	var text string
	if requestedAmount <= customer.PreApprovedLimit {
		text = fmt.Sprintf(
			"Excellent choice! Based on your profile, here's your personalized offer:\n\nLoan Amount: ₹%s\nInterest Rate: %.1f%% per annum\nTenure: %d months\nMonthly EMI: ₹%s\n\nThis is within your pre-approved limit, so we can process this quickly! Would you like to proceed with this offer?",
			domain.FormatINR(requestedAmount), rate, tenure, domain.FormatINR(emi),
		)
	} else {
		text = fmt.Sprintf(
			"I can see you'd like ₹%s, which is above your pre-approved limit of ₹%s. Here's what I can offer:\n\nLoan Amount: ₹%s\nInterest Rate: %.1f%% per annum\nTenure: %d months\nMonthly EMI: ₹%s\n\nWe'll need to verify your income with a salary slip to proceed. Would you like to continue?",
			domain.FormatINR(requestedAmount), domain.FormatINR(customer.PreApprovedLimit),
			domain.FormatINR(requestedAmount), rate, tenure, domain.FormatINR(emi),
		)
	}

	return &domain.ChatResponse{
		Message: o.newAssistantMessage(text, domain.AgentSales, &domain.MessageMetadata{
			LoanAmount:   requestedAmount,
			Tenure:       tenure,
			InterestRate: rate,
		}),
		Application:        app,
		CurrentStep:        domain.StepOfferPresentation,
		SuggestedResponses: []string{"Yes, proceed", "I want a different amount", "What documents do you need?"},
	}
}

func (o *Orchestrator) handleOfferPresentation(ctx context.Context, in *stepInput) *domain.ChatResponse {
	customer := in.customer
	if customer == nil {
		return o.requireIdentity(ctx, in)
	}
	lower := strings.ToLower(in.message)

	accepted := in.intent == domain.IntentAcceptOffer || in.intent == domain.IntentConfirm ||
		strings.Contains(lower, "yes") || strings.Contains(lower, "proceed") || strings.Contains(lower, "accept")
	if accepted {
		app := in.session.Application
		if app != nil {
			app.Status = domain.StatusVerification
			app.UpdatedAt = o.now()
		}
		return &domain.ChatResponse{
			Message: o.newAssistantMessage(fmt.Sprintf(
				"Great! Let me quickly verify your details. I can see your KYC is already verified with us. Your registered address is: %s. Is this correct?",
				customer.Address,
			), domain.AgentVerification, nil),
			Application:        app,
			CurrentStep:        domain.StepVerification,
			SuggestedResponses: []string{"Yes, that's correct", "I need to update my address"},
		}
	}

	if in.intent == domain.IntentRejectOffer || strings.Contains(lower, "different") || strings.Contains(lower, "change") {
		return &domain.ChatResponse{
			Message: o.newAssistantMessage(
				"No problem! What loan amount would work better for you? I'm here to find the best solution.",
				domain.AgentSales, nil,
			),
			Application:        in.session.Application,
			CurrentStep:        domain.StepNeedsAssessment,
			SuggestedResponses: []string{"₹3,00,000", "₹5,00,000", "₹7,00,000"},
		}
	}

	reply := o.generate(ctx, domain.AgentSales, in.message, in.snapshot,
		"The customer hasn't clearly accepted or rejected the offer. Answer their question and gently ask if they'd like to proceed.")
	return &domain.ChatResponse{
		Message:            o.newAssistantMessage(reply, domain.AgentSales, nil),
		Application:        in.session.Application,
		CurrentStep:        domain.StepOfferPresentation,
		SuggestedResponses: []string{"Yes, proceed with the offer", "I have more questions"},
	}
}

func (o *Orchestrator) handleVerification(ctx context.Context, in *stepInput) *domain.ChatResponse {
	customer := in.customer
	if customer == nil {
		return o.requireIdentity(ctx, in)
	}
	lower := strings.ToLower(in.message)

	confirmed := in.intent == domain.IntentConfirm ||
		strings.Contains(lower, "yes") || strings.Contains(lower, "correct")
	if !confirmed {
		reply := o.generate(ctx, domain.AgentVerification, in.message, in.snapshot,
			"Handle the customer's response about verification. If they need to update details, guide them.")
		return &domain.ChatResponse{
			Message:            o.newAssistantMessage(reply, domain.AgentVerification, nil),
			Application:        in.session.Application,
			CurrentStep:        domain.StepVerification,
			SuggestedResponses: []string{"Yes, my details are correct", "I need to update something"},
		}
	}

	app := in.session.Application
	if app == nil {
		return &domain.ChatResponse{
			Message: o.newAssistantMessage(
				"I'm sorry, there was an issue with your application. Please try again.",
				domain.AgentMaster, nil,
			),
			CurrentStep:        domain.StepClosed,
			SuggestedResponses: []string{"Start over"},
		}
	}

	app.KYCStatus = domain.KYCVerified
	app.Status = domain.StatusUnderwriting
	app.UpdatedAt = o.now()

	// Amounts above the pre-approved limit need income proof first.
	if app.RequestedAmount > customer.PreApprovedLimit {
		return &domain.ChatResponse{
			Message: o.newAssistantMessage(
				"KYC verified successfully! Since your requested amount exceeds your pre-approved limit, I'll need your latest salary slip to verify your income. Please upload it using the file upload option.",
				domain.AgentUnderwriting, nil,
			),
			Application:        app,
			CurrentStep:        domain.StepUnderwriting,
			SuggestedResponses: []string{"I'll upload now", "What formats are accepted?"},
		}
	}

	return o.decideInstantly(in.session, customer)
}

func (o *Orchestrator) handleUnderwriting(ctx context.Context, in *stepInput) *domain.ChatResponse {
	customer := in.customer
	if customer == nil {
		return o.requireIdentity(ctx, in)
	}

	app := in.session.Application
	if app != nil && app.SalarySlipUploaded && app.SalarySlipVerified {
		return o.decideAfterSalarySlip(in.session, customer)
	}

	reply := o.generate(ctx, domain.AgentUnderwriting, in.message, in.snapshot,
		"The customer needs to upload their salary slip. Guide them through the process.")
	return &domain.ChatResponse{
		Message:            o.newAssistantMessage(reply, domain.AgentUnderwriting, nil),
		Application:        app,
		CurrentStep:        domain.StepUnderwriting,
		SuggestedResponses: []string{"I'll upload now", "PDF", "What's the maximum file size?"},
	}
}

func (o *Orchestrator) handleDecision(ctx context.Context, in *stepInput) *domain.ChatResponse {
	customer := in.customer
	if customer == nil {
		return o.requireIdentity(ctx, in)
	}
	lower := strings.ToLower(in.message)

	if in.intent == domain.IntentConfirm || strings.Contains(lower, "yes") || strings.Contains(lower, "generate") {
		app := in.session.Application
		if app != nil {
			app.Status = domain.StatusSanctioned
			app.UpdatedAt = o.now()
			o.metrics.IncrOutcome(domain.StatusSanctioned)
		}
		var amount, emi int64
		var rate float64
		var tenure int
		if app != nil {
			amount = app.ApprovedAmount
			rate = app.InterestRate
			emi = app.EMI
			tenure = app.Tenure
		}
		return &domain.ChatResponse{
			Message: o.newAssistantMessage(fmt.Sprintf(
				"Congratulations, %s! Your personal loan sanction letter is ready! Loan Amount: ₹%s\nInterest Rate: %.1f%% p.a.\nMonthly EMI: ₹%s\nTenure: %d months\n\nYou can download your sanction letter from the sidebar. The amount will be disbursed within 2-3 business days. Thank you for choosing Tata Capital!",
				customer.Name, domain.FormatINR(amount), rate, domain.FormatINR(emi), tenure,
			), domain.AgentSanction, nil),
			Application:        app,
			CurrentStep:        domain.StepSanction,
			SuggestedResponses: []string{"Download sanction letter", "Thank you!"},
		}
	}

	reply := o.generate(ctx, domain.AgentUnderwriting, in.message, in.snapshot,
		"The loan is approved. Answer any questions and encourage them to proceed with the sanction letter.")
	return &domain.ChatResponse{
		Message:            o.newAssistantMessage(reply, domain.AgentUnderwriting, nil),
		Application:        in.session.Application,
		CurrentStep:        domain.StepDecision,
		SuggestedResponses: []string{"Generate sanction letter", "I have a question"},
	}
}

func (o *Orchestrator) handleSanction(ctx context.Context, in *stepInput) *domain.ChatResponse {
	reply := o.generate(ctx, domain.AgentSanction, in.message, in.snapshot,
		"The sanction letter is ready. Help with any final questions. Be congratulatory!")
	return &domain.ChatResponse{
		Message:            o.newAssistantMessage(reply, domain.AgentSanction, nil),
		Application:        in.session.Application,
		CurrentStep:        domain.StepClosed,
		SuggestedResponses: []string{"Thank you!", "When will I receive the funds?"},
	}
}

// handleGeneric covers closed sessions and any step without a handler:
// answer in the master voice without advancing the state machine.
func (o *Orchestrator) handleGeneric(ctx context.Context, in *stepInput) *domain.ChatResponse {
	reply := o.generate(ctx, domain.AgentMaster, in.message, in.snapshot,
		"Handle this message appropriately based on the conversation context.")
	return &domain.ChatResponse{
		Message:     o.newAssistantMessage(reply, domain.AgentMaster, nil),
		Application: in.session.Application,
		CurrentStep: in.session.CurrentStep,
	}
}

// requireIdentity is the guard for steps that assume an identified
// customer; it routes the conversation back to identification.
func (o *Orchestrator) requireIdentity(ctx context.Context, in *stepInput) *domain.ChatResponse {
	reply := o.generate(ctx, domain.AgentMaster, in.message, in.snapshot,
		"The customer is not identified. Ask for their registered phone number or email to continue.")
	return &domain.ChatResponse{
		Message:            o.newAssistantMessage(reply, domain.AgentMaster, nil),
		CurrentStep:        domain.StepIdentification,
		SuggestedResponses: []string{"9876543213", "9876543214", "I'm a new customer"},
	}
}
