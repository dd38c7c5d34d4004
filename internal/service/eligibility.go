package service

import (
	"fmt"

	"github.com/loanease/loanease-go/internal/domain"
)

// Underwriting decisions. Rejections are recorded on the application as
// data, never returned as errors.

// decideInstantly runs the no-document approval path for amounts within
// the pre-approved limit: bureau pull, credit-score floor, EMI-to-income
// cap, then a final check against the limit itself.
func (o *Orchestrator) decideInstantly(session *domain.ConversationSession, customer *domain.Customer) *domain.ChatResponse {
	app := session.Application

	report, hasReport := o.directory.CreditReport(customer.ID)
	if hasReport {
		app.CreditScore = report.CreditScore
	}

	if !hasReport || report.CreditScore < domain.MinCreditScore {
		score := "N/A"
		if hasReport {
			score = fmt.Sprintf("%d", report.CreditScore)
		}
		o.reject(app, fmt.Sprintf("Credit score below minimum requirement of %d", domain.MinCreditScore))
		return &domain.ChatResponse{
			Message: o.newAssistantMessage(fmt.Sprintf(
				"I apologize, but based on our credit assessment, we're unable to approve this loan at the moment. Your credit score of %s is below our minimum requirement of %d. I recommend working on improving your credit score and trying again in a few months.",
				score, domain.MinCreditScore,
			), domain.AgentUnderwriting, nil),
			Application:        app,
			CurrentStep:        domain.StepClosed,
			SuggestedResponses: []string{"How can I improve my credit score?", "Thank you"},
		}
	}

	maxEMI := domain.MaxAffordableEMI(customer.MonthlyIncome)
	if app.EMI > maxEMI {
		maxLoan := domain.MaxPrincipal(maxEMI, app.InterestRate, app.Tenure)
		o.reject(app, fmt.Sprintf(
			"The EMI of ₹%s exceeds 50%% of your monthly income (₹%s).",
			domain.FormatINR(app.EMI), domain.FormatINR(customer.MonthlyIncome),
		))
		return &domain.ChatResponse{
			Message: o.newAssistantMessage(fmt.Sprintf(
				"I'm sorry, but the EMI of ₹%s would exceed 50%% of your monthly income. Based on your income of ₹%s, the maximum loan you can afford is approximately ₹%s. Would you like to apply for a lower amount?",
				domain.FormatINR(app.EMI), domain.FormatINR(customer.MonthlyIncome), domain.FormatINR(maxLoan),
			), domain.AgentUnderwriting, nil),
			Application:        app,
			CurrentStep:        domain.StepClosed,
			SuggestedResponses: []string{"₹" + domain.FormatINR(maxLoan), "No, thank you"},
		}
	}

	// Should not trigger on this path; guards against state drift between
	// needs assessment and verification.
	if app.RequestedAmount > customer.PreApprovedLimit {
		o.reject(app, "Requested amount exceeds pre-approved limit and additional verification failed")
		return &domain.ChatResponse{
			Message: o.newAssistantMessage(fmt.Sprintf(
				"I apologize, but the requested amount of ₹%s exceeds your pre-approved limit of ₹%s. Would you like to proceed with an amount within your pre-approved limit?",
				domain.FormatINR(app.RequestedAmount), domain.FormatINR(customer.PreApprovedLimit),
			), domain.AgentUnderwriting, nil),
			Application:        app,
			CurrentStep:        domain.StepClosed,
			SuggestedResponses: []string{"₹" + domain.FormatINR(customer.PreApprovedLimit), "No, thank you"},
		}
	}

	o.approve(app)
	incomeShare := int64(0)
	if customer.MonthlyIncome > 0 {
		incomeShare = (app.EMI*100 + customer.MonthlyIncome/2) / customer.MonthlyIncome
	}
	return &domain.ChatResponse{
		Message: o.newAssistantMessage(fmt.Sprintf(
			"Excellent news! Your credit score of %d looks great, and your loan is approved! Amount: ₹%s at %.1f%% p.a. Monthly EMI: ₹%s (%d%% of your income). Shall I generate your sanction letter now?",
			app.CreditScore, domain.FormatINR(app.RequestedAmount), app.InterestRate, domain.FormatINR(app.EMI), incomeShare,
		), domain.AgentUnderwriting, nil),
		Application:        app,
		CurrentStep:        domain.StepDecision,
		SuggestedResponses: []string{"Yes, generate sanction letter", "Can I get more details?"},
	}
}

// decideAfterSalarySlip runs the post-upload decision. The credit-score
// floor takes priority over the EMI cap in the rejection reason.
func (o *Orchestrator) decideAfterSalarySlip(session *domain.ConversationSession, customer *domain.Customer) *domain.ChatResponse {
	app := session.Application
	maxEMI := domain.MaxAffordableEMI(customer.MonthlyIncome)

	if app.EMI <= maxEMI && customer.CreditScore >= domain.MinCreditScore {
		o.approve(app)
		incomeShare := int64(0)
		if customer.MonthlyIncome > 0 {
			incomeShare = (app.EMI*100 + customer.MonthlyIncome/2) / customer.MonthlyIncome
		}
		return &domain.ChatResponse{
			Message: o.newAssistantMessage(fmt.Sprintf(
				"Great news! Your salary slip has been verified. With a monthly income of ₹%s and EMI of ₹%s (%d%% of income), your loan is approved! Ready for your sanction letter?",
				domain.FormatINR(customer.MonthlyIncome), domain.FormatINR(app.EMI), incomeShare,
			), domain.AgentUnderwriting, nil),
			Application:        app,
			CurrentStep:        domain.StepDecision,
			SuggestedResponses: []string{"Yes, generate sanction letter", "Show me the final terms"},
		}
	}

	var reason string
	if customer.CreditScore < domain.MinCreditScore {
		reason = fmt.Sprintf("Your credit score of %d is below our minimum requirement of %d.",
			customer.CreditScore, domain.MinCreditScore)
	} else {
		reason = fmt.Sprintf("The EMI of ₹%s exceeds 50%% of your monthly income.",
			domain.FormatINR(app.EMI))
	}
	o.reject(app, reason)

	return &domain.ChatResponse{
		Message: o.newAssistantMessage(fmt.Sprintf(
			"I'm sorry, but we're unable to approve this loan application. %s Would you like to apply for a lower amount that fits within your eligibility?",
			reason,
		), domain.AgentUnderwriting, nil),
		Application:        app,
		CurrentStep:        domain.StepClosed,
		SuggestedResponses: []string{"Try a lower amount", "No, thank you"},
	}
}

func (o *Orchestrator) approve(app *domain.LoanApplication) {
	app.Status = domain.StatusApproved
	app.ApprovedAmount = app.RequestedAmount
	app.UpdatedAt = o.now()
	o.metrics.IncrOutcome(domain.StatusApproved)
}

func (o *Orchestrator) reject(app *domain.LoanApplication, reason string) {
	app.Status = domain.StatusRejected
	app.RejectionReason = reason
	app.UpdatedAt = o.now()
	o.metrics.IncrOutcome(domain.StatusRejected)
}
