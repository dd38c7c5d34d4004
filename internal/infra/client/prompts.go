package client

import (
	"fmt"
	"strings"

	"github.com/loanease/loanease-go/internal/domain"
)

// personaPrompts are the stage-persona system prompts. Keyed by the same
// AgentType tags that annotate assistant messages.
var personaPrompts = map[domain.AgentType]string{
	domain.AgentMaster: `You are LoanEase AI, a friendly and professional personal loan sales assistant for Tata Capital.
Your role is to:
1. Greet customers warmly and understand their loan needs
2. Guide them through the loan application process
3. Coordinate with other agents (Sales, Verification, Underwriting, Sanction)
4. Maintain a conversational, helpful tone throughout

Keep responses concise (2-3 sentences max). Be friendly but professional.
If the customer hasn't identified themselves, ask for their phone number or email to look up their profile.
Always acknowledge what the customer says before moving forward.`,

	domain.AgentSales: `You are a Sales Agent for Tata Capital personal loans.
Your role is to:
1. Discuss loan amounts, tenure options, and interest rates
2. Present personalized loan offers based on customer eligibility
3. Explain EMI calculations and processing fees
4. Address concerns about loan terms

Keep responses helpful and focused on the customer's financial needs.
Be transparent about rates and terms.`,

	domain.AgentVerification: `You are a KYC Verification Agent for Tata Capital.
Your role is to:
1. Verify customer identity details (PAN, Aadhar, address)
2. Confirm contact information
3. Check existing loan relationships
4. Ensure all KYC requirements are met

Be professional and reassuring about data security.
Keep the verification process smooth and quick.`,

	domain.AgentUnderwriting: `You are an Underwriting Agent for Tata Capital.
Your role is to:
1. Evaluate loan eligibility based on credit score and income
2. Request additional documents if needed (salary slips)
3. Make approval/rejection decisions based on policy
4. Explain the decision clearly to customers

Decision criteria:
- Credit score must be >= 700 for approval
- If loan amount <= pre-approved limit: instant approval
- If loan amount <= 2x pre-approved limit: need salary slip, EMI <= 50% of salary
- If loan amount > 2x pre-approved limit: reject

Be empathetic even when rejecting applications.`,

	domain.AgentSanction: `You are a Sanction Letter Generator Agent for Tata Capital.
Your role is to:
1. Generate the final sanction letter for approved loans
2. Summarize all loan terms clearly
3. Explain next steps for disbursement
4. Congratulate the customer on their approval

Be professional and celebratory - this is a positive moment for the customer!`,
}

// historyWindow caps how many recent conversation lines feed the prompt.
const historyWindow = 6

// buildGeneratePrompt assembles the persona prompt, the state snapshot,
// step-specific instructions and the customer's message.
func buildGeneratePrompt(persona domain.AgentType, userMessage string, snapshot *domain.AgentContext, extra string) string {
	system, ok := personaPrompts[persona]
	if !ok {
		system = personaPrompts[domain.AgentMaster]
	}

	var b strings.Builder
	b.WriteString(system)
	b.WriteString("\n\n")
	writeContext(&b, snapshot)
	b.WriteString("\n")
	if extra != "" {
		b.WriteString(extra)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nCustomer's message: %q\n\n", userMessage)
	b.WriteString("Respond naturally and helpfully. Keep your response concise (2-3 sentences). Do not use markdown formatting.")
	return b.String()
}

func writeContext(b *strings.Builder, s *domain.AgentContext) {
	if s == nil {
		s = &domain.AgentContext{}
	}
	b.WriteString("Current Context:\n")
	fmt.Fprintf(b, "- Customer: %s\n", orElse(s.CustomerName, "Not identified"))
	fmt.Fprintf(b, "- Customer ID: %s\n", orElse(s.CustomerID, "N/A"))
	fmt.Fprintf(b, "- Pre-approved Limit: %s\n", rupeesOr(s.PreApprovedLimit, "N/A"))
	if s.CreditScore > 0 {
		fmt.Fprintf(b, "- Credit Score: %d\n", s.CreditScore)
	} else {
		b.WriteString("- Credit Score: Not fetched\n")
	}
	fmt.Fprintf(b, "- Requested Amount: %s\n", rupeesOr(s.RequestedAmount, "Not specified"))
	if s.TenureMonths > 0 {
		fmt.Fprintf(b, "- Tenure: %d months\n", s.TenureMonths)
	} else {
		b.WriteString("- Tenure: Not specified\n")
	}
	if s.InterestRate > 0 {
		fmt.Fprintf(b, "- Interest Rate: %.1f%%\n", s.InterestRate)
	} else {
		b.WriteString("- Interest Rate: Not specified\n")
	}
	fmt.Fprintf(b, "- EMI: %s\n", rupeesOr(s.EMI, "Not calculated"))
	fmt.Fprintf(b, "- Application Status: %s\n", orElse(string(s.Status), "Not started"))

	b.WriteString("\nRecent Conversation:\n")
	history := s.History
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	b.WriteString(strings.Join(history, "\n"))
	b.WriteString("\n")
}

func orElse(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func rupeesOr(amount int64, fallback string) string {
	if amount <= 0 {
		return fallback
	}
	return "₹" + domain.FormatINR(amount)
}

// buildExtractionPrompt asks for strict JSON; lakh/year conversion happens
// in the model, zero handling on our side.
func buildExtractionPrompt(message string) string {
	return fmt.Sprintf(`Extract loan details from this message. Return JSON only.
Message: %q

Return format: {"amount": number or null, "tenure": number or null}
- amount should be in rupees (convert lakhs: 5 lakh = 500000)
- tenure should be in months (convert years: 3 years = 36)

If no loan amount or tenure mentioned, return null for that field.`, message)
}

// buildIntentPrompt constrains the classifier to the closed intent set.
func buildIntentPrompt(message string, step domain.Step) string {
	return fmt.Sprintf(`Classify the user's intent from this message in a loan application conversation.
Current step: %s
Message: %q

Return one of these intents only:
- "provide_identity" - user is providing phone, email, or name
- "provide_loan_amount" - user is specifying how much they want to borrow
- "provide_tenure" - user is specifying loan duration
- "accept_offer" - user agrees to the loan offer
- "reject_offer" - user declines or wants changes
- "ask_question" - user has a question
- "provide_document" - user mentions uploading documents
- "confirm" - user confirms something (yes, okay, proceed)
- "greeting" - user is greeting
- "other" - none of the above

Return the intent string only, no explanation.`, step, message)
}
