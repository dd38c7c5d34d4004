package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/loanease/loanease-go/internal/domain"
)

// sanctionTerms are the fixed terms printed on every sanction letter.
var sanctionTerms = []string{
	"This sanction is valid for 30 days from the date of issue.",
	"The loan amount will be disbursed to your registered bank account.",
	"EMI will be deducted automatically via ECS/NACH mandate.",
	"Prepayment is allowed after 6 EMIs with no prepayment charges.",
	"Late payment penalty of 2% per month will be applicable on overdue EMIs.",
	"The borrower agrees to maintain adequate insurance coverage.",
	"Tata Capital reserves the right to modify interest rates as per RBI guidelines.",
}

// disbursementLead is how far after issue the funds land.
const disbursementLead = 3 * 24 * time.Hour

// SanctionLetter projects a sanctioned application into the letter view.
// Dates are derived from the wall clock at projection time; the letter is
// not stored.
func (o *Orchestrator) SanctionLetter(ctx context.Context, applicationID string) (*domain.SanctionLetter, error) {
	_, span := tracer.Start(ctx, "Orchestrator.SanctionLetter")
	defer span.End()
	span.SetAttributes(attribute.String("application.id", applicationID))

	app, ok := o.apps.Get(applicationID)
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "application", ID: applicationID}
	}
	if app.Status != domain.StatusSanctioned {
		return nil, &domain.ErrValidation{Field: "applicationId", Message: "application is not sanctioned"}
	}

	amount := app.ApprovedAmount
	if amount == 0 {
		amount = app.RequestedAmount
	}
	now := o.now()

	return &domain.SanctionLetter{
		ApplicationID:      app.ID,
		CustomerName:       app.CustomerName,
		LoanAmount:         amount,
		InterestRate:       app.InterestRate,
		Tenure:             app.Tenure,
		EMI:                app.EMI,
		ProcessingFee:      domain.ProcessingFee(amount),
		SanctionDate:       now.Format(time.RFC3339),
		DisbursementDate:   now.Add(disbursementLead).Format(time.RFC3339),
		TermsAndConditions: sanctionTerms,
	}, nil
}
