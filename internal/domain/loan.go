package domain

import (
	"math"
	"strconv"
)

// Loan arithmetic shared by the offer mart and the eligibility engine.
// All amounts are whole rupees; rates are percent per annum.

// MinCreditScore is the underwriting floor: applications below it are
// always rejected regardless of affordability.
const MinCreditScore = 700

// MaxEMIIncomeRatio caps the EMI at this share of monthly income.
const MaxEMIIncomeRatio = 0.5

// LimitMultiple caps the requested amount at this multiple of the
// customer's pre-approved limit.
const LimitMultiple = 2

// ProcessingFeeRate is the flat fee charged on the sanctioned amount.
const ProcessingFeeRate = 0.02

// DefaultTenureMonths is assumed when the customer never states a tenure.
const DefaultTenureMonths = 36

// RateForScore picks the interest rate from the fixed credit-score ladder.
// The ladder has exactly four buckets; rates are never interpolated.
func RateForScore(score int) float64 {
	switch {
	case score >= 800:
		return 10.5
	case score >= 750:
		return 11.5
	case score >= 700:
		return 12.5
	default:
		return 14.0
	}
}

// EMI computes the equated monthly installment for a principal amortized
// over tenureMonths at annualRate, rounded to the nearest rupee:
//
//	EMI = P * r * (1+r)^n / ((1+r)^n - 1),  r = annualRate/100/12
func EMI(principal int64, annualRate float64, tenureMonths int) int64 {
	if principal <= 0 || tenureMonths <= 0 {
		return 0
	}
	r := annualRate / 100 / 12
	if r == 0 {
		return int64(math.Round(float64(principal) / float64(tenureMonths)))
	}
	factor := math.Pow(1+r, float64(tenureMonths))
	return int64(math.Round(float64(principal) * r * factor / (factor - 1)))
}

// MaxPrincipal inverts the EMI formula: the largest principal whose EMI at
// the given rate and tenure does not exceed maxEMI. Floored, matching the
// affordability message shown to rejected customers.
func MaxPrincipal(maxEMI int64, annualRate float64, tenureMonths int) int64 {
	if maxEMI <= 0 || tenureMonths <= 0 {
		return 0
	}
	r := annualRate / 100 / 12
	if r == 0 {
		return maxEMI * int64(tenureMonths)
	}
	factor := math.Pow(1+r, float64(tenureMonths))
	return int64(math.Floor(float64(maxEMI) * (factor - 1) / (r * factor)))
}

// ProcessingFee is the flat 2% fee on the loan amount, rounded.
func ProcessingFee(amount int64) int64 {
	return int64(math.Round(float64(amount) * ProcessingFeeRate))
}

// MaxAffordableEMI is the EMI cap derived from monthly income.
func MaxAffordableEMI(monthlyIncome int64) int64 {
	return int64(math.Floor(float64(monthlyIncome) * MaxEMIIncomeRatio))
}

// FormatINR renders an amount with Indian digit grouping: the last three
// digits form one group, every group before that has two digits
// (1234567 -> "12,34,567"). Customer-facing messages prefix the rupee sign.
func FormatINR(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	s := strconv.FormatInt(amount, 10)
	if len(s) > 3 {
		head, tail := s[:len(s)-3], s[len(s)-3:]
		var groups []string
		for len(head) > 2 {
			groups = append([]string{head[len(head)-2:]}, groups...)
			head = head[:len(head)-2]
		}
		if head != "" {
			groups = append([]string{head}, groups...)
		}
		s = ""
		for _, g := range groups {
			s += g + ","
		}
		s += tail
	}
	if neg {
		return "-" + s
	}
	return s
}
