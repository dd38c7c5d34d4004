package domain

import (
	"math"
	"testing"
)

func TestRateForScore(t *testing.T) {
	cases := []struct {
		score int
		want  float64
	}{
		{820, 10.5},
		{800, 10.5},
		{799, 11.5},
		{750, 11.5},
		{749, 12.5},
		{700, 12.5},
		{699, 14.0},
		{580, 14.0},
	}
	for _, c := range cases {
		if got := RateForScore(c.score); got != c.want {
			t.Errorf("RateForScore(%d) = %v, want %v", c.score, got, c.want)
		}
	}
}

func TestEMIMatchesFormula(t *testing.T) {
	cases := []struct {
		principal int64
		rate      float64
		tenure    int
	}{
		{500000, 11.5, 36},
		{500000, 10.5, 36},
		{300000, 12.5, 24},
		{1000000, 14.0, 60},
		{75000, 11.5, 12},
	}
	for _, c := range cases {
		r := c.rate / 100 / 12
		factor := math.Pow(1+r, float64(c.tenure))
		want := int64(math.Round(float64(c.principal) * r * factor / (factor - 1)))
		if got := EMI(c.principal, c.rate, c.tenure); got != want {
			t.Errorf("EMI(%d, %v, %d) = %d, want %d", c.principal, c.rate, c.tenure, got, want)
		}
	}
}

func TestEMIEdgeCases(t *testing.T) {
	if got := EMI(0, 11.5, 36); got != 0 {
		t.Errorf("EMI with zero principal = %d, want 0", got)
	}
	if got := EMI(500000, 11.5, 0); got != 0 {
		t.Errorf("EMI with zero tenure = %d, want 0", got)
	}
	if got := EMI(360000, 0, 36); got != 10000 {
		t.Errorf("EMI at zero rate = %d, want 10000", got)
	}
}

func TestMaxPrincipalInvertsEMI(t *testing.T) {
	// The EMI of the max principal must fit under the cap, and the EMI of
	// the next meaningful step above it must exceed it.
	cases := []struct {
		maxEMI int64
		rate   float64
		tenure int
	}{
		{47500, 11.5, 36},
		{25000, 12.5, 48},
		{100000, 10.5, 60},
	}
	for _, c := range cases {
		p := MaxPrincipal(c.maxEMI, c.rate, c.tenure)
		if p <= 0 {
			t.Fatalf("MaxPrincipal(%d, %v, %d) = %d", c.maxEMI, c.rate, c.tenure, p)
		}
		if got := EMI(p, c.rate, c.tenure); got > c.maxEMI {
			t.Errorf("EMI(MaxPrincipal)=%d exceeds cap %d", got, c.maxEMI)
		}
		if got := EMI(p+1000, c.rate, c.tenure); got <= c.maxEMI {
			t.Errorf("MaxPrincipal(%d, %v, %d)=%d leaves headroom: EMI(p+1000)=%d",
				c.maxEMI, c.rate, c.tenure, p, got)
		}
	}
}

func TestProcessingFee(t *testing.T) {
	if got := ProcessingFee(500000); got != 10000 {
		t.Errorf("ProcessingFee(500000) = %d, want 10000", got)
	}
	if got := ProcessingFee(333333); got != 6667 {
		t.Errorf("ProcessingFee(333333) = %d, want 6667", got)
	}
}

func TestMaxAffordableEMI(t *testing.T) {
	if got := MaxAffordableEMI(95000); got != 47500 {
		t.Errorf("MaxAffordableEMI(95000) = %d, want 47500", got)
	}
	if got := MaxAffordableEMI(85001); got != 42500 {
		t.Errorf("MaxAffordableEMI(85001) = %d, want 42500", got)
	}
}

func TestFormatINR(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{100000, "1,00,000"},
		{500000, "5,00,000"},
		{1234567, "12,34,567"},
		{10000000, "1,00,00,000"},
		{-47500, "-47,500"},
	}
	for _, c := range cases {
		if got := FormatINR(c.in); got != c.want {
			t.Errorf("FormatINR(%d) = %q, want %q", c.in, got, c.want)
		}
	}
}
