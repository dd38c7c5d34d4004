package directory_test

import (
	"testing"

	"github.com/loanease/loanease-go/internal/domain"
	"github.com/loanease/loanease-go/internal/infra/directory"
)

func TestFindByIdentifier_Phone(t *testing.T) {
	d := directory.New()

	c, ok := d.FindByIdentifier("9876543213")
	if !ok {
		t.Fatal("expected match by phone")
	}
	if c.ID != "CUST004" {
		t.Errorf("expected CUST004, got %s", c.ID)
	}

	// Phone match is exact string equality, quirky formats included.
	if _, ok := d.FindByIdentifier("9876564328"); ok {
		t.Error("bare digits must not match a parenthesized phone record")
	}
	if c, ok := d.FindByIdentifier("(9876564328)"); !ok || c.ID != "CUST002" {
		t.Errorf("expected CUST002 for verbatim phone, got %v ok=%v", c, ok)
	}
}

func TestFindByIdentifier_EmailCaseInsensitive(t *testing.T) {
	d := directory.New()

	c, ok := d.FindByIdentifier("  SUNITA.REDDY@EMAIL.COM ")
	if !ok || c.ID != "CUST004" {
		t.Fatalf("expected CUST004, got %v ok=%v", c, ok)
	}
}

func TestFindByIdentifier_NameSubstring(t *testing.T) {
	d := directory.New()

	c, ok := d.FindByIdentifier("sunita")
	if !ok || c.ID != "CUST004" {
		t.Fatalf("expected CUST004, got %v ok=%v", c, ok)
	}

	// "vikra" is a prefix of both Vikrant Yadav and Vikram Singh;
	// seeding order decides.
	c, ok = d.FindByIdentifier("vikra")
	if !ok || c.ID != "CUST001" {
		t.Fatalf("expected first match CUST001, got %v ok=%v", c, ok)
	}
}

func TestFindByIdentifier_NoMatch(t *testing.T) {
	d := directory.New()

	if _, ok := d.FindByIdentifier("nonexistent person"); ok {
		t.Error("expected no match")
	}
	if _, ok := d.FindByIdentifier("   "); ok {
		t.Error("blank identifier must not match")
	}
}

func TestCreditReport(t *testing.T) {
	d := directory.New()

	cases := []struct {
		id          string
		score       int
		history     string
		activeLoans int
	}{
		{"CUST004", 795, "Excellent", 1},
		{"CUST007", 720, "Good", 1},
		{"CUST005", 840, "Excellent", 0},
	}
	for _, c := range cases {
		r, ok := d.CreditReport(c.id)
		if !ok {
			t.Fatalf("expected report for %s", c.id)
		}
		if r.CreditScore != c.score || r.CreditHistory != c.history || r.ActiveLoans != c.activeLoans {
			t.Errorf("%s: got score=%d history=%q loans=%d", c.id, r.CreditScore, r.CreditHistory, r.ActiveLoans)
		}
		if r.DefaultHistory {
			t.Errorf("%s: default history should be false", c.id)
		}
	}

	if _, ok := d.CreditReport("CUST999"); ok {
		t.Error("expected no report for unknown customer")
	}
}

func TestQuoteOffer(t *testing.T) {
	d := directory.New()

	// CUST004: score 795 -> 11.5%
	o, ok := d.QuoteOffer("CUST004", 500000, 36)
	if !ok {
		t.Fatal("expected offer")
	}
	if o.InterestRate != 11.5 {
		t.Errorf("expected rate 11.5, got %v", o.InterestRate)
	}
	if want := domain.EMI(500000, 11.5, 36); o.EMI != want {
		t.Errorf("expected EMI %d, got %d", want, o.EMI)
	}
	if o.ProcessingFee != 10000 {
		t.Errorf("expected fee 10000, got %d", o.ProcessingFee)
	}
	if !o.PreApproved {
		t.Error("500000 is within the 600000 limit, expected preApproved")
	}

	// Zero amount defaults to the pre-approved limit; zero tenure to default.
	o, ok = d.QuoteOffer("CUST006", 0, 0)
	if !ok {
		t.Fatal("expected offer")
	}
	if o.Amount != 400000 || o.Tenure != domain.DefaultTenureMonths {
		t.Errorf("expected defaults 400000/%d, got %d/%d", domain.DefaultTenureMonths, o.Amount, o.Tenure)
	}

	// Above the limit is quotable but not pre-approved.
	o, _ = d.QuoteOffer("CUST006", 450000, 36)
	if o.PreApproved {
		t.Error("amount above limit must not be preApproved")
	}

	if _, ok := d.QuoteOffer("CUST999", 100000, 12); ok {
		t.Error("expected no offer for unknown customer")
	}
}
