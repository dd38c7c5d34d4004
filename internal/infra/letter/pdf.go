// Package letter renders the sanction letter as a minimal single-page
// PDF. The document is hand-assembled PDF 1.4 with one Helvetica text
// stream; good enough for the demo download, no PDF library needed.
package letter

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/loanease/loanease-go/internal/domain"
)

// RenderPDF builds the downloadable sanction letter document.
func RenderPDF(l *domain.SanctionLetter) []byte {
	lines := letterLines(l)

	var content strings.Builder
	for i, line := range lines {
		fmt.Fprintf(&content, "BT /F1 12 Tf 50 %d Td (%s) Tj ET\n", 800-i*14, escapePDFText(line))
	}
	stream := content.String()

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 842] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", len(stream), stream),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xrefStart := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xrefStart)

	return buf.Bytes()
}

func letterLines(l *domain.SanctionLetter) []string {
	date := time.Now().Format("2 January 2006")
	if t, err := time.Parse(time.RFC3339, l.SanctionDate); err == nil {
		date = t.Format("2 January 2006")
	}

	lines := []string{
		"TATA CAPITAL",
		"Non-Banking Financial Company",
		"",
		"PERSONAL LOAN SANCTION LETTER",
		"",
		"Date: " + date,
		"Application ID: " + l.ApplicationID,
		"",
		"Dear " + l.CustomerName + ",",
		"",
		"We are pleased to inform you that your personal loan application has been approved.",
		"",
		"LOAN DETAILS:",
		"--------------",
		"Sanctioned Amount: Rs. " + domain.FormatINR(l.LoanAmount),
		fmt.Sprintf("Interest Rate: %.1f%% per annum", l.InterestRate),
		fmt.Sprintf("Tenure: %d months", l.Tenure),
		"Monthly EMI: Rs. " + domain.FormatINR(l.EMI),
		"Processing Fee: Rs. " + domain.FormatINR(l.ProcessingFee),
		"",
		"DISBURSEMENT:",
		"The loan amount will be disbursed to your registered bank account within 2-3 business days.",
		"",
		"TERMS AND CONDITIONS:",
	}
	for i, tc := range l.TermsAndConditions {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, tc))
	}
	lines = append(lines,
		"",
		"Thank you for choosing Tata Capital.",
		"",
		"For any queries, please contact: 1800-XXX-XXXX",
		"",
		"This is a system-generated document.",
	)
	return lines
}

// escapePDFText escapes the three characters with meaning inside a PDF
// literal string.
func escapePDFText(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`)
	return r.Replace(s)
}
