package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/nurpe/tontine/internal/model"
)

const fontName = "Helvetica"

// Generator renders member statements and payment receipts with the PDF
// core fonts, so no font files need to ship with the binary.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func newDocument(orientation string) (*gofpdf.Fpdf, func(string) string) {
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	return pdf, pdf.UnicodeTranslatorFromDescriptor("")
}

func (g *Generator) Statement(doc model.MemberStatement) ([]byte, error) {
	pdf, tr := newDocument("P")
	member := doc.Overview.Member

	pdf.SetFont(fontName, "B", 14)
	pdf.CellFormat(0, 10, tr("Member statement"), "", 1, "C", false, 0, "")
	pdf.SetFont(fontName, "", 10)
	pdf.CellFormat(0, 6, tr("Generated on "+formatDate(doc.GeneratedAt)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	section(pdf, tr, "Member")
	lines := []string{
		member.Name,
		"Email: " + safeValue(member.Email),
		"Phone: " + safeValue(member.Phone),
		fmt.Sprintf("Lots: %d x %s", member.NumberOfLots, formatAmount(member.UnitPrice, doc.Currency)),
		fmt.Sprintf("Contract: %d months, %s to %s", member.PaymentDuration, formatDate(member.StartDate), formatDate(member.EndDate)),
		"Monthly quota: " + formatAmount(member.MonthlyQuota, doc.Currency),
	}
	for _, line := range lines {
		pdf.MultiCell(0, 5, tr(line), "", "L", false)
	}
	pdf.Ln(2)

	section(pdf, tr, "Balance")
	pdf.SetFont(fontName, "", 10)
	totals := [][2]string{
		{"Total lot amount", formatAmount(member.TotalLotAmount, doc.Currency)},
		{"Total paid", formatAmount(doc.Overview.TotalPaid, doc.Currency)},
		{"Remaining balance", formatAmount(doc.Overview.RemainingBalance, doc.Currency)},
		{"Completion", fmt.Sprintf("%d%%", doc.Overview.CompletionPercentage)},
	}
	for _, t := range totals {
		pdf.CellFormat(60, 6, tr(t[0]), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, tr(t[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)

	section(pdf, tr, "Schedule")
	widths := []float64{45, 45, 45, 20, 25}
	drawTableRow(pdf, tr, []string{"Month", "Due", "Applied", "%", "Status"}, widths, true)
	for _, row := range doc.Rows {
		drawTableRow(pdf, tr, []string{
			row.Month.Label(),
			formatAmount(row.Due, doc.Currency),
			formatAmount(row.Applied, doc.Currency),
			fmt.Sprintf("%d", row.Percentage),
			string(row.Status),
		}, widths, false)
	}

	if len(doc.Payments) > 0 {
		pdf.Ln(4)
		section(pdf, tr, "Payments")
		widths := []float64{45, 45, 90}
		drawTableRow(pdf, tr, []string{"Date", "Month", "Amount"}, widths, true)
		for _, p := range doc.Payments {
			drawTableRow(pdf, tr, []string{
				formatDate(p.Date),
				p.MonthKey.Label(),
				formatAmount(p.Amount, doc.Currency),
			}, widths, false)
		}
	}

	return output(pdf)
}

func (g *Generator) Receipt(r model.PaymentReceipt) ([]byte, error) {
	pdf, tr := newDocument("P")

	pdf.SetFont(fontName, "B", 14)
	pdf.CellFormat(0, 10, tr("Payment receipt"), "", 1, "C", false, 0, "")
	pdf.SetFont(fontName, "", 10)
	pdf.CellFormat(0, 6, tr("Date: "+formatDate(r.Date)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(fontName, "", 11)
	pdf.MultiCell(0, 6, tr(fmt.Sprintf("Received from %s the sum of %s.", r.Member.Name, formatAmount(r.Amount, r.Currency))), "", "L", false)
	if len(r.MonthLabels) > 0 {
		pdf.MultiCell(0, 6, tr("Months covered: "+strings.Join(r.MonthLabels, ", ")), "", "L", false)
	}
	pdf.Ln(2)

	widths := []float64{90, 90}
	drawTableRow(pdf, tr, []string{"Month", "Amount"}, widths, true)
	for _, p := range r.Payments {
		drawTableRow(pdf, tr, []string{p.MonthKey.Label(), formatAmount(p.Amount, r.Currency)}, widths, false)
	}
	pdf.Ln(2)

	pdf.SetFont(fontName, "B", 11)
	pdf.CellFormat(0, 6, tr("Remaining balance: "+formatAmount(r.RemainingBalance, r.Currency)), "", 1, "R", false, 0, "")
	pdf.Ln(8)
	pdf.SetFont(fontName, "", 11)
	pdf.CellFormat(0, 6, tr("Treasurer: ______________________"), "", 1, "L", false, 0, "")

	return output(pdf)
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func section(pdf *gofpdf.Fpdf, tr func(string) string, title string) {
	pdf.SetFont(fontName, "B", 12)
	pdf.CellFormat(0, 8, tr(title), "", 1, "L", false, 0, "")
	pdf.SetFont(fontName, "", 10)
}

func drawTableRow(pdf *gofpdf.Fpdf, tr func(string) string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 10)
	for i, col := range cols {
		align := "L"
		if i > 0 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 7, tr(col), "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func safeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

// formatAmount prints whole currency units with a space between thousands,
// e.g. "1 500 000 FCFA".
func formatAmount(value decimal.Decimal, currency string) string {
	s := value.StringFixed(0)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	out := sign + b.String()
	if currency != "" {
		out += " " + currency
	}
	return out
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02.01.2006")
}
