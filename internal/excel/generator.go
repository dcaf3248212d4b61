package excel

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/nurpe/tontine/internal/model"
)

const (
	summarySheet = "Summary"
	membersSheet = "Members"
	monthlySheet = "Monthly"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Members renders the export workbook: totals, one row per member and the
// expected/received amounts per month.
func (g *Generator) Members(wb model.MembersWorkbook) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	g.writeSummary(file, wb)

	if _, err := file.NewSheet(membersSheet); err != nil {
		return nil, err
	}
	g.writeMembers(file, wb)

	if _, err := file.NewSheet(monthlySheet); err != nil {
		return nil, err
	}
	g.writeMonthly(file, wb)

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, wb model.MembersWorkbook) {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(summarySheet, cell, value)
	}

	s := wb.Summary
	set("A1", "Generated")
	set("B1", formatDate(wb.GeneratedAt))
	set("A2", "Currency")
	set("B2", wb.Currency)
	set("A3", "Members")
	set("B3", s.Members)
	set("A4", "Fully paid members")
	set("B4", s.FullyPaidMembers)
	set("A5", "Total expected")
	set("B5", amount(s.TotalExpected))
	set("A6", "Total collected")
	set("B6", amount(s.TotalCollected))
	set("A7", "Outstanding")
	set("B7", amount(s.TotalOutstanding))
	set("A8", "Completion, %")
	set("B8", s.CompletionPercentage)

	_ = file.SetColWidth(summarySheet, "A", "A", 24)
	_ = file.SetColWidth(summarySheet, "B", "B", 18)
}

func (g *Generator) writeMembers(file *excelize.File, wb model.MembersWorkbook) {
	headers := []string{
		"Name",
		"Email",
		"Phone",
		"Lots",
		"Unit price",
		"Total amount",
		"Monthly quota",
		"Duration",
		"Start date",
		"End date",
		"Paid",
		"Remaining",
		"Completion, %",
		"Next unpaid month",
	}
	writeRow(file, membersSheet, 1, toCells(headers))

	for i, o := range wb.Members {
		m := o.Member
		next := ""
		if o.NextUnpaidMonth != nil {
			next = o.NextUnpaidMonth.String()
		}
		writeRow(file, membersSheet, i+2, []interface{}{
			m.Name,
			m.Email,
			m.Phone,
			m.NumberOfLots,
			amount(m.UnitPrice),
			amount(m.TotalLotAmount),
			amount(m.MonthlyQuota),
			m.PaymentDuration,
			formatDate(m.StartDate),
			formatDate(m.EndDate),
			amount(o.TotalPaid),
			amount(o.RemainingBalance),
			o.CompletionPercentage,
			next,
		})
	}

	_ = file.SetColWidth(membersSheet, "A", "A", 28)
	_ = file.SetColWidth(membersSheet, "B", "C", 22)
	_ = file.SetColWidth(membersSheet, "D", "N", 14)
}

func (g *Generator) writeMonthly(file *excelize.File, wb model.MembersWorkbook) {
	writeRow(file, monthlySheet, 1, toCells([]string{"Month", "Expected", "Received", "Payments"}))
	for i, c := range wb.Monthly {
		writeRow(file, monthlySheet, i+2, []interface{}{
			c.Month.String(),
			amount(c.Expected),
			amount(c.Received),
			c.Payments,
		})
	}
	_ = file.SetColWidth(monthlySheet, "A", "D", 14)
}

func writeRow(file *excelize.File, sheet string, row int, values []interface{}) {
	cell, _ := excelize.CoordinatesToCellName(1, row)
	_ = file.SetSheetRow(sheet, cell, &values)
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

// amount keeps money numeric in the sheet.
func amount(value decimal.Decimal) float64 {
	return value.InexactFloat64()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
