package excel

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/nurpe/tontine/internal/model"
)

var ErrUnsupportedFormat = errors.New("unsupported file format, expected .xlsx or .csv")

// MonthWindow bounds the month columns accepted by the importer. A zero
// bound is open.
type MonthWindow struct {
	Start model.Month
	End   model.Month
}

// NewMonthWindow parses "YYYY-MM" bounds; empty strings leave a side open.
func NewMonthWindow(start, end string) (MonthWindow, error) {
	var w MonthWindow
	var err error
	if strings.TrimSpace(start) != "" {
		if w.Start, err = model.ParseMonth(start); err != nil {
			return MonthWindow{}, err
		}
	}
	if strings.TrimSpace(end) != "" {
		if w.End, err = model.ParseMonth(end); err != nil {
			return MonthWindow{}, err
		}
	}
	if !w.Start.IsZero() && !w.End.IsZero() && w.End.Before(w.Start) {
		return MonthWindow{}, fmt.Errorf("import window ends (%s) before it starts (%s)", w.End, w.Start)
	}
	return w, nil
}

func (w MonthWindow) Contains(m model.Month) bool {
	if !w.Start.IsZero() && m.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && w.End.Before(m) {
		return false
	}
	return true
}

type ImportedPayment struct {
	Month  model.Month
	Amount decimal.Decimal
}

type ImportRow struct {
	Line            int
	Name            string
	Email           string
	Phone           string
	NumberOfLots    int
	PaymentDuration int
	StartDate       time.Time
	Payments        []ImportedPayment
}

type RowIssue struct {
	Line   int
	Name   string
	Reason string
}

type ImportSheet struct {
	Rows           []ImportRow
	Issues         []RowIssue
	Months         []model.Month
	IgnoredColumns []string
}

const (
	colName     = "name"
	colEmail    = "email"
	colPhone    = "phone"
	colLots     = "lots"
	colDuration = "duration"
	colStart    = "start_date"
)

var headerAliases = map[string]string{
	"name":             colName,
	"full name":        colName,
	"nom":              colName,
	"email":            colEmail,
	"phone":            colPhone,
	"telephone":        colPhone,
	"téléphone":        colPhone,
	"lots":             colLots,
	"number of lots":   colLots,
	"number_of_lots":   colLots,
	"nombre de lots":   colLots,
	"duration":         colDuration,
	"payment duration": colDuration,
	"payment_duration": colDuration,
	"durée":            colDuration,
	"start date":       colStart,
	"start_date":       colStart,
	"start":            colStart,
	"date de début":    colStart,
}

var monthNames = map[string]time.Month{}

func init() {
	french := []string{"janvier", "février", "mars", "avril", "mai", "juin", "juillet", "août", "septembre", "octobre", "novembre", "décembre"}
	for m := time.January; m <= time.December; m++ {
		monthNames[strings.ToLower(m.String())] = m
		monthNames[french[m-1]] = m
	}
}

// ParseMembers reads a member spreadsheet. The first row is the header:
// name, lots, duration and start date columns are required, and every column
// whose header reads "YYYY-MM" or "Month YYYY" inside window holds the amount
// paid for that month.
func ParseMembers(filename string, r io.Reader, window MonthWindow) (*ImportSheet, error) {
	var records [][]string
	var err error
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		records, err = readXLSX(r)
	case ".csv":
		records, err = readCSV(r)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New("file is empty")
	}
	return parseRecords(records, window)
}

func readXLSX(r io.Reader) ([][]string, error) {
	file, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	if firstLine, _, _ := bytes.Cut(data, []byte("\n")); bytes.Count(firstLine, []byte(";")) > bytes.Count(firstLine, []byte(",")) {
		reader.Comma = ';'
	}
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return records, nil
}

type columnMonth struct {
	index int
	month model.Month
}

func parseRecords(records [][]string, window MonthWindow) (*ImportSheet, error) {
	sheet := &ImportSheet{}
	columns := make(map[string]int)
	var months []columnMonth

	for i, raw := range records[0] {
		header := strings.TrimSpace(raw)
		if header == "" {
			continue
		}
		if key, ok := headerAliases[strings.ToLower(header)]; ok {
			if _, dup := columns[key]; !dup {
				columns[key] = i
			}
			continue
		}
		if m, ok := ParseMonthHeader(header); ok {
			if window.Contains(m) {
				months = append(months, columnMonth{index: i, month: m})
				sheet.Months = append(sheet.Months, m)
			} else {
				sheet.IgnoredColumns = append(sheet.IgnoredColumns, header)
			}
			continue
		}
		sheet.IgnoredColumns = append(sheet.IgnoredColumns, header)
	}

	for _, required := range []string{colName, colLots, colDuration, colStart} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}

	for i, record := range records[1:] {
		line := i + 2
		if blank(record) {
			continue
		}
		row, err := parseRow(record, columns, months)
		if err != nil {
			sheet.Issues = append(sheet.Issues, RowIssue{Line: line, Name: cell(record, columns[colName]), Reason: err.Error()})
			continue
		}
		row.Line = line
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet, nil
}

func parseRow(record []string, columns map[string]int, months []columnMonth) (ImportRow, error) {
	row := ImportRow{
		Name:  cell(record, columns[colName]),
		Email: optionalCell(record, columns, colEmail),
		Phone: optionalCell(record, columns, colPhone),
	}
	if row.Name == "" {
		return ImportRow{}, errors.New("name is empty")
	}

	lots, err := strconv.Atoi(cell(record, columns[colLots]))
	if err != nil || lots <= 0 {
		return ImportRow{}, fmt.Errorf("invalid number of lots %q", cell(record, columns[colLots]))
	}
	row.NumberOfLots = lots

	duration, err := strconv.Atoi(cell(record, columns[colDuration]))
	if err != nil || duration <= 0 {
		return ImportRow{}, fmt.Errorf("invalid payment duration %q", cell(record, columns[colDuration]))
	}
	row.PaymentDuration = duration

	start, err := parseDate(cell(record, columns[colStart]))
	if err != nil {
		return ImportRow{}, err
	}
	row.StartDate = start

	for _, col := range months {
		raw := cell(record, col.index)
		if raw == "" {
			continue
		}
		amount, err := parseAmount(raw)
		if err != nil {
			return ImportRow{}, fmt.Errorf("invalid amount %q for %s", raw, col.month)
		}
		if !amount.IsPositive() {
			continue
		}
		row.Payments = append(row.Payments, ImportedPayment{Month: col.month, Amount: amount})
	}
	return row, nil
}

// ParseMonthHeader accepts "YYYY-MM" and "Month YYYY" (English or French
// month names).
func ParseMonthHeader(header string) (model.Month, bool) {
	header = strings.TrimSpace(header)
	if m, err := model.ParseMonth(header); err == nil {
		return m, true
	}
	fields := strings.Fields(header)
	if len(fields) != 2 {
		return model.Month{}, false
	}
	month, ok := monthNames[strings.ToLower(fields[0])]
	if !ok {
		return model.Month{}, false
	}
	year, err := strconv.Atoi(fields[1])
	if err != nil || len(fields[1]) != 4 {
		return model.Month{}, false
	}
	return model.Month{Year: year, Month: month}, true
}

// "01-02-06" is how excelize renders cells in the built-in mm-dd-yy format.
var dateLayouts = []string{"2006-01-02", "02/01/2006", "02.01.2006", "01-02-06"}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("start date is empty")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	// Unformatted workbook cells carry the Excel serial day number.
	if serial, err := strconv.ParseFloat(raw, 64); err == nil && serial > 0 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return model.DateOnly(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid start date %q", raw)
}

func parseAmount(raw string) (decimal.Decimal, error) {
	cleaned := strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "").Replace(raw)
	if strings.Count(cleaned, ",") > 0 && !strings.Contains(cleaned, ".") && len(cleaned)-strings.LastIndex(cleaned, ",") != 4 {
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	}
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	return decimal.NewFromString(cleaned)
}

func cell(record []string, index int) string {
	if index < 0 || index >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[index])
}

func optionalCell(record []string, columns map[string]int, key string) string {
	index, ok := columns[key]
	if !ok {
		return ""
	}
	return cell(record, index)
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
