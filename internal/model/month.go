package model

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Month identifies one calendar month of an installment schedule.
// The canonical text form is "YYYY-MM" with a one-indexed month.
type Month struct {
	Year  int
	Month time.Month
}

func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

func ParseMonth(raw string) (Month, error) {
	raw = strings.TrimSpace(raw)
	parts := strings.Split(raw, "-")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return Month{}, fmt.Errorf("invalid month %q: expected YYYY-MM", raw)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q: %w", raw, err)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q: %w", raw, err)
	}
	if month < 1 || month > 12 {
		return Month{}, fmt.Errorf("invalid month %q: month out of range", raw)
	}
	return Month{Year: year, Month: time.Month(month)}, nil
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Label is the human-readable form used on receipts, e.g. "July 2025".
func (m Month) Label() string {
	return fmt.Sprintf("%s %d", m.Month.String(), m.Year)
}

func (m Month) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

// Add moves n calendar months forward (or backward for negative n).
func (m Month) Add(n int) Month {
	idx := m.Year*12 + int(m.Month) - 1 + n
	return Month{Year: idx / 12, Month: time.Month(idx%12 + 1)}
}

func (m Month) Before(other Month) bool {
	if m.Year != other.Year {
		return m.Year < other.Year
	}
	return m.Month < other.Month
}

// FirstDay returns midnight UTC of the first day of the month.
func (m Month) FirstDay() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Month) UnmarshalText(text []byte) error {
	parsed, err := ParseMonth(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m Month) Value() (driver.Value, error) {
	return m.String(), nil
}

func (m *Month) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		return m.UnmarshalText([]byte(v))
	case []byte:
		return m.UnmarshalText(v)
	case nil:
		*m = Month{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Month", src)
	}
}
