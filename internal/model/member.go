package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultQuotaStep is the currency step monthly quotas are rounded to.
var DefaultQuotaStep = decimal.NewFromInt(100)

type Member struct {
	ID              uuid.UUID
	Name            string
	Email           string
	Phone           string
	NumberOfLots    int
	UnitPrice       decimal.Decimal
	TotalLotAmount  decimal.Decimal
	PaymentDuration int
	MonthlyQuota    decimal.Decimal
	StartDate       time.Time
	EndDate         time.Time
	Version         int64
	CreatedAt       time.Time
}

// ApplyContract sets the contract terms and recomputes every derived field.
func (m *Member) ApplyContract(numberOfLots int, unitPrice decimal.Decimal, duration int, start time.Time, step decimal.Decimal) {
	m.NumberOfLots = numberOfLots
	m.UnitPrice = unitPrice
	m.PaymentDuration = duration
	m.StartDate = DateOnly(start)
	m.TotalLotAmount = unitPrice.Mul(decimal.NewFromInt(int64(numberOfLots)))
	m.MonthlyQuota = QuotaFor(m.TotalLotAmount, duration, step)
	m.EndDate = ContractEnd(m.StartDate, duration)
}

// StartMonth is the first installment month.
func (m Member) StartMonth() Month {
	return MonthOf(m.StartDate)
}

// QuotaFor divides total into duration installments rounded to the nearest step.
func QuotaFor(total decimal.Decimal, duration int, step decimal.Decimal) decimal.Decimal {
	if duration <= 0 {
		return decimal.Zero
	}
	raw := total.Div(decimal.NewFromInt(int64(duration)))
	if !step.IsPositive() {
		return raw.Round(0)
	}
	return raw.Div(step).Round(0).Mul(step)
}

// ContractEnd is the last day of the month preceding start + duration months.
func ContractEnd(start time.Time, duration int) time.Time {
	if start.IsZero() || duration <= 0 {
		return start
	}
	return MonthOf(start).Add(duration).FirstDay().AddDate(0, 0, -1)
}

func DateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
