package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment is the portion of a received sum counted toward one installment month.
// MonthKey decides the allocation; Date only records when the money arrived.
type Payment struct {
	ID        uuid.UUID
	MemberID  uuid.UUID
	Amount    decimal.Decimal
	Date      time.Time
	MonthKey  Month
	CreatedAt time.Time
}

func SumPayments(payments []Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total
}
