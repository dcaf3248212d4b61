package installment

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nurpe/tontine/internal/model"
)

// Receipt lists the payment rows produced for one entered amount.
type Receipt struct {
	Payments    []model.Payment
	Months      []model.Month
	MonthLabels []string
	Applied     decimal.Decimal
	Discarded   decimal.Decimal
}

// Record splits amount over the member's unpaid months, starting at the
// first unpaid one. Each month takes what the pooled allocation leaves
// uncovered, so any amount up to the remaining balance fits whatever month
// keys the existing payments carry. New payments carry a nil ID; the store
// assigns it.
//
// existing must hold every payment of the member and is left untouched.
func Record(member model.Member, existing []model.Payment, amount decimal.Decimal, date time.Time) (*Receipt, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if !WellFormed(member) {
		return nil, ErrIllFormedContract
	}

	alloc := Allocate(member, existing)
	start, ok := alloc.firstUnpaidIndex()
	if !ok {
		return nil, ErrContractAlreadyComplete
	}
	if amount.GreaterThan(alloc.RemainingBalance) {
		return nil, &BalanceError{MaxAllowed: alloc.RemainingBalance}
	}

	receipt := &Receipt{}
	left := amount
	paidOn := model.DateOnly(date)
	for i := start; i < len(alloc.Months) && left.IsPositive(); i++ {
		month := alloc.Months[i]
		needed := month.Due.Sub(month.Applied)
		if !needed.IsPositive() {
			continue
		}
		portion := decimal.Min(left, needed)
		receipt.Payments = append(receipt.Payments, model.Payment{
			MemberID: member.ID,
			Amount:   portion,
			Date:     paidOn,
			MonthKey: month.Month,
		})
		receipt.Months = append(receipt.Months, month.Month)
		receipt.MonthLabels = append(receipt.MonthLabels, month.Month.Label())
		left = left.Sub(portion)
	}

	if left.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("%w: %s left over", ErrAllocationResidual, left.StringFixed(2))
	}
	receipt.Applied = amount.Sub(left)
	receipt.Discarded = left
	return receipt, nil
}
