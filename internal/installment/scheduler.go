// Package installment computes how a member's payments cover the monthly
// installments of a lot contract and decides where new money is applied.
//
// Every function here works on snapshots passed by the caller and never
// mutates them.
package installment

import (
	"github.com/shopspring/decimal"

	"github.com/nurpe/tontine/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Installment is one scheduled month and the amount due for it.
type Installment struct {
	Month model.Month
	Due   decimal.Decimal
}

type MonthCoverage struct {
	Month      model.Month
	Due        decimal.Decimal
	Applied    decimal.Decimal
	Percentage int
	Status     model.CoverageStatus
}

func (c MonthCoverage) FullyCovered() bool {
	return c.Status == model.CoverageFull
}

type Allocation struct {
	Months               []MonthCoverage
	TotalPaid            decimal.Decimal
	TotalApplied         decimal.Decimal
	RemainingBalance     decimal.Decimal
	CompletionPercentage int
}

// Coverage returns the coverage of month m, if m belongs to the schedule.
func (a Allocation) Coverage(m model.Month) (MonthCoverage, bool) {
	for _, c := range a.Months {
		if c.Month == m {
			return c, true
		}
	}
	return MonthCoverage{}, false
}

func (a Allocation) firstUnpaidIndex() (int, bool) {
	for i, c := range a.Months {
		if !c.FullyCovered() {
			return i, true
		}
	}
	return -1, false
}

// WellFormed reports whether the contract can be allocated against.
func WellFormed(member model.Member) bool {
	return member.PaymentDuration > 0 && member.MonthlyQuota.IsPositive()
}

// MonthSequence lists the PaymentDuration months of the contract in order.
func MonthSequence(member model.Member) []model.Month {
	if member.PaymentDuration <= 0 {
		return nil
	}
	start := member.StartMonth()
	months := make([]model.Month, member.PaymentDuration)
	for i := range months {
		months[i] = start.Add(i)
	}
	return months
}

// Schedule pairs every month with its due. All months are due the monthly
// quota except the last one, which takes whatever is left of the total so
// that the dues always add up to TotalLotAmount.
func Schedule(member model.Member) []Installment {
	months := MonthSequence(member)
	schedule := make([]Installment, len(months))
	if !WellFormed(member) {
		for i, m := range months {
			schedule[i] = Installment{Month: m, Due: decimal.Zero}
		}
		return schedule
	}

	left := decimal.Max(member.TotalLotAmount, decimal.Zero)
	for i, m := range months {
		due := left
		if i < len(months)-1 {
			due = decimal.Min(member.MonthlyQuota, left)
		}
		left = left.Sub(due)
		schedule[i] = Installment{Month: m, Due: due}
	}
	return schedule
}

// Allocate pools every payment and pours the pool into the schedule month by
// month. The first month the pool cannot fill is partial; the rest are unpaid.
func Allocate(member model.Member, payments []model.Payment) Allocation {
	paid := model.SumPayments(payments)
	schedule := Schedule(member)
	result := Allocation{
		Months:       make([]MonthCoverage, len(schedule)),
		TotalPaid:    paid,
		TotalApplied: decimal.Zero,
	}

	if !WellFormed(member) {
		for i, inst := range schedule {
			result.Months[i] = MonthCoverage{
				Month:   inst.Month,
				Due:     inst.Due,
				Applied: decimal.Zero,
				Status:  model.CoverageUncovered,
			}
		}
		result.RemainingBalance = decimal.Max(member.TotalLotAmount, decimal.Zero)
		return result
	}

	pool := decimal.Max(paid, decimal.Zero)
	for i, inst := range schedule {
		cov := MonthCoverage{Month: inst.Month, Due: inst.Due, Applied: decimal.Zero, Status: model.CoverageUncovered}
		switch {
		case pool.GreaterThanOrEqual(inst.Due):
			cov.Applied = inst.Due
			cov.Percentage = 100
			cov.Status = model.CoverageFull
			pool = pool.Sub(inst.Due)
		case pool.IsPositive():
			cov.Applied = pool
			cov.Percentage = percentOf(pool, inst.Due)
			cov.Status = model.CoveragePartial
			pool = decimal.Zero
		}
		result.TotalApplied = result.TotalApplied.Add(cov.Applied)
		result.Months[i] = cov
	}

	result.RemainingBalance = decimal.Max(member.TotalLotAmount.Sub(paid), decimal.Zero)
	result.CompletionPercentage = percentOf(decimal.Min(paid, member.TotalLotAmount), member.TotalLotAmount)
	return result
}

// FirstUnpaidMonth is the earliest month not fully covered. ok is false
// when the whole schedule is covered.
func FirstUnpaidMonth(member model.Member, payments []model.Payment) (model.Month, bool) {
	alloc := Allocate(member, payments)
	idx, ok := alloc.firstUnpaidIndex()
	if !ok {
		return model.Month{}, false
	}
	return alloc.Months[idx].Month, true
}

// RemainingBalance is TotalLotAmount minus everything paid, floored at zero.
func RemainingBalance(member model.Member, payments []model.Payment) decimal.Decimal {
	return Allocate(member, payments).RemainingBalance
}

// Overview condenses an allocation into the per-member totals shown in lists.
func Overview(member model.Member, payments []model.Payment) model.MemberOverview {
	alloc := Allocate(member, payments)
	overview := model.MemberOverview{
		Member:               member,
		TotalPaid:            alloc.TotalPaid,
		RemainingBalance:     alloc.RemainingBalance,
		CompletionPercentage: alloc.CompletionPercentage,
	}
	if idx, ok := alloc.firstUnpaidIndex(); ok {
		next := alloc.Months[idx].Month
		overview.NextUnpaidMonth = &next
	}
	return overview
}

// StatementRows converts an allocation into report rows.
func StatementRows(alloc Allocation) []model.StatementRow {
	rows := make([]model.StatementRow, len(alloc.Months))
	for i, c := range alloc.Months {
		rows[i] = model.StatementRow{
			Month:      c.Month,
			Due:        c.Due,
			Applied:    c.Applied,
			Percentage: c.Percentage,
			Status:     c.Status,
		}
	}
	return rows
}

func percentOf(part, whole decimal.Decimal) int {
	if !whole.IsPositive() {
		return 0
	}
	return int(part.Mul(hundred).Div(whole).Round(0).IntPart())
}
