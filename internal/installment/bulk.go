package installment

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nurpe/tontine/internal/model"
)

// ConflictPolicy decides what a bulk operation does with a month that
// already has a payment.
type ConflictPolicy string

const (
	ConflictSkip      ConflictPolicy = "skip"
	ConflictReplace   ConflictPolicy = "replace"
	ConflictDuplicate ConflictPolicy = "duplicate"
)

func ParseConflictPolicy(raw string) (ConflictPolicy, error) {
	switch ConflictPolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case ConflictSkip, "":
		return ConflictSkip, nil
	case ConflictReplace:
		return ConflictReplace, nil
	case ConflictDuplicate:
		return ConflictDuplicate, nil
	default:
		return "", fmt.Errorf("unknown conflict policy %q", raw)
	}
}

type BulkRequest struct {
	Members  []model.Member
	Payments []model.Payment
	Months   []model.Month
	// Amount per (member, month). Zero means the member's due for that month.
	Amount decimal.Decimal
	Date   time.Time
	Policy ConflictPolicy
}

type BulkSkip struct {
	MemberID uuid.UUID
	Month    model.Month
	Reason   string
}

type BulkPlan struct {
	Create  []model.Payment
	Update  []model.Payment
	Delete  []uuid.UUID
	Skipped []BulkSkip
}

func (p BulkPlan) Empty() bool {
	return len(p.Create) == 0 && len(p.Update) == 0 && len(p.Delete) == 0
}

// PlanBulk applies the request's conflict policy to every (member, month) pair.
func PlanBulk(req BulkRequest) (BulkPlan, error) {
	if req.Amount.IsNegative() {
		return BulkPlan{}, ErrInvalidAmount
	}
	policy := req.Policy
	if policy == "" {
		policy = ConflictSkip
	}

	type key struct {
		member uuid.UUID
		month  model.Month
	}
	existing := make(map[key][]model.Payment)
	for _, p := range req.Payments {
		k := key{member: p.MemberID, month: p.MonthKey}
		existing[k] = append(existing[k], p)
	}

	paidOn := model.DateOnly(req.Date)
	var plan BulkPlan
	for _, member := range req.Members {
		dues := make(map[model.Month]decimal.Decimal, member.PaymentDuration)
		for _, inst := range Schedule(member) {
			dues[inst.Month] = inst.Due
		}

		for _, month := range req.Months {
			due, inSchedule := dues[month]
			if !WellFormed(member) {
				plan.Skipped = append(plan.Skipped, BulkSkip{MemberID: member.ID, Month: month, Reason: ErrIllFormedContract.Error()})
				continue
			}
			if !inSchedule {
				plan.Skipped = append(plan.Skipped, BulkSkip{MemberID: member.ID, Month: month, Reason: "month outside schedule"})
				continue
			}

			amount := req.Amount
			if amount.IsZero() {
				amount = due
			}
			if !amount.IsPositive() {
				plan.Skipped = append(plan.Skipped, BulkSkip{MemberID: member.ID, Month: month, Reason: "nothing due"})
				continue
			}

			rows := existing[key{member: member.ID, month: month}]
			if len(rows) == 0 || policy == ConflictDuplicate {
				plan.Create = append(plan.Create, model.Payment{
					MemberID: member.ID,
					Amount:   amount,
					Date:     paidOn,
					MonthKey: month,
				})
				continue
			}

			switch policy {
			case ConflictSkip:
				plan.Skipped = append(plan.Skipped, BulkSkip{MemberID: member.ID, Month: month, Reason: "month already has a payment"})
			case ConflictReplace:
				rows = sortedByCreation(rows)
				replaced := rows[0]
				replaced.Amount = amount
				replaced.Date = paidOn
				plan.Update = append(plan.Update, replaced)
				for _, extra := range rows[1:] {
					plan.Delete = append(plan.Delete, extra.ID)
				}
			}
		}
	}
	return plan, nil
}

func sortedByCreation(rows []model.Payment) []model.Payment {
	out := make([]model.Payment, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
