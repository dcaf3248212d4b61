package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/nurpe/tontine/internal/installment"
	"github.com/nurpe/tontine/internal/model"
	"github.com/nurpe/tontine/internal/repository"
)

// maxRecordAttempts bounds how often Record re-reads the member after a
// concurrent write moved its version.
const maxRecordAttempts = 3

type PaymentService struct {
	members  *repository.MemberRepository
	payments *repository.PaymentRepository
	log      zerolog.Logger
}

func NewPaymentService(
	members *repository.MemberRepository,
	payments *repository.PaymentRepository,
	log zerolog.Logger,
) *PaymentService {
	return &PaymentService{
		members:  members,
		payments: payments,
		log:      log,
	}
}

type RecordPaymentInput struct {
	MemberID uuid.UUID
	Amount   decimal.Decimal
	Date     time.Time
}

type RecordPaymentResult struct {
	Member      model.Member
	Payments    []model.Payment
	MonthLabels []string
	Overview    model.MemberOverview
}

// Record splits one entered amount over the member's unpaid months and
// stores the resulting rows. Validation runs against a fresh snapshot on
// every attempt, so a retry never over-applies.
func (s *PaymentService) Record(ctx context.Context, input RecordPaymentInput) (*RecordPaymentResult, error) {
	date := input.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	for attempt := 1; ; attempt++ {
		member, err := s.members.GetByID(ctx, input.MemberID)
		if err != nil {
			return nil, translate(err)
		}
		existing, err := s.payments.ListByMember(ctx, member.ID)
		if err != nil {
			return nil, err
		}

		receipt, err := installment.Record(*member, existing, input.Amount, date)
		if err != nil {
			return nil, err
		}

		saved, err := s.payments.Append(ctx, member.ID, member.Version, receipt.Payments)
		if errors.Is(err, repository.ErrVersionConflict) && attempt < maxRecordAttempts {
			s.log.Debug().
				Str("member_id", member.ID.String()).
				Int("attempt", attempt).
				Msg("member changed while recording payment, retrying")
			continue
		}
		if err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				return nil, fmt.Errorf("%w: member %s is being updated concurrently", ErrConflict, member.ID)
			}
			return nil, translate(err)
		}

		all := append(append([]model.Payment{}, existing...), saved...)
		member.Version++
		return &RecordPaymentResult{
			Member:      *member,
			Payments:    saved,
			MonthLabels: receipt.MonthLabels,
			Overview:    installment.Overview(*member, all),
		}, nil
	}
}

func (s *PaymentService) ListByMember(ctx context.Context, memberID uuid.UUID) ([]model.Payment, error) {
	if _, err := s.members.GetByID(ctx, memberID); err != nil {
		return nil, translate(err)
	}
	return s.payments.ListByMember(ctx, memberID)
}

type BulkPaymentInput struct {
	MemberIDs []uuid.UUID
	Months    []model.Month
	Amount    decimal.Decimal
	Date      time.Time
	Policy    installment.ConflictPolicy
}

type BulkPaymentResult struct {
	Created []model.Payment
	Updated int
	Deleted int
	Skipped []installment.BulkSkip
}

// Bulk records one payment per (member, month) pair in a single transaction.
func (s *PaymentService) Bulk(ctx context.Context, input BulkPaymentInput) (*BulkPaymentResult, error) {
	if len(input.MemberIDs) == 0 || len(input.Months) == 0 {
		return nil, fmt.Errorf("%w: members and months are required", ErrInvalidInput)
	}
	date := input.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	members := make([]model.Member, 0, len(input.MemberIDs))
	var payments []model.Payment
	versions := make(map[uuid.UUID]int64, len(input.MemberIDs))
	for _, id := range input.MemberIDs {
		if _, seen := versions[id]; seen {
			continue
		}
		member, err := s.members.GetByID(ctx, id)
		if err != nil {
			return nil, translate(err)
		}
		existing, err := s.payments.ListByMember(ctx, id)
		if err != nil {
			return nil, err
		}
		members = append(members, *member)
		payments = append(payments, existing...)
		versions[id] = member.Version
	}

	plan, err := installment.PlanBulk(installment.BulkRequest{
		Members:  members,
		Payments: payments,
		Months:   input.Months,
		Amount:   input.Amount,
		Date:     date,
		Policy:   input.Policy,
	})
	if err != nil {
		return nil, err
	}

	result := &BulkPaymentResult{Skipped: plan.Skipped}
	if plan.Empty() {
		return result, nil
	}

	created, err := s.payments.ApplyBulk(ctx, repository.BulkChanges{
		Create:   plan.Create,
		Update:   plan.Update,
		Delete:   plan.Delete,
		Versions: versions,
	})
	if err != nil {
		return nil, translate(err)
	}
	result.Created = created
	result.Updated = len(plan.Update)
	result.Deleted = len(plan.Delete)
	return result, nil
}

// MonthlyCollections lists, for every scheduled or paid month, what the
// schedules expect and what was actually received.
func (s *PaymentService) MonthlyCollections(ctx context.Context) ([]model.MonthlyCollection, error) {
	members, err := s.members.List(ctx)
	if err != nil {
		return nil, err
	}
	totals, err := s.payments.MonthlyTotals(ctx)
	if err != nil {
		return nil, err
	}

	byMonth := make(map[model.Month]*model.MonthlyCollection)
	get := func(m model.Month) *model.MonthlyCollection {
		c, ok := byMonth[m]
		if !ok {
			c = &model.MonthlyCollection{Month: m, Expected: decimal.Zero, Received: decimal.Zero}
			byMonth[m] = c
		}
		return c
	}

	for _, member := range members {
		for _, inst := range installment.Schedule(member) {
			c := get(inst.Month)
			c.Expected = c.Expected.Add(inst.Due)
		}
	}
	for _, t := range totals {
		c := get(t.Month)
		c.Received = c.Received.Add(t.Received)
		c.Payments += t.Payments
	}

	result := make([]model.MonthlyCollection, 0, len(byMonth))
	for _, c := range byMonth {
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Month.Before(result[j].Month)
	})
	return result, nil
}
