package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nurpe/tontine/internal/installment"
	"github.com/nurpe/tontine/internal/model"
	"github.com/nurpe/tontine/internal/repository"
)

type MemberService struct {
	members   *repository.MemberRepository
	payments  *repository.PaymentRepository
	lots      *repository.LotRepository
	settings  *repository.SettingsRepository
	quotaStep decimal.Decimal
}

func NewMemberService(
	members *repository.MemberRepository,
	payments *repository.PaymentRepository,
	lots *repository.LotRepository,
	settings *repository.SettingsRepository,
	quotaStep decimal.Decimal,
) *MemberService {
	return &MemberService{
		members:   members,
		payments:  payments,
		lots:      lots,
		settings:  settings,
		quotaStep: quotaStep,
	}
}

type CreateMemberInput struct {
	Name            string
	Email           string
	Phone           string
	NumberOfLots    int
	PaymentDuration int
	StartDate       time.Time
	// UnitPrice overrides the configured price for this contract.
	UnitPrice *decimal.Decimal
}

type UpdateMemberInput struct {
	Name            *string
	Email           *string
	Phone           *string
	NumberOfLots    *int
	PaymentDuration *int
	StartDate       *time.Time
	Version         int64
}

type MemberDetail struct {
	Member     model.Member
	Allocation installment.Allocation
	Payments   []model.Payment
}

func (s *MemberService) Create(ctx context.Context, input CreateMemberInput) (*model.Member, error) {
	member, err := s.buildMember(ctx, input)
	if err != nil {
		return nil, err
	}
	created, err := s.members.Create(ctx, member)
	if err != nil {
		return nil, translate(err)
	}
	return created, nil
}

func (s *MemberService) buildMember(ctx context.Context, input CreateMemberInput) (model.Member, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return model.Member{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if input.NumberOfLots <= 0 {
		return model.Member{}, fmt.Errorf("%w: number_of_lots must be positive", ErrInvalidInput)
	}
	if input.PaymentDuration <= 0 {
		return model.Member{}, fmt.Errorf("%w: payment_duration must be positive", ErrInvalidInput)
	}
	if input.StartDate.IsZero() {
		return model.Member{}, fmt.Errorf("%w: start_date is required", ErrInvalidInput)
	}

	price, err := s.unitPrice(ctx, input.UnitPrice)
	if err != nil {
		return model.Member{}, err
	}

	member := model.Member{
		Name:  name,
		Email: strings.TrimSpace(input.Email),
		Phone: strings.TrimSpace(input.Phone),
	}
	member.ApplyContract(input.NumberOfLots, price, input.PaymentDuration, input.StartDate, s.quotaStep)
	return member, nil
}

func (s *MemberService) unitPrice(ctx context.Context, override *decimal.Decimal) (decimal.Decimal, error) {
	if override != nil {
		if !override.IsPositive() {
			return decimal.Zero, fmt.Errorf("%w: unit_price must be positive", ErrInvalidInput)
		}
		return *override, nil
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	lots, err := s.lots.List(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	price := model.EffectiveUnitPrice(settings, lots)
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: no unit price configured and no lot defined", ErrInvalidInput)
	}
	return price, nil
}

// List returns every member with its allocation totals.
func (s *MemberService) List(ctx context.Context) ([]model.MemberOverview, error) {
	members, err := s.members.List(ctx)
	if err != nil {
		return nil, err
	}
	payments, err := s.payments.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	grouped := repository.GroupByMember(payments)

	result := make([]model.MemberOverview, 0, len(members))
	for _, m := range members {
		result = append(result, installment.Overview(m, grouped[m.ID]))
	}
	return result, nil
}

func (s *MemberService) Get(ctx context.Context, id uuid.UUID) (*MemberDetail, error) {
	member, err := s.members.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	payments, err := s.payments.ListByMember(ctx, id)
	if err != nil {
		return nil, err
	}
	return &MemberDetail{
		Member:     *member,
		Allocation: installment.Allocate(*member, payments),
		Payments:   payments,
	}, nil
}

// Update changes contact details or contract terms. The unit price captured
// at creation is kept; totals and quota are recomputed from it.
func (s *MemberService) Update(ctx context.Context, id uuid.UUID, input UpdateMemberInput) (*model.Member, error) {
	current, err := s.members.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if current.Version != input.Version {
		return nil, fmt.Errorf("%w: member version is %d", ErrConflict, current.Version)
	}

	updated := *current
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
		}
		updated.Name = name
	}
	if input.Email != nil {
		updated.Email = strings.TrimSpace(*input.Email)
	}
	if input.Phone != nil {
		updated.Phone = strings.TrimSpace(*input.Phone)
	}

	lots, duration, start := updated.NumberOfLots, updated.PaymentDuration, updated.StartDate
	if input.NumberOfLots != nil {
		lots = *input.NumberOfLots
	}
	if input.PaymentDuration != nil {
		duration = *input.PaymentDuration
	}
	if input.StartDate != nil {
		start = *input.StartDate
	}
	if lots <= 0 || duration <= 0 {
		return nil, fmt.Errorf("%w: number_of_lots and payment_duration must be positive", ErrInvalidInput)
	}
	if start.IsZero() {
		return nil, fmt.Errorf("%w: start_date is required", ErrInvalidInput)
	}
	updated.ApplyContract(lots, updated.UnitPrice, duration, start, s.quotaStep)

	if updated.StartMonth() != current.StartMonth() || updated.PaymentDuration < current.PaymentDuration {
		if err := s.checkScheduleKeepsPayments(ctx, *current, updated); err != nil {
			return nil, err
		}
	}

	saved, err := s.members.Update(ctx, updated)
	if err != nil {
		return nil, translate(err)
	}
	return saved, nil
}

// checkScheduleKeepsPayments guards members with payments: their month keys
// are absolute, so the start month stays fixed and the schedule may only
// shrink down to the last paid month.
func (s *MemberService) checkScheduleKeepsPayments(ctx context.Context, current, updated model.Member) error {
	payments, err := s.payments.ListByMember(ctx, current.ID)
	if err != nil {
		return translate(err)
	}
	if len(payments) == 0 {
		return nil
	}
	if updated.StartMonth() != current.StartMonth() {
		return fmt.Errorf("%w: start month cannot change once payments are recorded", ErrConflict)
	}
	last := updated.StartMonth().Add(updated.PaymentDuration - 1)
	for _, p := range payments {
		if last.Before(p.MonthKey) {
			return fmt.Errorf("%w: payment recorded for %s is outside the new schedule", ErrConflict, p.MonthKey)
		}
	}
	return nil
}

func (s *MemberService) Delete(ctx context.Context, id uuid.UUID) error {
	return translate(s.members.Delete(ctx, id))
}

func (s *MemberService) Dashboard(ctx context.Context) (model.DashboardSummary, error) {
	overviews, err := s.List(ctx)
	if err != nil {
		return model.DashboardSummary{}, err
	}
	return summarize(overviews), nil
}

func summarize(overviews []model.MemberOverview) model.DashboardSummary {
	summary := model.DashboardSummary{
		Members:          len(overviews),
		TotalExpected:    decimal.Zero,
		TotalCollected:   decimal.Zero,
		TotalOutstanding: decimal.Zero,
	}
	for _, o := range overviews {
		summary.TotalExpected = summary.TotalExpected.Add(o.Member.TotalLotAmount)
		summary.TotalCollected = summary.TotalCollected.Add(o.TotalPaid)
		summary.TotalOutstanding = summary.TotalOutstanding.Add(o.RemainingBalance)
		if installment.WellFormed(o.Member) && o.RemainingBalance.IsZero() {
			summary.FullyPaidMembers++
		}
	}
	if summary.TotalExpected.IsPositive() {
		collected := decimal.Min(summary.TotalCollected, summary.TotalExpected)
		summary.CompletionPercentage = int(collected.Mul(decimal.NewFromInt(100)).Div(summary.TotalExpected).Round(0).IntPart())
	}
	return summary
}
