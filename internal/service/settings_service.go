package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/nurpe/tontine/internal/model"
	"github.com/nurpe/tontine/internal/repository"
)

type SettingsService struct {
	settings  *repository.SettingsRepository
	lots      *repository.LotRepository
	members   *repository.MemberRepository
	quotaStep decimal.Decimal
	log       zerolog.Logger
}

func NewSettingsService(
	settings *repository.SettingsRepository,
	lots *repository.LotRepository,
	members *repository.MemberRepository,
	quotaStep decimal.Decimal,
	log zerolog.Logger,
) *SettingsService {
	return &SettingsService{
		settings:  settings,
		lots:      lots,
		members:   members,
		quotaStep: quotaStep,
		log:       log,
	}
}

type SettingsView struct {
	Settings           model.Settings
	EffectiveUnitPrice decimal.Decimal
}

type UnitPriceChange struct {
	SettingsView
	// Recomputed counts members without payments whose contract moved to the new price.
	Recomputed int
}

func (s *SettingsService) Get(ctx context.Context) (*SettingsView, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	lots, err := s.lots.List(ctx)
	if err != nil {
		return nil, err
	}
	return &SettingsView{
		Settings:           settings,
		EffectiveUnitPrice: model.EffectiveUnitPrice(settings, lots),
	}, nil
}

// SetUnitPrice stores the global unit price; nil clears it so the first
// lot's price applies. Members that already paid something keep their
// contract, the others are recomputed at the new effective price.
func (s *SettingsService) SetUnitPrice(ctx context.Context, price *decimal.Decimal) (*UnitPriceChange, error) {
	if price != nil && !price.IsPositive() {
		return nil, fmt.Errorf("%w: unit_price must be positive", ErrInvalidInput)
	}
	if _, err := s.settings.SetUnitPrice(ctx, price); err != nil {
		return nil, err
	}
	view, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	change := &UnitPriceChange{SettingsView: *view}
	if !view.EffectiveUnitPrice.IsPositive() {
		return change, nil
	}

	members, err := s.members.ListWithoutPayments(ctx)
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		if m.UnitPrice.Equal(view.EffectiveUnitPrice) {
			continue
		}
		m.ApplyContract(m.NumberOfLots, view.EffectiveUnitPrice, m.PaymentDuration, m.StartDate, s.quotaStep)
		if _, err := s.members.Update(ctx, m); err != nil {
			s.log.Warn().Err(err).Str("member_id", m.ID.String()).Msg("skipped unit price recompute")
			continue
		}
		change.Recomputed++
	}
	return change, nil
}
