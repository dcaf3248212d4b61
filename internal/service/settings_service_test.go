package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/tontine/internal/model"
)

func TestSettingsService_UnitPricePolicy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.lotRepo.Create(ctx, model.Lot{Name: "Parcel", Price: dec(1200)})
	require.NoError(t, err)

	view, err := f.settings.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, view.Settings.UnitPrice)
	assert.True(t, dec(1200).Equal(view.EffectiveUnitPrice))

	fresh, err := f.members.Create(ctx, CreateMemberInput{Name: "Fresh", NumberOfLots: 1, PaymentDuration: 12, StartDate: day(2025, time.January, 1)})
	require.NoError(t, err)
	paying, err := f.members.Create(ctx, CreateMemberInput{Name: "Paying", NumberOfLots: 1, PaymentDuration: 12, StartDate: day(2025, time.January, 1)})
	require.NoError(t, err)
	f.record(t, paying, 100, day(2025, time.January, 2))

	price := dec(2400)
	change, err := f.settings.SetUnitPrice(ctx, &price)
	require.NoError(t, err)
	assert.Equal(t, 1, change.Recomputed)
	require.NotNil(t, change.Settings.UnitPrice)
	assert.True(t, dec(2400).Equal(*change.Settings.UnitPrice))
	assert.True(t, dec(2400).Equal(change.EffectiveUnitPrice))

	reloaded, err := f.memberRepo.GetByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.True(t, dec(2400).Equal(reloaded.UnitPrice))
	assert.True(t, dec(2400).Equal(reloaded.TotalLotAmount))
	assert.True(t, dec(200).Equal(reloaded.MonthlyQuota))

	untouched, err := f.memberRepo.GetByID(ctx, paying.ID)
	require.NoError(t, err)
	assert.True(t, dec(1200).Equal(untouched.UnitPrice))

	change, err = f.settings.SetUnitPrice(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, change.Settings.UnitPrice)
	assert.True(t, dec(1200).Equal(change.EffectiveUnitPrice))
	assert.Equal(t, 1, change.Recomputed)

	zero := dec(0)
	_, err = f.settings.SetUnitPrice(ctx, &zero)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
