package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nurpe/tontine/internal/model"
	"github.com/nurpe/tontine/internal/testutil"
)

func newContract(name string, lots int, price int64, duration int, start time.Time) model.Member {
	m := model.Member{Name: name, Email: name + "@example.com", Phone: "+221700000000"}
	m.ApplyContract(lots, decimal.NewFromInt(price), duration, start, model.DefaultQuotaStep)
	return m
}

func TestMemberRepository_CreateAndGet(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewMemberRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, newContract("Awa", 2, 1500000, 12, time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, "Awa", created.Name)
	assert.Equal(t, 2, created.NumberOfLots)
	assert.True(t, decimal.NewFromInt(3000000).Equal(created.TotalLotAmount))
	assert.True(t, decimal.NewFromInt(250000).Equal(created.MonthlyQuota))
	assert.Equal(t, "2025-07-01", created.StartDate.Format("2006-01-02"))
	assert.Equal(t, "2026-06-30", created.EndDate.Format("2006-01-02"))
	assert.Equal(t, int64(0), created.Version)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestMemberRepository_CreateWithPayments(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewMemberRepository(db)
	payments := NewPaymentRepository(db)
	ctx := context.Background()

	member := newContract("Binta", 1, 1200, 12, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC))
	created, err := repo.Create(ctx, member, model.Payment{
		Amount:   decimal.NewFromInt(100),
		Date:     time.Date(2025, time.January, 3, 0, 0, 0, 0, time.UTC),
		MonthKey: model.Month{Year: 2025, Month: time.January},
	})
	require.NoError(t, err)

	stored, err := payments.ListByMember(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, created.ID, stored[0].MemberID)
}

func TestMemberRepository_ListSortedByName(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewMemberRepository(db)
	ctx := context.Background()
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	for _, name := range []string{"Mariama", "Awa", "Cheikh"} {
		_, err := repo.Create(ctx, newContract(name, 1, 1200, 12, start))
		require.NoError(t, err)
	}

	members, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, members, 3)
	assert.Equal(t, "Awa", members[0].Name)
	assert.Equal(t, "Cheikh", members[1].Name)
	assert.Equal(t, "Mariama", members[2].Name)
}

func TestMemberRepository_UpdateChecksVersion(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewMemberRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, newContract("Awa", 1, 1200, 12, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	stale := *created
	changed := *created
	changed.ApplyContract(3, created.UnitPrice, 24, created.StartDate, model.DefaultQuotaStep)

	updated, err := repo.Update(ctx, changed)
	require.NoError(t, err)
	assert.Equal(t, 3, updated.NumberOfLots)
	assert.Equal(t, 24, updated.PaymentDuration)
	assert.True(t, decimal.NewFromInt(3600).Equal(updated.TotalLotAmount))
	assert.True(t, decimal.NewFromInt(200).Equal(updated.MonthlyQuota))
	assert.Equal(t, int64(1), updated.Version)

	_, err = repo.Update(ctx, stale)
	assert.ErrorIs(t, err, ErrVersionConflict)

	missing := changed
	missing.ID = uuid.New()
	_, err = repo.Update(ctx, missing)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestMemberRepository_DeleteCascadesPayments(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewMemberRepository(db)
	payments := NewPaymentRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, newContract("Awa", 1, 1200, 12, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	_, err = payments.Append(ctx, created.ID, created.Version, []model.Payment{{
		Amount:   decimal.NewFromInt(100),
		Date:     time.Date(2025, time.January, 2, 0, 0, 0, 0, time.UTC),
		MonthKey: model.Month{Year: 2025, Month: time.January},
	}})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, created.ID))

	all, err := payments.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.ErrorIs(t, repo.Delete(ctx, created.ID), gorm.ErrRecordNotFound)
}

func TestMemberRepository_ListWithoutPayments(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewMemberRepository(db)
	payments := NewPaymentRepository(db)
	ctx := context.Background()
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	paying, err := repo.Create(ctx, newContract("Awa", 1, 1200, 12, start))
	require.NoError(t, err)
	_, err = repo.Create(ctx, newContract("Binta", 1, 1200, 12, start))
	require.NoError(t, err)
	_, err = payments.Append(ctx, paying.ID, paying.Version, []model.Payment{{
		Amount:   decimal.NewFromInt(100),
		Date:     start,
		MonthKey: model.MonthOf(start),
	}})
	require.NoError(t, err)

	idle, err := repo.ListWithoutPayments(ctx)
	require.NoError(t, err)
	require.Len(t, idle, 1)
	assert.Equal(t, "Binta", idle[0].Name)
}
