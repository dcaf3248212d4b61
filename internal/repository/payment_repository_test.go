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

func TestPaymentRepository_AppendAndList(t *testing.T) {
	db := testutil.NewDB(t)
	members := NewMemberRepository(db)
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	member, err := members.Create(ctx, newContract("Awa", 1, 1200, 12, time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	jul := model.Month{Year: 2025, Month: time.July}
	saved, err := repo.Append(ctx, member.ID, member.Version, []model.Payment{
		{Amount: decimal.NewFromInt(100), Date: time.Date(2025, time.July, 5, 0, 0, 0, 0, time.UTC), MonthKey: jul.Add(1)},
		{Amount: decimal.RequireFromString("50.5"), Date: time.Date(2025, time.July, 5, 0, 0, 0, 0, time.UTC), MonthKey: jul},
	})
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.NotEqual(t, uuid.Nil, saved[0].ID)

	listed, err := repo.ListByMember(ctx, member.ID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, jul, listed[0].MonthKey)
	assert.True(t, decimal.RequireFromString("50.5").Equal(listed[0].Amount))
	assert.Equal(t, "2025-07-05", listed[0].Date.Format("2006-01-02"))
	assert.Equal(t, jul.Add(1), listed[1].MonthKey)

	reloaded, err := members.GetByID(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), reloaded.Version)
}

func TestPaymentRepository_AppendRejectsStaleSnapshot(t *testing.T) {
	db := testutil.NewDB(t)
	members := NewMemberRepository(db)
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	member, err := members.Create(ctx, newContract("Awa", 1, 1200, 12, time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	entry := []model.Payment{{Amount: decimal.NewFromInt(100), Date: time.Now().UTC(), MonthKey: member.StartMonth()}}

	_, err = repo.Append(ctx, member.ID, member.Version, entry)
	require.NoError(t, err)
	_, err = repo.Append(ctx, member.ID, member.Version, entry)
	assert.ErrorIs(t, err, ErrVersionConflict)

	_, err = repo.Append(ctx, uuid.New(), 0, entry)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	listed, err := repo.ListByMember(ctx, member.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestPaymentRepository_ApplyBulk(t *testing.T) {
	db := testutil.NewDB(t)
	members := NewMemberRepository(db)
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	member, err := members.Create(ctx, newContract("Awa", 1, 1200, 12, time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	jul := member.StartMonth()
	existing, err := repo.Append(ctx, member.ID, member.Version, []model.Payment{
		{Amount: decimal.NewFromInt(40), Date: time.Date(2025, time.July, 2, 0, 0, 0, 0, time.UTC), MonthKey: jul},
		{Amount: decimal.NewFromInt(10), Date: time.Date(2025, time.July, 3, 0, 0, 0, 0, time.UTC), MonthKey: jul},
	})
	require.NoError(t, err)

	replaced := existing[0]
	replaced.Amount = decimal.NewFromInt(100)
	replaced.Date = time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC)

	created, err := repo.ApplyBulk(ctx, BulkChanges{
		Create:   []model.Payment{{MemberID: member.ID, Amount: decimal.NewFromInt(100), Date: replaced.Date, MonthKey: jul.Add(1)}},
		Update:   []model.Payment{replaced},
		Delete:   []uuid.UUID{existing[1].ID},
		Versions: map[uuid.UUID]int64{member.ID: 1},
	})
	require.NoError(t, err)
	require.Len(t, created, 1)

	listed, err := repo.ListByMember(ctx, member.ID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.True(t, decimal.NewFromInt(100).Equal(listed[0].Amount))
	assert.Equal(t, "2025-08-01", listed[0].Date.Format("2006-01-02"))
	assert.Equal(t, jul.Add(1), listed[1].MonthKey)

	_, err = repo.ApplyBulk(ctx, BulkChanges{Versions: map[uuid.UUID]int64{member.ID: 1}})
	assert.ErrorIs(t, err, ErrVersionConflict)
}

func TestPaymentRepository_MonthlyTotals(t *testing.T) {
	db := testutil.NewDB(t)
	members := NewMemberRepository(db)
	repo := NewPaymentRepository(db)
	ctx := context.Background()
	start := time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)

	a, err := members.Create(ctx, newContract("Awa", 1, 1200, 12, start))
	require.NoError(t, err)
	b, err := members.Create(ctx, newContract("Binta", 1, 1200, 12, start))
	require.NoError(t, err)
	jul := model.MonthOf(start)

	_, err = repo.Append(ctx, a.ID, a.Version, []model.Payment{
		{Amount: decimal.NewFromInt(100), Date: start, MonthKey: jul},
		{Amount: decimal.NewFromInt(60), Date: start, MonthKey: jul.Add(1)},
	})
	require.NoError(t, err)
	_, err = repo.Append(ctx, b.ID, b.Version, []model.Payment{
		{Amount: decimal.NewFromInt(100), Date: start, MonthKey: jul},
	})
	require.NoError(t, err)

	totals, err := repo.MonthlyTotals(ctx)
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, jul, totals[0].Month)
	assert.True(t, decimal.NewFromInt(200).Equal(totals[0].Received))
	assert.Equal(t, 2, totals[0].Payments)
	assert.Equal(t, jul.Add(1), totals[1].Month)
	assert.Equal(t, 1, totals[1].Payments)
}

func TestGroupByMember(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	grouped := GroupByMember([]model.Payment{{MemberID: a}, {MemberID: b}, {MemberID: a}})
	assert.Len(t, grouped[a], 2)
	assert.Len(t, grouped[b], 1)
}
