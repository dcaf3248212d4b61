package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/tontine/internal/excel"
)

func TestImportService_Import(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	importer := NewImportService(f.members, excel.MonthWindow{}, zerolog.Nop())

	price := dec(1200)
	_, err := f.settingsRepo.SetUnitPrice(ctx, &price)
	require.NoError(t, err)

	input := strings.Join([]string{
		"Name,Lots,Duration,Start date,2025-01,February 2025",
		"Awa,1,12,2025-01-01,100,100",
		"Fatou,1,2,2025-01-01,1000,900",
		"Bad,0,12,2025-01-01,,",
	}, "\n")

	result, err := importer.Import(ctx, "members.csv", strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, result.Created, 2)
	assert.Equal(t, 4, result.ImportedPayments)
	assert.True(t, dec(700).Equal(result.Discarded))
	require.Len(t, result.Issues, 1)
	assert.Equal(t, 4, result.Issues[0].Line)

	overviews, err := f.members.List(ctx)
	require.NoError(t, err)
	require.Len(t, overviews, 2)
	awa, fatou := overviews[0], overviews[1]
	assert.True(t, dec(200).Equal(awa.TotalPaid))
	assert.True(t, dec(1200).Equal(fatou.TotalPaid))
	assert.True(t, fatou.RemainingBalance.IsZero())

	_, err = importer.Import(ctx, "members.txt", strings.NewReader(input))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestImportService_RequiresUnitPrice(t *testing.T) {
	f := newFixture(t)
	importer := NewImportService(f.members, excel.MonthWindow{}, zerolog.Nop())

	result, err := importer.Import(context.Background(), "members.csv", strings.NewReader("Name,Lots,Duration,Start date\nAwa,1,12,2025-01-01\n"))
	require.NoError(t, err)
	assert.Empty(t, result.Created)
	require.Len(t, result.Issues, 1)
	assert.Contains(t, result.Issues[0].Reason, "no unit price")
}

func TestImportService_ReportsRowsThatFailToSave(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	importer := NewImportService(f.members, excel.MonthWindow{}, zerolog.Nop())

	price := dec(1200)
	_, err := f.settingsRepo.SetUnitPrice(ctx, &price)
	require.NoError(t, err)
	require.NoError(t, f.db.Exec(`
		CREATE TRIGGER reject_broken BEFORE INSERT ON members
		WHEN NEW.name = 'Broken'
		BEGIN SELECT RAISE(ABORT, 'rejected'); END;
	`).Error)

	input := strings.Join([]string{
		"Name,Lots,Duration,Start date,2025-01",
		"Awa,1,12,2025-01-01,100",
		"Broken,1,12,2025-01-01,100",
		"Fatou,1,12,2025-01-01,100",
	}, "\n")

	result, err := importer.Import(ctx, "members.csv", strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, result.Created, 2)
	assert.Equal(t, "Awa", result.Created[0].Name)
	assert.Equal(t, "Fatou", result.Created[1].Name)
	assert.Equal(t, 2, result.ImportedPayments)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, 3, result.Issues[0].Line)
	assert.Equal(t, "Broken", result.Issues[0].Name)

	payments, err := f.paymentRepo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, payments, 2)
}

func TestImportService_GapInHistoryCanStillBePaidOff(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	importer := NewImportService(f.members, excel.MonthWindow{}, zerolog.Nop())

	price := dec(1200)
	_, err := f.settingsRepo.SetUnitPrice(ctx, &price)
	require.NoError(t, err)

	input := "Name,Lots,Duration,Start date,2025-01,2025-02,2025-03\nAwa,1,3,2025-01-01,400,,400\n"
	result, err := importer.Import(ctx, "members.csv", strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, result.Created, 1)
	member := result.Created[0]

	recorded := f.record(t, &member, 400, day(2025, time.April, 2))
	assert.True(t, recorded.Overview.RemainingBalance.IsZero())
	assert.Equal(t, 100, recorded.Overview.CompletionPercentage)
}
