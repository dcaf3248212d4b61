package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nurpe/tontine/internal/model"
	"github.com/nurpe/tontine/internal/repository"
	"github.com/nurpe/tontine/internal/testutil"
)

type fixture struct {
	db *gorm.DB

	memberRepo   *repository.MemberRepository
	paymentRepo  *repository.PaymentRepository
	lotRepo      *repository.LotRepository
	settingsRepo *repository.SettingsRepository

	members  *MemberService
	payments *PaymentService
	settings *SettingsService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	f := &fixture{
		db:           db,
		memberRepo:   repository.NewMemberRepository(db),
		paymentRepo:  repository.NewPaymentRepository(db),
		lotRepo:      repository.NewLotRepository(db),
		settingsRepo: repository.NewSettingsRepository(db),
	}
	f.members = NewMemberService(f.memberRepo, f.paymentRepo, f.lotRepo, f.settingsRepo, model.DefaultQuotaStep)
	f.payments = NewPaymentService(f.memberRepo, f.paymentRepo, zerolog.Nop())
	f.settings = NewSettingsService(f.settingsRepo, f.lotRepo, f.memberRepo, model.DefaultQuotaStep, zerolog.Nop())
	return f
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

// createMember stores a contract with an explicit unit price.
func (f *fixture) createMember(t *testing.T, name string, lots int, price int64, duration int, start time.Time) *model.Member {
	t.Helper()
	unitPrice := dec(price)
	member, err := f.members.Create(context.Background(), CreateMemberInput{
		Name:            name,
		NumberOfLots:    lots,
		PaymentDuration: duration,
		StartDate:       start,
		UnitPrice:       &unitPrice,
	})
	require.NoError(t, err)
	return member
}

func (f *fixture) record(t *testing.T, member *model.Member, amount int64, date time.Time) *RecordPaymentResult {
	t.Helper()
	result, err := f.payments.Record(context.Background(), RecordPaymentInput{
		MemberID: member.ID,
		Amount:   dec(amount),
		Date:     date,
	})
	require.NoError(t, err)
	return result
}
