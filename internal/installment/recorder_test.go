package installment

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/tontine/internal/model"
)

func TestRecord_ExactQuota(t *testing.T) {
	member := newMember(2, "1500000", 12, date(2025, time.July, 1))

	receipt, err := Record(member, nil, dec("250000"), date(2025, time.July, 5))

	require.NoError(t, err)
	require.Len(t, receipt.Payments, 1)
	assert.Equal(t, model.Month{Year: 2025, Month: time.July}, receipt.Payments[0].MonthKey)
	assertDecimal(t, "250000", receipt.Payments[0].Amount)
	assert.Equal(t, member.ID, receipt.Payments[0].MemberID)
	assert.Equal(t, []string{"July 2025"}, receipt.MonthLabels)

	alloc := Allocate(member, receipt.Payments)
	assert.Equal(t, 100, alloc.Months[0].Percentage)
	for _, c := range alloc.Months[1:] {
		assert.Equal(t, model.CoverageUncovered, c.Status)
	}
}

func TestRecord_SpansMonths(t *testing.T) {
	member := newMember(2, "1500000", 12, date(2025, time.July, 1))

	receipt, err := Record(member, nil, member.MonthlyQuota.Mul(dec("2.5")), date(2025, time.July, 5))

	require.NoError(t, err)
	require.Len(t, receipt.Payments, 3)
	assertDecimal(t, "250000", receipt.Payments[0].Amount)
	assertDecimal(t, "250000", receipt.Payments[1].Amount)
	assertDecimal(t, "125000", receipt.Payments[2].Amount)
	assert.Equal(t, []string{"July 2025", "August 2025", "September 2025"}, receipt.MonthLabels)

	alloc := Allocate(member, receipt.Payments)
	assert.Equal(t, 100, alloc.Months[0].Percentage)
	assert.Equal(t, 100, alloc.Months[1].Percentage)
	assert.Equal(t, 50, alloc.Months[2].Percentage)
	assert.Equal(t, model.CoveragePartial, alloc.Months[2].Status)
}

func TestRecord_Conservation(t *testing.T) {
	member := newMember(1, "1000000", 3, date(2025, time.January, 1))
	existing := []model.Payment{payment(member, "120000", member.StartMonth(), date(2025, time.January, 2))}

	before := RemainingBalance(member, existing)
	receipt, err := Record(member, existing, dec("500000"), date(2025, time.February, 2))
	require.NoError(t, err)

	assertDecimal(t, "500000", model.SumPayments(receipt.Payments))
	after := RemainingBalance(member, append(existing, receipt.Payments...))
	assertDecimal(t, "500000", before.Sub(after))
	assertDecimal(t, "0", receipt.Discarded)
}

func TestRecord_PaysOffResidueMonth(t *testing.T) {
	member := newMember(1, "1000000", 3, date(2025, time.January, 1))

	receipt, err := Record(member, nil, dec("1000000"), date(2025, time.January, 2))

	require.NoError(t, err)
	require.Len(t, receipt.Payments, 3)
	assertDecimal(t, "333400", receipt.Payments[2].Amount)
	assertDecimal(t, "0", RemainingBalance(member, receipt.Payments))
}

func TestRecord_Rejections(t *testing.T) {
	member := newMember(1, "1200", 12, date(2025, time.January, 1))

	t.Run("non positive", func(t *testing.T) {
		for _, amount := range []string{"0", "-5"} {
			receipt, err := Record(member, nil, dec(amount), date(2025, time.January, 1))
			assert.ErrorIs(t, err, ErrInvalidAmount)
			assert.Nil(t, receipt)
		}
	})

	t.Run("over limit", func(t *testing.T) {
		existing := []model.Payment{payment(member, "1000", member.StartMonth(), date(2025, time.January, 1))}

		receipt, err := Record(member, existing, dec("201"), date(2025, time.February, 1))

		require.ErrorIs(t, err, ErrAmountExceedsBalance)
		assert.Nil(t, receipt)
		var balanceErr *BalanceError
		require.True(t, errors.As(err, &balanceErr))
		assertDecimal(t, "200", balanceErr.MaxAllowed)
	})

	t.Run("already complete", func(t *testing.T) {
		existing := []model.Payment{payment(member, "1200", member.StartMonth(), date(2025, time.January, 1))}

		receipt, err := Record(member, existing, dec("1"), date(2025, time.February, 1))

		assert.ErrorIs(t, err, ErrContractAlreadyComplete)
		assert.Nil(t, receipt)
	})

	t.Run("ill formed", func(t *testing.T) {
		broken := newMember(1, "1200", 0, date(2025, time.January, 1))

		_, err := Record(broken, nil, dec("100"), date(2025, time.January, 1))

		assert.ErrorIs(t, err, ErrIllFormedContract)
	})
}

func TestRecord_ContinuesPartialMonth(t *testing.T) {
	member := newMember(1, "1200", 12, date(2025, time.January, 1))
	existing := []model.Payment{payment(member, "40", member.StartMonth(), date(2025, time.January, 3))}

	receipt, err := Record(member, existing, dec("100"), date(2025, time.January, 20))

	require.NoError(t, err)
	require.Len(t, receipt.Payments, 2)
	assert.Equal(t, model.Month{Year: 2025, Month: time.January}, receipt.Payments[0].MonthKey)
	assertDecimal(t, "60", receipt.Payments[0].Amount)
	assert.Equal(t, model.Month{Year: 2025, Month: time.February}, receipt.Payments[1].MonthKey)
	assertDecimal(t, "40", receipt.Payments[1].Amount)
}

func TestRecord_CompletesAfterGapInHistory(t *testing.T) {
	member := newMember(1, "300", 3, date(2025, time.July, 1))
	existing := []model.Payment{
		payment(member, "100", member.StartMonth(), date(2025, time.July, 1)),
		payment(member, "100", member.StartMonth().Add(2), date(2025, time.September, 1)),
	}
	assertDecimal(t, "100", RemainingBalance(member, existing))

	receipt, err := Record(member, existing, dec("100"), date(2025, time.October, 2))

	require.NoError(t, err)
	require.Len(t, receipt.Payments, 1)
	assert.Equal(t, model.Month{Year: 2025, Month: time.September}, receipt.Payments[0].MonthKey)
	assert.True(t, receipt.Discarded.IsZero())

	all := append(append([]model.Payment(nil), existing...), receipt.Payments...)
	assert.True(t, RemainingBalance(member, all).IsZero())
	_, err = Record(member, all, dec("1"), date(2025, time.October, 3))
	assert.ErrorIs(t, err, ErrContractAlreadyComplete)
}

func TestRecord_AnyAmountWithinBalanceFits(t *testing.T) {
	member := newMember(1, "400", 4, date(2025, time.January, 1))
	existing := []model.Payment{payment(member, "100", member.StartMonth().Add(2), date(2025, time.January, 3))}

	receipt, err := Record(member, existing, dec("300"), date(2025, time.January, 20))

	require.NoError(t, err)
	assertDecimal(t, "300", receipt.Applied)
	all := append(append([]model.Payment(nil), existing...), receipt.Payments...)
	assert.True(t, RemainingBalance(member, all).IsZero())
}

func TestRecord_DoesNotMutateSnapshot(t *testing.T) {
	member := newMember(1, "1200", 12, date(2025, time.January, 1))
	existing := []model.Payment{payment(member, "50", member.StartMonth(), date(2025, time.January, 3))}
	snapshot := append([]model.Payment(nil), existing...)

	_, err := Record(member, existing, dec("250"), date(2025, time.January, 20))

	require.NoError(t, err)
	assert.Equal(t, snapshot, existing)
}

func TestRecord_EndToEndScenario(t *testing.T) {
	member := newMember(2, "1500000", 12, date(2025, time.July, 1))
	assertDecimal(t, "3000000", member.TotalLotAmount)
	assertDecimal(t, "250000", member.MonthlyQuota)

	var payments []model.Payment
	entries := []struct {
		amount string
		on     time.Time
	}{
		{"250000", date(2025, time.July, 5)},
		{"250000", date(2025, time.August, 3)},
		{"125000", date(2025, time.September, 10)},
	}
	for _, e := range entries {
		receipt, err := Record(member, payments, dec(e.amount), e.on)
		require.NoError(t, err)
		payments = append(payments, receipt.Payments...)
	}

	alloc := Allocate(member, payments)
	jul, _ := alloc.Coverage(model.Month{Year: 2025, Month: time.July})
	aug, _ := alloc.Coverage(model.Month{Year: 2025, Month: time.August})
	sep, _ := alloc.Coverage(model.Month{Year: 2025, Month: time.September})
	oct, _ := alloc.Coverage(model.Month{Year: 2025, Month: time.October})

	assert.Equal(t, 100, jul.Percentage)
	assert.Equal(t, 100, aug.Percentage)
	assert.Equal(t, 50, sep.Percentage)
	assert.Equal(t, 0, oct.Percentage)
	assertDecimal(t, "2375000", alloc.RemainingBalance)
	assert.Equal(t, 21, alloc.CompletionPercentage)
	assert.True(t, decimal.NewFromInt(625000).Equal(alloc.TotalPaid))
}
