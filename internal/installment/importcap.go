package installment

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/nurpe/tontine/internal/model"
)

// CapImported trims historically imported payments so the member never holds
// more than TotalLotAmount. Payments are taken in month order; the one that
// crosses the cap is truncated and the rest are dropped. The returned decimal
// is the discarded total.
func CapImported(member model.Member, existing, imported []model.Payment) ([]model.Payment, decimal.Decimal) {
	room := member.TotalLotAmount.Sub(model.SumPayments(existing))
	ordered := make([]model.Payment, 0, len(imported))
	for _, p := range imported {
		if p.Amount.IsPositive() {
			ordered = append(ordered, p)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].MonthKey.Before(ordered[j].MonthKey)
	})

	kept := make([]model.Payment, 0, len(ordered))
	discarded := decimal.Zero
	for _, p := range ordered {
		if !room.IsPositive() {
			discarded = discarded.Add(p.Amount)
			continue
		}
		if p.Amount.GreaterThan(room) {
			discarded = discarded.Add(p.Amount.Sub(room))
			p.Amount = room
		}
		room = room.Sub(p.Amount)
		kept = append(kept, p)
	}
	return kept, discarded
}
