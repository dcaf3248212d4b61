package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Lot struct {
	ID          uuid.UUID
	Name        string
	Price       decimal.Decimal
	Location    string
	Description string
	Photos      []string
	CreatedAt   time.Time
}

type Settings struct {
	UnitPrice *decimal.Decimal
	UpdatedAt time.Time
}

// EffectiveUnitPrice is the explicit configured price, else the first lot's price.
func EffectiveUnitPrice(settings Settings, lots []Lot) decimal.Decimal {
	if settings.UnitPrice != nil && settings.UnitPrice.IsPositive() {
		return *settings.UnitPrice
	}
	if len(lots) > 0 {
		return lots[0].Price
	}
	return decimal.Zero
}
