package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nurpe/tontine/internal/model"
)

// settings is a single row keyed by this id.
const settingsRowID = 1

type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

type settingsRow struct {
	ID        int
	UnitPrice decimal.NullDecimal
	UpdatedAt time.Time
}

func (r *SettingsRepository) Get(ctx context.Context) (model.Settings, error) {
	var row settingsRow
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, unit_price, updated_at
		FROM settings
		WHERE id = ?
	`, settingsRowID).Scan(&row).Error; err != nil {
		return model.Settings{}, err
	}
	settings := model.Settings{UpdatedAt: row.UpdatedAt}
	if row.UnitPrice.Valid {
		price := row.UnitPrice.Decimal
		settings.UnitPrice = &price
	}
	return settings, nil
}

// SetUnitPrice stores the global unit price; nil clears it.
func (r *SettingsRepository) SetUnitPrice(ctx context.Context, price *decimal.Decimal) (model.Settings, error) {
	value := decimal.NullDecimal{}
	if price != nil {
		value = decimal.NullDecimal{Decimal: *price, Valid: true}
	}
	now := time.Now().UTC()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Exec(`UPDATE settings SET unit_price = ?, updated_at = ? WHERE id = ?`, value, now, settingsRowID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			return nil
		}
		return tx.Exec(`INSERT INTO settings (id, unit_price, updated_at) VALUES (?, ?, ?)`, settingsRowID, value, now).Error
	})
	if err != nil {
		return model.Settings{}, err
	}
	return r.Get(ctx)
}
