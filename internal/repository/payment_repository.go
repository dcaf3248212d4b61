package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nurpe/tontine/internal/model"
)

const paymentColumns = `
	id,
	member_id,
	amount,
	paid_on AS date,
	month_key,
	created_at`

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) ListByMember(ctx context.Context, memberID uuid.UUID) ([]model.Payment, error) {
	var payments []model.Payment
	if err := r.db.WithContext(ctx).Raw(`
		SELECT `+paymentColumns+`
		FROM payments
		WHERE member_id = ?
		ORDER BY month_key ASC, paid_on ASC, created_at ASC
	`, memberID).Scan(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *PaymentRepository) ListAll(ctx context.Context) ([]model.Payment, error) {
	var payments []model.Payment
	if err := r.db.WithContext(ctx).Raw(`
		SELECT ` + paymentColumns + `
		FROM payments
		ORDER BY member_id ASC, month_key ASC, paid_on ASC, created_at ASC
	`).Scan(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// GroupByMember indexes payments by their owning member.
func GroupByMember(payments []model.Payment) map[uuid.UUID][]model.Payment {
	grouped := make(map[uuid.UUID][]model.Payment)
	for _, p := range payments {
		grouped[p.MemberID] = append(grouped[p.MemberID], p)
	}
	return grouped
}

// Append inserts payments for one member, provided the member is still at
// expectedVersion. The member version is bumped in the same transaction so a
// second writer working from the same snapshot gets ErrVersionConflict.
func (r *PaymentRepository) Append(ctx context.Context, memberID uuid.UUID, expectedVersion int64, payments []model.Payment) ([]model.Payment, error) {
	var saved []model.Payment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := bumpVersion(tx, memberID, expectedVersion); err != nil {
			return err
		}
		for i := range payments {
			payments[i].MemberID = memberID
		}
		var err error
		saved, err = insertPayments(tx, payments)
		return err
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// BulkChanges is a set of payment writes applied atomically.
type BulkChanges struct {
	Create []model.Payment
	Update []model.Payment
	Delete []uuid.UUID
	// Versions holds the member versions the changes were planned against.
	Versions map[uuid.UUID]int64
}

func (r *PaymentRepository) ApplyBulk(ctx context.Context, changes BulkChanges) ([]model.Payment, error) {
	var created []model.Payment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for memberID, version := range changes.Versions {
			if err := bumpVersion(tx, memberID, version); err != nil {
				return err
			}
		}

		var err error
		created, err = insertPayments(tx, changes.Create)
		if err != nil {
			return err
		}

		for _, p := range changes.Update {
			if err := tx.Exec(`
				UPDATE payments
				SET amount = ?, paid_on = ?
				WHERE id = ?
			`, p.Amount, p.Date, p.ID).Error; err != nil {
				return err
			}
		}

		if len(changes.Delete) > 0 {
			if err := tx.Exec(`DELETE FROM payments WHERE id IN ?`, changes.Delete).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

type monthlyTotalRow struct {
	MonthKey model.Month
	Received decimal.Decimal
	Payments int
}

// MonthlyTotals sums received amounts per installment month.
func (r *PaymentRepository) MonthlyTotals(ctx context.Context) ([]model.MonthlyCollection, error) {
	var rows []monthlyTotalRow
	if err := r.db.WithContext(ctx).Raw(`
		SELECT
			month_key,
			COALESCE(SUM(amount), 0) AS received,
			COUNT(*) AS payments
		FROM payments
		GROUP BY month_key
		ORDER BY month_key ASC
	`).Scan(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]model.MonthlyCollection, 0, len(rows))
	for _, row := range rows {
		result = append(result, model.MonthlyCollection{
			Month:    row.MonthKey,
			Received: row.Received,
			Payments: row.Payments,
		})
	}
	return result, nil
}

func bumpVersion(tx *gorm.DB, memberID uuid.UUID, expectedVersion int64) error {
	result := tx.Exec(`
		UPDATE members
		SET version = version + 1
		WHERE id = ? AND version = ?
	`, memberID, expectedVersion)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := tx.Raw(`SELECT COUNT(*) FROM members WHERE id = ?`, memberID).Scan(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		return ErrVersionConflict
	}
	return nil
}

func insertPayments(tx *gorm.DB, payments []model.Payment) ([]model.Payment, error) {
	saved := make([]model.Payment, 0, len(payments))
	now := time.Now().UTC()
	for _, p := range payments {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		if err := tx.Exec(`
			INSERT INTO payments (id, member_id, amount, paid_on, month_key, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, p.ID, p.MemberID, p.Amount, p.Date, p.MonthKey, p.CreatedAt).Error; err != nil {
			return nil, err
		}
		saved = append(saved, p)
	}
	return saved, nil
}
