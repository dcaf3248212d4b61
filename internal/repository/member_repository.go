package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/tontine/internal/model"
)

const memberColumns = `
	id,
	name,
	email,
	phone,
	number_of_lots,
	unit_price,
	total_lot_amount,
	payment_duration,
	monthly_quota,
	start_date,
	end_date,
	version,
	created_at`

type MemberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// Create stores the member and any pre-existing payments in one transaction.
func (r *MemberRepository) Create(ctx context.Context, member model.Member, payments ...model.Payment) (*model.Member, error) {
	if member.ID == uuid.Nil {
		member.ID = uuid.New()
	}
	if member.CreatedAt.IsZero() {
		member.CreatedAt = time.Now().UTC()
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`
			INSERT INTO members (
				id,
				name,
				email,
				phone,
				number_of_lots,
				unit_price,
				total_lot_amount,
				payment_duration,
				monthly_quota,
				start_date,
				end_date,
				version,
				created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?)
		`,
			member.ID,
			member.Name,
			member.Email,
			member.Phone,
			member.NumberOfLots,
			member.UnitPrice,
			member.TotalLotAmount,
			member.PaymentDuration,
			member.MonthlyQuota,
			member.StartDate,
			member.EndDate,
			member.CreatedAt,
		).Error; err != nil {
			return err
		}

		for i := range payments {
			payments[i].MemberID = member.ID
		}
		_, err := insertPayments(tx, payments)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, member.ID)
}

func (r *MemberRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Member, error) {
	var member model.Member
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+memberColumns+`
		FROM members
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&member).Error
	if err != nil {
		return nil, err
	}
	if member.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &member, nil
}

func (r *MemberRepository) List(ctx context.Context) ([]model.Member, error) {
	var members []model.Member
	if err := r.db.WithContext(ctx).Raw(`
		SELECT ` + memberColumns + `
		FROM members
		ORDER BY name ASC, created_at ASC
	`).Scan(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// ListWithoutPayments returns members that have no payment history yet.
func (r *MemberRepository) ListWithoutPayments(ctx context.Context) ([]model.Member, error) {
	var members []model.Member
	if err := r.db.WithContext(ctx).Raw(`
		SELECT ` + memberColumns + `
		FROM members m
		WHERE NOT EXISTS (
			SELECT 1 FROM payments p WHERE p.member_id = m.id
		)
		ORDER BY name ASC
	`).Scan(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// Update writes the member's contact and contract fields if its version is
// still member.Version, and bumps the version.
func (r *MemberRepository) Update(ctx context.Context, member model.Member) (*model.Member, error) {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE members
		SET
			name = ?,
			email = ?,
			phone = ?,
			number_of_lots = ?,
			unit_price = ?,
			total_lot_amount = ?,
			payment_duration = ?,
			monthly_quota = ?,
			start_date = ?,
			end_date = ?,
			version = version + 1
		WHERE id = ? AND version = ?
	`,
		member.Name,
		member.Email,
		member.Phone,
		member.NumberOfLots,
		member.UnitPrice,
		member.TotalLotAmount,
		member.PaymentDuration,
		member.MonthlyQuota,
		member.StartDate,
		member.EndDate,
		member.ID,
		member.Version,
	)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, member.ID); err != nil {
			return nil, err
		}
		return nil, ErrVersionConflict
	}
	return r.GetByID(ctx, member.ID)
}

// Delete removes the member together with its payments.
func (r *MemberRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM payments WHERE member_id = ?`, id).Error; err != nil {
			return err
		}
		result := tx.Exec(`DELETE FROM members WHERE id = ?`, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
