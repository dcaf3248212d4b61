package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nurpe/tontine/internal/model"
)

type LotRepository struct {
	db *gorm.DB
}

func NewLotRepository(db *gorm.DB) *LotRepository {
	return &LotRepository{db: db}
}

type lotRow struct {
	ID          uuid.UUID
	Name        string
	Price       decimal.Decimal
	Location    string
	Description string
	Photos      string
	CreatedAt   time.Time
}

func (row lotRow) toModel() (model.Lot, error) {
	lot := model.Lot{
		ID:          row.ID,
		Name:        row.Name,
		Price:       row.Price,
		Location:    row.Location,
		Description: row.Description,
		CreatedAt:   row.CreatedAt,
		Photos:      []string{},
	}
	if row.Photos != "" {
		if err := json.Unmarshal([]byte(row.Photos), &lot.Photos); err != nil {
			return model.Lot{}, fmt.Errorf("decode photos of lot %s: %w", row.ID, err)
		}
	}
	return lot, nil
}

func encodePhotos(photos []string) (string, error) {
	if photos == nil {
		photos = []string{}
	}
	raw, err := json.Marshal(photos)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (r *LotRepository) Create(ctx context.Context, lot model.Lot) (*model.Lot, error) {
	if lot.ID == uuid.Nil {
		lot.ID = uuid.New()
	}
	if lot.CreatedAt.IsZero() {
		lot.CreatedAt = time.Now().UTC()
	}
	photos, err := encodePhotos(lot.Photos)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Exec(`
		INSERT INTO lots (id, name, price, location, description, photos, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, lot.ID, lot.Name, lot.Price, lot.Location, lot.Description, photos, lot.CreatedAt).Error; err != nil {
		return nil, err
	}
	return r.GetByID(ctx, lot.ID)
}

func (r *LotRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Lot, error) {
	var row lotRow
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, name, price, location, description, photos, created_at
		FROM lots
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	lot, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &lot, nil
}

// List returns lots in creation order; the first one prices contracts when
// no explicit unit price is configured.
func (r *LotRepository) List(ctx context.Context) ([]model.Lot, error) {
	var rows []lotRow
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, name, price, location, description, photos, created_at
		FROM lots
		ORDER BY created_at ASC, id ASC
	`).Scan(&rows).Error; err != nil {
		return nil, err
	}
	lots := make([]model.Lot, 0, len(rows))
	for _, row := range rows {
		lot, err := row.toModel()
		if err != nil {
			return nil, err
		}
		lots = append(lots, lot)
	}
	return lots, nil
}

func (r *LotRepository) Update(ctx context.Context, lot model.Lot) (*model.Lot, error) {
	photos, err := encodePhotos(lot.Photos)
	if err != nil {
		return nil, err
	}
	result := r.db.WithContext(ctx).Exec(`
		UPDATE lots
		SET name = ?, price = ?, location = ?, description = ?, photos = ?
		WHERE id = ?
	`, lot.Name, lot.Price, lot.Location, lot.Description, photos, lot.ID)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetByID(ctx, lot.ID)
}

// AddPhoto appends a photo URL to the lot.
func (r *LotRepository) AddPhoto(ctx context.Context, id uuid.UUID, url string) (*model.Lot, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row lotRow
		if err := tx.Raw(`
			SELECT id, name, price, location, description, photos, created_at
			FROM lots
			WHERE id = ?
		`, id).Scan(&row).Error; err != nil {
			return err
		}
		if row.ID == uuid.Nil {
			return gorm.ErrRecordNotFound
		}
		lot, err := row.toModel()
		if err != nil {
			return err
		}
		photos, err := encodePhotos(append(lot.Photos, url))
		if err != nil {
			return err
		}
		return tx.Exec(`UPDATE lots SET photos = ? WHERE id = ?`, photos, id).Error
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *LotRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Exec(`DELETE FROM lots WHERE id = ?`, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
