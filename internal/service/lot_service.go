package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/nurpe/tontine/internal/model"
	"github.com/nurpe/tontine/internal/repository"
)

// PhotoStorage keeps uploaded lot photos and returns a public URL for each.
type PhotoStorage interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, url string) error
}

var allowedPhotoTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type LotService struct {
	lots   *repository.LotRepository
	photos PhotoStorage
	log    zerolog.Logger
}

// NewLotService builds the service. photos may be nil when no object
// storage is configured; uploads then fail with ErrStorageDisabled.
func NewLotService(lots *repository.LotRepository, photos PhotoStorage, log zerolog.Logger) *LotService {
	return &LotService{lots: lots, photos: photos, log: log}
}

type LotInput struct {
	Name        string
	Price       decimal.Decimal
	Location    string
	Description string
}

func (in LotInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if !in.Price.IsPositive() {
		return fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	}
	return nil
}

func (s *LotService) Create(ctx context.Context, input LotInput) (*model.Lot, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	return s.lots.Create(ctx, model.Lot{
		Name:        strings.TrimSpace(input.Name),
		Price:       input.Price,
		Location:    strings.TrimSpace(input.Location),
		Description: strings.TrimSpace(input.Description),
	})
}

func (s *LotService) List(ctx context.Context) ([]model.Lot, error) {
	return s.lots.List(ctx)
}

func (s *LotService) Get(ctx context.Context, id uuid.UUID) (*model.Lot, error) {
	lot, err := s.lots.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	return lot, nil
}

func (s *LotService) Update(ctx context.Context, id uuid.UUID, input LotInput) (*model.Lot, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	current, err := s.lots.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	current.Name = strings.TrimSpace(input.Name)
	current.Price = input.Price
	current.Location = strings.TrimSpace(input.Location)
	current.Description = strings.TrimSpace(input.Description)

	updated, err := s.lots.Update(ctx, *current)
	if err != nil {
		return nil, translate(err)
	}
	return updated, nil
}

// Delete removes the lot and, best effort, its stored photos.
func (s *LotService) Delete(ctx context.Context, id uuid.UUID) error {
	lot, err := s.lots.GetByID(ctx, id)
	if err != nil {
		return translate(err)
	}
	if err := s.lots.Delete(ctx, id); err != nil {
		return translate(err)
	}
	if s.photos == nil {
		return nil
	}
	for _, url := range lot.Photos {
		if err := s.photos.Delete(ctx, url); err != nil {
			s.log.Warn().Err(err).Str("lot_id", id.String()).Str("url", url).Msg("failed to delete lot photo")
		}
	}
	return nil
}

type PhotoUpload struct {
	ContentType string
	Data        []byte
}

func (s *LotService) AddPhoto(ctx context.Context, id uuid.UUID, upload PhotoUpload) (*model.Lot, error) {
	if s.photos == nil {
		return nil, ErrStorageDisabled
	}
	ext, ok := allowedPhotoTypes[upload.ContentType]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported photo type %q", ErrInvalidInput, upload.ContentType)
	}
	if len(upload.Data) == 0 {
		return nil, fmt.Errorf("%w: photo is empty", ErrInvalidInput)
	}
	if _, err := s.lots.GetByID(ctx, id); err != nil {
		return nil, translate(err)
	}

	key := fmt.Sprintf("lots/%s/%s%s", id, uuid.NewString(), ext)
	url, err := s.photos.Upload(ctx, key, upload.ContentType, upload.Data)
	if err != nil {
		return nil, err
	}

	lot, err := s.lots.AddPhoto(ctx, id, url)
	if err != nil {
		return nil, translate(err)
	}
	return lot, nil
}
