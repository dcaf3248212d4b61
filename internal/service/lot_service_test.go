package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryPhotos struct {
	objects map[string][]byte
	deleted []string
}

func (m *memoryPhotos) Upload(_ context.Context, key, _ string, data []byte) (string, error) {
	m.objects[key] = data
	return "https://cdn.test/" + key, nil
}

func (m *memoryPhotos) Delete(_ context.Context, url string) error {
	m.deleted = append(m.deleted, url)
	return nil
}

func TestLotService_CRUD(t *testing.T) {
	f := newFixture(t)
	lots := NewLotService(f.lotRepo, nil, zerolog.Nop())
	ctx := context.Background()

	_, err := lots.Create(ctx, LotInput{Name: "", Price: dec(1000)})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = lots.Create(ctx, LotInput{Name: "Parcel", Price: dec(0)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	lot, err := lots.Create(ctx, LotInput{Name: " Parcel A ", Price: dec(500000), Location: "Thiès"})
	require.NoError(t, err)
	assert.Equal(t, "Parcel A", lot.Name)

	updated, err := lots.Update(ctx, lot.ID, LotInput{Name: "Parcel A1", Price: dec(550000), Description: "corner"})
	require.NoError(t, err)
	assert.Equal(t, "Parcel A1", updated.Name)
	assert.True(t, dec(550000).Equal(updated.Price))
	assert.Equal(t, "corner", updated.Description)

	list, err := lots.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = lots.Update(ctx, uuid.New(), LotInput{Name: "x", Price: dec(1)})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, lots.Delete(ctx, lot.ID))
	_, err = lots.Get(ctx, lot.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLotService_Photos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	disabled := NewLotService(f.lotRepo, nil, zerolog.Nop())
	lot, err := disabled.Create(ctx, LotInput{Name: "Parcel", Price: dec(1000)})
	require.NoError(t, err)
	_, err = disabled.AddPhoto(ctx, lot.ID, PhotoUpload{ContentType: "image/png", Data: []byte("png")})
	assert.ErrorIs(t, err, ErrStorageDisabled)

	store := &memoryPhotos{objects: map[string][]byte{}}
	lots := NewLotService(f.lotRepo, store, zerolog.Nop())

	_, err = lots.AddPhoto(ctx, lot.ID, PhotoUpload{ContentType: "application/pdf", Data: []byte("pdf")})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = lots.AddPhoto(ctx, lot.ID, PhotoUpload{ContentType: "image/png"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = lots.AddPhoto(ctx, uuid.New(), PhotoUpload{ContentType: "image/png", Data: []byte("png")})
	assert.ErrorIs(t, err, ErrNotFound)

	withPhoto, err := lots.AddPhoto(ctx, lot.ID, PhotoUpload{ContentType: "image/jpeg", Data: []byte("jpeg")})
	require.NoError(t, err)
	require.Len(t, withPhoto.Photos, 1)
	assert.True(t, strings.HasPrefix(withPhoto.Photos[0], "https://cdn.test/lots/"+lot.ID.String()+"/"))
	assert.True(t, strings.HasSuffix(withPhoto.Photos[0], ".jpg"))
	assert.Len(t, store.objects, 1)

	require.NoError(t, lots.Delete(ctx, lot.ID))
	assert.Equal(t, withPhoto.Photos, store.deleted)
}
