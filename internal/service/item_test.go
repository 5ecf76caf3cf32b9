package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adeolu/marketplace/internal/apperror"
	"github.com/adeolu/marketplace/internal/model"
	"github.com/adeolu/marketplace/internal/repository"
)

var (
	ownerUser = &model.User{ID: 1, Email: "owner@x.com"}
	otherUser = &model.User{ID: 2, Email: "other@x.com"}
	superUser = &model.User{ID: 3, Email: "admin@x.com", IsSuperuser: true}
)

func validFields() ItemFields {
	return ItemFields{
		Name:        "Office Chair",
		Description: "barely used",
		Price:       25000,
		Location:    "Lagos",
		ContactInfo: "call 0800",
	}
}

func newTestItemService() (*ItemService, *fakeItemRepo, *fakeBlobStore) {
	repo := newFakeItemRepo()
	blobs := newFakeBlobStore()
	return NewItemService(repo, blobs, testLogger()), repo, blobs
}

func TestItemCreate_WritesBlobThenRow(t *testing.T) {
	svc, repo, blobs := newTestItemService()

	item, err := svc.Create(context.Background(), validFields(), []byte("img"), "chair.JPG", ownerUser)
	require.NoError(t, err)

	assert.Equal(t, ownerUser.ID, item.OwnerID)
	assert.NotEmpty(t, item.Image)
	assert.True(t, blobs.Exists(item.Image), "blob stored under the item's image name")
	assert.Len(t, repo.items, 1)
}

func TestItemCreate_NoImage(t *testing.T) {
	svc, repo, _ := newTestItemService()

	_, err := svc.Create(context.Background(), validFields(), nil, "", ownerUser)
	require.ErrorIs(t, err, apperror.ErrValidation)
	assert.Empty(t, repo.items, "no row without an image")
}

func TestItemCreate_NegativePrice(t *testing.T) {
	svc, _, _ := newTestItemService()

	fields := validFields()
	fields.Price = -1
	_, err := svc.Create(context.Background(), fields, []byte("img"), "a.jpg", ownerUser)
	require.ErrorIs(t, err, apperror.ErrValidation)
}

func TestItemCreate_BlobFailureMeansNoRow(t *testing.T) {
	svc, repo, blobs := newTestItemService()
	blobs.writeErr = errors.New("disk full")

	_, err := svc.Create(context.Background(), validFields(), []byte("img"), "a.jpg", ownerUser)
	require.Error(t, err)
	assert.Empty(t, repo.items, "no partial item is persisted when the blob write fails")
}

func TestItemCreate_RowFailureLeavesOrphanBlob(t *testing.T) {
	svc, repo, blobs := newTestItemService()
	repo.createErr = errors.New("db down")

	_, err := svc.Create(context.Background(), validFields(), []byte("img"), "a.jpg", ownerUser)
	require.Error(t, err)
	// Accepted degraded state: the blob stays, the item row does not exist.
	assert.Len(t, blobs.blobs, 1)
}

func TestItemUpdate_Owner(t *testing.T) {
	svc, _, _ := newTestItemService()

	item, err := svc.Create(context.Background(), validFields(), []byte("img"), "a.jpg", ownerUser)
	require.NoError(t, err)

	fields := validFields()
	fields.Name = "Ergonomic Chair"
	fields.Price = 30000

	updated, err := svc.Update(context.Background(), item.ID, fields, nil, "", ownerUser)
	require.NoError(t, err)
	assert.Equal(t, "Ergonomic Chair", updated.Name)
	assert.Equal(t, float64(30000), updated.Price)
	assert.Equal(t, item.Image, updated.Image, "image unchanged when no upload supplied")
}

func TestItemUpdate_ForbiddenForNonOwner(t *testing.T) {
	svc, _, _ := newTestItemService()

	item, err := svc.Create(context.Background(), validFields(), []byte("img"), "a.jpg", ownerUser)
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), item.ID, validFields(), nil, "", otherUser)
	require.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestItemUpdate_SuperuserOverridesOwnership(t *testing.T) {
	svc, _, _ := newTestItemService()

	item, err := svc.Create(context.Background(), validFields(), []byte("img"), "a.jpg", ownerUser)
	require.NoError(t, err)

	fields := validFields()
	fields.Location = "Abuja"
	updated, err := svc.Update(context.Background(), item.ID, fields, nil, "", superUser)
	require.NoError(t, err)
	assert.Equal(t, "Abuja", updated.Location)
	assert.Equal(t, ownerUser.ID, updated.OwnerID, "ownership never transfers")
}

func TestItemUpdate_NotFound(t *testing.T) {
	svc, _, _ := newTestItemService()

	_, err := svc.Update(context.Background(), 404, validFields(), nil, "", ownerUser)
	require.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestItemUpdate_NewImageReplacesOld(t *testing.T) {
	svc, _, blobs := newTestItemService()

	item, err := svc.Create(context.Background(), validFields(), []byte("old"), "old.jpg", ownerUser)
	require.NoError(t, err)
	oldImage := item.Image

	updated, err := svc.Update(context.Background(), item.ID, validFields(), []byte("new"), "new.png", ownerUser)
	require.NoError(t, err)

	assert.NotEqual(t, oldImage, updated.Image)
	assert.True(t, blobs.Exists(updated.Image), "new image stored")
	assert.False(t, blobs.Exists(oldImage), "old image removed after the row points at the new one")
}

func TestItemUpdate_FailedRowUpdateKeepsOldImage(t *testing.T) {
	svc, repo, blobs := newTestItemService()

	item, err := svc.Create(context.Background(), validFields(), []byte("old"), "old.jpg", ownerUser)
	require.NoError(t, err)
	oldImage := item.Image

	repo.updateErr = errors.New("db down")
	_, err = svc.Update(context.Background(), item.ID, validFields(), []byte("new"), "new.jpg", ownerUser)
	require.Error(t, err)

	// Write-new-then-delete-old: on failure the old blob must survive and
	// the fresh one must be rolled back.
	assert.True(t, blobs.Exists(oldImage), "old image still present after failed update")
	assert.Len(t, blobs.blobs, 1)
}

func TestItemDelete_Owner(t *testing.T) {
	svc, repo, blobs := newTestItemService()

	item, err := svc.Create(context.Background(), validFields(), []byte("img"), "a.jpg", ownerUser)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), item.ID, ownerUser))

	assert.Empty(t, repo.items)
	assert.False(t, blobs.Exists(item.Image), "blob removed with the item")
}

func TestItemDelete_ForbiddenForNonOwner(t *testing.T) {
	svc, _, _ := newTestItemService()

	item, err := svc.Create(context.Background(), validFields(), []byte("img"), "a.jpg", ownerUser)
	require.NoError(t, err)

	err = svc.Delete(context.Background(), item.ID, otherUser)
	require.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestItemDelete_Superuser(t *testing.T) {
	svc, repo, _ := newTestItemService()

	item, err := svc.Create(context.Background(), validFields(), []byte("img"), "a.jpg", ownerUser)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), item.ID, superUser))
	assert.Empty(t, repo.items)
}

func TestItemDelete_NotFound(t *testing.T) {
	svc, _, _ := newTestItemService()

	err := svc.Delete(context.Background(), 404, ownerUser)
	require.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestItemList_PassesFilterThrough(t *testing.T) {
	svc, _, _ := newTestItemService()

	_, err := svc.Create(context.Background(), validFields(), []byte("img"), "a.jpg", ownerUser)
	require.NoError(t, err)

	items, err := svc.List(context.Background(), repository.ItemFilter{})
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
