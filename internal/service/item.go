package service

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/adeolu/marketplace/internal/apperror"
	"github.com/adeolu/marketplace/internal/model"
	"github.com/adeolu/marketplace/internal/repository"
)

// Validation constants.
const (
	MaxItemNameLength    = 100
	MaxDescriptionLength = 5000
	MaxImageBytes        = 10 << 20 // 10MB upload ceiling
)

// BlobStore is the slice of the blob package the services need. Tests
// substitute an in-memory fake.
type BlobStore interface {
	Write(data []byte, ext string) (string, error)
	Delete(name string) error
	Exists(name string) bool
}

// ItemFields are the mutable fields of a listing, shared by create and update.
type ItemFields struct {
	Name        string
	Description string
	Price       float64
	Location    string
	ContactInfo string
}

// ItemService handles listing CRUD with ownership and superuser checks.
type ItemService struct {
	items  repository.ItemRepository
	blobs  BlobStore
	logger *slog.Logger
}

func NewItemService(items repository.ItemRepository, blobs BlobStore, logger *slog.Logger) *ItemService {
	return &ItemService{
		items:  items,
		blobs:  blobs,
		logger: logger,
	}
}

// Create stores the uploaded image and persists a new item owned by owner.
//
// The blob is written first; the row is only inserted after the write
// succeeds, so no item ever references a missing image. If the insert fails
// the blob is left orphaned — accepted degraded state, the row simply does
// not exist.
func (s *ItemService) Create(ctx context.Context, fields ItemFields, image []byte, filename string, owner *model.User) (*model.Item, error) {
	if err := validateFields(fields); err != nil {
		return nil, err
	}
	if len(image) == 0 {
		return nil, apperror.ValidationFailed("image", "an image upload is required")
	}
	if len(image) > MaxImageBytes {
		return nil, apperror.ValidationFailed("image", "image is too large")
	}

	name, err := s.blobs.Write(image, filepath.Ext(filename))
	if err != nil {
		return nil, fmt.Errorf("service/item: storing image: %w", err)
	}

	item := &model.Item{
		Name:        fields.Name,
		Description: fields.Description,
		Price:       fields.Price,
		Location:    fields.Location,
		Image:       name,
		ContactInfo: fields.ContactInfo,
		OwnerID:     owner.ID,
	}

	if err := s.items.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("service/item: creating item: %w", err)
	}

	s.logger.Info("item created",
		slog.Int64("itemID", item.ID),
		slog.Int64("ownerID", owner.ID),
		slog.String("image", item.Image),
	)

	return item, nil
}

// Get returns a single item by ID.
func (s *ItemService) Get(ctx context.Context, id int64) (*model.Item, error) {
	return s.items.GetByID(ctx, id)
}

// List returns all items matching the filter. Both filters are optional
// case-insensitive substring matches; there is no pagination.
func (s *ItemService) List(ctx context.Context, filter repository.ItemFilter) ([]model.Item, error) {
	items, err := s.items.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list items", slog.String("error", err.Error()))
		return nil, fmt.Errorf("service/item: listing items: %w", err)
	}
	return items, nil
}

// Update modifies an existing item.
//
// Fails NotFound if the item doesn't exist and Forbidden if caller is
// neither the owner nor a superuser. When a new image is supplied the new
// blob is written before the old one is deleted, so there is no window
// where the item has no image: a failed upload leaves the old image intact.
func (s *ItemService) Update(ctx context.Context, id int64, fields ItemFields, image []byte, filename string, caller *model.User) (*model.Item, error) {
	if err := validateFields(fields); err != nil {
		return nil, err
	}

	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canModify(item, caller) {
		return nil, apperror.Forbidden("you are not allowed to update this item")
	}

	oldImage := item.Image
	if len(image) > 0 {
		if len(image) > MaxImageBytes {
			return nil, apperror.ValidationFailed("image", "image is too large")
		}
		name, err := s.blobs.Write(image, filepath.Ext(filename))
		if err != nil {
			return nil, fmt.Errorf("service/item: storing replacement image: %w", err)
		}
		item.Image = name
	}

	item.Name = fields.Name
	item.Description = fields.Description
	item.Price = fields.Price
	item.Location = fields.Location
	item.ContactInfo = fields.ContactInfo

	if err := s.items.Update(ctx, item); err != nil {
		// Roll back the fresh blob; the row still references the old image.
		if item.Image != oldImage {
			if derr := s.blobs.Delete(item.Image); derr != nil {
				s.logger.Warn("failed to remove unused image",
					slog.String("image", item.Image),
					slog.String("error", derr.Error()),
				)
			}
		}
		return nil, fmt.Errorf("service/item: updating item %d: %w", id, err)
	}

	// The row now points at the new image — the old blob can go.
	if item.Image != oldImage {
		if err := s.blobs.Delete(oldImage); err != nil {
			s.logger.Warn("failed to remove replaced image",
				slog.String("image", oldImage),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.Info("item updated",
		slog.Int64("itemID", item.ID),
		slog.Int64("callerID", caller.ID),
	)

	return item, nil
}

// Delete removes an item and its image blob. Same NotFound/Forbidden rules
// as Update.
func (s *ItemService) Delete(ctx context.Context, id int64, caller *model.User) error {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !canModify(item, caller) {
		return apperror.Forbidden("you are not allowed to delete this item")
	}

	if err := s.items.Delete(ctx, id); err != nil {
		return fmt.Errorf("service/item: deleting item %d: %w", id, err)
	}

	// Row first, blob second: losing the race here orphans a blob, never an item.
	if err := s.blobs.Delete(item.Image); err != nil {
		s.logger.Warn("failed to remove image of deleted item",
			slog.Int64("itemID", id),
			slog.String("image", item.Image),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("item deleted",
		slog.Int64("itemID", id),
		slog.Int64("callerID", caller.ID),
	)

	return nil
}

// canModify reports whether caller may edit or delete the item: owners and
// superusers only.
func canModify(item *model.Item, caller *model.User) bool {
	return caller.IsSuperuser || item.OwnerID == caller.ID
}

func validateFields(fields ItemFields) error {
	name := strings.TrimSpace(fields.Name)
	if name == "" {
		return apperror.ValidationFailed("name", "item name is required")
	}
	if len(name) > MaxItemNameLength {
		return apperror.ValidationFailed("name",
			fmt.Sprintf("item name must be %d characters or less", MaxItemNameLength))
	}
	if len(fields.Description) > MaxDescriptionLength {
		return apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxDescriptionLength))
	}
	if fields.Price < 0 {
		return apperror.ValidationFailed("price", "price must not be negative")
	}
	return nil
}
