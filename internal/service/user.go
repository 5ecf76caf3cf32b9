package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/adeolu/marketplace/internal/apperror"
	"github.com/adeolu/marketplace/internal/model"
	"github.com/adeolu/marketplace/internal/repository"
)

// UserService handles account deletion, including the cascade over owned
// items and their image blobs.
type UserService struct {
	users  repository.UserRepository
	items  repository.ItemRepository
	blobs  BlobStore
	logger *slog.Logger
}

func NewUserService(
	users repository.UserRepository,
	items repository.ItemRepository,
	blobs BlobStore,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:  users,
		items:  items,
		blobs:  blobs,
		logger: logger,
	}
}

// Delete removes another user's account. Only superusers may do this;
// self-deletion goes through DeleteMe and needs no privilege.
func (s *UserService) Delete(ctx context.Context, userID int64, caller *model.User) error {
	if !caller.IsSuperuser {
		return apperror.Forbidden("only superusers can delete other users")
	}

	target, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	return s.deleteCascade(ctx, target, caller)
}

// DeleteMe removes the caller's own account. The only check is that the
// caller is the account — which the auth middleware already established.
func (s *UserService) DeleteMe(ctx context.Context, caller *model.User) error {
	return s.deleteCascade(ctx, caller, caller)
}

// deleteCascade removes a user, their item rows, and their image blobs.
//
// Blobs go first, mirroring the cascade order of the persistence delete:
// the item rows fall with the user row via the foreign key, atomically, so
// the worst interleaving leaves orphaned blobs rather than items whose
// images are gone.
func (s *UserService) deleteCascade(ctx context.Context, target, caller *model.User) error {
	owned, err := s.items.ListByOwner(ctx, target.ID)
	if err != nil {
		return fmt.Errorf("service/user: listing items of user %d: %w", target.ID, err)
	}

	for _, item := range owned {
		if err := s.blobs.Delete(item.Image); err != nil {
			s.logger.Warn("failed to remove image during user delete",
				slog.Int64("itemID", item.ID),
				slog.String("image", item.Image),
				slog.String("error", err.Error()),
			)
		}
	}

	if err := s.users.Delete(ctx, target.ID); err != nil {
		return fmt.Errorf("service/user: deleting user %d: %w", target.ID, err)
	}

	s.logger.Info("user deleted",
		slog.Int64("userID", target.ID),
		slog.Int64("callerID", caller.ID),
		slog.Int("itemsCascaded", len(owned)),
	)

	return nil
}
