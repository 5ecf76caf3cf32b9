package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/adeolu/marketplace/internal/apperror"
	"github.com/adeolu/marketplace/internal/auth"
	"github.com/adeolu/marketplace/internal/model"
	"github.com/adeolu/marketplace/internal/repository"
)

// Shared in-memory fakes for the service tests. Fakes rather than a mock
// framework — what each one does is visible right here.

type fakeUserRepo struct {
	users  map[int64]*model.User
	nextID int64
	// items, when set, lets Delete emulate the database's FK cascade
	items *fakeItemRepo
	// set to a non-nil error to simulate a database failure
	createErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*model.User), nextID: 1}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, u := range f.users {
		if u.Email == user.Email {
			return apperror.Conflict("user already registered with email " + user.Email)
		}
	}
	user.ID = f.nextID
	f.nextID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "user not found with email " + email}
}

func (f *fakeUserRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := f.users[id]; !ok {
		return apperror.NotFound("user", id)
	}
	delete(f.users, id)
	if f.items != nil {
		for itemID, item := range f.items.items {
			if item.OwnerID == id {
				delete(f.items.items, itemID)
			}
		}
	}
	return nil
}

type fakeItemRepo struct {
	items     map[int64]*model.Item
	nextID    int64
	createErr error
	updateErr error
}

func newFakeItemRepo() *fakeItemRepo {
	return &fakeItemRepo{items: make(map[int64]*model.Item), nextID: 1}
}

func (f *fakeItemRepo) Create(ctx context.Context, item *model.Item) error {
	if f.createErr != nil {
		return f.createErr
	}
	item.ID = f.nextID
	f.nextID++
	item.CreatedAt = time.Now()
	item.UpdatedAt = item.CreatedAt
	copied := *item
	f.items[item.ID] = &copied
	return nil
}

func (f *fakeItemRepo) GetByID(ctx context.Context, id int64) (*model.Item, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, apperror.NotFound("item", id)
	}
	copied := *item
	return &copied, nil
}

func (f *fakeItemRepo) List(ctx context.Context, filter repository.ItemFilter) ([]model.Item, error) {
	var out []model.Item
	for _, item := range f.items {
		out = append(out, *item)
	}
	return out, nil
}

func (f *fakeItemRepo) ListByOwner(ctx context.Context, ownerID int64) ([]model.Item, error) {
	var out []model.Item
	for _, item := range f.items {
		if item.OwnerID == ownerID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (f *fakeItemRepo) Update(ctx context.Context, item *model.Item) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.items[item.ID]; !ok {
		return apperror.NotFound("item", item.ID)
	}
	item.UpdatedAt = time.Now()
	copied := *item
	f.items[item.ID] = &copied
	return nil
}

func (f *fakeItemRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := f.items[id]; !ok {
		return apperror.NotFound("item", id)
	}
	delete(f.items, id)
	return nil
}

type fakeBlobStore struct {
	blobs    map[string][]byte
	nextID   int
	writeErr error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: make(map[string][]byte), nextID: 1}
}

func (f *fakeBlobStore) Write(data []byte, ext string) (string, error) {
	if f.writeErr != nil {
		return "", f.writeErr
	}
	name := fmt.Sprintf("blob-%d%s", f.nextID, ext)
	f.nextID++
	f.blobs[name] = data
	return name, nil
}

func (f *fakeBlobStore) Delete(name string) error {
	if _, ok := f.blobs[name]; !ok {
		return fmt.Errorf("blob: deleting %s: not found", name)
	}
	delete(f.blobs, name)
	return nil
}

func (f *fakeBlobStore) Exists(name string) bool {
	_, ok := f.blobs[name]
	return ok
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestTokenService(t *testing.T) *auth.TokenService {
	t.Helper()
	ts, err := auth.NewTokenService("test-secret-at-least-16-chars!!", 30*time.Minute, 30*24*time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}
