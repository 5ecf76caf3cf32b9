package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/adeolu/marketplace/internal/apperror"
	"github.com/adeolu/marketplace/internal/model"
)

// newTestUserDB mirrors newTestItemDB from item_test.go.
func newTestUserDB(t *testing.T) (*DB, *UserDB) {
	t.Helper()
	db := newTestDB(t)
	return db, db.Users()
}

// createTestUser inserts a user and fails the test if it errors.
func createTestUser(t *testing.T, users *UserDB, email string) *model.User {
	t.Helper()
	user := &model.User{
		Email:          email,
		HashedPassword: "$2a$04$fakedhashforrepositorytests",
	}
	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func TestUserCreate(t *testing.T) {
	_, users := newTestUserDB(t)

	user := &model.User{
		Email:          "test@example.com",
		HashedPassword: "$2a$04$somehash",
		IsSuperuser:    true,
	}

	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if user.ID == 0 {
		t.Error("Create() did not set user.ID")
	}
	if user.CreatedAt.IsZero() {
		t.Error("Create() did not set user.CreatedAt")
	}
}

func TestUserCreate_DuplicateEmail(t *testing.T) {
	_, users := newTestUserDB(t)
	createTestUser(t, users, "taken@example.com")

	duplicate := &model.User{
		Email:          "taken@example.com",
		HashedPassword: "$2a$04$otherhash",
	}
	err := users.Create(context.Background(), duplicate)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("Create() error = %v, want ErrConflict for duplicate email", err)
	}
}

func TestUserCreate_EmailCaseSensitive(t *testing.T) {
	_, users := newTestUserDB(t)
	createTestUser(t, users, "Case@Example.com")

	// Uniqueness is on the email exactly as stored — a different casing is a
	// different email.
	other := &model.User{
		Email:          "case@example.com",
		HashedPassword: "$2a$04$otherhash",
	}
	if err := users.Create(context.Background(), other); err != nil {
		t.Fatalf("Create() error = %v for a differently-cased email", err)
	}
}

func TestUserGetByID(t *testing.T) {
	_, users := newTestUserDB(t)
	created := createTestUser(t, users, "lookup@example.com")

	found, err := users.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.Email != "lookup@example.com" {
		t.Errorf("Email = %q, want %q", found.Email, "lookup@example.com")
	}
	if found.HashedPassword == "" {
		t.Error("GetByID() did not return the stored hash")
	}
}

func TestUserGetByID_NotFound(t *testing.T) {
	_, users := newTestUserDB(t)

	_, err := users.GetByID(context.Background(), 999)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestUserGetByEmail(t *testing.T) {
	_, users := newTestUserDB(t)
	created := createTestUser(t, users, "byemail@example.com")

	found, err := users.GetByEmail(context.Background(), "byemail@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("ID = %d, want %d", found.ID, created.ID)
	}
}

func TestUserGetByEmail_NotFound(t *testing.T) {
	_, users := newTestUserDB(t)

	_, err := users.GetByEmail(context.Background(), "nobody@example.com")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("GetByEmail() error = %v, want ErrNotFound", err)
	}
}

func TestUserDelete_CascadesToItems(t *testing.T) {
	db, users := newTestUserDB(t)
	items := db.Items()
	owner := createTestUser(t, users, "hoarder@example.com")
	i1 := createTestItem(t, items, owner.ID, "Chair", "Lagos")
	i2 := createTestItem(t, items, owner.ID, "Table", "Lagos")

	if err := users.Delete(context.Background(), owner.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	// The ON DELETE CASCADE foreign key must take both item rows with the user.
	for _, id := range []int64{i1.ID, i2.ID} {
		if _, err := items.GetByID(context.Background(), id); !errors.Is(err, apperror.ErrNotFound) {
			t.Errorf("item %d still retrievable after owner delete (err = %v)", id, err)
		}
	}
	if _, err := users.GetByEmail(context.Background(), "hoarder@example.com"); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("GetByEmail() after delete error = %v, want ErrNotFound", err)
	}
}

func TestUserDelete_CascadeOnEveryPooledConnection(t *testing.T) {
	// File-backed on purpose: unlike ":memory:", the pool is not pinned to a
	// single connection, so the cascade must hold on connections opened after
	// New returned.
	db, err := New(filepath.Join(t.TempDir(), "marketplace.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()

	// Hold on to the first pooled connection so every repository call below
	// is served by a fresh connection from the pool.
	held, err := db.conn.Conn(ctx)
	if err != nil {
		t.Fatalf("Conn() error = %v", err)
	}
	defer held.Close()

	users, items := db.Users(), db.Items()
	owner := createTestUser(t, users, "pooled@example.com")
	item := createTestItem(t, items, owner.ID, "Chair", "Lagos")

	if err := users.Delete(ctx, owner.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := items.GetByID(ctx, item.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("item %d still retrievable after owner delete on a fresh connection (err = %v)", item.ID, err)
	}
}

func TestUserDelete_NotFound(t *testing.T) {
	_, users := newTestUserDB(t)

	err := users.Delete(context.Background(), 404)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Delete() error = %v, want ErrNotFound", err)
	}
}
