package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/adeolu/marketplace/internal/apperror"
	"github.com/adeolu/marketplace/internal/model"
	"github.com/adeolu/marketplace/internal/repository"
)

// ItemDB implements repository.ItemRepository. Obtain one via DB.Items().
type ItemDB struct {
	conn *sql.DB
}

// compile-time check that *ItemDB implements repository.ItemRepository
var _ repository.ItemRepository = (*ItemDB)(nil)

const itemColumns = `id, name, description, price, location, image, contact_info, owner_id, created_at, updated_at`

// Create inserts a new item and fills in ID and timestamps.
func (db *ItemDB) Create(ctx context.Context, item *model.Item) error {
	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO items (name, description, price, location, image, contact_info, owner_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.Name,
		item.Description,
		item.Price,
		item.Location,
		item.Image,
		item.ContactInfo,
		item.OwnerID,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting item: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new item id: %w", err)
	}
	item.ID = id

	return nil
}

// GetByID retrieves a single item.
// Returns apperror.ErrNotFound if no such item exists.
func (db *ItemDB) GetByID(ctx context.Context, id int64) (*model.Item, error) {
	var item model.Item

	err := db.conn.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id,
	).Scan(
		&item.ID,
		&item.Name,
		&item.Description,
		&item.Price,
		&item.Location,
		&item.Image,
		&item.ContactInfo,
		&item.OwnerID,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("item", id)
		}
		return nil, fmt.Errorf("sqlite: getting item %d: %w", id, err)
	}

	return &item, nil
}

// List returns all items matching the filter, newest first. Filters are
// case-insensitive substring matches; SQLite's LIKE is case-insensitive for
// ASCII by default, so "lagos" matches "Lagos Island" and "LAGOS". There is
// no pagination — listings are returned whole.
func (db *ItemDB) List(ctx context.Context, filter repository.ItemFilter) ([]model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items`
	var (
		conds []string
		args  []any
	)

	if filter.Location != "" {
		conds = append(conds, `location LIKE ?`)
		args = append(args, "%"+filter.Location+"%")
	}
	if filter.Name != "" {
		conds = append(conds, `name LIKE ?`)
		args = append(args, "%"+filter.Name+"%")
	}

	for i, cond := range conds {
		if i == 0 {
			query += ` WHERE ` + cond
		} else {
			query += ` AND ` + cond
		}
	}
	query += ` ORDER BY created_at DESC`

	return db.queryItems(ctx, query, args...)
}

// ListByOwner returns every item belonging to the given user. Used by the
// delete-user cascade to locate image blobs before the rows go.
func (db *ItemDB) ListByOwner(ctx context.Context, ownerID int64) ([]model.Item, error) {
	return db.queryItems(ctx,
		`SELECT `+itemColumns+` FROM items WHERE owner_id = ? ORDER BY created_at DESC`,
		ownerID,
	)
}

func (db *ItemDB) queryItems(ctx context.Context, query string, args ...any) ([]model.Item, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing items: %w", err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		var item model.Item
		if err := rows.Scan(
			&item.ID,
			&item.Name,
			&item.Description,
			&item.Price,
			&item.Location,
			&item.Image,
			&item.ContactInfo,
			&item.OwnerID,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning item row: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating items: %w", err)
	}

	return items, nil
}

// Update persists every mutable field of the item. ID, owner_id, and
// created_at never change — ownership is immutable for the item's lifetime.
func (db *ItemDB) Update(ctx context.Context, item *model.Item) error {
	item.UpdatedAt = time.Now()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE items
		 SET name = ?, description = ?, price = ?, location = ?, image = ?, contact_info = ?, updated_at = ?
		 WHERE id = ?`,
		item.Name,
		item.Description,
		item.Price,
		item.Location,
		item.Image,
		item.ContactInfo,
		item.UpdatedAt,
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating item %d: %w", item.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("item", item.ID)
	}

	return nil
}

// Delete removes an item row by ID.
func (db *ItemDB) Delete(ctx context.Context, id int64) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting item %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("item", id)
	}

	return nil
}
