package model

import "time"

// Item represents a marketplace listing.
//
// Image is the blob store path of the uploaded picture — mandatory, every
// item has one. OwnerID references the user who created the listing and is
// immutable for the item's lifetime; there is no transfer-of-ownership
// operation. Deleting the owner cascades to their items (and image blobs).
type Item struct {
	ID          int64     `json:"id"          db:"id"`
	Name        string    `json:"name"        db:"name"`
	Description string    `json:"description" db:"description"`
	Price       float64   `json:"price"       db:"price"`
	Location    string    `json:"location"    db:"location"`
	Image       string    `json:"image"       db:"image"`
	ContactInfo string    `json:"contactInfo" db:"contact_info"`
	OwnerID     int64     `json:"ownerId"     db:"owner_id"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt"   db:"updated_at"`
}
