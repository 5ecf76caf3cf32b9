// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// HashedPassword is the opaque bcrypt output — never the plaintext, and
// never serialized to clients (json:"-").
//
// IsSuperuser is granted once, at signup, when the caller presents the admin
// bootstrap key. Nothing in the API changes it afterwards.
type User struct {
	ID             int64     `json:"id"          db:"id"`
	Email          string    `json:"email"       db:"email"` // unique, case-sensitive as stored
	HashedPassword string    `json:"-"           db:"hashed_password"`
	IsSuperuser    bool      `json:"isSuperuser" db:"is_superuser"`
	CreatedAt      time.Time `json:"createdAt"   db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt"   db:"updated_at"`
}
