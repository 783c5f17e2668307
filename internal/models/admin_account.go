package models

import "time"

// AdminAccount is a login identity for the admin surface: catalog edits,
// tenant management, API key issuance. Distinct from an APIKey, which is
// the credential an admin session ultimately authenticates requests with.
type AdminAccount struct {
	ID           string     `bson:"_id" json:"id"`
	Email        string     `bson:"email" json:"email"`
	PasswordHash string     `bson:"passwordHash" json:"-"`
	LastLoginAt  *time.Time `bson:"lastLoginAt,omitempty" json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time  `bson:"updatedAt" json:"updatedAt"`
}
