package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Admin is an administrator credential record in the master database.
// Its lifetime is tied to the owning organization: created alongside it,
// deleted when the organization is deleted. OrganizationID is an
// application-level reference, not enforced by the store.
type Admin struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email          string             `bson:"email" json:"email"`
	PasswordHash   string             `bson:"password_hash" json:"-"`
	OrganizationID string             `bson:"organization_id" json:"organization_id"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
}
