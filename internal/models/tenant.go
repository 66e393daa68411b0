package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TenantMetadata is the self-describing marker written once into each tenant
// database at creation, so a namespace can be identified independent of its
// storage-level name.
type TenantMetadata struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrganizationID string             `bson:"organization_id" json:"organization_id"`
	DisplayName    string             `bson:"organization_name" json:"organization_name"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
}
