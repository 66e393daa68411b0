package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Organization is a directory record in the master database.
// CanonicalName is derived from DisplayName and unique across all
// organizations; it is never edited independently of DisplayName.
type Organization struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DisplayName   string             `bson:"display_name" json:"organization_name"`
	CanonicalName string             `bson:"canonical_name" json:"-"`
	AdminEmail    string             `bson:"admin_email" json:"admin_email"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
}

// Summary is the public view returned by the org endpoints.
type Summary struct {
	DisplayName string `json:"organization_name"`
	AdminEmail  string `json:"admin_email"`
	CreatedAt   string `json:"created_at"` // RFC 3339
}

// ToSummary converts an organization record to its public view.
func (o *Organization) ToSummary() Summary {
	return Summary{
		DisplayName: o.DisplayName,
		AdminEmail:  o.AdminEmail,
		CreatedAt:   o.CreatedAt.UTC().Format(time.RFC3339),
	}
}
