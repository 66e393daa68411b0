// Package directory is the single source of truth for organization existence
// and naming: the master database's organizations and admins collections.
package directory

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/orgvault/backend/internal/models"
)

const (
	// CollectionOrganizations holds organization directory records.
	CollectionOrganizations = "organizations"
	// CollectionAdmins holds administrator credential records.
	CollectionAdmins = "admins"
)

// ErrDuplicate is returned when an insert violates the canonical-name unique
// index. It is the authoritative backstop for concurrent create races; the
// lifecycle service's pre-check is only an optimization.
var ErrDuplicate = errors.New("directory: canonical name already exists")

// Repository handles organization and admin persistence in the master database.
type Repository struct {
	db *mongo.Database
}

// NewRepository creates a directory repository over the master database.
func NewRepository(client *mongo.Client, masterDB string) *Repository {
	return &Repository{db: client.Database(masterDB)}
}

// EnsureIndexes creates the unique index on organizations.canonical_name and
// the lookup index on admins.email. Run once at startup.
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	_, err := r.db.Collection(CollectionOrganizations).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "canonical_name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}
	_, err = r.db.Collection(CollectionAdmins).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
	})
	return err
}

// OrganizationByCanonicalName returns the organization with the given
// canonical name, or (nil, nil) if none exists.
func (r *Repository) OrganizationByCanonicalName(ctx context.Context, canonicalName string) (*models.Organization, error) {
	var org models.Organization
	err := r.db.Collection(CollectionOrganizations).
		FindOne(ctx, bson.M{"canonical_name": canonicalName}).Decode(&org)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// InsertOrganization inserts a new organization record, assigning its ID and
// creation timestamp. Returns ErrDuplicate on a canonical-name collision.
func (r *Repository) InsertOrganization(ctx context.Context, org *models.Organization) error {
	if org.CreatedAt.IsZero() {
		org.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.Collection(CollectionOrganizations).InsertOne(ctx, org)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		org.ID = id
	}
	return nil
}

// UpdateOrganizationName updates the display name and canonical name of an
// organization. The two always change together. Returns ErrDuplicate if the
// new canonical name collides with another organization.
func (r *Repository) UpdateOrganizationName(ctx context.Context, id primitive.ObjectID, displayName, canonicalName string) error {
	_, err := r.db.Collection(CollectionOrganizations).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"display_name": displayName, "canonical_name": canonicalName}},
	)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

// DeleteOrganization removes an organization record by ID.
func (r *Repository) DeleteOrganization(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.db.Collection(CollectionOrganizations).DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// AdminByEmail returns the admin credential for the given email, or
// (nil, nil) if none exists.
func (r *Repository) AdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	var admin models.Admin
	err := r.db.Collection(CollectionAdmins).FindOne(ctx, bson.M{"email": email}).Decode(&admin)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

// InsertAdmin inserts a new admin credential record, assigning its ID and
// creation timestamp.
func (r *Repository) InsertAdmin(ctx context.Context, admin *models.Admin) error {
	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.Collection(CollectionAdmins).InsertOne(ctx, admin)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		admin.ID = id
	}
	return nil
}

// DeleteAdminByID removes a single admin record. Used by provisioning
// rollback.
func (r *Repository) DeleteAdminByID(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.db.Collection(CollectionAdmins).DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// DeleteAdminsByOrganization removes every admin record owned by the given
// organization.
func (r *Repository) DeleteAdminsByOrganization(ctx context.Context, orgID string) (int64, error) {
	res, err := r.db.Collection(CollectionAdmins).DeleteMany(ctx, bson.M{"organization_id": orgID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
