package tenant

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/orgvault/backend/internal/models"
)

// MetadataCollection holds the per-tenant marker document.
const MetadataCollection = "tenant_metadata"

// Store performs namespace-level operations on tenant databases.
type Store struct {
	client *mongo.Client
}

// NewStore creates a tenant store over a shared Mongo client.
func NewStore(client *mongo.Client) *Store {
	return &Store{client: client}
}

// Database returns the handle for a tenant's database. The database does not
// need to exist; Mongo creates it on first write.
func (s *Store) Database(canonicalName string) *mongo.Database {
	return s.client.Database(NamespaceFor(canonicalName))
}

// WriteMetadata seeds a newly provisioned tenant database with its marker
// document. This is the write that materializes the namespace.
func (s *Store) WriteMetadata(ctx context.Context, canonicalName string, meta models.TenantMetadata) error {
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now().UTC()
	}
	_, err := s.Database(canonicalName).Collection(MetadataCollection).InsertOne(ctx, meta)
	return err
}

// Metadata reads the tenant marker document, if present.
func (s *Store) Metadata(ctx context.Context, canonicalName string) (*models.TenantMetadata, error) {
	var meta models.TenantMetadata
	err := s.Database(canonicalName).Collection(MetadataCollection).FindOne(ctx, bson.M{}).Decode(&meta)
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

// Exists reports whether the tenant database materially exists on the cluster.
func (s *Store) Exists(ctx context.Context, canonicalName string) (bool, error) {
	names, err := s.client.ListDatabaseNames(ctx, bson.M{"name": NamespaceFor(canonicalName)})
	if err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

// CollectionNames lists the collections present in the tenant database.
func (s *Store) CollectionNames(ctx context.Context, canonicalName string) ([]string, error) {
	return s.Database(canonicalName).ListCollectionNames(ctx, bson.M{})
}

// Drop irreversibly removes the tenant database and everything in it.
func (s *Store) Drop(ctx context.Context, canonicalName string) error {
	return s.Database(canonicalName).Drop(ctx)
}
