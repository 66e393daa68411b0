package migration

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the minimal document-store surface the migrator needs: enumerate,
// stream, existence-check by _id, bulk insert, count and sample.
type Store interface {
	DatabaseNames(ctx context.Context) ([]string, error)
	CollectionNames(ctx context.Context, database string) ([]string, error)
	Count(ctx context.Context, database, collection string) (int64, error)
	Has(ctx context.Context, database, collection string, id bson.RawValue) (bool, error)
	Documents(ctx context.Context, database, collection string) (Cursor, error)
	InsertBatch(ctx context.Context, database, collection string, docs []bson.Raw) error
	Sample(ctx context.Context, database, collection string, limit int) ([]bson.Raw, error)
}

// Cursor streams raw documents. Next returns (nil, false, nil) at end of stream.
type Cursor interface {
	Next(ctx context.Context) (bson.Raw, bool, error)
	Close(ctx context.Context) error
}

// MongoStore implements Store over a Mongo client.
type MongoStore struct {
	client *mongo.Client
}

// NewMongoStore creates a Store backed by the given Mongo client.
func NewMongoStore(client *mongo.Client) *MongoStore {
	return &MongoStore{client: client}
}

func (s *MongoStore) DatabaseNames(ctx context.Context) ([]string, error) {
	return s.client.ListDatabaseNames(ctx, bson.M{})
}

func (s *MongoStore) CollectionNames(ctx context.Context, database string) ([]string, error) {
	return s.client.Database(database).ListCollectionNames(ctx, bson.M{})
}

func (s *MongoStore) Count(ctx context.Context, database, collection string) (int64, error) {
	return s.client.Database(database).Collection(collection).CountDocuments(ctx, bson.M{})
}

func (s *MongoStore) Has(ctx context.Context, database, collection string, id bson.RawValue) (bool, error) {
	n, err := s.client.Database(database).Collection(collection).
		CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *MongoStore) Documents(ctx context.Context, database, collection string) (Cursor, error) {
	cur, err := s.client.Database(database).Collection(collection).Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	return &mongoCursor{cur: cur}, nil
}

func (s *MongoStore) InsertBatch(ctx context.Context, database, collection string, docs []bson.Raw) error {
	values := make([]interface{}, len(docs))
	for i, d := range docs {
		values[i] = d
	}
	_, err := s.client.Database(database).Collection(collection).InsertMany(ctx, values)
	return err
}

func (s *MongoStore) Sample(ctx context.Context, database, collection string, limit int) ([]bson.Raw, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}).SetLimit(int64(limit))
	cur, err := s.client.Database(database).Collection(collection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var docs []bson.Raw
	for cur.Next(ctx) {
		doc := make(bson.Raw, len(cur.Current))
		copy(doc, cur.Current)
		docs = append(docs, doc)
	}
	return docs, cur.Err()
}

type mongoCursor struct {
	cur *mongo.Cursor
}

func (c *mongoCursor) Next(ctx context.Context) (bson.Raw, bool, error) {
	if !c.cur.Next(ctx) {
		return nil, false, c.cur.Err()
	}
	// cur.Current is reused across iterations; copy out.
	doc := make(bson.Raw, len(c.cur.Current))
	copy(doc, c.cur.Current)
	return doc, true, nil
}

func (c *mongoCursor) Close(ctx context.Context) error {
	return c.cur.Close(ctx)
}
