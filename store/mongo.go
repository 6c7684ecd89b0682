package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const defaultArtifactsCollection = "wct_artifacts"

// artifactDocument is the BSON shape one artifact is stored as.
type artifactDocument struct {
	RunID     string    `bson:"run_id"`
	Key       string    `bson:"key"`
	Content   []byte    `bson:"content"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoStore is a Store implementation backed by MongoDB, for deployments
// that want run-metadata/listing queries at scale alongside artifact
// content.
type MongoStore struct {
	coll *mongo.Collection
}

// Compile-time check that MongoStore implements Store.
var _ Store = (*MongoStore)(nil)

// Compile-time check that MongoStore implements RunEnumerator.
var _ RunEnumerator = (*MongoStore)(nil)

// NewMongoStore constructs a MongoStore using an already-connected client
// and ensures the (run_id, key) unique index exists.
func NewMongoStore(ctx context.Context, client *mongo.Client, database string) (*MongoStore, error) {
	coll := client.Database(database).Collection(defaultArtifactsCollection)
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "run_id", Value: 1}, {Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, err
	}
	return &MongoStore{coll: coll}, nil
}

func (s *MongoStore) Save(ctx context.Context, runID, key string, content []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	filter := bson.M{"run_id": runID, "key": key}
	update := bson.M{"$set": artifactDocument{
		RunID: runID, Key: key, Content: content, UpdatedAt: time.Now().UTC(),
	}}
	_, err := s.coll.UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(true))
	return err
}

func (s *MongoStore) Get(ctx context.Context, runID, key string) ([]byte, error) {
	var doc artifactDocument
	err := s.coll.FindOne(ctx, bson.M{"run_id": runID, "key": key}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc.Content, nil
}

func (s *MongoStore) Exists(ctx context.Context, runID, key string) (bool, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{"run_id": runID, "key": key})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *MongoStore) Delete(ctx context.Context, runID, key string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"run_id": runID, "key": key})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) ListKeys(ctx context.Context, runID, prefix string) ([]string, error) {
	filter := bson.M{"run_id": runID}
	if prefix != "" {
		filter["key"] = bson.M{"$regex": "^" + regexQuoteMeta(prefix)}
	}
	cur, err := s.coll.Find(ctx, filter, options.Find().SetProjection(bson.M{"key": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var keys []string
	for cur.Next(ctx) {
		var doc struct {
			Key string `bson:"key"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		keys = append(keys, doc.Key)
	}
	return keys, cur.Err()
}

func (s *MongoStore) Clear(ctx context.Context, runID string) error {
	_, err := s.coll.DeleteMany(ctx, bson.M{"run_id": runID})
	return err
}

// ListRunIDs implements store.RunEnumerator by scanning every document's
// run_id and de-duplicating in memory.
func (s *MongoStore) ListRunIDs(ctx context.Context) ([]string, error) {
	cur, err := s.coll.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"run_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	seen := make(map[string]struct{})
	for cur.Next(ctx) {
		var doc struct {
			RunID string `bson:"run_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		seen[doc.RunID] = struct{}{}
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	return ids, nil
}

// regexQuoteMeta escapes regex metacharacters in a literal prefix used to
// build a MongoDB $regex filter.
func regexQuoteMeta(s string) string {
	special := `\.+*?()|[]{}^$`
	out := make([]byte, 0, len(s)*2)
	for i := 0; i < len(s); i++ {
		if containsByte(special, s[i]) {
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}

func containsByte(s string, b byte) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return true
		}
	}
	return false
}
