package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoResultSink persists completed analysis results to a MongoDB
// collection, one document per task id.
type MongoResultSink struct {
	collection *mongo.Collection
}

// NewMongoResultSink creates a sink over the given database and collection.
func NewMongoResultSink(client *mongo.Client, dbName, collection string) *MongoResultSink {
	return &MongoResultSink{
		collection: client.Database(dbName).Collection(collection),
	}
}

// Persist upserts the result keyed by task id, so re-running a task
// overwrites its previous result instead of duplicating it.
func (s *MongoResultSink) Persist(ctx context.Context, taskID string, result interface{}) error {
	filter := bson.M{"_id": taskID}
	update := bson.M{"$set": bson.M{
		"result":    result,
		"stored_at": time.Now(),
	}}
	opts := options.Update().SetUpsert(true)
	_, err := s.collection.UpdateOne(ctx, filter, update, opts)
	return err
}
