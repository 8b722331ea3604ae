package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"LexiMind/backend/go/internal/models"
)

// MongoMetadataStore persists document metadata records in MongoDB.
type MongoMetadataStore struct {
	collection *mongo.Collection
}

// NewMongoMetadataStore creates a metadata store over the given database
// and collection.
func NewMongoMetadataStore(client *mongo.Client, dbName, collection string) *MongoMetadataStore {
	return &MongoMetadataStore{
		collection: client.Database(dbName).Collection(collection),
	}
}

// Insert stores a new document record.
func (s *MongoMetadataStore) Insert(ctx context.Context, rec *models.DocumentRecord) error {
	_, err := s.collection.InsertOne(ctx, rec)
	if err != nil {
		return fmt.Errorf("failed to insert document record: %w", err)
	}
	return nil
}

// GetByID loads a document record. An unknown id wraps models.ErrNotFound.
func (s *MongoMetadataStore) GetByID(ctx context.Context, id string) (*models.DocumentRecord, error) {
	var rec models.DocumentRecord
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("document %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document record: %w", err)
	}
	return &rec, nil
}
