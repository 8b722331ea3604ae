package store

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/minio/minio-go/v7"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"LexiMind/backend/go/internal/models"
)

// DocumentReader resolves a document id to its extracted text by looking up
// the metadata record in MongoDB and fetching the text object from MinIO.
// A Redis cache in front keeps hot documents off object storage; the cache
// is optional.
type DocumentReader struct {
	metadata *mongo.Collection
	objects  *minio.Client
	bucket   string
	cache    *redis.Client
	cacheTTL time.Duration
}

// NewDocumentReader creates a reader. rdb may be nil to disable caching.
func NewDocumentReader(client *mongo.Client, dbName, collection string, objects *minio.Client, bucket string, rdb *redis.Client, cacheTTL time.Duration) *DocumentReader {
	return &DocumentReader{
		metadata: client.Database(dbName).Collection(collection),
		objects:  objects,
		bucket:   bucket,
		cache:    rdb,
		cacheTTL: cacheTTL,
	}
}

func textCacheKey(documentID string) string {
	return "doctext:" + documentID
}

// GetText returns the extracted text of an ingested document. An unknown
// document id wraps models.ErrNotFound.
func (r *DocumentReader) GetText(ctx context.Context, documentID string) (string, error) {
	if r.cache != nil {
		if text, err := r.cache.Get(ctx, textCacheKey(documentID)).Result(); err == nil {
			return text, nil
		}
	}

	var rec models.DocumentRecord
	err := r.metadata.FindOne(ctx, bson.M{"_id": documentID}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return "", fmt.Errorf("document %s: %w", documentID, models.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to load document metadata: %w", err)
	}

	obj, err := r.objects.GetObject(ctx, r.bucket, rec.TextObject, minio.GetObjectOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to open text object: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return "", fmt.Errorf("failed to read text object: %w", err)
	}
	text := string(data)

	if r.cache != nil {
		// Best effort: a cache write failure never fails the read.
		r.cache.Set(ctx, textCacheKey(documentID), text, r.cacheTTL)
	}
	return text, nil
}
