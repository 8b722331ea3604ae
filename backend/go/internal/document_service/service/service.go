package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"LexiMind/backend/go/internal/models"
	"LexiMind/backend/go/pkg/logger"
)

// MetadataStore persists document records.
type MetadataStore interface {
	Insert(ctx context.Context, rec *models.DocumentRecord) error
	GetByID(ctx context.Context, id string) (*models.DocumentRecord, error)
}

// ObjectStore keeps raw uploads and extracted text.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// TextCache caches extracted text by document id. It may be nil.
type TextCache interface {
	Get(ctx context.Context, documentID string) (string, bool)
	Set(ctx context.Context, documentID, text string)
}

// DocumentService ingests uploads, extracts their text, and serves both the
// metadata and the extracted text back.
type DocumentService struct {
	metadata MetadataStore
	objects  ObjectStore
	cache    TextCache
	log      *logger.Logger
}

// NewDocumentService wires a document service. cache may be nil.
func NewDocumentService(metadata MetadataStore, objects ObjectStore, cache TextCache, log *logger.Logger) *DocumentService {
	return &DocumentService{metadata: metadata, objects: objects, cache: cache, log: log}
}

// Ingest stores an upload, extracts its text, and returns the new record.
// Unsupported content types are rejected with *models.ValidationError.
func (s *DocumentService) Ingest(ctx context.Context, fileName string, data []byte) (*models.DocumentRecord, error) {
	if len(data) == 0 {
		return nil, &models.ValidationError{Field: "file", Reason: "file is empty"}
	}

	mime := mimetype.Detect(data)

	var text string
	var pageCount int
	var err error
	switch {
	case mime.Is("application/pdf"):
		text, pageCount, err = extractPDFText(data)
		if err != nil {
			return nil, &models.ValidationError{Field: "file", Reason: fmt.Sprintf("unreadable PDF: %v", err)}
		}
	case mime.Is("text/plain"), mime.Is("text/markdown"):
		text = string(data)
	default:
		return nil, &models.ValidationError{Field: "file", Reason: fmt.Sprintf("unsupported content type %s", mime.String())}
	}

	id := uuid.New().String()
	rec := &models.DocumentRecord{
		ID:          id,
		FileName:    path.Base(fileName),
		ContentType: mime.String(),
		SizeBytes:   int64(len(data)),
		PageCount:   pageCount,
		RawObject:   fmt.Sprintf("documents/%s/raw%s", id, mime.Extension()),
		TextObject:  fmt.Sprintf("documents/%s/text.txt", id),
		UploadedAt:  time.Now(),
	}

	if err := s.objects.Put(ctx, rec.RawObject, data, rec.ContentType); err != nil {
		return nil, err
	}
	if err := s.objects.Put(ctx, rec.TextObject, []byte(text), "text/plain"); err != nil {
		return nil, err
	}
	if err := s.metadata.Insert(ctx, rec); err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, id, text)
	}
	logger.New("document_service", "", id).Info(fmt.Sprintf("ingested %s (%s, %d bytes)", rec.FileName, rec.ContentType, rec.SizeBytes))
	return rec, nil
}

// Get returns a document's metadata record.
func (s *DocumentService) Get(ctx context.Context, id string) (*models.DocumentRecord, error) {
	return s.metadata.GetByID(ctx, id)
}

// GetText returns a document's extracted text, reading through the cache.
func (s *DocumentService) GetText(ctx context.Context, id string) (string, error) {
	if s.cache != nil {
		if text, ok := s.cache.Get(ctx, id); ok {
			return text, nil
		}
	}

	rec, err := s.metadata.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	data, err := s.objects.Get(ctx, rec.TextObject)
	if err != nil {
		return "", err
	}
	text := string(data)

	if s.cache != nil {
		s.cache.Set(ctx, id, text)
	}
	return text, nil
}

// extractPDFText pulls the plain text out of a PDF upload.
func extractPDFText(data []byte) (string, int, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, err
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", 0, err
	}
	text, err := io.ReadAll(plain)
	if err != nil {
		return "", 0, err
	}
	if len(bytes.TrimSpace(text)) == 0 {
		return "", 0, fmt.Errorf("no extractable text")
	}
	return string(text), reader.NumPage(), nil
}
