package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"LexiMind/backend/go/internal/document_service/service"
	"LexiMind/backend/go/internal/models"
	httpserver "LexiMind/backend/go/pkg/http"
	"LexiMind/backend/go/pkg/logger"
)

// maxUploadBytes caps a single document upload.
const maxUploadBytes = 32 << 20

// HealthCheck probes one named dependency of the service.
type HealthCheck func(ctx context.Context) error

// API provides handlers for the document service.
type API struct {
	service *service.DocumentService
	logger  *logger.Logger
	checks  map[string]HealthCheck
}

// NewAPI creates a new API handler. checks may be nil.
func NewAPI(service *service.DocumentService, logger *logger.Logger, checks map[string]HealthCheck) *API {
	return &API{service: service, logger: logger, checks: checks}
}

// RegisterRoutes registers all document service routes on the server.
func RegisterRoutes(srv *httpserver.Server, api *API) {
	srv.HandleFunc("POST /api/v1/documents", api.UploadHandler)
	srv.HandleFunc("GET /api/v1/documents/{id}", api.GetHandler)
	srv.HandleFunc("GET /api/v1/documents/{id}/text", api.GetTextHandler)
	srv.HandleFunc("GET /healthz", api.HealthHandler)
}

// UploadHandler ingests a multipart upload under the "file" form field.
func (a *API) UploadHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	rec, err := a.service.Ingest(r.Context(), header.Filename, data)
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Error())
			return
		}
		a.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("document ingestion failed")
		writeError(w, http.StatusInternalServerError, "failed to ingest document")
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}

// GetHandler returns a document's metadata.
func (a *API) GetHandler(w http.ResponseWriter, r *http.Request) {
	rec, err := a.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			writeError(w, http.StatusNotFound, "document not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load document")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// GetTextHandler returns a document's extracted text as plain text.
func (a *API) GetTextHandler(w http.ResponseWriter, r *http.Request) {
	text, err := a.service.GetText(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			writeError(w, http.StatusNotFound, "document not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load document text")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, text)
}

// HealthHandler probes every registered dependency. Any failing check makes
// the endpoint return 503.
func (a *API) HealthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := map[string]string{}
	for name, check := range a.checks {
		if err := check(ctx); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			deps[name] = "ok"
		}
	}

	body := map[string]interface{}{"status": "ok", "dependencies": deps}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
