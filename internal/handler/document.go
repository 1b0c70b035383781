package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/google/uuid"

	"docchat/internal/config"
	"docchat/internal/domain/services"
	"docchat/internal/httputil"
)

// DocumentHandler handles document HTTP requests
type DocumentHandler struct {
	ingestService services.IngestService
	docService    services.DocumentService
	fetchClient   *http.Client
	logger        *slog.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(ingestService services.IngestService, docService services.DocumentService, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		ingestService: ingestService,
		docService:    docService,
		fetchClient:   &http.Client{Timeout: 30 * time.Second},
		logger:        logger,
	}
}

// ingestRequest accepts either inline content or a URL to fetch it from.
type ingestRequest struct {
	FileName string `json:"file_name"`
	Content  string `json:"content"`
	URL      string `json:"url,omitempty"`
}

// IngestDocument uploads a document and indexes it for retrieval
// POST /api/documents
func (h *DocumentHandler) IngestDocument(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)
	if userID == "" {
		httputil.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req ingestRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.URL != "" {
		if req.Content != "" {
			httputil.RespondError(w, http.StatusBadRequest, "provide content or url, not both")
			return
		}
		content, name, err := h.fetch(r, req.URL)
		if err != nil {
			h.logger.Warn("document fetch failed", "url", req.URL, "error", err)
			httputil.RespondError(w, http.StatusBadGateway, fmt.Sprintf("fetch %s: %v", req.URL, err))
			return
		}
		req.Content = content
		if req.FileName == "" {
			req.FileName = name
		}
	}

	doc, err := h.ingestService.Ingest(r.Context(), &services.IngestRequest{
		OwnerID:  userID,
		FileName: req.FileName,
		Content:  req.Content,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, doc)
}

// fetch downloads the document body from a public URL, capped at the
// ingest size limit.
func (h *DocumentHandler) fetch(r *http.Request, rawURL string) (content, name string, err error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", "", fmt.Errorf("unsupported url")
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, rawURL, nil)
	if err != nil {
		return "", "", err
	}

	resp, err := h.fetchClient.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, config.MaxDocumentBytes+1))
	if err != nil {
		return "", "", err
	}
	if len(body) > config.MaxDocumentBytes {
		return "", "", fmt.Errorf("document larger than %d bytes", config.MaxDocumentBytes)
	}

	name = path.Base(parsed.Path)
	if name == "/" || name == "." || name == "" {
		name = parsed.Host
	}

	return string(body), name, nil
}

// ListDocuments retrieves all documents for the user, newest first
// GET /api/documents
func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)
	if userID == "" {
		httputil.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	docs, err := h.docService.List(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, docs)
}

// DeleteDocument removes a document and its chunks
// DELETE /api/documents/{id}
func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)
	if userID == "" {
		httputil.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if _, err := uuid.Parse(r.PathValue("id")); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	if err := h.docService.Delete(r.Context(), r.PathValue("id"), userID); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck reports liveness
// GET /health
func (h *DocumentHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
