package handler

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"docchat/internal/domain/services"
	"docchat/internal/httputil"
)

// AnswerHandler handles the question answering HTTP requests
type AnswerHandler struct {
	answerService services.AnswerService
	logger        *slog.Logger
}

// NewAnswerHandler creates a new answer handler
func NewAnswerHandler(answerService services.AnswerService, logger *slog.Logger) *AnswerHandler {
	return &AnswerHandler{
		answerService: answerService,
		logger:        logger,
	}
}

// Answer runs the full question answering pipeline
// POST /api/answer
func (h *AnswerHandler) Answer(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)
	if userID == "" {
		httputil.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req services.AnswerRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.OwnerID = userID

	result, err := h.answerService.Answer(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, result)
}

// ListMessages returns a thread's messages with resolved sources
// GET /api/threads/{id}/messages
func (h *AnswerHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	h.listMessages(w, r, r.PathValue("id"))
}

// ListMessagesByQuery is the query-parameter variant of the same read
// GET /api/answer?threadId={id}
func (h *AnswerHandler) ListMessagesByQuery(w http.ResponseWriter, r *http.Request) {
	h.listMessages(w, r, r.URL.Query().Get("threadId"))
}

func (h *AnswerHandler) listMessages(w http.ResponseWriter, r *http.Request, rawID string) {
	userID := httputil.GetUserID(r)
	if userID == "" {
		httputil.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	threadID, err := uuid.Parse(rawID)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid thread id")
		return
	}

	messages, err := h.answerService.ListMessages(r.Context(), userID, threadID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, messages)
}
