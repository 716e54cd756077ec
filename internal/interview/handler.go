package interview

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"interview-backend/internal/conversation"
	"interview-backend/internal/entitlement"
	"interview-backend/internal/shared/server/middleware"
	"interview-backend/internal/shared/server/respond"
	"interview-backend/internal/users"
)

type Handler struct {
	Orch *Orchestrator
}

func NewHandler(orch *Orchestrator) *Handler {
	return &Handler{Orch: orch}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/interview/start", h.start)
	rg.GET("/interview/sessions", h.list)
	rg.POST("/interview/:sessionId/respond", h.answer)
	rg.GET("/interview/:sessionId/history", h.history)
}

type startRequest struct {
	JobRole string `json:"jobRole" binding:"required,max=200"`
	Company string `json:"company" binding:"required,max=200"`
}

type respondRequest struct {
	Answer string `json:"answer" binding:"required,max=20000"`
}

type historyResponse struct {
	Session
	Messages []conversation.Message `json:"messages"`
}

func (h *Handler) start(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "jobRole and company are required", nil)
		return
	}
	started, err := h.Orch.Start(c.Request.Context(), middleware.UserIDFromContext(c), req.JobRole, req.Company)
	if err != nil {
		writeError(c, err)
		return
	}
	middleware.SetSessionID(c, started.SessionID)
	respond.JSON(c, http.StatusCreated, started)
}

func (h *Handler) answer(c *gin.Context) {
	sessionID := c.Param("sessionId")
	middleware.SetSessionID(c, sessionID)

	var req respondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "answer is required", nil)
		return
	}
	q, err := h.Orch.Continue(c.Request.Context(), middleware.UserIDFromContext(c), sessionID, req.Answer)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, q)
}

func (h *Handler) history(c *gin.Context) {
	sessionID := c.Param("sessionId")
	middleware.SetSessionID(c, sessionID)

	session, msgs, err := h.Orch.History(c.Request.Context(), middleware.UserIDFromContext(c), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	if msgs == nil {
		msgs = []conversation.Message{}
	}
	respond.OK(c, historyResponse{Session: session, Messages: msgs})
}

func (h *Handler) list(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	sessions, err := h.Orch.ListSessions(c.Request.Context(), middleware.UserIDFromContext(c), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"sessions": sessions})
}

func writeError(c *gin.Context, err error) {
	if respond.LLMError(c, err) {
		return
	}
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, users.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "user_not_found", "user not found", nil)
	case errors.Is(err, entitlement.ErrExhausted):
		respond.Error(c, http.StatusPaymentRequired, "entitlement_exhausted", "No remaining trials for mock interview.", nil)
	case errors.Is(err, ErrResumeNotUploaded):
		respond.Error(c, http.StatusConflict, "resume_not_uploaded", "Resume has not been uploaded yet.", nil)
	case errors.Is(err, ErrSessionNotFound):
		respond.Error(c, http.StatusNotFound, "session_not_found", "interview session not found", nil)
	case errors.Is(err, ErrPersistenceFailed), errors.Is(err, entitlement.ErrPersistenceFailed):
		respond.Error(c, http.StatusInternalServerError, "persistence_failed", "failed to save interview state", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "interview request failed", nil)
	}
}
