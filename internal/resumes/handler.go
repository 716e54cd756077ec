package resumes

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"interview-backend/internal/extract"
	"interview-backend/internal/shared/server/middleware"
	"interview-backend/internal/shared/server/respond"
	"interview-backend/internal/users"
)

const defaultMaxUpload = 10 << 20 // 10MB

type Handler struct {
	Svc            *Service
	MaxUploadBytes int64
}

func NewHandler(svc *Service, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUpload
	}
	return &Handler{Svc: svc, MaxUploadBytes: maxUploadBytes}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/resume/upload", h.upload)
	rg.POST("/resume", h.save)
	rg.GET("/resume/current", h.current)
	rg.GET("/resume/current/source", h.source)
	rg.GET("/resume/:id", h.get)
}

func (h *Handler) upload(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes+(1<<20))

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	if fileHeader.Size > h.MaxUploadBytes {
		respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "file exceeds the upload limit", gin.H{"maxBytes": h.MaxUploadBytes})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}

	rec, err := h.Svc.Upload(c.Request.Context(), userID, Document{
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	respond.JSON(c, http.StatusCreated, rec)
}

func (h *Handler) save(c *gin.Context) {
	var resume StructuredResume
	if err := c.ShouldBindJSON(&resume); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	rec, err := h.Svc.Save(c.Request.Context(), middleware.UserIDFromContext(c), resume)
	if err != nil {
		h.writeError(c, err)
		return
	}
	respond.OK(c, rec)
}

func (h *Handler) current(c *gin.Context) {
	rec, err := h.Svc.Current(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	respond.OK(c, rec)
}

// get is owner-only; another user's id reads as not found.
func (h *Handler) get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid resume id", nil)
		return
	}
	rec, err := h.Svc.Get(c.Request.Context(), id)
	if err == nil && rec.UserID != middleware.UserIDFromContext(c) {
		err = ErrNotFound
	}
	if err != nil {
		h.writeError(c, err)
		return
	}
	respond.OK(c, rec)
}

func (h *Handler) source(c *gin.Context) {
	rc, name, err := h.Svc.OpenSource(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	c.DataFromReader(http.StatusOK, -1, contentType, rc, nil)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	// ExtractionFailed may wrap a decode error; it keeps its own status.
	if errors.Is(err, ErrExtractionFailed) {
		respond.Error(c, http.StatusUnprocessableEntity, "extraction_failed", "could not extract a resume from the document", nil)
		return
	}
	if respond.LLMError(c, err) {
		return
	}
	switch {
	case errors.Is(err, users.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "user_not_found", "user not found", nil)
	case errors.Is(err, extract.ErrUnsupportedDocument):
		respond.Error(c, http.StatusUnsupportedMediaType, "unsupported_document", "upload a PDF, DOCX or plain-text resume", nil)
	case errors.Is(err, ErrInvalidResume):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrPersistenceFailed):
		respond.Error(c, http.StatusInternalServerError, "persistence_failed", "failed to save resume", nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "resume_not_found", "resume not found", nil)
	case errors.Is(err, ErrNoSource):
		respond.Error(c, http.StatusNotFound, "source_not_found", "the original document is not available", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to process resume", nil)
	}
}
