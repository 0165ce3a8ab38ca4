package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ccccowo/imark-backend/internal/response"
	"github.com/ccccowo/imark-backend/internal/service"
)

// MediaHandler handles the reference paper upload.
type MediaHandler struct {
	media          *service.MediaService
	maxUploadBytes int64
}

// NewMediaHandler creates a new MediaHandler.
func NewMediaHandler(media *service.MediaService, maxUploadBytes int64) *MediaHandler {
	return &MediaHandler{media: media, maxUploadBytes: maxUploadBytes}
}

// UploadPaper godoc
// POST /api/v1/teacher/exams/:exam_id/paper
// Multipart field "file": the reference paper scan. Its pixel
// dimensions become the bounds every question region is checked
// against.
func (h *MediaHandler) UploadPaper(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	if fh.Size > h.maxUploadBytes {
		response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
		return
	}
	if !allowedImageName(fh.Filename) {
		response.Fail(c, http.StatusBadRequest, response.ErrUnsupportedFile)
		return
	}

	f, err := fh.Open()
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	exam, err := h.media.UploadPaper(c.Request.Context(), examID, fh.Filename, data)
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

func allowedImageName(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".jpg") ||
		strings.HasSuffix(lower, ".jpeg") ||
		strings.HasSuffix(lower, ".png")
}
