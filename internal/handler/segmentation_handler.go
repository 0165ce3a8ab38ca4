package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ccccowo/imark-backend/internal/response"
	"github.com/ccccowo/imark-backend/internal/service"
)

// SegmentationHandler handles the batch answer extraction endpoint.
type SegmentationHandler struct {
	segmentation   *service.SegmentationService
	maxUploadBytes int64
}

// NewSegmentationHandler creates a new SegmentationHandler.
func NewSegmentationHandler(segmentation *service.SegmentationService, maxUploadBytes int64) *SegmentationHandler {
	return &SegmentationHandler{segmentation: segmentation, maxUploadBytes: maxUploadBytes}
}

// Segment godoc
// POST /api/v1/teacher/exams/:exam_id/segment
// Multipart form: one file field per examinee, the field name being the
// examinee's UUID. The sheet count must match the roster exactly.
func (h *SegmentationHandler) Segment(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}

	var sheets []service.SheetInput
	for field, files := range form.File {
		examineeID, err := uuid.Parse(field)
		if err != nil {
			response.FailWithDetail(c, http.StatusBadRequest, response.ErrInvalidID,
				"multipart field names must be examinee UUIDs, got "+field)
			return
		}
		for _, fh := range files {
			if fh.Size > h.maxUploadBytes {
				response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
				return
			}
			f, err := fh.Open()
			if err != nil {
				response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
				return
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
				return
			}
			sheets = append(sheets, service.SheetInput{ExamineeID: examineeID, Data: data})
		}
	}

	if len(sheets) == 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}

	if err := h.segmentation.Run(c.Request.Context(), examID, sheets); err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"segmented": true, "sheets": len(sheets)})
}
