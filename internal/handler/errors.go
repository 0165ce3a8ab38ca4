package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ccccowo/imark-backend/internal/answerkey"
	"github.com/ccccowo/imark-backend/internal/model"
	"github.com/ccccowo/imark-backend/internal/response"
	"github.com/ccccowo/imark-backend/internal/service"
)

// failFromErr maps domain sentinels onto HTTP status and error codes.
// Validation and batch errors keep the wrapped detail (it names the
// offending question or range); everything unrecognized becomes a 500.
func failFromErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidRegion):
		response.FailWithDetail(c, http.StatusBadRequest, response.ErrInvalidRegion, err.Error())
	case errors.Is(err, answerkey.ErrInvalidFormat):
		response.FailWithDetail(c, http.StatusBadRequest, response.ErrInvalidAnswer, err.Error())
	case errors.Is(err, answerkey.ErrUnsupportedForType):
		response.FailWithDetail(c, http.StatusBadRequest, response.ErrUnsupportedForType, err.Error())
	case errors.Is(err, service.ErrCountMismatch):
		response.FailWithDetail(c, http.StatusBadRequest, response.ErrCountMismatch, err.Error())
	case errors.Is(err, service.ErrRegionOutOfBounds):
		response.FailWithDetail(c, http.StatusUnprocessableEntity, response.ErrRegionOutOfBounds, err.Error())
	case errors.Is(err, service.ErrRangeOverlap):
		response.FailWithDetail(c, http.StatusBadRequest, response.ErrValidation, err.Error())
	case errors.Is(err, service.ErrBadImage):
		response.FailWithDetail(c, http.StatusBadRequest, response.ErrUnsupportedFile, err.Error())
	case errors.Is(err, service.ErrScoreOutOfRange):
		response.Fail(c, http.StatusBadRequest, response.ErrScoreOutOfRange)
	case errors.Is(err, service.ErrAlreadySegmented):
		response.Fail(c, http.StatusConflict, response.ErrAlreadySegmented)
	case errors.Is(err, service.ErrSegmentationInProgress):
		response.Fail(c, http.StatusConflict, response.ErrSegmentationInProgress)
	case errors.Is(err, service.ErrDuplicateStudentID):
		response.FailWithDetail(c, http.StatusConflict, response.ErrConflict, err.Error())
	case errors.Is(err, service.ErrExamNotReady), errors.Is(err, service.ErrExamNotGrading):
		response.Fail(c, http.StatusConflict, response.ErrExamNotReady)
	case errors.Is(err, service.ErrNoTemplate):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrNoQuestions)
	case errors.Is(err, service.ErrNoPaper):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrNoPaperImage)
	case errors.Is(err, service.ErrRecordNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrRecordNotFound)
	case errors.Is(err, service.ErrExamNotFound),
		errors.Is(err, service.ErrQuestionNotFound),
		errors.Is(err, service.ErrExamineeNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
