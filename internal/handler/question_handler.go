package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ccccowo/imark-backend/internal/model"
	"github.com/ccccowo/imark-backend/internal/response"
	"github.com/ccccowo/imark-backend/internal/service"
	"github.com/ccccowo/imark-backend/internal/validator"
)

// QuestionHandler handles question template endpoints.
type QuestionHandler struct {
	templateService *service.TemplateService
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(templateService *service.TemplateService) *QuestionHandler {
	return &QuestionHandler{templateService: templateService}
}

// ReplaceTemplate godoc
// PUT /api/v1/teacher/exams/:exam_id/questions
// Atomically replaces the exam's question template.
func (h *QuestionHandler) ReplaceTemplate(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.ReplaceQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	questions, err := h.templateService.Replace(c.Request.Context(), examID, &req)
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// ListQuestions godoc
// GET /api/v1/teacher/exams/:exam_id/questions
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	questions, err := h.templateService.List(c.Request.Context(), examID)
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// AssignKeys godoc
// POST /api/v1/teacher/exams/:exam_id/questions/keys
// Applies scores, types and answer keys over question ranges in one
// batch. Any invalid range rejects the whole request.
func (h *QuestionHandler) AssignKeys(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.AssignKeysRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	questions, err := h.templateService.AssignKeys(c.Request.Context(), examID, &req)
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}
