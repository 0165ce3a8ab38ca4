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

// GradingHandler handles grading endpoints.
type GradingHandler struct {
	grading *service.GradingService
}

// NewGradingHandler creates a new GradingHandler.
func NewGradingHandler(grading *service.GradingService) *GradingHandler {
	return &GradingHandler{grading: grading}
}

// TeacherGrade godoc
// POST /api/v1/teacher/answers/grade
// Records the authoritative teacher grade for one answer record.
func (h *GradingHandler) TeacherGrade(c *gin.Context) {
	var req model.TeacherGradeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	rec, err := h.grading.RecordTeacherGrade(c.Request.Context(), &req)
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"answer": rec})
}

// RequestAIGrade godoc
// POST /api/v1/teacher/answers/grade/ai
// Queues an advisory AI grade for one answer record. Returns 202; the
// result lands on the record asynchronously.
func (h *GradingHandler) RequestAIGrade(c *gin.Context) {
	var req model.AIGradeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.grading.EnqueueAIGrade(c.Request.Context(), req.AnswerID); err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusAccepted, gin.H{"queued": true})
}

// GetAnswer godoc
// GET /api/v1/teacher/answers/:answer_id
func (h *GradingHandler) GetAnswer(c *gin.Context) {
	answerID, err := uuid.Parse(c.Param("answer_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	rec, err := h.grading.GetRecord(c.Request.Context(), answerID)
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"answer": rec})
}

// ListAnswersByQuestion godoc
// GET /api/v1/teacher/exams/:exam_id/questions/:question_id/answers
// The grading view: every examinee's extracted answer for one question.
func (h *GradingHandler) ListAnswersByQuestion(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	questionID, err := uuid.Parse(c.Param("question_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	answers, err := h.grading.ListByQuestion(c.Request.Context(), examID, questionID)
	if err != nil {
		failFromErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"answers": answers})
}
