package handler

import (
	"errors"
	"net/http"

	"github.com/examhall/examhall-backend/internal/model"
	"github.com/examhall/examhall-backend/internal/response"
	"github.com/examhall/examhall-backend/internal/service"
	"github.com/examhall/examhall-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// QuestionHandler handles ORG_ADMIN question authoring endpoints.
type QuestionHandler struct {
	examService     *service.ExamService
	questionService *service.QuestionService
	examHandler     *ExamHandler
}

// NewQuestionHandler creates a new QuestionHandler. The exam handler is
// reused for the org-scope resolution of :examID.
func NewQuestionHandler(examService *service.ExamService, questionService *service.QuestionService, examHandler *ExamHandler) *QuestionHandler {
	return &QuestionHandler{
		examService:     examService,
		questionService: questionService,
		examHandler:     examHandler,
	}
}

// List godoc
// GET /api/v1/org/exams/:examID/questions
// Returns the authoring view including correct choices.
func (h *QuestionHandler) List(c *gin.Context) {
	exam, ok := h.examHandler.orgExam(c)
	if !ok {
		return
	}

	questions, err := h.questionService.ListByExam(c.Request.Context(), exam.ID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// Add godoc
// POST /api/v1/org/exams/:examID/questions
func (h *QuestionHandler) Add(c *gin.Context) {
	exam, ok := h.examHandler.orgExam(c)
	if !ok {
		return
	}

	var req model.AddQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.questionService.Add(c.Request.Context(), exam.ID, &req)
	if err != nil {
		failQuestion(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"question": question})
}

// ReplaceAll godoc
// PUT /api/v1/org/exams/:examID/questions
// Swaps the whole question list in one transaction.
func (h *QuestionHandler) ReplaceAll(c *gin.Context) {
	exam, ok := h.examHandler.orgExam(c)
	if !ok {
		return
	}

	var req model.ReplaceQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	questions, err := h.questionService.ReplaceAll(c.Request.Context(), exam.ID, &req)
	if err != nil {
		failQuestion(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// Delete godoc
// DELETE /api/v1/org/exams/:examID/questions/:questionID
func (h *QuestionHandler) Delete(c *gin.Context) {
	exam, ok := h.examHandler.orgExam(c)
	if !ok {
		return
	}

	questionID, err := uuid.Parse(c.Param("questionID"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.questionService.Delete(c.Request.Context(), exam.ID, questionID); err != nil {
		failQuestion(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

func failQuestion(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExamNotDraft):
		response.Fail(c, http.StatusConflict, response.ErrExamNotDraft)
	case errors.Is(err, service.ErrChoicesRequired),
		errors.Is(err, service.ErrChoicesNotAllowed),
		errors.Is(err, service.ErrCorrectChoiceRange):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
