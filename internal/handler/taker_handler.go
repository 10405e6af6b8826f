package handler

import (
	"errors"
	"net/http"

	"github.com/examhall/examhall-backend/internal/examsession"
	"github.com/examhall/examhall-backend/internal/middleware"
	"github.com/examhall/examhall-backend/internal/model"
	"github.com/examhall/examhall-backend/internal/response"
	"github.com/examhall/examhall-backend/internal/service"
	"github.com/examhall/examhall-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TakerHandler handles the taker exam portal: listing assigned exams,
// starting and resuming attempts, answering, and reading results.
type TakerHandler struct {
	examService    *service.ExamService
	attemptService *service.AttemptService
}

// NewTakerHandler creates a new TakerHandler.
func NewTakerHandler(examService *service.ExamService, attemptService *service.AttemptService) *TakerHandler {
	return &TakerHandler{examService: examService, attemptService: attemptService}
}

// ListExams godoc
// GET /api/v1/taker/exams
// Returns the published exams assigned to the caller.
func (h *TakerHandler) ListExams(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	exams, err := h.examService.ListAssignedToUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// Start godoc
// POST /api/v1/taker/exams/:examID/start
// Starts a fresh attempt or resumes a saved one; starting twice never
// creates a second attempt.
func (h *TakerHandler) Start(c *gin.Context) {
	claims, examID, ok := takerExam(c)
	if !ok {
		return
	}

	state, err := h.attemptService.StartOrResume(c.Request.Context(), claims.UserID, examID)
	if err != nil {
		failAttempt(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"attempt": state})
}

// Paper godoc
// GET /api/v1/taker/exams/:examID/paper
// Returns the answer-stripped question paper.
func (h *TakerHandler) Paper(c *gin.Context) {
	_, examID, ok := takerExam(c)
	if !ok {
		return
	}

	payload, err := h.examService.GetTakerPayload(c.Request.Context(), examID)
	if err != nil {
		failAttempt(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exam": payload})
}

// State godoc
// GET /api/v1/taker/exams/:examID/state
// Returns the live attempt state including the remaining seconds.
func (h *TakerHandler) State(c *gin.Context) {
	claims, examID, ok := takerExam(c)
	if !ok {
		return
	}

	state, err := h.attemptService.GetState(c.Request.Context(), claims.UserID, examID)
	if err != nil {
		failAttempt(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"attempt": state})
}

// SelectAnswer godoc
// POST /api/v1/taker/exams/:examID/answer
// Records one answer selection; repeats overwrite.
func (h *TakerHandler) SelectAnswer(c *gin.Context) {
	claims, examID, ok := takerExam(c)
	if !ok {
		return
	}

	var req model.SelectAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	state, err := h.attemptService.SelectAnswer(c.Request.Context(), claims.UserID, examID, &req)
	if err != nil {
		failAttempt(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"attempt": state})
}

// Navigate godoc
// POST /api/v1/taker/exams/:examID/navigate
// Moves the current-question cursor by a signed delta, clamped in range.
func (h *TakerHandler) Navigate(c *gin.Context) {
	claims, examID, ok := takerExam(c)
	if !ok {
		return
	}

	var req model.NavigateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	state, err := h.attemptService.Navigate(c.Request.Context(), claims.UserID, examID, &req)
	if err != nil {
		failAttempt(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"attempt": state})
}

// Submit godoc
// POST /api/v1/taker/exams/:examID/submit
// Finalizes and scores the attempt. A second submit returns a conflict.
func (h *TakerHandler) Submit(c *gin.Context) {
	claims, examID, ok := takerExam(c)
	if !ok {
		return
	}

	state, err := h.attemptService.Submit(c.Request.Context(), claims.UserID, examID)
	if err != nil {
		failSubmit(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"attempt": state})
}

// Result godoc
// GET /api/v1/taker/exams/:examID/result
// Returns the finished attempt with its score.
func (h *TakerHandler) Result(c *gin.Context) {
	claims, examID, ok := takerExam(c)
	if !ok {
		return
	}

	attempt, err := h.attemptService.GetResult(c.Request.Context(), claims.UserID, examID)
	if err != nil {
		failAttempt(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"attempt": attempt})
}

func takerExam(c *gin.Context) (*service.Claims, uuid.UUID, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return nil, uuid.Nil, false
	}

	examID, err := uuid.Parse(c.Param("examID"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return nil, uuid.Nil, false
	}
	return claims, examID, true
}

func failAttempt(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotAssigned):
		response.Fail(c, http.StatusForbidden, response.ErrNotAssigned)
	case errors.Is(err, service.ErrAttemptNotStarted):
		response.Fail(c, http.StatusConflict, response.ErrAttemptNotStarted)
	case errors.Is(err, service.ErrAttemptNotDone):
		response.Fail(c, http.StatusConflict, response.ErrAttemptNotStarted)
	case errors.Is(err, service.ErrExamNotPublished):
		response.Fail(c, http.StatusConflict, response.ErrExamNotPublished)
	case errors.Is(err, service.ErrExamHasNoQuestions), errors.Is(err, examsession.ErrNoQuestions):
		response.Fail(c, http.StatusConflict, response.ErrNoQuestions)
	case errors.Is(err, examsession.ErrAlreadyCompleted), errors.Is(err, examsession.ErrNotInProgress):
		response.Fail(c, http.StatusConflict, response.ErrAttemptCompleted)
	case errors.Is(err, examsession.ErrQuestionIndex), errors.Is(err, examsession.ErrChoiceIndex):
		response.Fail(c, http.StatusBadRequest, response.ErrAnswerOutOfRange)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// failSubmit distinguishes a persistence failure: the session state is
// untouched in that case, so the client can safely retry the submit.
func failSubmit(c *gin.Context, err error) {
	switch {
	case errors.Is(err, examsession.ErrAlreadyCompleted):
		response.Fail(c, http.StatusConflict, response.ErrAttemptCompleted)
	case errors.Is(err, examsession.ErrNotInProgress), errors.Is(err, service.ErrAttemptNotStarted):
		response.Fail(c, http.StatusConflict, response.ErrAttemptNotStarted)
	case errors.Is(err, service.ErrNotAssigned):
		response.Fail(c, http.StatusForbidden, response.ErrNotAssigned)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrPersistFailed)
	}
}
