package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/examhall/examhall-backend/internal/middleware"
	"github.com/examhall/examhall-backend/internal/model"
	"github.com/examhall/examhall-backend/internal/response"
	"github.com/examhall/examhall-backend/internal/service"
	"github.com/examhall/examhall-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ExamHandler handles ORG_ADMIN exam lifecycle, assignment, and results
// endpoints. Every operation is scoped to the caller's organization.
type ExamHandler struct {
	examService       *service.ExamService
	assignmentService *service.AssignmentService
	attemptService    *service.AttemptService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(
	examService *service.ExamService,
	assignmentService *service.AssignmentService,
	attemptService *service.AttemptService,
) *ExamHandler {
	return &ExamHandler{
		examService:       examService,
		assignmentService: assignmentService,
		attemptService:    attemptService,
	}
}

// List godoc
// GET /api/v1/org/exams?page=1&limit=20
func (h *ExamHandler) List(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil || claims.OrgID == nil {
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	exams, total, err := h.examService.ListByOrg(c.Request.Context(), *claims.OrgID, page, limit)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"exams": exams}, buildPagination(page, limit, total))
}

// Get godoc
// GET /api/v1/org/exams/:examID
func (h *ExamHandler) Get(c *gin.Context) {
	exam, ok := h.orgExam(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// Create godoc
// POST /api/v1/org/exams
func (h *ExamHandler) Create(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil || claims.OrgID == nil {
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		return
	}

	var req model.CreateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.Create(c.Request.Context(), *claims.OrgID, claims.UserID, &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"exam": exam})
}

// Update godoc
// PUT /api/v1/org/exams/:examID
func (h *ExamHandler) Update(c *gin.Context) {
	exam, ok := h.orgExam(c)
	if !ok {
		return
	}

	var req model.UpdateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	updated, err := h.examService.Update(c.Request.Context(), exam.ID, &req)
	if err != nil {
		failExamLifecycle(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exam": updated})
}

// Publish godoc
// POST /api/v1/org/exams/:examID/publish
func (h *ExamHandler) Publish(c *gin.Context) {
	exam, ok := h.orgExam(c)
	if !ok {
		return
	}

	published, err := h.examService.Publish(c.Request.Context(), exam.ID)
	if err != nil {
		failExamLifecycle(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exam": published})
}

// Archive godoc
// POST /api/v1/org/exams/:examID/archive
func (h *ExamHandler) Archive(c *gin.Context) {
	exam, ok := h.orgExam(c)
	if !ok {
		return
	}

	archived, err := h.examService.Archive(c.Request.Context(), exam.ID)
	if err != nil {
		failExamLifecycle(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exam": archived})
}

// Delete godoc
// DELETE /api/v1/org/exams/:examID
func (h *ExamHandler) Delete(c *gin.Context) {
	exam, ok := h.orgExam(c)
	if !ok {
		return
	}

	if err := h.examService.Delete(c.Request.Context(), exam.ID); err != nil {
		failExamLifecycle(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// Assign godoc
// POST /api/v1/org/exams/:examID/assignments
func (h *ExamHandler) Assign(c *gin.Context) {
	exam, ok := h.orgExam(c)
	if !ok {
		return
	}

	var req model.AssignExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.assignmentService.Assign(c.Request.Context(), exam.ID, &req); err != nil {
		failExamLifecycle(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// Unassign godoc
// DELETE /api/v1/org/exams/:examID/assignments/:userID
func (h *ExamHandler) Unassign(c *gin.Context) {
	exam, ok := h.orgExam(c)
	if !ok {
		return
	}

	userID, err := strconv.Atoi(c.Param("userID"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.assignmentService.Unassign(c.Request.Context(), exam.ID, userID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// ListAssignments godoc
// GET /api/v1/org/exams/:examID/assignments
func (h *ExamHandler) ListAssignments(c *gin.Context) {
	exam, ok := h.orgExam(c)
	if !ok {
		return
	}

	users, err := h.assignmentService.ListByExam(c.Request.Context(), exam.ID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"users": users})
}

// ListResults godoc
// GET /api/v1/org/exams/:examID/results?page=1&limit=20
func (h *ExamHandler) ListResults(c *gin.Context) {
	exam, ok := h.orgExam(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	results, total, err := h.attemptService.ListResults(c.Request.Context(), exam.ID, page, limit)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"results": results}, buildPagination(page, limit, total))
}

// orgExam resolves :examID to an exam owned by the caller's organization. On
// any failure it writes the response and returns ok=false.
func (h *ExamHandler) orgExam(c *gin.Context) (*model.Exam, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil || claims.OrgID == nil {
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		return nil, false
	}

	examID, err := uuid.Parse(c.Param("examID"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return nil, false
	}

	exam, err := h.examService.Get(c.Request.Context(), examID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return nil, false
	}
	if exam.OrgID != *claims.OrgID {
		response.Fail(c, http.StatusForbidden, response.ErrOrgScope)
		return nil, false
	}
	return exam, true
}

func failExamLifecycle(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExamNotDraft):
		response.Fail(c, http.StatusConflict, response.ErrExamNotDraft)
	case errors.Is(err, service.ErrExamNotPublished):
		response.Fail(c, http.StatusConflict, response.ErrExamNotPublished)
	case errors.Is(err, service.ErrExamHasNoQuestions):
		response.Fail(c, http.StatusConflict, response.ErrNoQuestions)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
