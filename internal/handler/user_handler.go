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
)

// UserHandler handles account management. The /admin surface is SUPER_ADMIN
// and spans roles and organizations; the /org surface is ORG_ADMIN and only
// touches takers inside the caller's organization.
type UserHandler struct {
	userService *service.UserService
	authService *service.AuthService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *service.UserService, authService *service.AuthService) *UserHandler {
	return &UserHandler{userService: userService, authService: authService}
}

// ─── SUPER_ADMIN surface ────────────────────────────────────────────

// List godoc
// GET /api/v1/admin/users?role=ORG_ADMIN&org_id=3&page=1&limit=20
func (h *UserHandler) List(c *gin.Context) {
	role, ok := model.ParseRole(c.DefaultQuery("role", string(model.RoleTaker)))
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	var orgID *int
	if raw := c.Query("org_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
			return
		}
		orgID = &id
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	users, total, err := h.userService.ListByRole(c.Request.Context(), role, orgID, page, limit)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"users": users}, buildPagination(page, limit, total))
}

// Create godoc
// POST /api/v1/admin/users
func (h *UserHandler) Create(c *gin.Context) {
	var req model.CreateUserRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, err := h.userService.Create(c.Request.Context(), &req)
	if err != nil {
		failCreateUser(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"user": user})
}

// Update godoc
// PUT /api/v1/admin/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateUserRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, err := h.userService.Update(c.Request.Context(), id, &req)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// Delete godoc
// DELETE /api/v1/admin/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.userService.Delete(c.Request.Context(), id); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// ─── ORG_ADMIN surface ──────────────────────────────────────────────

// ListOrgTakers godoc
// GET /api/v1/org/users?page=1&limit=20
func (h *UserHandler) ListOrgTakers(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil || claims.OrgID == nil {
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	users, total, err := h.userService.ListByRole(c.Request.Context(), model.RoleTaker, claims.OrgID, page, limit)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"users": users}, buildPagination(page, limit, total))
}

// CreateOrgTaker godoc
// POST /api/v1/org/users
// Always creates a TAKER inside the caller's organization, regardless of the
// role or org_id in the payload.
func (h *UserHandler) CreateOrgTaker(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil || claims.OrgID == nil {
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		return
	}

	var req model.CreateUserRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	req.Role = string(model.RoleTaker)
	req.OrgID = claims.OrgID

	user, err := h.userService.Create(c.Request.Context(), &req)
	if err != nil {
		failCreateUser(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"user": user})
}

// UpdateOrgTaker godoc
// PUT /api/v1/org/users/:id
func (h *UserHandler) UpdateOrgTaker(c *gin.Context) {
	claims := middleware.GetClaims(c)
	target, ok := h.orgTaker(c, claims)
	if !ok {
		return
	}

	var req model.UpdateUserRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, err := h.userService.Update(c.Request.Context(), target.ID, &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// DeleteOrgTaker godoc
// DELETE /api/v1/org/users/:id
func (h *UserHandler) DeleteOrgTaker(c *gin.Context) {
	claims := middleware.GetClaims(c)
	target, ok := h.orgTaker(c, claims)
	if !ok {
		return
	}

	if err := h.userService.Delete(c.Request.Context(), target.ID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// ResetTakerLogin godoc
// POST /api/v1/org/users/:id/reset-login
// Clears a taker's single-device login so they can sign in again.
func (h *UserHandler) ResetTakerLogin(c *gin.Context) {
	claims := middleware.GetClaims(c)
	target, ok := h.orgTaker(c, claims)
	if !ok {
		return
	}

	if err := h.authService.ResetTakerLogin(c.Request.Context(), target.ID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// orgTaker resolves the :id param to a taker inside the caller's org. On any
// failure it writes the response and returns ok=false.
func (h *UserHandler) orgTaker(c *gin.Context, claims *service.Claims) (*model.User, bool) {
	if claims == nil || claims.OrgID == nil {
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		return nil, false
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return nil, false
	}

	target, err := h.userService.Get(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return nil, false
	}
	if target.Role != model.RoleTaker || target.OrgID == nil || *target.OrgID != *claims.OrgID {
		response.Fail(c, http.StatusForbidden, response.ErrOrgScope)
		return nil, false
	}
	return target, true
}

func failCreateUser(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownRole), errors.Is(err, service.ErrOrgRequired):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
	default:
		response.Fail(c, http.StatusConflict, response.ErrConflict)
	}
}

func buildPagination(page, limit, total int) *response.Pagination {
	if limit <= 0 {
		limit = 20
	}
	totalPages := (total + limit - 1) / limit
	return &response.Pagination{
		Page:       page,
		PerPage:    limit,
		TotalItems: total,
		TotalPages: totalPages,
	}
}
