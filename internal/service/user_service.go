package service

import (
	"context"
	"errors"

	"github.com/examhall/examhall-backend/internal/model"
	"github.com/examhall/examhall-backend/internal/repository"
)

// User management errors.
var (
	ErrUnknownRole = errors.New("unknown role")
	ErrOrgRequired = errors.New("role requires an organization")
)

// UserService handles account management. SUPER_ADMIN manages accounts of any
// role across organizations; ORG_ADMIN manages takers inside its own
// organization (the handler passes the caller's org as the scope).
type UserService struct {
	userRepo *repository.UserRepository
	authSvc  *AuthService
}

// NewUserService creates a new UserService.
func NewUserService(userRepo *repository.UserRepository, authSvc *AuthService) *UserService {
	return &UserService{userRepo: userRepo, authSvc: authSvc}
}

// Get retrieves one account.
func (s *UserService) Get(ctx context.Context, id int) (*model.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// ListByRole retrieves accounts of one role, optionally scoped to an
// organization.
func (s *UserService) ListByRole(ctx context.Context, role model.Role, orgID *int, page, limit int) ([]model.User, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if page <= 0 {
		page = 1
	}
	return s.userRepo.ListByRolePaginated(ctx, role, orgID, limit, (page-1)*limit)
}

// Create registers a new account. Takers and org admins must carry an
// organization; super admins must not.
func (s *UserService) Create(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	role, ok := model.ParseRole(req.Role)
	if !ok {
		return nil, ErrUnknownRole
	}

	orgID := req.OrgID
	if role == model.RoleSuperAdmin {
		orgID = nil
	} else if orgID == nil {
		return nil, ErrOrgRequired
	}

	hash, err := s.authSvc.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         role,
		OrgID:        orgID,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Update modifies an account's profile. An empty password keeps the current
// one.
func (s *UserService) Update(ctx context.Context, id int, req *model.UpdateUserRequest) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Email = req.Email
	user.Name = req.Name
	user.PasswordHash = ""
	if req.Password != "" {
		hash, err := s.authSvc.HashPassword(req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, id)
}

// Delete removes an account.
func (s *UserService) Delete(ctx context.Context, id int) error {
	return s.userRepo.Delete(ctx, id)
}
