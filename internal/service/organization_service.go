package service

import (
	"context"

	"github.com/examhall/examhall-backend/internal/model"
	"github.com/examhall/examhall-backend/internal/repository"
)

// OrganizationService handles organization management, available to
// SUPER_ADMIN only.
type OrganizationService struct {
	orgRepo *repository.OrganizationRepository
}

// NewOrganizationService creates a new OrganizationService.
func NewOrganizationService(orgRepo *repository.OrganizationRepository) *OrganizationService {
	return &OrganizationService{orgRepo: orgRepo}
}

// List retrieves all organizations.
func (s *OrganizationService) List(ctx context.Context) ([]model.Organization, error) {
	return s.orgRepo.List(ctx)
}

// Get retrieves one organization.
func (s *OrganizationService) Get(ctx context.Context, id int) (*model.Organization, error) {
	return s.orgRepo.GetByID(ctx, id)
}

// Create registers a new organization.
func (s *OrganizationService) Create(ctx context.Context, req *model.CreateOrganizationRequest) (*model.Organization, error) {
	org := &model.Organization{Name: req.Name}
	if err := s.orgRepo.Create(ctx, org); err != nil {
		return nil, err
	}
	return org, nil
}

// Update renames an organization.
func (s *OrganizationService) Update(ctx context.Context, id int, req *model.UpdateOrganizationRequest) (*model.Organization, error) {
	org, err := s.orgRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	org.Name = req.Name
	if err := s.orgRepo.Update(ctx, org); err != nil {
		return nil, err
	}
	return org, nil
}

// Delete removes an organization and everything scoped under it.
func (s *OrganizationService) Delete(ctx context.Context, id int) error {
	return s.orgRepo.Delete(ctx, id)
}
