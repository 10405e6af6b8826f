package model

import "time"

// Organization groups org admins, takers, and exams under one tenant.
type Organization struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateOrganizationRequest is the payload for creating an organization.
type CreateOrganizationRequest struct {
	Name string `json:"name" binding:"required,min=2,max=255"`
}

// UpdateOrganizationRequest is the payload for renaming an organization.
type UpdateOrganizationRequest struct {
	Name string `json:"name" binding:"required,min=2,max=255"`
}
