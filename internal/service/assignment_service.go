package service

import (
	"context"

	"github.com/examhall/examhall-backend/internal/model"
	"github.com/examhall/examhall-backend/internal/repository"
	"github.com/google/uuid"
)

// AssignmentService handles attaching takers to exams.
type AssignmentService struct {
	examRepo       *repository.ExamRepository
	assignmentRepo *repository.AssignmentRepository
}

// NewAssignmentService creates a new AssignmentService.
func NewAssignmentService(examRepo *repository.ExamRepository, assignmentRepo *repository.AssignmentRepository) *AssignmentService {
	return &AssignmentService{examRepo: examRepo, assignmentRepo: assignmentRepo}
}

// Assign attaches takers to a published exam. Re-assigning an already
// assigned taker is a no-op.
func (s *AssignmentService) Assign(ctx context.Context, examID uuid.UUID, req *model.AssignExamRequest) error {
	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return err
	}
	if exam.Status != model.ExamStatusPublished {
		return ErrExamNotPublished
	}
	return s.assignmentRepo.Assign(ctx, examID, req.UserIDs)
}

// Unassign detaches a taker from an exam. Existing attempts stay on record.
func (s *AssignmentService) Unassign(ctx context.Context, examID uuid.UUID, userID int) error {
	return s.assignmentRepo.Unassign(ctx, examID, userID)
}

// ListByExam retrieves the takers assigned to an exam.
func (s *AssignmentService) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.AssignedUser, error) {
	return s.assignmentRepo.ListByExam(ctx, examID)
}
