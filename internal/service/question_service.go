package service

import (
	"context"
	"errors"

	"github.com/examhall/examhall-backend/internal/model"
	"github.com/examhall/examhall-backend/internal/repository"
	"github.com/google/uuid"
)

// Question validation errors.
var (
	ErrChoicesRequired    = errors.New("multiple choice questions need at least two choices")
	ErrChoicesNotAllowed  = errors.New("open ended questions cannot carry choices")
	ErrCorrectChoiceRange = errors.New("correct choice is out of range")
)

// QuestionService handles question authoring. Questions are only editable
// while the exam is in DRAFT.
type QuestionService struct {
	examRepo     *repository.ExamRepository
	questionRepo *repository.QuestionRepository
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(examRepo *repository.ExamRepository, questionRepo *repository.QuestionRepository) *QuestionService {
	return &QuestionService{examRepo: examRepo, questionRepo: questionRepo}
}

// ListByExam retrieves an exam's questions in presentation order, with
// correct choices included for the authoring view.
func (s *QuestionService) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	return s.questionRepo.ListByExam(ctx, examID)
}

// Add appends one question to a draft exam.
func (s *QuestionService) Add(ctx context.Context, examID uuid.UUID, req *model.AddQuestionRequest) (*model.Question, error) {
	if err := s.requireDraft(ctx, examID); err != nil {
		return nil, err
	}

	q, err := buildQuestion(req)
	if err != nil {
		return nil, err
	}
	q.ExamID = examID

	if err := s.questionRepo.Add(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// ReplaceAll swaps a draft exam's entire question list in one transaction.
func (s *QuestionService) ReplaceAll(ctx context.Context, examID uuid.UUID, req *model.ReplaceQuestionsRequest) ([]model.Question, error) {
	if err := s.requireDraft(ctx, examID); err != nil {
		return nil, err
	}

	questions := make([]model.Question, len(req.Questions))
	for i := range req.Questions {
		q, err := buildQuestion(&req.Questions[i])
		if err != nil {
			return nil, err
		}
		questions[i] = *q
	}

	if err := s.questionRepo.ReplaceAll(ctx, examID, questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// Delete removes one question from a draft exam.
func (s *QuestionService) Delete(ctx context.Context, examID, questionID uuid.UUID) error {
	if err := s.requireDraft(ctx, examID); err != nil {
		return err
	}
	return s.questionRepo.Delete(ctx, examID, questionID)
}

func (s *QuestionService) requireDraft(ctx context.Context, examID uuid.UUID) error {
	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return err
	}
	if exam.Status != model.ExamStatusDraft {
		return ErrExamNotDraft
	}
	return nil
}

// buildQuestion validates a question request against the kind invariants:
// MULTIPLE_CHOICE carries at least two choices and a 1-based CorrectChoice
// within range (or none, making it unscoreable); OPEN_ENDED carries neither.
func buildQuestion(req *model.AddQuestionRequest) (*model.Question, error) {
	kind := model.QuestionKind(req.Kind)

	switch kind {
	case model.QuestionKindMultipleChoice:
		if len(req.Choices) < 2 {
			return nil, ErrChoicesRequired
		}
		if req.CorrectChoice != nil && (*req.CorrectChoice < 1 || *req.CorrectChoice > len(req.Choices)) {
			return nil, ErrCorrectChoiceRange
		}
	case model.QuestionKindOpenEnded:
		if len(req.Choices) > 0 || req.CorrectChoice != nil {
			return nil, ErrChoicesNotAllowed
		}
	}

	return &model.Question{
		ID:            uuid.New(),
		Title:         req.Title,
		Description:   req.Description,
		Kind:          kind,
		Choices:       req.Choices,
		CorrectChoice: req.CorrectChoice,
	}, nil
}
