package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/examhall/examhall-backend/internal/config"
	"github.com/examhall/examhall-backend/internal/logger"
	"github.com/examhall/examhall-backend/internal/model"
	"github.com/examhall/examhall-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Exam lifecycle errors.
var (
	ErrExamNotDraft       = errors.New("exam is not in draft status")
	ErrExamNotPublished   = errors.New("exam is not published")
	ErrExamHasNoQuestions = errors.New("exam has no questions")
)

// payloadCacheTTL bounds how long a published exam's payload lives in Redis.
// Published exams are immutable, so a long TTL is safe; the DB remains the
// source of truth on a miss.
const payloadCacheTTL = 24 * time.Hour

// ExamService handles exam lifecycle and the Redis payload cache that keeps
// exam starts off the database during a session rush.
type ExamService struct {
	examRepo     *repository.ExamRepository
	questionRepo *repository.QuestionRepository
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(examRepo *repository.ExamRepository, questionRepo *repository.QuestionRepository, rdb *redis.Client, log zerolog.Logger) *ExamService {
	return &ExamService{
		examRepo:     examRepo,
		questionRepo: questionRepo,
		rdb:          rdb,
		log:          logger.Component(log, "exam_service"),
	}
}

// Get retrieves one exam.
func (s *ExamService) Get(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	return s.examRepo.GetByID(ctx, id)
}

// ListByOrg retrieves an organization's exams, newest first.
func (s *ExamService) ListByOrg(ctx context.Context, orgID, page, limit int) ([]model.Exam, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if page <= 0 {
		page = 1
	}
	return s.examRepo.ListByOrgPaginated(ctx, orgID, limit, (page-1)*limit)
}

// ListAssignedToUser retrieves the published exams a taker can see.
func (s *ExamService) ListAssignedToUser(ctx context.Context, userID int) ([]model.Exam, error) {
	return s.examRepo.ListAssignedToUser(ctx, userID)
}

// Create registers a new draft exam owned by the author's organization.
func (s *ExamService) Create(ctx context.Context, orgID, authorID int, req *model.CreateExamRequest) (*model.Exam, error) {
	exam := &model.Exam{
		ID:                  uuid.New(),
		OrgID:               orgID,
		AuthorID:            authorID,
		Title:               req.Title,
		Description:         req.Description,
		TimeLimitMinutes:    req.TimeLimitMinutes,
		PassingScorePercent: req.PassingScorePercent,
		Status:              model.ExamStatusDraft,
	}
	if err := s.examRepo.Create(ctx, exam); err != nil {
		return nil, err
	}
	return exam, nil
}

// Update modifies a draft exam's metadata. Published and archived exams are
// frozen.
func (s *ExamService) Update(ctx context.Context, id uuid.UUID, req *model.UpdateExamRequest) (*model.Exam, error) {
	exam, err := s.examRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if exam.Status != model.ExamStatusDraft {
		return nil, ErrExamNotDraft
	}

	if req.Title != "" {
		exam.Title = req.Title
	}
	if req.Description != "" {
		exam.Description = req.Description
	}
	if req.TimeLimitMinutes != nil {
		exam.TimeLimitMinutes = req.TimeLimitMinutes
	}
	if req.PassingScorePercent != nil {
		exam.PassingScorePercent = req.PassingScorePercent
	}

	if err := s.examRepo.Update(ctx, exam); err != nil {
		return nil, err
	}
	return exam, nil
}

// Publish transitions a draft exam to PUBLISHED and warms the Redis caches so
// takers can start without touching PostgreSQL. An exam with no questions
// cannot be published.
func (s *ExamService) Publish(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	exam, err := s.examRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if exam.Status != model.ExamStatusDraft {
		return nil, ErrExamNotDraft
	}

	questions, err := s.questionRepo.ListByExam(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, ErrExamHasNoQuestions
	}

	if err := s.examRepo.UpdateStatus(ctx, id, model.ExamStatusPublished); err != nil {
		return nil, err
	}
	exam.Status = model.ExamStatusPublished

	// Cache warming is best-effort; a miss falls back to the database.
	if err := s.warmCaches(ctx, exam, questions); err != nil {
		s.log.Warn().Err(err).Str("exam_id", id.String()).Msg("Cache warm failed")
	}

	return exam, nil
}

// Archive retires a published exam and drops its caches. Existing attempts
// and results stay readable.
func (s *ExamService) Archive(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	exam, err := s.examRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if exam.Status != model.ExamStatusPublished {
		return nil, ErrExamNotPublished
	}

	if err := s.examRepo.UpdateStatus(ctx, id, model.ExamStatusArchived); err != nil {
		return nil, err
	}
	exam.Status = model.ExamStatusArchived
	s.invalidateCaches(ctx, id)
	return exam, nil
}

// Delete removes a draft exam.
func (s *ExamService) Delete(ctx context.Context, id uuid.UUID) error {
	exam, err := s.examRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if exam.Status != model.ExamStatusDraft {
		return ErrExamNotDraft
	}
	return s.examRepo.Delete(ctx, id)
}

// GetTakerPayload returns the answer-stripped paper for a published exam,
// served from Redis when warm.
func (s *ExamService) GetTakerPayload(ctx context.Context, examID uuid.UUID) (*model.ExamPayload, error) {
	key := config.CacheKey.ExamPayloadKey(examID.String())

	cached, err := s.rdb.Get(ctx, key).Result()
	if err == nil {
		payload := &model.ExamPayload{}
		if err := json.Unmarshal([]byte(cached), payload); err == nil {
			return payload, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Msg("Payload cache read failed")
	}

	exam, questions, err := s.loadPublished(ctx, examID)
	if err != nil {
		return nil, err
	}
	if err := s.warmCaches(ctx, exam, questions); err != nil {
		s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Cache warm failed")
	}
	return buildPayload(exam, questions), nil
}

// GetQuestions returns a published exam's full question list including
// correct choices, served from the answer-key cache when warm. Server-side
// use only.
func (s *ExamService) GetQuestions(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	key := config.CacheKey.ExamAnswerKeyKey(examID.String())

	cached, err := s.rdb.Get(ctx, key).Result()
	if err == nil {
		var questions []model.Question
		if err := json.Unmarshal([]byte(cached), &questions); err == nil {
			return questions, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Msg("Answer key cache read failed")
	}

	exam, questions, err := s.loadPublished(ctx, examID)
	if err != nil {
		return nil, err
	}
	if err := s.warmCaches(ctx, exam, questions); err != nil {
		s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Cache warm failed")
	}
	return questions, nil
}

func (s *ExamService) loadPublished(ctx context.Context, examID uuid.UUID) (*model.Exam, []model.Question, error) {
	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return nil, nil, err
	}
	if exam.Status != model.ExamStatusPublished {
		return nil, nil, ErrExamNotPublished
	}
	questions, err := s.questionRepo.ListByExam(ctx, examID)
	if err != nil {
		return nil, nil, err
	}
	return exam, questions, nil
}

func (s *ExamService) warmCaches(ctx context.Context, exam *model.Exam, questions []model.Question) error {
	examID := exam.ID.String()

	payloadJSON, err := json.Marshal(buildPayload(exam, questions))
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	if err := s.rdb.Set(ctx, config.CacheKey.ExamPayloadKey(examID), payloadJSON, payloadCacheTTL).Err(); err != nil {
		return fmt.Errorf("cache payload: %w", err)
	}

	keyJSON, err := json.Marshal(questions)
	if err != nil {
		return fmt.Errorf("marshal answer key: %w", err)
	}
	if err := s.rdb.Set(ctx, config.CacheKey.ExamAnswerKeyKey(examID), keyJSON, payloadCacheTTL).Err(); err != nil {
		return fmt.Errorf("cache answer key: %w", err)
	}

	return nil
}

func (s *ExamService) invalidateCaches(ctx context.Context, examID uuid.UUID) {
	id := examID.String()
	if err := s.rdb.Del(ctx, config.CacheKey.ExamPayloadKey(id), config.CacheKey.ExamAnswerKeyKey(id)).Err(); err != nil {
		s.log.Warn().Err(err).Str("exam_id", id).Msg("Cache invalidation failed")
	}
}

func buildPayload(exam *model.Exam, questions []model.Question) *model.ExamPayload {
	payload := &model.ExamPayload{
		ExamID:           exam.ID,
		Title:            exam.Title,
		Description:      exam.Description,
		TimeLimitMinutes: exam.TimeLimitMinutes,
		Questions:        make([]model.QuestionForTaker, len(questions)),
	}
	for i, q := range questions {
		payload.Questions[i] = model.QuestionForTaker{
			ID:          q.ID,
			Title:       q.Title,
			Description: q.Description,
			Kind:        q.Kind,
			Choices:     q.Choices,
			OrderNum:    q.OrderNum,
		}
	}
	return payload
}
