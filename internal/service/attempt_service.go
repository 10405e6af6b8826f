package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/examhall/examhall-backend/internal/config"
	"github.com/examhall/examhall-backend/internal/examsession"
	"github.com/examhall/examhall-backend/internal/logger"
	"github.com/examhall/examhall-backend/internal/model"
	"github.com/examhall/examhall-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Attempt flow errors.
var (
	ErrNotAssigned       = errors.New("exam is not assigned to this user")
	ErrAttemptNotStarted = errors.New("attempt has not been started")
	ErrAttemptNotDone    = errors.New("attempt is not completed yet")
)

// AttemptState is the live view of one attempt returned to the taker UI.
// RemainingSeconds is nil for exams without a time limit.
type AttemptState struct {
	State            string     `json:"state"`
	Answers          []int      `json:"answers"`
	CurrentQuestion  int        `json:"current_question"`
	RemainingSeconds *int       `json:"remaining_seconds,omitempty"`
	StartedAt        time.Time  `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	ScorePercent     *int       `json:"score_percent,omitempty"`
}

// autosavePayload is the queue item consumed by the autosave worker.
type autosavePayload struct {
	UserID          int    `json:"user_id"`
	ExamID          string `json:"exam_id"`
	Answers         []int  `json:"answers"`
	CurrentQuestion int    `json:"current_question"`
}

// AttemptService orchestrates the taker exam flow: assignment checks, the
// live session registry, answer autosaving, and result reads.
type AttemptService struct {
	manager        *examsession.Manager
	attemptRepo    *repository.AttemptRepository
	assignmentRepo *repository.AssignmentRepository
	examSvc        *ExamService
	rdb            *redis.Client
	log            zerolog.Logger
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(
	manager *examsession.Manager,
	attemptRepo *repository.AttemptRepository,
	assignmentRepo *repository.AssignmentRepository,
	examSvc *ExamService,
	rdb *redis.Client,
	log zerolog.Logger,
) *AttemptService {
	return &AttemptService{
		manager:        manager,
		attemptRepo:    attemptRepo,
		assignmentRepo: assignmentRepo,
		examSvc:        examSvc,
		rdb:            rdb,
		log:            logger.Component(log, "attempt_service"),
	}
}

// StartOrResume opens a session for (userID, examID). A saved open attempt is
// resumed with its answers and cursor intact; a saved completed attempt lands
// in SUBMITTED; otherwise a fresh attempt is persisted and started.
func (s *AttemptService) StartOrResume(ctx context.Context, userID int, examID uuid.UUID) (*AttemptState, error) {
	assigned, err := s.assignmentRepo.IsAssigned(ctx, examID, userID)
	if err != nil {
		return nil, err
	}
	if !assigned {
		return nil, ErrNotAssigned
	}

	def, err := s.definition(ctx, examID)
	if err != nil {
		return nil, err
	}

	if sess := s.manager.Get(userID, examID); sess != nil {
		return s.stateOf(sess), nil
	}

	saved, err := s.attemptRepo.GetByUserAndExam(ctx, userID, examID)
	switch {
	case err == nil:
		sess, err := s.manager.Resume(ctx, saved, def)
		if err != nil {
			return nil, err
		}
		return s.stateOf(sess), nil
	case errors.Is(err, pgx.ErrNoRows):
		sess, err := s.manager.Start(ctx, def, userID)
		if err != nil {
			return nil, err
		}
		return s.stateOf(sess), nil
	default:
		return nil, err
	}
}

// GetState returns the live state of an attempt, reattaching the session
// from the saved attempt after a server restart.
func (s *AttemptService) GetState(ctx context.Context, userID int, examID uuid.UUID) (*AttemptState, error) {
	sess, err := s.session(ctx, userID, examID)
	if err != nil {
		return nil, err
	}
	return s.stateOf(sess), nil
}

// SelectAnswer records one answer on the live session and enqueues an
// autosave so the selection survives a crash.
func (s *AttemptService) SelectAnswer(ctx context.Context, userID int, examID uuid.UUID, req *model.SelectAnswerRequest) (*AttemptState, error) {
	sess, err := s.session(ctx, userID, examID)
	if err != nil {
		return nil, err
	}

	if err := sess.SelectAnswer(req.QuestionIndex, req.ChoiceIndex); err != nil {
		return nil, err
	}

	s.enqueueAutosave(ctx, userID, examID, sess)
	return s.stateOf(sess), nil
}

// Navigate moves the current-question cursor by a signed delta, clamped to
// the question range.
func (s *AttemptService) Navigate(ctx context.Context, userID int, examID uuid.UUID, req *model.NavigateRequest) (*AttemptState, error) {
	sess, err := s.session(ctx, userID, examID)
	if err != nil {
		return nil, err
	}

	if _, err := sess.Navigate(req.Delta); err != nil {
		return nil, err
	}

	s.enqueueAutosave(ctx, userID, examID, sess)
	return s.stateOf(sess), nil
}

// Submit finalizes the attempt on user action. The session stays registered
// so a follow-up state read sees SUBMITTED without a DB round trip.
func (s *AttemptService) Submit(ctx context.Context, userID int, examID uuid.UUID) (*AttemptState, error) {
	sess, err := s.session(ctx, userID, examID)
	if err != nil {
		return nil, err
	}

	if err := sess.Submit(ctx, false); err != nil {
		return nil, err
	}

	s.log.Info().
		Int("user_id", userID).
		Str("exam_id", examID.String()).
		Msg("Attempt submitted")
	return s.stateOf(sess), nil
}

// GetResult reads a finished attempt from the database.
func (s *AttemptService) GetResult(ctx context.Context, userID int, examID uuid.UUID) (*model.ExamAttempt, error) {
	attempt, err := s.attemptRepo.GetByUserAndExam(ctx, userID, examID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAttemptNotStarted
		}
		return nil, err
	}
	if !attempt.Completed {
		return nil, ErrAttemptNotDone
	}
	return attempt, nil
}

// ListResults retrieves the org-facing results table for one exam.
func (s *AttemptService) ListResults(ctx context.Context, examID uuid.UUID, page, limit int) ([]model.AttemptResult, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if page <= 0 {
		page = 1
	}
	return s.attemptRepo.ListByExam(ctx, examID, limit, (page-1)*limit)
}

// session returns the live session, rebuilding it from the saved attempt if
// the process restarted since the taker started.
func (s *AttemptService) session(ctx context.Context, userID int, examID uuid.UUID) (*examsession.Session, error) {
	if sess := s.manager.Get(userID, examID); sess != nil {
		return sess, nil
	}

	saved, err := s.attemptRepo.GetByUserAndExam(ctx, userID, examID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAttemptNotStarted
		}
		return nil, err
	}

	def, err := s.definition(ctx, examID)
	if err != nil {
		return nil, err
	}
	return s.manager.Resume(ctx, saved, def)
}

func (s *AttemptService) definition(ctx context.Context, examID uuid.UUID) (examsession.Definition, error) {
	exam, err := s.examSvc.Get(ctx, examID)
	if err != nil {
		return examsession.Definition{}, err
	}
	if exam.Status != model.ExamStatusPublished {
		return examsession.Definition{}, ErrExamNotPublished
	}

	questions, err := s.examSvc.GetQuestions(ctx, examID)
	if err != nil {
		return examsession.Definition{}, err
	}
	return examsession.Definition{Exam: exam, Questions: questions}, nil
}

func (s *AttemptService) stateOf(sess *examsession.Session) *AttemptState {
	attempt := sess.Attempt()
	state := &AttemptState{
		State:           sess.State().String(),
		Answers:         attempt.Answers,
		CurrentQuestion: attempt.CurrentQuestion,
		StartedAt:       attempt.StartedAt,
		CompletedAt:     attempt.CompletedAt,
		ScorePercent:    attempt.ScorePercent,
	}
	if remaining, limited := sess.Remaining(); limited && !attempt.Completed {
		secs := int(remaining / time.Second)
		state.RemainingSeconds = &secs
	}
	return state
}

// enqueueAutosave pushes the current answers to the persist queue. Losing an
// autosave only loses the delta since the last one; submit persists
// synchronously.
func (s *AttemptService) enqueueAutosave(ctx context.Context, userID int, examID uuid.UUID, sess *examsession.Session) {
	attempt := sess.Attempt()
	payload, err := json.Marshal(autosavePayload{
		UserID:          userID,
		ExamID:          examID.String(),
		Answers:         attempt.Answers,
		CurrentQuestion: attempt.CurrentQuestion,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("Marshal autosave payload failed")
		return
	}

	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistAnswersQueue, payload).Err(); err != nil {
		s.log.Error().Err(err).
			Int("user_id", userID).
			Str("exam_id", examID.String()).
			Msg("Autosave enqueue failed")
	}
}
