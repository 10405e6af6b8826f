package worker

import (
	"context"
	"time"

	"github.com/examhall/examhall-backend/internal/examsession"
	"github.com/examhall/examhall-backend/internal/logger"
	"github.com/examhall/examhall-backend/internal/model"
	"github.com/examhall/examhall-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ExpiryBatchSize caps how many expired attempts one sweep finalizes.
const ExpiryBatchSize = 200

// ExpiryWorker periodically force-completes attempts whose time limit ran
// out while no live session was around to do it (server restart, taker gone
// offline). Attempts held by a live session are finalized by the in-process
// countdown first; the sweep only catches what that misses, and the
// completed-row guard makes the overlap harmless.
type ExpiryWorker struct {
	attemptRepo  *repository.AttemptRepository
	questionRepo *repository.QuestionRepository
	interval     time.Duration
	log          zerolog.Logger
}

// NewExpiryWorker creates a new ExpiryWorker sweeping at the given interval.
func NewExpiryWorker(attemptRepo *repository.AttemptRepository, questionRepo *repository.QuestionRepository, interval time.Duration, log zerolog.Logger) *ExpiryWorker {
	return &ExpiryWorker{
		attemptRepo:  attemptRepo,
		questionRepo: questionRepo,
		interval:     interval,
		log:          logger.Component(log, "expiry_worker"),
	}
}

// Start begins the sweep loop. Call in a goroutine.
func (w *ExpiryWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("Worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ExpiryWorker) sweep(ctx context.Context) {
	expired, err := w.attemptRepo.ListExpired(ctx, ExpiryBatchSize)
	if err != nil {
		w.log.Error().Err(err).Msg("List expired attempts failed")
		return
	}
	if len(expired) == 0 {
		return
	}

	// Score each attempt against its exam's answer key. Question lists are
	// fetched once per exam within a sweep.
	questionsByExam := make(map[uuid.UUID][]model.Question)
	scored := make([]model.ExamAttempt, 0, len(expired))
	now := time.Now()

	for _, attempt := range expired {
		questions, ok := questionsByExam[attempt.ExamID]
		if !ok {
			questions, err = w.questionRepo.ListByExam(ctx, attempt.ExamID)
			if err != nil {
				w.log.Error().Err(err).
					Str("exam_id", attempt.ExamID.String()).
					Msg("Load questions failed, skipping exam this sweep")
				continue
			}
			questionsByExam[attempt.ExamID] = questions
		}

		score := examsession.Score(questions, attempt.Answers)
		attempt.Completed = true
		attempt.CompletedAt = &now
		attempt.ScorePercent = &score
		scored = append(scored, attempt)
	}

	if len(scored) == 0 {
		return
	}

	if err := w.attemptRepo.BulkComplete(ctx, scored); err != nil {
		w.log.Warn().Err(err).Msg("Bulk complete failed, using fallback")
		for i := range scored {
			if err := w.attemptRepo.Upsert(ctx, &scored[i]); err != nil {
				w.log.Error().Err(err).
					Int("user_id", scored[i].UserID).
					Str("exam_id", scored[i].ExamID.String()).
					Msg("Fallback complete failed")
			}
		}
		return
	}

	w.log.Info().Int("count", len(scored)).Msg("Force-completed expired attempts")
}
