package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/examhall/examhall-backend/internal/config"
	"github.com/examhall/examhall-backend/internal/logger"
	"github.com/examhall/examhall-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// AutosaveWorker consumes persist_answers_queue and writes answer snapshots
// to PostgreSQL. Each item carries the full answers array, so replaying a
// stale item after a newer one is idempotent, and a completed attempt is
// never touched (the UPDATE is guarded on completed = FALSE).
type AutosaveWorker struct {
	attemptRepo *repository.AttemptRepository
	rdb         *redis.Client
	log         zerolog.Logger
}

// NewAutosaveWorker creates a new AutosaveWorker.
func NewAutosaveWorker(attemptRepo *repository.AttemptRepository, rdb *redis.Client, log zerolog.Logger) *AutosaveWorker {
	return &AutosaveWorker{
		attemptRepo: attemptRepo,
		rdb:         rdb,
		log:         logger.Component(log, "autosave_worker"),
	}
}

type answerPayload struct {
	UserID          int    `json:"user_id"`
	ExamID          string `json:"exam_id"`
	Answers         []int  `json:"answers"`
	CurrentQuestion int    `json:"current_question"`
}

// decodeAnswerPayload parses one queue item. A decode failure is permanent:
// the item can never persist, so callers drop it instead of requeueing.
func decodeAnswerPayload(raw string) (*answerPayload, uuid.UUID, error) {
	var payload answerPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, uuid.Nil, err
	}
	examID, err := uuid.Parse(payload.ExamID)
	if err != nil {
		return nil, uuid.Nil, err
	}
	return &payload, examID, nil
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *AutosaveWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			// Drain remaining items before exit.
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *AutosaveWorker) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or timeout (1 second).
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.PersistAnswersQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}

	if len(result) < 2 {
		return
	}

	payload, examID, err := decodeAnswerPayload(result[1])
	if err != nil {
		w.log.Error().Err(err).Msg("Dropping undecodable item")
		return
	}

	if err := w.attemptRepo.UpdateAnswers(ctx, payload.UserID, examID, payload.Answers, payload.CurrentQuestion); err != nil {
		w.log.Error().Err(err).
			Int("user_id", payload.UserID).
			Str("exam_id", payload.ExamID).
			Msg("Persist error, retrying in 5s")
		// Only persistence failures go back on the queue; they can succeed
		// once the database recovers.
		w.rdb.RPush(ctx, config.WorkerKey.PersistAnswersQueue, result[1])
		time.Sleep(5 * time.Second)
	}
}

// drain processes all remaining items in the queue before shutdown.
func (w *AutosaveWorker) drain(ctx context.Context) {
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, config.WorkerKey.PersistAnswersQueue).Result()
		if err != nil {
			break
		}

		payload, examID, err := decodeAnswerPayload(result)
		if err != nil {
			w.log.Error().Err(err).Msg("Dropping undecodable item")
			continue
		}

		if err := w.attemptRepo.UpdateAnswers(ctx, payload.UserID, examID, payload.Answers, payload.CurrentQuestion); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error")
			w.rdb.RPush(ctx, config.WorkerKey.PersistAnswersQueue, result)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
