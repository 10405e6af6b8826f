package repository

import (
	"context"

	"github.com/examhall/examhall-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AttemptRepository handles exam attempt data access.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// int4[] columns round-trip through int32.
func answersToDB(answers []int) []int32 {
	out := make([]int32, len(answers))
	for i, a := range answers {
		out[i] = int32(a)
	}
	return out
}

func answersFromDB(raw []int32) []int {
	out := make([]int, len(raw))
	for i, a := range raw {
		out[i] = int(a)
	}
	return out
}

func scanAttempt(row interface{ Scan(...any) error }) (*model.ExamAttempt, error) {
	a := &model.ExamAttempt{}
	var rawAnswers []int32
	err := row.Scan(&a.UserID, &a.ExamID, &rawAnswers, &a.CurrentQuestion,
		&a.Completed, &a.StartedAt, &a.CompletedAt, &a.ScorePercent)
	if err != nil {
		return nil, err
	}
	a.Answers = answersFromDB(rawAnswers)
	return a, nil
}

const attemptColumns = `user_id, exam_id, answers, current_question, completed, started_at, completed_at, score_percent`

// GetByUserAndExam retrieves a taker's attempt for one exam.
func (r *AttemptRepository) GetByUserAndExam(ctx context.Context, userID int, examID uuid.UUID) (*model.ExamAttempt, error) {
	return scanAttempt(r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM exam_attempts
		 WHERE user_id = $1 AND exam_id = $2`,
		userID, examID))
}

// Upsert writes an attempt keyed by (user_id, exam_id). A row that is already
// completed is never overwritten; forced and manual submits race through here
// and the first one wins.
func (r *AttemptRepository) Upsert(ctx context.Context, a *model.ExamAttempt) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO exam_attempts (user_id, exam_id, answers, current_question, completed, started_at, completed_at, score_percent)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (user_id, exam_id) DO UPDATE
		 SET answers = EXCLUDED.answers,
		     current_question = EXCLUDED.current_question,
		     completed = EXCLUDED.completed,
		     completed_at = EXCLUDED.completed_at,
		     score_percent = EXCLUDED.score_percent
		 WHERE exam_attempts.completed = FALSE`,
		a.UserID, a.ExamID, answersToDB(a.Answers), a.CurrentQuestion,
		a.Completed, a.StartedAt, a.CompletedAt, a.ScorePercent)
	return err
}

// UpdateAnswers persists autosaved answers and cursor for an open attempt.
func (r *AttemptRepository) UpdateAnswers(ctx context.Context, userID int, examID uuid.UUID, answers []int, currentQuestion int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exam_attempts
		 SET answers = $1, current_question = $2
		 WHERE user_id = $3 AND exam_id = $4 AND completed = FALSE`,
		answersToDB(answers), currentQuestion, userID, examID)
	return err
}

// ListByExam retrieves all attempts for an exam joined with taker identity,
// for the org results view.
func (r *AttemptRepository) ListByExam(ctx context.Context, examID uuid.UUID, limit, offset int) ([]model.AttemptResult, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM exam_attempts WHERE exam_id = $1`, examID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT a.user_id, u.name, u.email, a.completed, a.started_at, a.completed_at, a.score_percent
		 FROM exam_attempts a
		 JOIN users u ON u.id = a.user_id
		 WHERE a.exam_id = $1
		 ORDER BY a.started_at DESC LIMIT $2 OFFSET $3`,
		examID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []model.AttemptResult
	for rows.Next() {
		var res model.AttemptResult
		if err := rows.Scan(&res.UserID, &res.UserName, &res.UserEmail,
			&res.Completed, &res.StartedAt, &res.CompletedAt, &res.ScorePercent); err != nil {
			return nil, 0, err
		}
		results = append(results, res)
	}
	return results, total, rows.Err()
}

// ListExpired finds open attempts whose time limit has passed, for the
// expiry sweep.
func (r *AttemptRepository) ListExpired(ctx context.Context, limit int) ([]model.ExamAttempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT a.user_id, a.exam_id, a.answers, a.current_question, a.completed, a.started_at, a.completed_at, a.score_percent
		 FROM exam_attempts a
		 JOIN exams e ON e.id = a.exam_id
		 WHERE a.completed = FALSE
		   AND e.time_limit_minutes IS NOT NULL
		   AND a.started_at + make_interval(mins => e.time_limit_minutes) < NOW()
		 LIMIT $1`,
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []model.ExamAttempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, *a)
	}
	return attempts, rows.Err()
}

// BulkComplete finalizes a batch of attempts in one statement. Each attempt
// must already carry its CompletedAt and ScorePercent.
func (r *AttemptRepository) BulkComplete(ctx context.Context, attempts []model.ExamAttempt) error {
	if len(attempts) == 0 {
		return nil
	}

	userIDs := make([]int32, len(attempts))
	examIDs := make([]uuid.UUID, len(attempts))
	scores := make([]*int32, len(attempts))
	for i, a := range attempts {
		userIDs[i] = int32(a.UserID)
		examIDs[i] = a.ExamID
		if a.ScorePercent != nil {
			s := int32(*a.ScorePercent)
			scores[i] = &s
		}
	}

	_, err := r.pool.Exec(ctx,
		`UPDATE exam_attempts a
		 SET completed = TRUE, completed_at = NOW(), score_percent = v.score
		 FROM (SELECT UNNEST($1::int4[]) AS user_id,
		              UNNEST($2::uuid[]) AS exam_id,
		              UNNEST($3::int4[]) AS score) v
		 WHERE a.user_id = v.user_id AND a.exam_id = v.exam_id AND a.completed = FALSE`,
		userIDs, examIDs, scores)
	return err
}
