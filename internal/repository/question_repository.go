package repository

import (
	"context"

	"github.com/examhall/examhall-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuestionRepository handles question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListByExam retrieves an exam's questions in presentation order.
func (r *QuestionRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, exam_id, title, description, kind, choices, correct_choice, order_num
		 FROM questions WHERE exam_id = $1 ORDER BY order_num ASC`,
		examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.ExamID, &q.Title, &q.Description,
			&q.Kind, &q.Choices, &q.CorrectChoice, &q.OrderNum); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// Add appends a question at the end of an exam's question list.
func (r *QuestionRepository) Add(ctx context.Context, q *model.Question) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (id, exam_id, title, description, kind, choices, correct_choice, order_num)
		 VALUES ($1, $2, $3, $4, $5, $6, $7,
		         (SELECT COALESCE(MAX(order_num), 0) + 1 FROM questions WHERE exam_id = $2))
		 RETURNING order_num`,
		q.ID, q.ExamID, q.Title, q.Description, q.Kind, q.Choices, q.CorrectChoice,
	).Scan(&q.OrderNum)
}

// ReplaceAll atomically swaps an exam's full question list.
func (r *QuestionRepository) ReplaceAll(ctx context.Context, examID uuid.UUID, questions []model.Question) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE exam_id = $1`, examID); err != nil {
		return err
	}

	for i := range questions {
		q := &questions[i]
		q.ExamID = examID
		q.OrderNum = i + 1
		if q.ID == uuid.Nil {
			q.ID = uuid.New()
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO questions (id, exam_id, title, description, kind, choices, correct_choice, order_num)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			q.ID, q.ExamID, q.Title, q.Description, q.Kind, q.Choices, q.CorrectChoice, q.OrderNum,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// Delete removes a single question from an exam.
func (r *QuestionRepository) Delete(ctx context.Context, examID, questionID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM questions WHERE id = $1 AND exam_id = $2`,
		questionID, examID)
	return err
}
