package repository

import (
	"context"

	"github.com/examhall/examhall-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AssignmentRepository handles exam assignment data access.
type AssignmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssignmentRepository creates a new AssignmentRepository.
func NewAssignmentRepository(pool *pgxpool.Pool) *AssignmentRepository {
	return &AssignmentRepository{pool: pool}
}

// Assign attaches a set of takers to an exam. Re-assigning is a no-op.
func (r *AssignmentRepository) Assign(ctx context.Context, examID uuid.UUID, userIDs []int) error {
	for _, userID := range userIDs {
		if _, err := r.pool.Exec(ctx,
			`INSERT INTO exam_assignments (exam_id, user_id)
			 VALUES ($1, $2)
			 ON CONFLICT (exam_id, user_id) DO NOTHING`,
			examID, userID,
		); err != nil {
			return err
		}
	}
	return nil
}

// Unassign detaches a taker from an exam.
func (r *AssignmentRepository) Unassign(ctx context.Context, examID uuid.UUID, userID int) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM exam_assignments WHERE exam_id = $1 AND user_id = $2`,
		examID, userID)
	return err
}

// IsAssigned reports whether a taker is assigned to an exam.
func (r *AssignmentRepository) IsAssigned(ctx context.Context, examID uuid.UUID, userID int) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM exam_assignments WHERE exam_id = $1 AND user_id = $2)`,
		examID, userID,
	).Scan(&exists)
	return exists, err
}

// ListByExam retrieves the takers assigned to an exam.
func (r *AssignmentRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.AssignedUser, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT u.id, u.name, u.email, a.assigned_at
		 FROM exam_assignments a
		 JOIN users u ON u.id = a.user_id
		 WHERE a.exam_id = $1
		 ORDER BY u.name ASC`,
		examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.AssignedUser
	for rows.Next() {
		var u model.AssignedUser
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.AssignedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
