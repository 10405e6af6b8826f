package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamStatus enumerates the possible states of an exam definition.
type ExamStatus string

const (
	ExamStatusDraft     ExamStatus = "DRAFT"
	ExamStatusPublished ExamStatus = "PUBLISHED"
	ExamStatusArchived  ExamStatus = "ARCHIVED"
)

// Exam represents an exam definition.
type Exam struct {
	ID                  uuid.UUID  `json:"id"`
	OrgID               int        `json:"org_id"`
	AuthorID            int        `json:"author_id"`
	Title               string     `json:"title"`
	Description         string     `json:"description"`
	TimeLimitMinutes    *int       `json:"time_limit_minutes,omitempty"`
	PassingScorePercent *int       `json:"passing_score_percent,omitempty"`
	Status              ExamStatus `json:"status"`
	QuestionCount       int        `json:"question_count"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// CreateExamRequest is the payload for creating a new exam.
type CreateExamRequest struct {
	Title               string `json:"title" binding:"required,min=3,max=255"`
	Description         string `json:"description" binding:"omitempty,max=2000"`
	TimeLimitMinutes    *int   `json:"time_limit_minutes" binding:"omitempty,min=1,max=480"`
	PassingScorePercent *int   `json:"passing_score_percent" binding:"omitempty,min=0,max=100"`
}

// UpdateExamRequest is the payload for updating an existing draft exam.
type UpdateExamRequest struct {
	Title               string `json:"title" binding:"omitempty,min=3,max=255"`
	Description         string `json:"description" binding:"omitempty,max=2000"`
	TimeLimitMinutes    *int   `json:"time_limit_minutes" binding:"omitempty,min=1,max=480"`
	PassingScorePercent *int   `json:"passing_score_percent" binding:"omitempty,min=0,max=100"`
}

// ExamPayload is the Redis-cached payload sent to takers (no correct answers).
type ExamPayload struct {
	ExamID           uuid.UUID          `json:"exam_id"`
	Title            string             `json:"title"`
	Description      string             `json:"description"`
	TimeLimitMinutes *int               `json:"time_limit_minutes,omitempty"`
	Questions        []QuestionForTaker `json:"questions"`
}

// QuestionForTaker is a question without the correct answer, sent to takers.
type QuestionForTaker struct {
	ID          uuid.UUID    `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Kind        QuestionKind `json:"kind"`
	Choices     []string     `json:"choices,omitempty"`
	OrderNum    int          `json:"order_num"`
}
