package model

import (
	"time"

	"github.com/google/uuid"
)

// UnansweredChoice marks a question with no selected answer.
const UnansweredChoice = -1

// ExamAttempt is one user's record of taking one exam. Answers is sized to
// the exam's question count; each entry is UnansweredChoice or a 0-based
// choice index. At most one non-completed attempt exists per (UserID, ExamID);
// the repository enforces this with upsert-by-key semantics.
type ExamAttempt struct {
	UserID          int        `json:"user_id"`
	ExamID          uuid.UUID  `json:"exam_id"`
	Answers         []int      `json:"answers"`
	CurrentQuestion int        `json:"current_question"`
	Completed       bool       `json:"completed"`
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	ScorePercent    *int       `json:"score_percent,omitempty"`
}

// NewExamAttempt allocates a fresh in-progress attempt with every answer
// unanswered.
func NewExamAttempt(userID int, examID uuid.UUID, questionCount int, startedAt time.Time) *ExamAttempt {
	answers := make([]int, questionCount)
	for i := range answers {
		answers[i] = UnansweredChoice
	}
	return &ExamAttempt{
		UserID:    userID,
		ExamID:    examID,
		Answers:   answers,
		StartedAt: startedAt,
	}
}

// AttemptResult is one row of the org-facing results view for an exam.
type AttemptResult struct {
	UserID       int        `json:"user_id"`
	UserName     string     `json:"user_name"`
	UserEmail    string     `json:"user_email"`
	Completed    bool       `json:"completed"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	ScorePercent *int       `json:"score_percent,omitempty"`
}

// SelectAnswerRequest is the payload for recording one answer selection.
type SelectAnswerRequest struct {
	QuestionIndex int `json:"question_index" binding:"min=0"`
	ChoiceIndex   int `json:"choice_index" binding:"min=0"`
}

// NavigateRequest moves the current-question cursor by a signed delta.
type NavigateRequest struct {
	Delta int `json:"delta" binding:"required"`
}
