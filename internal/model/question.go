package model

import (
	"github.com/google/uuid"
)

// QuestionKind enumerates supported question types.
type QuestionKind string

const (
	QuestionKindMultipleChoice QuestionKind = "MULTIPLE_CHOICE"
	QuestionKindOpenEnded      QuestionKind = "OPEN_ENDED"
)

// Question represents a single exam question.
//
// Invariant: OPEN_ENDED questions carry no Choices and no CorrectChoice and
// are never auto-scored. For MULTIPLE_CHOICE, CorrectChoice is 1-based into
// Choices; a nil CorrectChoice means the question is not auto-scorable.
type Question struct {
	ID            uuid.UUID    `json:"id"`
	ExamID        uuid.UUID    `json:"exam_id"`
	Title         string       `json:"title"`
	Description   string       `json:"description,omitempty"`
	Kind          QuestionKind `json:"kind"`
	Choices       []string     `json:"choices,omitempty"`
	CorrectChoice *int         `json:"correct_choice,omitempty"`
	OrderNum      int          `json:"order_num"`
}

// AddQuestionRequest is the payload for adding a question to an exam. Order
// is assigned server-side: single adds append, bulk replaces renumber by
// position.
type AddQuestionRequest struct {
	Title         string   `json:"title" binding:"required,min=1,max=2000"`
	Description   string   `json:"description" binding:"omitempty,max=4000"`
	Kind          string   `json:"kind" binding:"required,oneof=MULTIPLE_CHOICE OPEN_ENDED"`
	Choices       []string `json:"choices" binding:"omitempty,dive,min=1,max=500"`
	CorrectChoice *int     `json:"correct_choice" binding:"omitempty,min=1"`
}

// ReplaceQuestionsRequest is the payload for bulk replacing an exam's questions.
type ReplaceQuestionsRequest struct {
	Questions []AddQuestionRequest `json:"questions" binding:"dive"`
}
